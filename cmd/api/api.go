package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/checkoutlab/hips-checkout/internal/auth"
	"github.com/checkoutlab/hips-checkout/internal/checkout"
	"github.com/checkoutlab/hips-checkout/internal/hips"
	"github.com/checkoutlab/hips-checkout/internal/metrics"
	"github.com/checkoutlab/hips-checkout/internal/store"
	"github.com/checkoutlab/hips-checkout/internal/store/cache"
	"github.com/checkoutlab/hips-checkout/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type application struct {
	cfg             config
	logger          *zap.SugaredLogger
	store           *store.Storage
	cacheStore      *cache.Storage
	authToken       auth.AuthToken
	hipsClient      *hips.Client
	registry        *checkout.Registry
	reconciler      *checkout.Reconciler
	taskDistributor worker.TaskDistributor
	metrics         *metrics.Checkout
	promRegistry    *prometheus.Registry
	wg              sync.WaitGroup
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string

	db        dbConfig
	redisCfg  redisConfig
	auth      authConfig
	hips      hipsConfig
	merchant  checkout.MerchantConfig
	cart      cartConfig
	rateLimit rateLimitConfig
	mail      mailConfig
}

type dbConfig struct {
	dsn          string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

type authConfig struct {
	AccessSecretKey   string
	AccessExpiry      time.Duration
	AccesssCookieName string
	SessionCookieName string
}

type hipsConfig struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	timeout       time.Duration
	sessionTTL    time.Duration
}

// cartConfig mirrors the store-level tax and measurement settings the
// snapshot builder reads alongside the cart rows.
type cartConfig struct {
	taxEnabled       bool
	pricesIncludeTax bool
	weightUnit       string
}

type rateLimitConfig struct {
	checkoutLimit int64
	webhookLimit  int64
	period        time.Duration
}

type mailConfig struct {
	fromEmail       string
	smtpAddr        string
	smtpSandboxAddr string
	smtpPort        int
	username        string
	password        string
	isSandbox       bool
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.cfg.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-ID", hips.SignatureHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	checkoutLimiter, webhookLimiter := app.buildRateLimiters()

	r.Get("/v1/healthcheck", app.healthcheckHandler)
	r.Handle("/metrics", promhttp.HandlerFor(app.promRegistry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(app.AuthMiddleware)

		r.With(checkoutLimiter.Handler).Post("/v1/checkout", app.createCheckoutHandler)
		r.Get("/v1/checkout/return", app.checkoutReturnHandler)
		r.Get("/v1/orders/received/{orderKey}", app.orderReceivedHandler)

		r.With(webhookLimiter.Handler).Post("/v1/webhooks/hips", app.hipsWebhookHandler)
	})

	return r
}

func (app *application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	app.successResponse(w, http.StatusOK, envelope{
		"status":      "available",
		"environment": app.cfg.env,
	})
}

func (app *application) serve() error {
	srv := &http.Server{
		Addr:    app.cfg.addr,
		Handler: app.routes(),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		s := <-quit

		app.logger.Infow("caught signal", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			shutdownError <- err
		}

		app.logger.Infow("completing background tasks", "addr", app.cfg.addr)
		app.wg.Wait()
		shutdownError <- nil
	}()

	app.logger.Infow("server has started", "addr", app.cfg.addr, "env", app.cfg.env)
	err := srv.ListenAndServe()

	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.cfg.addr, "env", app.cfg.env)
	return nil
}
