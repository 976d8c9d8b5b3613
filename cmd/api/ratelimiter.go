package main

import (
	"net/http"

	"github.com/checkoutlab/hips-checkout/internal/ratelimiter"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

func ipBaseRateLimiterGetter(r *http.Request) string {
	return r.RemoteAddr
}

// buildRateLimiters guards the two write paths: checkout creation (browser
// driven) and the webhook endpoint (provider driven, but exposed to the open
// internet). Both are keyed by client IP; RealIP middleware runs first.
func (app *application) buildRateLimiters() (checkoutLimiter, webhookLimiter *stdlib.Middleware) {
	limitReached := stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
		app.rateLimitExceededResponse(w)
	})

	checkoutLimiter = ratelimiter.NewMemoryRateLimit(
		app.cfg.rateLimit.checkoutLimit,
		app.cfg.rateLimit.period,
		ipBaseRateLimiterGetter,
		limitReached,
	)

	webhookLimiter = ratelimiter.NewMemoryRateLimit(
		app.cfg.rateLimit.webhookLimit,
		app.cfg.rateLimit.period,
		ipBaseRateLimiterGetter,
		limitReached,
	)

	return checkoutLimiter, webhookLimiter
}
