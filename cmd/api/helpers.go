package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) readStringID(r *http.Request, param string) string {
	return chi.URLParam(r, param)
}

// shopperSessionID identifies the storefront session carrying the cart. The
// storefront sends it as a cookie; API clients may pass a header instead.
func (app *application) shopperSessionID(r *http.Request) string {
	cookie, err := r.Cookie(app.cfg.auth.SessionCookieName)

	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return r.Header.Get("X-Session-ID")
}

// background runs fn on a tracked goroutine so graceful shutdown can wait
// for in-flight work.
func (app *application) background(fn func()) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("recovered panic in background task", "error", err)
			}
		}()

		fn()
	}()
}
