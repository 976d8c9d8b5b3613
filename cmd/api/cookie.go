package main

import (
	"net/http"
	"time"
)

func (app *application) getAccessCookie(r *http.Request) string {
	cookie, err := r.Cookie(app.cfg.auth.AccesssCookieName)

	if err != nil {
		return ""
	}

	return cookie.Value
}

// setAccessCookie logs the shopper in at the transport level. Used after a
// guest account is provisioned during webhook reconciliation so the redirect
// back to the storefront lands authenticated.
func (app *application) setAccessCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.cfg.auth.AccesssCookieName,
		Value:    accessToken,
		Expires:  time.Now().Add(app.cfg.auth.AccessExpiry),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
