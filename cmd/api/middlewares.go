package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/checkoutlab/hips-checkout/internal/store"
)

// Context keys are typed to avoid collisions with other packages.
type contextKey string

const authContextKey contextKey = "auth"

// AuthMiddleware resolves the shopper behind a Bearer token or access
// cookie. Requests without a token proceed as the anonymous user; checkout
// and the webhook both accept guests.
func (app *application) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, app)
		if token == "" {
			ctx := context.WithValue(r.Context(), authContextKey, store.AnonymousUser)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		payload, err := app.authToken.ValidateAccessToken(token)
		if err != nil || payload == nil {
			app.unauthorizedResponse(w, r, "invalid or missing authentication token")
			return
		}

		user, err := app.store.Users.GetByID(r.Context(), payload.UserID)

		if err != nil {
			app.unauthorizedResponse(w, r, "invalid authentication token")
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken pulls the token from the Authorization header or the access
// cookie.
func extractToken(r *http.Request, app *application) string {
	tokenHeader := r.Header.Get("Authorization")
	if tokenHeader != "" {
		parts := strings.Split(tokenHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return app.getAccessCookie(r)
}

// getUserFromCtx retrieves the shopper from the request context.
func getUserFromCtx(r *http.Request) *store.User {
	user, ok := r.Context().Value(authContextKey).(*store.User)
	if !ok {
		panic("user context middleware not ran or functioning properly")
	}
	return user
}
