package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidToken = errors.New("token not valid")
)

// AuthToken issues and validates the access tokens used for shopper login,
// including the auto-login performed after a guest account is provisioned
// during webhook reconciliation.
type AuthToken interface {
	GenerateAccessToken(userID string, expiry time.Duration) (string, error)
	ValidateAccessToken(tokenString string) (*AccessPayload, error)
}

type AccessPayload struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewAccessPayload(userID string, expiry time.Duration) *AccessPayload {
	return &AccessPayload{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
}

func (p *AccessPayload) Valid() error {
	if time.Now().After(p.ExpiresAt.Time) {
		return ErrExpiredToken
	}

	return nil
}
