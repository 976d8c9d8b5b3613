package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aead/chacha20poly1305"
	"github.com/o1egl/paseto"
)

type PasetoToken struct {
	paseto    *paseto.V2
	accessKey []byte
}

func NewPasetoToken(accessSecret string) (*PasetoToken, error) {
	accessSecretByte, err := base64.StdEncoding.DecodeString(accessSecret)

	if err != nil {
		return nil, fmt.Errorf("failed to decode access secret base64 key: %w", err)
	}

	if len(accessSecretByte) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid access key size: must be exactly %d bytes", chacha20poly1305.KeySize)
	}

	return &PasetoToken{
		paseto:    paseto.NewV2(),
		accessKey: accessSecretByte,
	}, nil
}

// GenerateAccessToken creates a PASETO token for access
func (t *PasetoToken) GenerateAccessToken(userID string, accessExpiry time.Duration) (string, error) {
	payload := NewAccessPayload(userID, accessExpiry)

	token, err := t.paseto.Encrypt(t.accessKey, payload, nil)
	if err != nil {
		return "", err
	}

	return token, nil
}

// ValidateAccessToken validates a PASETO access token
func (t *PasetoToken) ValidateAccessToken(tokenString string) (*AccessPayload, error) {
	payload := &AccessPayload{}

	if err := t.paseto.Decrypt(tokenString, t.accessKey, payload, nil); err != nil {
		return nil, ErrInvalidToken
	}

	if err := payload.Valid(); err != nil {
		return nil, err
	}

	return payload, nil
}
