package hips

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"order.successful"}`)
	secret := "webhook-secret"

	signature := SignPayload(body, secret)
	assert.NotEmpty(t, signature)

	assert.True(t, VerifySignature(body, signature, secret))
}

func TestVerifySignature_Mismatch(t *testing.T) {
	body := []byte(`{"event":"order.successful"}`)
	secret := "webhook-secret"
	signature := SignPayload(body, secret)

	assert.False(t, VerifySignature([]byte(`{"event":"tampered"}`), signature, secret))
	assert.False(t, VerifySignature(body, signature, "other-secret"))
	assert.False(t, VerifySignature(body, "", secret))
	assert.False(t, VerifySignature(body, "deadbeef", secret))
}
