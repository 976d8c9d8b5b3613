package hips

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw webhook
// body, keyed with the merchant webhook secret.
const SignatureHeader = "X-Hips-Signature"

func SignPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the HMAC of body. The
// comparison is constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	expected := SignPayload(body, secret)

	return hmac.Equal([]byte(expected), []byte(signature))
}
