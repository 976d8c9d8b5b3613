package encrypt

import (
	"crypto/rand"
	"math/big"
)

const uppercaseAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomString returns a random uppercase alphanumeric string of the
// specified length, suitable for throwaway credentials such as the password
// assigned to a provisioned guest account.
func GenerateRandomString(length int) (string, error) {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		randomIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(uppercaseAlphanumeric))))
		if err != nil {
			return "", err
		}
		result[i] = uppercaseAlphanumeric[randomIndex.Int64()]
	}
	return string(result), nil
}
