package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a numeric one-time password of the given length
func GenerateOTP(length int) (string, error) {
	otp := make([]byte, length)
	ten := big.NewInt(10)
	for i := range otp {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		otp[i] = byte('0' + n.Int64())
	}
	return string(otp), nil
}
