package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// OTPLength is the number of digits in a one-time code
const OTPLength = 6

// GenerateOTP returns a random numeric one-time code
func GenerateOTP() (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < OTPLength; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate otp: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// HashOTP returns the hex digest stored in place of the code
func HashOTP(code string) string {
	return CalculateDataHash([]byte(strings.TrimSpace(code))).String()
}

// VerifyOTP compares a submitted code with a stored digest
func VerifyOTP(storedHex, code string) bool {
	if storedHex == "" {
		return false
	}
	stored, err := FromHexString(storedHex)
	if err != nil {
		return false
	}
	return stored.Verify([]byte(strings.TrimSpace(code)))
}
