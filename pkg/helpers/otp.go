package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the length of signup verification codes
const OTPDigits = 6

var otpMax = big.NewInt(1_000_000)

// GenOTPCode generates a uniform random 6-digit code as a zero-padded string
func GenOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}
