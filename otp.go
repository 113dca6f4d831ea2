package identity

import (
	"crypto/rand"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
)

// OtpLength is the fixed number of digits in a passcode.
const OtpLength = 6

var ten = big.NewInt(10)

// GenerateOtp returns a cryptographically random, fixed-length numeric
// passcode. Each digit is drawn independently so leading zeros are as
// likely as any other digit.
func GenerateOtp() (string, error) {
	code := make([]byte, OtpLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate otp digit")
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// IsWellFormedOtp reports whether a candidate looks like a passcode we
// could have issued. Used to reject garbage before hitting the store.
func IsWellFormedOtp(code string) bool {
	if len(code) != OtpLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
