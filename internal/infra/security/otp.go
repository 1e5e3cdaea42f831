package security

import (
	"crypto/rand"
	"math/big"
)

// otpAlphabet avoids characters that read ambiguously when dictated.
const otpAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const otpLength = 8

// GenerateOTP returns a random one-time password suitable for out-of-band
// delivery by an administrator.
func GenerateOTP() string {
	max := big.NewInt(int64(len(otpAlphabet)))

	code := make([]byte, otpLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform RNG is broken.
			panic(err)
		}
		code[i] = otpAlphabet[n.Int64()]
	}

	return string(code)
}
