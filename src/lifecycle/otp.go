package lifecycle

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"mms/src/config"
)

// generateOTP mints a collection code from a CSPRNG so codes cannot be
// predicted from booking ids or timestamps.
func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < config.OTP_LENGTH; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", config.OTP_LENGTH, n.Int64()), nil
}

func otpMatches(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
