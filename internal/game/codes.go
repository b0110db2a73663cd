package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codeFloor       = 100000
	codeSpan        = 900000
	maxCodeAttempts = 64
)

// newSessionCode returns a 6-digit numeric code in [100000, 999999].
func newSessionCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate game code: %w", err)
	}
	return fmt.Sprintf("%06d", codeFloor+n.Int64()), nil
}

// ValidCode reports whether code has the shape of a session code.
func ValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
