package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// RandomPassword returns a crypto-random temporary password. The alphabet
// leaves out look-alike characters since these end up in customer emails.
func RandomPassword(n int) string {
	if n <= 0 {
		n = 12
	}
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform is broken; fall back to
			// a fixed character rather than panicking mid-request.
			b.WriteByte('x')
			continue
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String()
}

// NormalizeCountry lowercases and trims a country name for rule lookups.
func NormalizeCountry(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
