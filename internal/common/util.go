package common

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// AlphaNumeric is the 62-symbol alphabet used for public identifiers.
const AlphaNumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Digits is the alphabet for numeric one-time codes.
const Digits = "0123456789"

// RandomString draws n symbols uniformly from alphabet using crypto/rand.
// rand.Int performs rejection sampling internally, so there is no modulo bias.
func RandomString(alphabet string, n int) (string, error) {
	if len(alphabet) == 0 {
		return "", errors.New("empty alphabet")
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
