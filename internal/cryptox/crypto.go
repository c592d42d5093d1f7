// Package cryptox holds the hashing helpers used for secrets the service
// stores, such as one-time codes.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DeriveKey derives a 32-byte subkey for purpose from the process secret.
// Different purposes yield unrelated keys.
func DeriveKey(secret []byte, purpose string) []byte {
	sum := blake2b.Sum256(append([]byte(purpose+":"), secret...))
	return sum[:]
}

// KeyedDigest returns the hex encoded BLAKE2b-256 MAC of parts joined with
// ":". The key must be at most 64 bytes.
//
// Digests are deterministic, so a stored digest can be matched inside a
// conditional UPDATE without reading it first.
func KeyedDigest(key []byte, parts ...string) (string, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return "", err
	}
	h.Write([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
