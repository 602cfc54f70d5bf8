package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// TokenBytes is the entropy of verification secrets (256 bits).
const TokenBytes = 32

// GenerateToken returns a URL-safe random secret and the hash to persist.
func GenerateToken() (plaintext, hash string, err error) {
	b := make([]byte, TokenBytes)
	_, err = rand.Read(b)
	if err != nil {
		return "", "", err
	}
	plaintext = base64.RawURLEncoding.EncodeToString(b)
	return plaintext, HashToken(plaintext), nil
}

// HashToken is the lookup key for a secret. Only digests reach the store, so
// index lookups never compare the plaintext.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// GenerateNonce returns n random bytes hex encoded.
func GenerateNonce(n int) (string, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
