package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// NewOpaqueToken returns a URL-safe random token with 256 bits of
// entropy, used for reset and verification links.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
