package api

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newToken returns a 32-byte opaque token, URL-safe without padding.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
