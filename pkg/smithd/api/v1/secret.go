package api_v1

import (
	"crypto/hmac"
)

// ValidSecret reports whether a caller-supplied secret matches the
// configured key. The comparison runs in constant time. An empty
// configured key matches nothing.
func ValidSecret(provided, configured string) bool {
	if len(configured) == 0 {
		return false
	}
	return hmac.Equal([]byte(provided), []byte(configured))
}
