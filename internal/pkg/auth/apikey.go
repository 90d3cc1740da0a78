// internal/pkg/auth/apikey.go
package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyVerifier checks presented bearer keys against the configured set.
// Configured keys that start with a bcrypt prefix are treated as hashes, so
// deployments can avoid keeping plaintext keys in the environment.
type APIKeyVerifier struct {
	keys []string
}

// NewAPIKeyVerifier creates a verifier over the configured keys
func NewAPIKeyVerifier(keys []string) *APIKeyVerifier {
	return &APIKeyVerifier{keys: keys}
}

// Verify reports whether the presented key matches any configured key
func (v *APIKeyVerifier) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	for _, key := range v.keys {
		if strings.HasPrefix(key, "$2") {
			if bcrypt.CompareHashAndPassword([]byte(key), []byte(presented)) == nil {
				return true
			}
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			return true
		}
	}
	return false
}
