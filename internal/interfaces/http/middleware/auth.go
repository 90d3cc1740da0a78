// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/auth"
)

// APIKeyAuth authenticates requests carrying a configured bearer API key
func APIKeyAuth(verifier *auth.APIKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := bearerToken(c)
		if !ok {
			abortWithError(c, apierror.Authentication("Authorization header with a Bearer key is required."))
			return
		}
		if !verifier.Verify(key) {
			abortWithError(c, apierror.Authentication("Invalid API key."))
			return
		}
		c.Next()
	}
}

// MerchantJWTAuth authenticates the PSP-side payment intent endpoint against
// a merchant-identity bearer token. The merchant id claim is stored on the
// context for the handler.
func MerchantJWTAuth(tokens *auth.MerchantTokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWithError(c, apierror.Authentication("Authorization header with a Bearer token is required."))
			return
		}
		claims, err := tokens.Validate(token)
		if err != nil {
			abortWithError(c, apierror.Authentication("Invalid merchant token."))
			return
		}
		c.Set("merchant_id", claims.MerchantID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
