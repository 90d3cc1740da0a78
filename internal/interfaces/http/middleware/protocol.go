// internal/interfaces/http/middleware/protocol.go
package middleware

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// ProtocolHeaders validates the headers every protected endpoint requires:
// API-Version, Accept-Language, User-Agent, Request-Id, Timestamp and
// Signature, plus Idempotency-Key and a JSON content type on POST. The
// timestamp must sit inside a bounded recent window; the signature is
// checked for base64 well-formedness only.
func ProtocolHeaders(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		required := []string{"API-Version", "Accept-Language", "User-Agent", "Request-Id", "Timestamp", "Signature"}
		if c.Request.Method == http.MethodPost {
			required = append(required, "Idempotency-Key")
		}
		for _, header := range required {
			if c.GetHeader(header) == "" {
				abortWithError(c, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeMissing,
					"required header is missing", header))
				return
			}
		}

		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			contentType := c.GetHeader("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") {
				abortWithError(c, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
					"Content-Type must be application/json", "Content-Type"))
				return
			}
		}

		ts, err := time.Parse(time.RFC3339, c.GetHeader("Timestamp"))
		if err != nil {
			abortWithError(c, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalidTimestamp,
				"Timestamp must be an RFC 3339 time", "Timestamp"))
			return
		}
		now := time.Now().UTC()
		if ts.After(now.Add(cfg.Security.TimestampSkew)) {
			abortWithError(c, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalidTimestamp,
				"Timestamp is in the future", "Timestamp"))
			return
		}
		if ts.Before(now.Add(-cfg.Security.TimestampWindow)) {
			abortWithError(c, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalidTimestamp,
				"Timestamp is outside the accepted window", "Timestamp"))
			return
		}

		if _, err := base64.StdEncoding.DecodeString(c.GetHeader("Signature")); err != nil {
			abortWithError(c, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalidSignature,
				"Signature is not valid base64", "Signature"))
			return
		}

		c.Next()
	}
}

func abortWithError(c *gin.Context, apiErr *apierror.Error) {
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
