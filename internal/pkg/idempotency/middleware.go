// internal/pkg/idempotency/middleware.go
package idempotency

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// ReplayedHeader marks responses served from the idempotency store instead
// of handler execution.
const ReplayedHeader = "Idempotent-Replay"

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware enforces the idempotency contract on POST requests carrying an
// Idempotency-Key header. The key is reserved with a unique-constraint
// insert before the handler runs, so concurrent requests under the same key
// execute the handler at most once: the loser of the insert race replays the
// stored response, or is rejected while the winner is still in flight. A
// repeat of the same key with a different body is rejected as a conflict.
// Keys are scoped per route so reuse across endpoints is safe.
func Middleware(store Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, apierror.InvalidRequest(apierror.CodeInvalid, "failed to read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		scope := c.FullPath()
		hash := HashBody(body)

		reserved := &Record{Scope: scope, Key: key, RequestHash: hash}
		if err := store.Save(c.Request.Context(), reserved); err != nil {
			if err != ErrDuplicateKey {
				logger.WithError(err).Error("Failed to reserve idempotency key")
				respondError(c, apierror.Processing("idempotency store unavailable"))
				return
			}

			record, getErr := store.Get(c.Request.Context(), scope, key)
			if getErr != nil || record == nil {
				logger.WithError(getErr).Error("Failed to read idempotency store")
				respondError(c, apierror.Processing("idempotency store unavailable"))
				return
			}
			if record.RequestHash != hash {
				respondError(c, apierror.New(apierror.TypeIdempotencyError,
					apierror.CodeIdempotencyConflict,
					"idempotency key was already used with a different request body"))
				return
			}
			if record.StatusCode == 0 {
				respondError(c, apierror.New(apierror.TypeIdempotencyError,
					apierror.CodeIdempotencyConflict,
					"a request with this idempotency key is still in progress"))
				return
			}
			replay(c, record)
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status < 200 || status > 299 {
			// Release the key so the request can be retried.
			if err := store.Delete(c.Request.Context(), scope, key); err != nil {
				logger.WithError(err).Warn("Failed to release idempotency key")
			}
			return
		}

		reserved.StatusCode = status
		reserved.ContentType = writer.Header().Get("Content-Type")
		reserved.ResponseBody = writer.body.Bytes()
		if err := store.Update(c.Request.Context(), reserved); err != nil {
			logger.WithError(err).Error("Failed to record idempotent response")
		}
	}
}

func replay(c *gin.Context, record *Record) {
	if record.ContentType != "" {
		c.Header("Content-Type", record.ContentType)
	}
	c.Header(ReplayedHeader, "true")
	c.Status(record.StatusCode)
	c.Writer.Write(record.ResponseBody)
	c.Abort()
}

func respondError(c *gin.Context, apiErr *apierror.Error) {
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
