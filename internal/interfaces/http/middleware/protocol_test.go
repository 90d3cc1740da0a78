package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
)

func protocolRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Security: config.SecurityConfig{
			TimestampWindow: 5 * time.Minute,
			TimestampSkew:   30 * time.Second,
		},
	}

	r := gin.New()
	r.Use(ProtocolHeaders(cfg))
	r.POST("/checkout_sessions", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	r.GET("/checkout_sessions/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func protocolHeaders() http.Header {
	h := http.Header{}
	h.Set("API-Version", "2025-09-29")
	h.Set("Accept-Language", "en-US")
	h.Set("User-Agent", "test-client/1.0")
	h.Set("Request-Id", "req-1")
	h.Set("Timestamp", time.Now().UTC().Format(time.RFC3339))
	h.Set("Signature", base64.StdEncoding.EncodeToString([]byte("sig")))
	h.Set("Idempotency-Key", "key-1")
	h.Set("Content-Type", "application/json")
	return h
}

func doPost(r *gin.Engine, headers http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout_sessions", nil)
	req.Header = headers
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProtocolHeaders_FullSetPasses(t *testing.T) {
	w := doPost(protocolRouter(), protocolHeaders())
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProtocolHeaders_MissingHeaderRejected(t *testing.T) {
	required := []string{"API-Version", "Accept-Language", "User-Agent", "Request-Id", "Timestamp", "Signature", "Idempotency-Key"}

	for _, header := range required {
		t.Run(header, func(t *testing.T) {
			headers := protocolHeaders()
			headers.Del(header)

			w := doPost(protocolRouter(), headers)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), header)
		})
	}
}

func TestProtocolHeaders_IdempotencyKeyNotRequiredOnGet(t *testing.T) {
	r := protocolRouter()
	req := httptest.NewRequest(http.MethodGet, "/checkout_sessions/cs_1", nil)
	req.Header = protocolHeaders()
	req.Header.Del("Idempotency-Key")
	req.Header.Del("Content-Type")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtocolHeaders_Timestamp(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		wantCode  int
	}{
		{"current time", time.Now().UTC().Format(time.RFC3339), http.StatusCreated},
		{"slightly old", time.Now().UTC().Add(-time.Minute).Format(time.RFC3339), http.StatusCreated},
		{"too old", time.Now().UTC().Add(-10 * time.Minute).Format(time.RFC3339), http.StatusBadRequest},
		{"in the future", time.Now().UTC().Add(5 * time.Minute).Format(time.RFC3339), http.StatusBadRequest},
		{"not RFC 3339", "yesterday at noon", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := protocolHeaders()
			headers.Set("Timestamp", tt.timestamp)

			w := doPost(protocolRouter(), headers)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestProtocolHeaders_SignatureMustBeBase64(t *testing.T) {
	headers := protocolHeaders()
	headers.Set("Signature", "!!! not base64 !!!")

	w := doPost(protocolRouter(), headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_signature")
}

func TestProtocolHeaders_ContentTypeRequiredOnPost(t *testing.T) {
	headers := protocolHeaders()
	headers.Set("Content-Type", "text/plain")

	w := doPost(protocolRouter(), headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
