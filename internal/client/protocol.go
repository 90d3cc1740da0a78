// internal/client/protocol.go
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// httpClient sends protocol requests with the full header set. Every call
// carries a fresh Request-Id; every POST carries a fresh Idempotency-Key.
type httpClient struct {
	baseURL    string
	apiKey     string
	apiVersion string
	http       *http.Client
}

func newHTTPClient(baseURL, apiKey, apiVersion string, timeout time.Duration) *httpClient {
	return &httpClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiVersion: apiVersion,
		http:       &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("API-Version", c.apiVersion)
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("User-Agent", "acp-demo-client/1.0")
	req.Header.Set("Request-Id", uuid.NewString())
	req.Header.Set("Timestamp", time.Now().UTC().Format(time.RFC3339))
	req.Header.Set("Signature", base64.StdEncoding.EncodeToString([]byte(uuid.NewString())))
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apierror.Error
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Code != "" {
			return &apiErr
		}
		return fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
