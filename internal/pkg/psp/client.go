// internal/pkg/psp/client.go
package psp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/auth"
)

// Client is the merchant-side HTTP client for the PSP's payment intent
// endpoint. It implements checkout.PaymentGateway. A single synchronous
// call, no retries; failures surface to the caller immediately.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	tokens     *auth.MerchantTokenManager
	merchantID string
	logger     *logrus.Logger
}

// NewClient creates a PSP client from the merchant configuration
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.Merchant.PSPBaseURL,
		apiVersion: cfg.Client.APIVersion,
		httpClient: &http.Client{Timeout: cfg.Merchant.PSPCallTimeout},
		tokens:     auth.NewMerchantTokenManager(cfg.Merchant.PSPAuthSecret, cfg.App.Name, 5*time.Minute),
		merchantID: cfg.Merchant.MerchantID,
		logger:     logger,
	}
}

type createIntentRequest struct {
	SharedPaymentToken string            `json:"shared_payment_token"`
	Amount             int64             `json:"amount"`
	Currency           string            `json:"currency"`
	MerchantID         string            `json:"merchant_id,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type createIntentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateAndProcessPaymentIntent redeems the vault token for the session's
// total. PSP errors come back as their structured form so the checkout flow
// can forward them untouched.
func (c *Client) CreateAndProcessPaymentIntent(ctx context.Context, token string, amount int64, currency, checkoutSessionID string) (*checkout.PaymentIntentResult, error) {
	bearer, err := c.tokens.Generate(c.merchantID)
	if err != nil {
		return nil, apierror.Processing("failed to mint merchant token")
	}

	payload := createIntentRequest{
		SharedPaymentToken: token,
		Amount:             amount,
		Currency:           currency,
		MerchantID:         c.merchantID,
		Metadata: map[string]string{
			"checkout_session_id": checkoutSessionID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apierror.Processing("failed to encode payment intent request")
	}

	url := c.baseURL + "/agentic_commerce/create_and_process_payment_intent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.Processing("failed to build payment intent request")
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", c.apiVersion)
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("User-Agent", "acp-demo-merchant/1.0")
	req.Header.Set("Request-Id", uuid.NewString())
	req.Header.Set("Idempotency-Key", uuid.NewString())
	req.Header.Set("Timestamp", time.Now().UTC().Format(time.RFC3339))
	req.Header.Set("Signature", base64.StdEncoding.EncodeToString([]byte(uuid.NewString())))

	c.logger.WithFields(logrus.Fields{
		"checkout_session_id": checkoutSessionID,
		"amount":              amount,
		"currency":            currency,
	}).Info("Calling PSP to redeem vault token")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("PSP call failed")
		return nil, apierror.New(apierror.TypeServiceUnavailable, apierror.CodeProcessingError,
			fmt.Sprintf("payment service unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apierror.Error
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Code != "" {
			return nil, &apiErr
		}
		return nil, apierror.Processing(fmt.Sprintf("payment service returned status %d", resp.StatusCode))
	}

	var result createIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierror.Processing("failed to decode payment intent response")
	}

	return &checkout.PaymentIntentResult{ID: result.ID, Status: result.Status}, nil
}
