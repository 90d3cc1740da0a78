// internal/client/psp.go
package client

import (
	"context"
	"net/http"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/vault"
)

// PSPClient calls the PSP service's tokenization endpoint
type PSPClient struct {
	http *httpClient
}

// NewPSPClient creates a PSP client from the orchestrator config
func NewPSPClient(cfg *config.Config) *PSPClient {
	return &PSPClient{
		http: newHTTPClient(cfg.Client.PSPBaseURL, cfg.Client.PSPAPIKey,
			cfg.Client.APIVersion, cfg.Client.RequestTimeout),
	}
}

// DelegatePayment tokenizes card details into a one-time-use vault token
func (p *PSPClient) DelegatePayment(ctx context.Context, req *vault.DelegatePaymentRequest) (*vault.DelegatePaymentResponse, error) {
	var resp vault.DelegatePaymentResponse
	if err := p.http.do(ctx, http.MethodPost, "/agentic_commerce/delegate_payment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPaymentIntent retrieves a payment intent
func (p *PSPClient) GetPaymentIntent(ctx context.Context, id string) (*vault.PaymentIntent, error) {
	var intent vault.PaymentIntent
	if err := p.http.do(ctx, http.MethodGet, "/agentic_commerce/payment_intents/"+id, nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}
