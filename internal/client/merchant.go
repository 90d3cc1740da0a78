// internal/client/merchant.go
package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/catalog"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
)

// MerchantClient calls the merchant service's checkout endpoints
type MerchantClient struct {
	http *httpClient
}

// NewMerchantClient creates a merchant client from the orchestrator config
func NewMerchantClient(cfg *config.Config) *MerchantClient {
	return &MerchantClient{
		http: newHTTPClient(cfg.Client.MerchantBaseURL, cfg.Client.MerchantAPIKey,
			cfg.Client.APIVersion, cfg.Client.RequestTimeout),
	}
}

// SearchProducts queries the merchant catalog search endpoint
func (m *MerchantClient) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	var result struct {
		Products []catalog.Product `json:"products"`
	}
	if err := m.http.do(ctx, http.MethodGet, "/products/search?q="+url.QueryEscape(query), nil, &result); err != nil {
		return nil, err
	}
	return result.Products, nil
}

// CreateSession creates a checkout session
func (m *MerchantClient) CreateSession(ctx context.Context, req *checkout.CreateSessionRequest) (*checkout.SessionResponse, error) {
	var session checkout.SessionResponse
	if err := m.http.do(ctx, http.MethodPost, "/checkout_sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves a checkout session
func (m *MerchantClient) GetSession(ctx context.Context, id string) (*checkout.SessionResponse, error) {
	var session checkout.SessionResponse
	if err := m.http.do(ctx, http.MethodGet, "/checkout_sessions/"+id, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession applies a partial update to a checkout session
func (m *MerchantClient) UpdateSession(ctx context.Context, id string, req *checkout.UpdateSessionRequest) (*checkout.SessionResponse, error) {
	var session checkout.SessionResponse
	if err := m.http.do(ctx, http.MethodPost, "/checkout_sessions/"+id, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CompleteSession completes a checkout session with a vault token
func (m *MerchantClient) CompleteSession(ctx context.Context, id string, req *checkout.CompleteSessionRequest) (*checkout.SessionResponse, error) {
	var session checkout.SessionResponse
	if err := m.http.do(ctx, http.MethodPost, "/checkout_sessions/"+id+"/complete", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CancelSession cancels a checkout session
func (m *MerchantClient) CancelSession(ctx context.Context, id string) (*checkout.SessionResponse, error) {
	var session checkout.SessionResponse
	if err := m.http.do(ctx, http.MethodPost, "/checkout_sessions/"+id+"/cancel", struct{}{}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
