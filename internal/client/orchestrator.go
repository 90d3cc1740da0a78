// internal/client/orchestrator.go
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/vault"
)

// Orchestrator drives a full checkout across the merchant and PSP services.
// It holds no durable state, only a mirror of the last session response.
type Orchestrator struct {
	merchant *MerchantClient
	psp      *PSPClient
	config   *config.Config
	logger   *logrus.Logger

	lastSession *checkout.SessionResponse
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(cfg *config.Config, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		merchant: NewMerchantClient(cfg),
		psp:      NewPSPClient(cfg),
		config:   cfg,
		logger:   logger,
	}
}

// CheckoutParams describes the purchase the orchestrator should drive.
// Items may be given directly, or left empty with Query set to resolve the
// product through catalog search.
type CheckoutParams struct {
	Items      []checkout.ItemParam
	Query      string
	Quantity   int
	Buyer      checkout.Buyer
	Address    checkout.Address
	CardNumber string
	CardExp    [2]string
}

// RunCheckout walks the protocol end to end: create the session, attach
// buyer and address, delegate the payment to the PSP for a vault token
// scoped to the session total, and complete the session with that token.
func (o *Orchestrator) RunCheckout(ctx context.Context, params CheckoutParams) (*checkout.SessionResponse, error) {
	if len(params.Items) == 0 && params.Query != "" {
		products, err := o.merchant.SearchProducts(ctx, params.Query)
		if err != nil {
			return nil, fmt.Errorf("search products: %w", err)
		}
		if len(products) == 0 {
			return nil, fmt.Errorf("no products match %q", params.Query)
		}
		qty := params.Quantity
		if qty <= 0 {
			qty = 1
		}
		params.Items = []checkout.ItemParam{{ID: products[0].ID, Quantity: qty}}
		o.logger.WithFields(logrus.Fields{
			"query":   params.Query,
			"item_id": products[0].ID,
		}).Info("Resolved product from search")
	}

	session, err := o.merchant.CreateSession(ctx, &checkout.CreateSessionRequest{Items: params.Items})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	o.mirror(session)
	o.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"status":     session.Status,
	}).Info("Checkout session created")

	session, err = o.merchant.UpdateSession(ctx, session.ID, &checkout.UpdateSessionRequest{
		Buyer:              &params.Buyer,
		FulfillmentAddress: &params.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	o.mirror(session)
	o.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"status":     session.Status,
		"total":      totalAmount(session),
	}).Info("Buyer and address attached")

	if session.Status != checkout.StatusReadyForPayment {
		return session, fmt.Errorf("session not ready for payment, status is %s", session.Status)
	}

	token, err := o.psp.DelegatePayment(ctx, &vault.DelegatePaymentRequest{
		PaymentMethod: vault.PaymentMethod{
			Type:           "card",
			CardNumberType: vault.CardNumberTypeFPAN,
			Number:         params.CardNumber,
			ExpMonth:       params.CardExp[0],
			ExpYear:        params.CardExp[1],
			Name:           params.Buyer.FirstName + " " + params.Buyer.LastName,
		},
		Allowance: vault.Allowance{
			Reason:            "one_time",
			MaxAmount:         totalAmount(session),
			Currency:          session.Currency,
			CheckoutSessionID: session.ID,
			MerchantID:        o.config.Merchant.MerchantID,
			ExpiresAt:         time.Now().UTC().Add(time.Hour),
		},
		RiskSignals: []vault.RiskSignal{
			{Type: "card_testing", Action: "authorized", Score: 5},
		},
		Metadata: map[string]string{"source": "acp-demo-client"},
	})
	if err != nil {
		return nil, fmt.Errorf("delegate payment: %w", err)
	}
	o.logger.WithField("vault_token_id", token.ID).Info("Vault token issued")

	session, err = o.merchant.CompleteSession(ctx, session.ID, &checkout.CompleteSessionRequest{
		PaymentData: checkout.PaymentData{Token: token.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	o.mirror(session)

	entry := o.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"status":     session.Status,
	})
	if session.Order != nil {
		entry = entry.WithFields(logrus.Fields{
			"order_id":  session.Order.ID,
			"permalink": session.Order.PermalinkURL,
		})
	}
	entry.Info("Checkout completed")

	return session, nil
}

// LastSession returns the local mirror of the most recent session response
func (o *Orchestrator) LastSession() *checkout.SessionResponse {
	return o.lastSession
}

func (o *Orchestrator) mirror(session *checkout.SessionResponse) {
	o.lastSession = session
}

func totalAmount(session *checkout.SessionResponse) int64 {
	for _, t := range session.Totals {
		if t.Type == checkout.TotalTypeTotal {
			return t.Amount
		}
	}
	return 0
}
