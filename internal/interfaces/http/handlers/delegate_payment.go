// internal/interfaces/http/handlers/delegate_payment.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/vault"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// VaultService is the tokenization and redemption surface the PSP handlers
// depend on
type VaultService interface {
	DelegatePayment(ctx context.Context, req *vault.DelegatePaymentRequest, idempotencyKey, merchantID string) (*vault.DelegatePaymentResponse, error)
	CreateAndProcessPaymentIntent(ctx context.Context, req *vault.CreateIntentRequest) (*vault.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*vault.PaymentIntent, error)
}

// DelegatePaymentHandler handles POST /agentic_commerce/delegate_payment
type DelegatePaymentHandler struct {
	service VaultService
}

// NewDelegatePaymentHandler creates a new delegate payment handler
func NewDelegatePaymentHandler(service VaultService) *DelegatePaymentHandler {
	return &DelegatePaymentHandler{
		service: service,
	}
}

// DelegatePayment tokenizes a card into a one-time-use vault token
func (h *DelegatePaymentHandler) DelegatePayment(c *gin.Context) {
	var req vault.DelegatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierror.InvalidRequest(apierror.CodeInvalid, "Request body is not valid JSON."))
		return
	}

	resp, err := h.service.DelegatePayment(
		c.Request.Context(),
		&req,
		c.GetHeader("Idempotency-Key"),
		req.Allowance.MerchantID,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
