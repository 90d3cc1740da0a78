// internal/interfaces/http/handlers/payment_intent.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/vault"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// PaymentIntentHandler handles payment intent endpoints
type PaymentIntentHandler struct {
	service VaultService
}

// NewPaymentIntentHandler creates a new payment intent handler
func NewPaymentIntentHandler(service VaultService) *PaymentIntentHandler {
	return &PaymentIntentHandler{
		service: service,
	}
}

// CreateAndProcess handles POST /agentic_commerce/create_and_process_payment_intent
func (h *PaymentIntentHandler) CreateAndProcess(c *gin.Context) {
	var req vault.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierror.InvalidRequest(apierror.CodeInvalid, "Request body is not valid JSON."))
		return
	}

	// The authenticated merchant identity wins over whatever the body claims.
	if merchantID := c.GetString("merchant_id"); merchantID != "" {
		req.MerchantID = merchantID
	}

	intent, err := h.service.CreateAndProcessPaymentIntent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, intent)
}

// GetIntent handles GET /agentic_commerce/payment_intents/:id
func (h *PaymentIntentHandler) GetIntent(c *gin.Context) {
	intent, err := h.service.GetIntent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}
