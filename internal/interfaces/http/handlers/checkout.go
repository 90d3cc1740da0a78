// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// CheckoutService is the session lifecycle surface the handler depends on
type CheckoutService interface {
	Create(ctx context.Context, req *checkout.CreateSessionRequest) (*checkout.SessionResponse, error)
	Get(ctx context.Context, id string) (*checkout.SessionResponse, error)
	Update(ctx context.Context, id string, req *checkout.UpdateSessionRequest) (*checkout.SessionResponse, error)
	Complete(ctx context.Context, id string, req *checkout.CompleteSessionRequest) (*checkout.SessionResponse, error)
	Cancel(ctx context.Context, id string) (*checkout.SessionResponse, error)
}

// CheckoutHandler handles checkout session endpoints
type CheckoutHandler struct {
	service CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// CreateSession handles POST /checkout_sessions
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req checkout.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierror.InvalidRequest(apierror.CodeInvalid, "Request body is not valid JSON."))
		return
	}

	session, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession handles GET /checkout_sessions/:id
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// UpdateSession handles POST /checkout_sessions/:id
func (h *CheckoutHandler) UpdateSession(c *gin.Context) {
	var req checkout.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierror.InvalidRequest(apierror.CodeInvalid, "Request body is not valid JSON."))
		return
	}

	session, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CompleteSession handles POST /checkout_sessions/:id/complete
func (h *CheckoutHandler) CompleteSession(c *gin.Context) {
	var req checkout.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierror.InvalidRequest(apierror.CodeInvalid, "Request body is not valid JSON."))
		return
	}

	session, err := h.service.Complete(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CancelSession handles POST /checkout_sessions/:id/cancel
func (h *CheckoutHandler) CancelSession(c *gin.Context) {
	session, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
