// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/order"
)

// OrderService is the order lookup surface the handler depends on
type OrderService interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	Receipt(ctx context.Context, id string) (*bytes.Buffer, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	service OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// GetReceipt handles GET /orders/:id/receipt
func (h *OrderHandler) GetReceipt(c *gin.Context) {
	buf, err := h.service.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt-`+c.Param("id")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
