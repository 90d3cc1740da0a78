// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/catalog"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// CatalogService is the product lookup surface the handler depends on
type CatalogService interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	List(ctx context.Context) ([]catalog.Product, error)
	Search(ctx context.Context, query string) ([]catalog.Product, error)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	service CatalogService
}

// NewProductHandler creates a new product handler
func NewProductHandler(service CatalogService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, apierror.Processing("Failed to retrieve products."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
	})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(c, apierror.NotFound(apierror.CodeProductNotFound, "Product not found."))
			return
		}
		respondError(c, apierror.Processing("Failed to retrieve product."))
		return
	}

	c.JSON(http.StatusOK, product)
}

// SearchProducts handles GET /products/search
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondError(c, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeMissing,
			"Search query is required.", "q"))
		return
	}

	products, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, apierror.Processing("Failed to search products."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
		"query":    query,
	})
}
