// internal/interfaces/http/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// respondError writes a structured protocol error with its mapped status
func respondError(c *gin.Context, err error) {
	apiErr := apierror.From(err)
	c.JSON(apiErr.HTTPStatus(), apiErr)
}
