// internal/domain/order/service.go
package order

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// ReceiptGenerator renders a PDF receipt for a completed order
type ReceiptGenerator interface {
	Generate(o *Order) (*bytes.Buffer, error)
}

// Service handles order lookups and receipt rendering
type Service struct {
	repo     Repository
	receipts ReceiptGenerator
}

// NewService creates a new order service. receipts may be nil when receipt
// generation is disabled.
func NewService(repo Repository, receipts ReceiptGenerator) *Service {
	return &Service{
		repo:     repo,
		receipts: receipts,
	}
}

// Get retrieves an order by its id, or by the id of the checkout session
// that produced it.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apierror.NotFound(apierror.CodeOrderNotFound, "Order not found.")
		}
		return nil, apierror.Processing("failed to load order")
	}
	return o, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*Order, error) {
	if strings.HasPrefix(id, "cs_") {
		return s.repo.GetBySessionID(ctx, id)
	}
	return s.repo.GetByID(ctx, id)
}

// Receipt renders the PDF receipt for an order
func (s *Service) Receipt(ctx context.Context, id string) (*bytes.Buffer, error) {
	if s.receipts == nil {
		return nil, apierror.NotFound(apierror.CodeOrderNotFound, "Receipts are not enabled.")
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	buf, err := s.receipts.Generate(o)
	if err != nil {
		return nil, apierror.Processing("failed to render receipt")
	}
	return buf, nil
}
