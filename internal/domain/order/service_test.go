package order

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

type fakeRepository struct {
	orders []*Order
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (f *fakeRepository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	for _, o := range f.orders {
		if o.CheckoutSessionID == sessionID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

type stubReceipts struct{}

func (stubReceipts) Generate(o *Order) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF receipt for " + o.ID), nil
}

func demoOrder() *Order {
	return &Order{
		ID:                "ord_1",
		CheckoutSessionID: "cs_1",
		PermalinkURL:      "http://localhost:8080/orders/ord_1",
		TotalAmount:       7148,
		Currency:          "usd",
		CreatedAt:         time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestGet_ByOrderID(t *testing.T) {
	service := NewService(&fakeRepository{orders: []*Order{demoOrder()}}, nil)

	o, err := service.Get(context.Background(), "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", o.CheckoutSessionID)
	assert.Equal(t, int64(7148), o.TotalAmount)
}

func TestGet_BySessionID(t *testing.T) {
	service := NewService(&fakeRepository{orders: []*Order{demoOrder()}}, nil)

	o, err := service.Get(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "ord_1", o.ID)
}

func TestGet_UnknownOrder(t *testing.T) {
	service := NewService(&fakeRepository{}, nil)

	_, err := service.Get(context.Background(), "ord_missing")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeOrderNotFound, apiErr.Code)
}

func TestReceipt_RendersForExistingOrder(t *testing.T) {
	service := NewService(&fakeRepository{orders: []*Order{demoOrder()}}, stubReceipts{})

	buf, err := service.Receipt(context.Background(), "ord_1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ord_1")
}

func TestReceipt_DisabledReturnsNotFound(t *testing.T) {
	service := NewService(&fakeRepository{orders: []*Order{demoOrder()}}, nil)

	_, err := service.Receipt(context.Background(), "ord_1")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeOrderNotFound, apiErr.Code)
}
