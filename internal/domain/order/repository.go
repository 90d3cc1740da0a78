// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when an order id does not resolve.
var ErrOrderNotFound = errors.New("order not found")

// Repository provides read access to orders. Orders are only ever written by
// the checkout completion transaction.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed order repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return &o, nil
}

func (r *gormRepository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Where("checkout_session_id = ?", sessionID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order for session %s: %w", sessionID, err)
	}
	return &o, nil
}
