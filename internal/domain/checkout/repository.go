// internal/domain/checkout/repository.go
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/order"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSessionNotFound is returned when a session id does not resolve.
var ErrSessionNotFound = errors.New("checkout session not found")

// Repository provides access to stored checkout sessions. Mutations run under
// a per-session row lock so concurrent updates to the same session serialize.
type Repository interface {
	Get(ctx context.Context, id string) (*CheckoutSession, error)
	Create(ctx context.Context, session *CheckoutSession) error
	// Mutate loads the session under a row lock, applies fn, and persists the
	// mutated session with its line items rebuilt wholesale, all in one
	// transaction. If fn returns a non-nil order it is created in the same
	// transaction; if fn returns an error nothing is written.
	Mutate(ctx context.Context, id string, fn func(session *CheckoutSession) (*order.Order, error)) (*CheckoutSession, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed checkout session repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Get(ctx context.Context, id string) (*CheckoutSession, error) {
	var session CheckoutSession
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return &session, nil
}

func (r *gormRepository) Create(ctx context.Context, session *CheckoutSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *gormRepository) Mutate(ctx context.Context, id string, fn func(session *CheckoutSession) (*order.Order, error)) (*CheckoutSession, error) {
	var session CheckoutSession

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock session %s: %w", id, err)
		}

		if err := tx.Where("session_id = ?", id).Order("created_at").
			Find(&session.LineItems).Error; err != nil {
			return fmt.Errorf("failed to load line items for %s: %w", id, err)
		}

		newOrder, err := fn(&session)
		if err != nil {
			return err
		}

		// Line items are rebuilt wholesale rather than patched in place.
		if err := tx.Where("session_id = ?", id).Delete(&LineItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear line items for %s: %w", id, err)
		}
		for i := range session.LineItems {
			session.LineItems[i].SessionID = id
		}
		if len(session.LineItems) > 0 {
			if err := tx.Create(&session.LineItems).Error; err != nil {
				return fmt.Errorf("failed to write line items for %s: %w", id, err)
			}
		}

		if err := tx.Omit("LineItems").Save(&session).Error; err != nil {
			return fmt.Errorf("failed to save session %s: %w", id, err)
		}

		if newOrder != nil {
			if err := tx.Create(newOrder).Error; err != nil {
				return fmt.Errorf("failed to create order for %s: %w", id, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}
