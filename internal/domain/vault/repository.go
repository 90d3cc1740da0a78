// internal/domain/vault/repository.go
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository sentinel errors
var (
	ErrTokenNotFound  = errors.New("vault token not found")
	ErrIntentNotFound = errors.New("payment intent not found")
	ErrTokenConsumed  = errors.New("vault token already consumed")
)

// Repository provides access to stored vault tokens and payment intents
type Repository interface {
	CreateToken(ctx context.Context, token *VaultToken) error
	GetToken(ctx context.Context, id string) (*VaultToken, error)
	CreateIntent(ctx context.Context, intent *PaymentIntent) error
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
	// CompleteIntent flips the intent to completed and consumes the token in
	// one transaction. The consume step is a conditional single-statement
	// update; losing the race returns ErrTokenConsumed and writes nothing.
	CompleteIntent(ctx context.Context, intentID, tokenID string, completedAt time.Time) error
	FailIntent(ctx context.Context, intentID string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed vault repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateToken(ctx context.Context, token *VaultToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create vault token: %w", err)
	}
	return nil
}

func (r *gormRepository) GetToken(ctx context.Context, id string) (*VaultToken, error) {
	var token VaultToken
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vault token %s: %w", id, err)
	}
	return &token, nil
}

func (r *gormRepository) CreateIntent(ctx context.Context, intent *PaymentIntent) error {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}
	return nil
}

func (r *gormRepository) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment intent %s: %w", id, err)
	}
	return &intent, nil
}

func (r *gormRepository) CompleteIntent(ctx context.Context, intentID, tokenID string, completedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Single conditional update is the enforcement point for the token's
		// one-time-use invariant.
		result := tx.Model(&VaultToken{}).
			Where("id = ? AND status = ?", tokenID, TokenStatusActive).
			Update("status", TokenStatusConsumed)
		if result.Error != nil {
			return fmt.Errorf("failed to consume vault token %s: %w", tokenID, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTokenConsumed
		}

		err := tx.Model(&PaymentIntent{}).
			Where("id = ?", intentID).
			Updates(map[string]interface{}{
				"status":       IntentStatusCompleted,
				"completed_at": completedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to complete payment intent %s: %w", intentID, err)
		}

		return nil
	})
}

func (r *gormRepository) FailIntent(ctx context.Context, intentID string) error {
	err := r.db.WithContext(ctx).Model(&PaymentIntent{}).
		Where("id = ?", intentID).
		Update("status", IntentStatusFailed).Error
	if err != nil {
		return fmt.Errorf("failed to mark payment intent %s failed: %w", intentID, err)
	}
	return nil
}
