// internal/domain/order/entity.go
package order

import (
	"time"
)

// Order is created exactly once, when a checkout session completes, and is
// immutable thereafter.
type Order struct {
	ID                string    `gorm:"primaryKey;size:64" json:"id"`
	CheckoutSessionID string    `gorm:"not null;uniqueIndex;size:64" json:"checkout_session_id"`
	PermalinkURL      string    `gorm:"size:512" json:"permalink_url"`
	TotalAmount       int64     `gorm:"not null" json:"total_amount"`
	Currency          string    `gorm:"size:3;not null" json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string { return "orders" }
