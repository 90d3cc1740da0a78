// internal/domain/vault/entity.go
package vault

import (
	"time"
)

// TokenStatus represents the vault token lifecycle state
type TokenStatus string

const (
	TokenStatusActive   TokenStatus = "active"
	TokenStatusConsumed TokenStatus = "consumed"
	TokenStatusExpired  TokenStatus = "expired"
)

// IntentStatus represents the payment intent lifecycle state
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusCompleted IntentStatus = "completed"
	IntentStatusFailed    IntentStatus = "failed"
)

// Allowance scopes what a vault token may be charged for
type Allowance struct {
	Reason            string    `gorm:"size:32;not null" json:"reason"`
	MaxAmount         int64     `gorm:"not null" json:"max_amount"`
	Currency          string    `gorm:"size:3;not null" json:"currency"`
	CheckoutSessionID string    `gorm:"size:64" json:"checkout_session_id"`
	MerchantID        string    `gorm:"size:64" json:"merchant_id"`
	ExpiresAt         time.Time `gorm:"not null" json:"expires_at"`
}

// VaultToken is a one-time-use opaque reference to a payment method. The PAN
// is never stored; only display-safe card data and a fingerprint survive
// tokenization.
type VaultToken struct {
	ID     string      `gorm:"primaryKey;size:64" json:"id"`
	Status TokenStatus `gorm:"size:16;not null;default:'active'" json:"status"`

	CardBrand       string `gorm:"size:32" json:"card_brand,omitempty"`
	CardLast4       string `gorm:"size:4" json:"card_last4,omitempty"`
	CardFingerprint string `gorm:"size:64" json:"-"`

	Allowance Allowance `gorm:"embedded;embeddedPrefix:allowance_" json:"allowance"`

	// Serialized JSON blobs; the PSP never interprets these beyond echoing.
	BillingAddress string `gorm:"type:text" json:"-"`
	RiskSignals    string `gorm:"type:text" json:"-"`
	Metadata       string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"-"`
}

// PaymentIntent records one attempted redemption of a vault token
type PaymentIntent struct {
	ID           string       `gorm:"primaryKey;size:64" json:"id"`
	VaultTokenID string       `gorm:"not null;index;size:64" json:"vault_token_id"`
	Status       IntentStatus `gorm:"size:16;not null;default:'pending'" json:"status"`
	Amount       int64        `gorm:"not null" json:"amount"`
	Currency     string       `gorm:"size:3;not null" json:"currency"`
	MerchantID   string       `gorm:"size:64" json:"merchant_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// TableName overrides
func (VaultToken) TableName() string    { return "vault_tokens" }
func (PaymentIntent) TableName() string { return "payment_intents" }

// ExpiredAt reports whether the token's allowance has lapsed at the given
// time. Expiry is only ever checked lazily; there is no background sweep.
func (t *VaultToken) ExpiredAt(now time.Time) bool {
	return now.After(t.Allowance.ExpiresAt)
}
