// internal/domain/checkout/entity.go
package checkout

import (
	"time"
)

// Status represents the checkout session status
type Status string

const (
	StatusNotReadyForPayment Status = "not_ready_for_payment"
	StatusReadyForPayment    Status = "ready_for_payment"
	StatusInProgress         Status = "in_progress"
	StatusCompleted          Status = "completed"
	StatusCanceled           Status = "canceled"
)

// IsTerminal reports whether the status permits no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// CheckoutSession represents one checkout session. Status, fulfillment
// options, and totals are derived values; the columns here only cache the
// most recent derivation and are overwritten before every response.
type CheckoutSession struct {
	ID       string `gorm:"primaryKey;size:64" json:"id"`
	Status   Status `gorm:"size:32;not null;default:'not_ready_for_payment'" json:"status"`
	Currency string `gorm:"size:3;not null" json:"currency"`

	HasBuyer bool  `gorm:"not null;default:false" json:"-"`
	Buyer    Buyer `gorm:"embedded;embeddedPrefix:buyer_" json:"-"`

	HasAddress         bool    `gorm:"not null;default:false" json:"-"`
	FulfillmentAddress Address `gorm:"embedded;embeddedPrefix:address_" json:"-"`

	FulfillmentOptionID string `gorm:"size:64" json:"fulfillment_option_id,omitempty"`

	// Cached totals for the response payload, recomputed on every read/write.
	SubtotalAmount int64 `gorm:"not null;default:0" json:"-"`
	TotalAmount    int64 `gorm:"not null;default:0" json:"-"`

	OrderID string `gorm:"size:64" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LineItems []LineItem `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"line_items"`

	// Messages are never persisted; error sessions exist only in the response.
	Messages []Message `gorm:"-" json:"messages,omitempty"`
}

// LineItem represents one priced entry in a checkout session. Line items are
// deleted and rebuilt wholesale on every update.
type LineItem struct {
	ID        string `gorm:"primaryKey;size:64" json:"id"`
	SessionID string `gorm:"not null;index;size:64" json:"-"`
	ProductID string `gorm:"not null;size:64" json:"item_id"`
	Quantity  int    `gorm:"not null" json:"quantity"`

	// requires_shipping is denormalized from the product at build time so
	// status derivation never needs a catalog round-trip.
	RequiresShipping bool `gorm:"not null;default:true" json:"-"`

	BaseAmount int64 `gorm:"not null" json:"base_amount"`
	Discount   int64 `gorm:"not null;default:0" json:"discount"`
	Subtotal   int64 `gorm:"not null" json:"subtotal"`
	Tax        int64 `gorm:"not null;default:0" json:"tax"`
	Total      int64 `gorm:"not null" json:"total"`

	CreatedAt time.Time `json:"-"`
}

// Buyer identifies the purchasing party
type Buyer struct {
	FirstName   string `gorm:"size:100" json:"first_name,omitempty"`
	LastName    string `gorm:"size:100" json:"last_name,omitempty"`
	Email       string `gorm:"size:255" json:"email,omitempty"`
	PhoneNumber string `gorm:"size:20" json:"phone_number,omitempty"`
}

// Address represents a fulfillment or billing address
type Address struct {
	Name       string `gorm:"size:255" json:"name,omitempty"`
	LineOne    string `gorm:"size:255" json:"line_one"`
	LineTwo    string `gorm:"size:255" json:"line_two,omitempty"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:100" json:"state"`
	Country    string `gorm:"size:2" json:"country"`
	PostalCode string `gorm:"size:20" json:"postal_code"`
}

// FulfillmentOptionType discriminates the fulfillment option variants
type FulfillmentOptionType string

const (
	FulfillmentOptionShipping FulfillmentOptionType = "shipping"
	FulfillmentOptionDigital  FulfillmentOptionType = "digital"
)

// FulfillmentOption is a shipping or digital delivery choice. Options are
// regenerated from the current cart and address on every read/update and are
// never persisted.
type FulfillmentOption struct {
	Type                 FulfillmentOptionType `json:"type"`
	ID                   string                `json:"id"`
	Title                string                `json:"title"`
	Subtitle             string                `json:"subtitle,omitempty"`
	Carrier              string                `json:"carrier,omitempty"`
	EarliestDeliveryTime *time.Time            `json:"earliest_delivery_time,omitempty"`
	LatestDeliveryTime   *time.Time            `json:"latest_delivery_time,omitempty"`
	Subtotal             int64                 `json:"subtotal"`
	Tax                  int64                 `json:"tax"`
	Total                int64                 `json:"total"`
}

// Total entry types, in emission order
const (
	TotalTypeItemsBaseAmount = "items_base_amount"
	TotalTypeItemsDiscount   = "items_discount"
	TotalTypeSubtotal        = "subtotal"
	TotalTypeFulfillment     = "fulfillment"
	TotalTypeTax             = "tax"
	TotalTypeFee             = "fee"
	TotalTypeTotal           = "total"
)

// Total is one typed entry of the order-level totals array
type Total struct {
	Type        string `json:"type"`
	DisplayText string `json:"display_text"`
	Amount      int64  `json:"amount"`
}

// Message types attached to a session response
const (
	MessageTypeInfo  = "info"
	MessageTypeError = "error"
)

// Message carries informational or error content on a session
type Message struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
	Content string `json:"content"`
}

// Link is a supplementary URL attached to a session
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// OrderRef is the completed-order reference embedded in a session response
type OrderRef struct {
	ID                string `json:"id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	PermalinkURL      string `json:"permalink_url"`
}

// SessionResponse is the wire representation of a checkout session with all
// derived values filled in
type SessionResponse struct {
	ID                  string              `json:"id"`
	Buyer               *Buyer              `json:"buyer,omitempty"`
	Status              Status              `json:"status"`
	Currency            string              `json:"currency"`
	LineItems           []LineItem          `json:"line_items"`
	FulfillmentAddress  *Address            `json:"fulfillment_address,omitempty"`
	FulfillmentOptions  []FulfillmentOption `json:"fulfillment_options"`
	FulfillmentOptionID string              `json:"fulfillment_option_id,omitempty"`
	Totals              []Total             `json:"totals"`
	Messages            []Message           `json:"messages"`
	Links               []Link              `json:"links"`
	Order               *OrderRef           `json:"order,omitempty"`
}

// TableName overrides
func (CheckoutSession) TableName() string { return "checkout_sessions" }
func (LineItem) TableName() string        { return "checkout_line_items" }

// RequiresShipping reports whether any line item needs physical fulfillment
func (s *CheckoutSession) RequiresShipping() bool {
	for _, item := range s.LineItems {
		if item.RequiresShipping {
			return true
		}
	}
	return false
}
