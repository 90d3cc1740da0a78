// internal/domain/catalog/entity.go
package catalog

import (
	"time"
)

// Product represents one sellable catalog entry
type Product struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	Title            string    `gorm:"not null;size:255" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	UnitPrice        int64     `gorm:"not null" json:"unit_price"` // minor currency units
	Currency         string    `gorm:"size:3;not null;default:'usd'" json:"currency"`
	RequiresShipping bool      `gorm:"not null;default:true" json:"requires_shipping"`
	Stock            int       `gorm:"not null;default:0" json:"stock"`
	ImageURL         string    `gorm:"size:512" json:"image_url,omitempty"`
	Permalink        string    `gorm:"size:512" json:"permalink,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string { return "products" }

// InStock checks whether the requested quantity is available
func (p *Product) InStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}
