// internal/pkg/idempotency/record.go
package idempotency

import (
	"time"
)

// Record stores the outcome of the first successful request seen under an
// idempotency key. Scope separates key namespaces per endpoint so the same
// key on different endpoints never collides. A record with a zero status
// code is a reservation for a request still in flight.
type Record struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	Scope        string    `gorm:"size:128;not null;uniqueIndex:idx_idempotency_scope_key" json:"scope"`
	Key          string    `gorm:"size:255;not null;uniqueIndex:idx_idempotency_scope_key" json:"key"`
	RequestHash  string    `gorm:"size:64;not null" json:"request_hash"`
	StatusCode   int       `gorm:"not null" json:"status_code"`
	ContentType  string    `gorm:"size:128" json:"content_type"`
	ResponseBody []byte    `gorm:"type:bytea" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Record) TableName() string {
	return "idempotency_records"
}
