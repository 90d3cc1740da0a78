// internal/pkg/idempotency/store.go
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// ErrDuplicateKey is returned by Save when another request already stored a
// record under the same scope and key.
var ErrDuplicateKey = errors.New("idempotency key already recorded")

// Store persists first-response records keyed by (scope, key). Save must be
// atomic with respect to concurrent saves of the same key; the database
// unique constraint is the enforcement point. Update fills a reserved
// record's response fields in place; Delete releases a reservation whose
// request did not produce a storable response.
type Store interface {
	Get(ctx context.Context, scope, key string) (*Record, error)
	Save(ctx context.Context, record *Record) error
	Update(ctx context.Context, record *Record) error
	Delete(ctx context.Context, scope, key string) error
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed idempotency store
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, scope, key string) (*Record, error) {
	var record Record
	err := s.db.WithContext(ctx).Where("scope = ? AND key = ?", scope, key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load idempotency record: %w", err)
	}
	return &record, nil
}

func (s *gormStore) Save(ctx context.Context, record *Record) error {
	err := s.db.WithContext(ctx).Create(record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to save idempotency record: %w", err)
	}
	return nil
}

func (s *gormStore) Update(ctx context.Context, record *Record) error {
	err := s.db.WithContext(ctx).Model(&Record{}).
		Where("scope = ? AND key = ?", record.Scope, record.Key).
		Updates(map[string]interface{}{
			"status_code":   record.StatusCode,
			"content_type":  record.ContentType,
			"response_body": record.ResponseBody,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update idempotency record: %w", err)
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, scope, key string) error {
	err := s.db.WithContext(ctx).Where("scope = ? AND key = ?", scope, key).Delete(&Record{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete idempotency record: %w", err)
	}
	return nil
}

// MemoryStore is an in-process store used in tests and when no database is
// wired.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Get(ctx context.Context, scope, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[scope+"\x00"+key]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapKey := record.Scope + "\x00" + record.Key
	if _, ok := s.records[mapKey]; ok {
		return ErrDuplicateKey
	}
	copied := *record
	s.records[mapKey] = &copied
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapKey := record.Scope + "\x00" + record.Key
	if _, ok := s.records[mapKey]; !ok {
		return fmt.Errorf("no idempotency record to update for %s", record.Key)
	}
	copied := *record
	s.records[mapKey] = &copied
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, scope+"\x00"+key)
	return nil
}
