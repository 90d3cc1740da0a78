// internal/domain/catalog/repository.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductNotFound is returned when a product id does not resolve.
var ErrProductNotFound = errors.New("product not found")

// Repository provides access to stored products
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
	Upsert(ctx context.Context, products []Product) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed product repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	return &product, nil
}

func (r *gormRepository) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *gormRepository) Search(ctx context.Context, query string) ([]Product, error) {
	var products []Product
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("title ILIKE ? OR description ILIKE ?", pattern, pattern).
		Order("title").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (r *gormRepository) Upsert(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "unit_price", "currency", "requires_shipping", "stock", "image_url", "permalink", "updated_at"}),
	}).Create(&products).Error
	if err != nil {
		return fmt.Errorf("failed to upsert products: %w", err)
	}
	return nil
}
