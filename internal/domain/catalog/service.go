// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	productCacheKeyPrefix = "product:"
	productCacheTTL       = 5 * time.Minute
)

// Service handles catalog business logic. Lookups go through a redis
// read-through cache so repeated session recomputations stay cheap.
type Service struct {
	repo        Repository
	redisClient *redis.Client
}

// NewService creates a new catalog service. redisClient may be nil, in which
// case caching is skipped entirely.
func NewService(repo Repository, redisClient *redis.Client) *Service {
	return &Service{
		repo:        repo,
		redisClient: redisClient,
	}
}

// GetProduct resolves a product id, consulting the cache first
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, productCacheKeyPrefix+id).Result()
		if err == nil {
			var product Product
			if err := json.Unmarshal([]byte(cached), &product); err == nil {
				return &product, nil
			}
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, productCacheKeyPrefix+id, data, productCacheTTL)
		}
	}

	return product, nil
}

// CheckAvailability reports whether the requested quantity can be fulfilled
func (s *Service) CheckAvailability(ctx context.Context, id string, quantity int) (bool, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return false, err
	}
	return product.InStock(quantity), nil
}

// List returns the full catalog
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Search returns products matching the query, ranked so that title matches
// beat description-only matches
func (s *Service) Search(ctx context.Context, query string) ([]Product, error) {
	products, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(query)
	sort.SliceStable(products, func(i, j int) bool {
		iTitle := strings.Contains(strings.ToLower(products[i].Title), lowered)
		jTitle := strings.Contains(strings.ToLower(products[j].Title), lowered)
		if iTitle != jTitle {
			return iTitle
		}
		return products[i].Title < products[j].Title
	})

	return products, nil
}

// Seed upserts the demo catalog and invalidates cached entries
func (s *Service) Seed(ctx context.Context, products []Product) error {
	if err := s.repo.Upsert(ctx, products); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if s.redisClient != nil {
		keys := make([]string, 0, len(products))
		for _, p := range products {
			keys = append(keys, productCacheKeyPrefix+p.ID)
		}
		s.redisClient.Del(ctx, keys...)
	}

	return nil
}

// DemoProducts returns the development seed catalog
func DemoProducts() []Product {
	return []Product{
		{
			ID:               "item_123",
			Title:            "Trail Running Shoes",
			Description:      "Lightweight trail running shoes with a grippy outsole.",
			UnitPrice:        2999,
			Currency:         "usd",
			RequiresShipping: true,
			Stock:            25,
			ImageURL:         "https://example.com/images/item_123.jpg",
			Permalink:        "https://example.com/products/item_123",
		},
		{
			ID:               "item_456",
			Title:            "Insulated Water Bottle",
			Description:      "750ml double-walled stainless steel bottle.",
			UnitPrice:        1899,
			Currency:         "usd",
			RequiresShipping: true,
			Stock:            120,
			ImageURL:         "https://example.com/images/item_456.jpg",
			Permalink:        "https://example.com/products/item_456",
		},
		{
			ID:               "item_789",
			Title:            "Training Plan (Digital)",
			Description:      "12-week downloadable half-marathon training plan.",
			UnitPrice:        4900,
			Currency:         "usd",
			RequiresShipping: false,
			Stock:            9999,
			Permalink:        "https://example.com/products/item_789",
		},
		{
			ID:               "item_321",
			Title:            "Running Socks (3-pack)",
			Description:      "Moisture-wicking crew socks.",
			UnitPrice:        1299,
			Currency:         "usd",
			RequiresShipping: true,
			Stock:            0, // deliberately out of stock for demos
			Permalink:        "https://example.com/products/item_321",
		},
	}
}
