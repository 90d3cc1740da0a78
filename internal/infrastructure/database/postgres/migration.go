// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/catalog"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/order"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/vault"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/idempotency"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunMerchantMigrations runs GORM auto-migrations for the merchant service
func (m *Migration) RunMerchantMigrations() error {
	log.Println("🔄 Running merchant database auto-migrations...")

	models := []interface{}{
		&catalog.Product{},
		&checkout.CheckoutSession{},
		&checkout.LineItem{},
		&order.Order{},
		&idempotency.Record{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Merchant database migrations completed successfully")
	return nil
}

// RunPSPMigrations runs GORM auto-migrations for the PSP service
func (m *Migration) RunPSPMigrations() error {
	log.Println("🔄 Running PSP database auto-migrations...")

	models := []interface{}{
		&vault.VaultToken{},
		&vault.PaymentIntent{},
		&idempotency.Record{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ PSP database migrations completed successfully")
	return nil
}

// SeedProducts loads the demo catalog. Safe to run repeatedly; existing
// products are updated in place.
func (m *Migration) SeedProducts(ctx context.Context, catalogService *catalog.Service) error {
	log.Println("🔄 Seeding demo product catalog...")

	if err := catalogService.Seed(ctx, catalog.DemoProducts()); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	log.Println("✅ Demo product catalog seeded")
	return nil
}
