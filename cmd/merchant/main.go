// cmd/merchant/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/catalog"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/order"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/infrastructure/database/postgres"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/infrastructure/database/redis"
	httpserver "github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/middleware"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/routes"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/idempotency"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/psp"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/receipt"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB())
	if err := migration.RunMerchantMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	logger := middleware.NewLogger(cfg)

	catalogService := catalog.NewService(catalog.NewRepository(db.GetDB()), redisClient.GetClient())

	if cfg.IsDevelopment() {
		if err := migration.SeedProducts(context.Background(), catalogService); err != nil {
			log.Printf("Warning: Product seeding failed: %v", err)
		}
	}

	gateway := psp.NewClient(cfg, logger)
	checkoutService := checkout.NewService(checkout.NewRepository(db.GetDB()), catalogService, gateway, cfg, logger)

	var receipts order.ReceiptGenerator
	if cfg.Receipt.Enabled {
		receipts = receipt.NewService(cfg)
	}
	orderService := order.NewService(order.NewRepository(db.GetDB()), receipts)

	deps := routes.MerchantDeps{
		Checkout:    checkoutService,
		Catalog:     catalogService,
		Orders:      orderService,
		Idempotency: idempotency.NewGormStore(db.GetDB()),
		Logger:      logger,
	}

	server := httpserver.NewServer(cfg, logger, redisClient.GetClient(),
		func(r *gin.Engine) { routes.SetupMerchantRoutes(r, cfg, deps) },
		httpserver.HealthCheck{Name: "postgres", Check: db.Health},
		httpserver.HealthCheck{Name: "redis", Check: redisClient.Health},
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("👋 Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Println("✅ Server shutdown completed")
}
