// cmd/psp/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/vault"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/infrastructure/database/postgres"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/infrastructure/database/redis"
	httpserver "github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/middleware"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/routes"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/idempotency"

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
	if err := migration.RunPSPMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	logger := middleware.NewLogger(cfg)

	vaultService := vault.NewService(vault.NewRepository(db.GetDB()), cfg, logger)

	deps := routes.PSPDeps{
		Vault:       vaultService,
		Idempotency: idempotency.NewGormStore(db.GetDB()),
		Logger:      logger,
	}

	server := httpserver.NewServer(cfg, logger, redisClient.GetClient(),
		func(r *gin.Engine) { routes.SetupPSPRoutes(r, cfg, deps) },
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
