// cmd/client/main.go
package main

import (
	"context"
	"log"
	"time"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/client"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := middleware.NewLogger(cfg)

	orchestrator := client.NewOrchestrator(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	session, err := orchestrator.RunCheckout(ctx, client.CheckoutParams{
		Query:    "trail running shoes",
		Quantity: 2,
		Buyer: checkout.Buyer{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
		},
		Address: checkout.Address{
			Name:       "Ada Lovelace",
			LineOne:    "1 Infinite Loop",
			City:       "Cupertino",
			State:      "CA",
			Country:    "US",
			PostalCode: "95014",
		},
		CardNumber: "4242424242424242",
		CardExp:    [2]string{"12", "2030"},
	})
	if err != nil {
		log.Fatalf("Checkout failed: %v", err)
	}

	if session.Order != nil {
		log.Printf("✅ Order %s placed, permalink: %s", session.Order.ID, session.Order.PermalinkURL)
	}
}
