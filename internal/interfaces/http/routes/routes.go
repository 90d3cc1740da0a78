// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/handlers"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/middleware"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/auth"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/idempotency"
)

// MerchantDeps carries the services the merchant routes are built on
type MerchantDeps struct {
	Checkout    handlers.CheckoutService
	Catalog     handlers.CatalogService
	Orders      handlers.OrderService
	Idempotency idempotency.Store
	Logger      *logrus.Logger
}

// SetupMerchantRoutes wires the merchant service endpoints. Checkout
// sessions and orders sit behind the full protocol surface (bearer key,
// protocol headers, idempotency); the catalog and feed are public reads.
func SetupMerchantRoutes(r *gin.Engine, cfg *config.Config, deps MerchantDeps) {
	checkoutHandler := handlers.NewCheckoutHandler(deps.Checkout)
	productHandler := handlers.NewProductHandler(deps.Catalog)
	feedHandler := handlers.NewFeedHandler(deps.Catalog)
	orderHandler := handlers.NewOrderHandler(deps.Orders)

	verifier := auth.NewAPIKeyVerifier(cfg.Security.APIKeys)

	protected := r.Group("")
	protected.Use(
		middleware.APIKeyAuth(verifier),
		middleware.ProtocolHeaders(cfg),
		idempotency.Middleware(deps.Idempotency, deps.Logger),
	)
	{
		protected.POST("/checkout_sessions", checkoutHandler.CreateSession)
		protected.GET("/checkout_sessions/:id", checkoutHandler.GetSession)
		protected.POST("/checkout_sessions/:id", checkoutHandler.UpdateSession)
		protected.POST("/checkout_sessions/:id/complete", checkoutHandler.CompleteSession)
		protected.POST("/checkout_sessions/:id/cancel", checkoutHandler.CancelSession)

		protected.GET("/orders/:id", orderHandler.GetOrder)
		protected.GET("/orders/:id/receipt", orderHandler.GetReceipt)
	}

	products := r.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/search", productHandler.SearchProducts)
		products.GET("/:id", productHandler.GetProduct)
	}

	r.GET("/product-feed.json", feedHandler.GetJSON)
	r.GET("/product-feed.xml", feedHandler.GetXML)
	r.GET("/product-feed.csv", feedHandler.GetCSV)
}

// PSPDeps carries the services the PSP routes are built on
type PSPDeps struct {
	Vault       handlers.VaultService
	Idempotency idempotency.Store
	Logger      *logrus.Logger
}

// SetupPSPRoutes wires the PSP service endpoints. Tokenization is
// client-authenticated with an API key; payment intent creation requires a
// merchant-identity JWT.
func SetupPSPRoutes(r *gin.Engine, cfg *config.Config, deps PSPDeps) {
	delegateHandler := handlers.NewDelegatePaymentHandler(deps.Vault)
	intentHandler := handlers.NewPaymentIntentHandler(deps.Vault)

	verifier := auth.NewAPIKeyVerifier(cfg.Security.APIKeys)
	tokens := auth.NewMerchantTokenManager(cfg.PSP.MerchantSecret, cfg.App.Name, 0)

	acp := r.Group("/agentic_commerce")
	{
		client := acp.Group("")
		client.Use(
			middleware.APIKeyAuth(verifier),
			middleware.ProtocolHeaders(cfg),
			idempotency.Middleware(deps.Idempotency, deps.Logger),
		)
		{
			client.POST("/delegate_payment", delegateHandler.DelegatePayment)
			client.GET("/payment_intents/:id", intentHandler.GetIntent)
		}

		merchant := acp.Group("")
		merchant.Use(
			middleware.MerchantJWTAuth(tokens),
			middleware.ProtocolHeaders(cfg),
			idempotency.Middleware(deps.Idempotency, deps.Logger),
		)
		{
			merchant.POST("/create_and_process_payment_intent", intentHandler.CreateAndProcess)
		}
	}
}
