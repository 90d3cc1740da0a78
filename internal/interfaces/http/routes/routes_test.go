package routes

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/vault"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/auth"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/idempotency"
)

type stubVaultService struct{}

func (stubVaultService) DelegatePayment(ctx context.Context, req *vault.DelegatePaymentRequest, idempotencyKey, merchantID string) (*vault.DelegatePaymentResponse, error) {
	return &vault.DelegatePaymentResponse{ID: "vt_1", Created: time.Now().UTC()}, nil
}

func (stubVaultService) CreateAndProcessPaymentIntent(ctx context.Context, req *vault.CreateIntentRequest) (*vault.PaymentIntent, error) {
	return &vault.PaymentIntent{
		ID:           "pi_1",
		VaultTokenID: req.SharedPaymentToken,
		Status:       vault.IntentStatusCompleted,
		Amount:       req.Amount,
		Currency:     req.Currency,
	}, nil
}

func (stubVaultService) GetIntent(ctx context.Context, id string) (*vault.PaymentIntent, error) {
	return &vault.PaymentIntent{ID: id, Status: vault.IntentStatusCompleted}, nil
}

func pspRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{Name: "acp-routes-test"},
		Security: config.SecurityConfig{
			APIKeys:         []string{"test_api_key"},
			TimestampWindow: 5 * time.Minute,
			TimestampSkew:   30 * time.Second,
		},
		PSP: config.PSPConfig{MerchantSecret: "routes-test-merchant-secret-0123456789"},
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	r := gin.New()
	SetupPSPRoutes(r, cfg, PSPDeps{
		Vault:       stubVaultService{},
		Idempotency: idempotency.NewMemoryStore(),
		Logger:      logger,
	})

	tokens := auth.NewMerchantTokenManager(cfg.PSP.MerchantSecret, cfg.App.Name, 0)
	bearer, err := tokens.Generate("merchant_demo")
	require.NoError(t, err)

	return r, bearer
}

func intentRequest(bearer string) *http.Request {
	body := `{"shared_payment_token":"vt_1","amount":7148,"currency":"usd"}`
	req := httptest.NewRequest(http.MethodPost, "/agentic_commerce/create_and_process_payment_intent", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPaymentIntentEndpoint_RequiresProtocolHeaders(t *testing.T) {
	r, bearer := pspRouter(t)

	req := intentRequest(bearer)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing")
}

func TestPaymentIntentEndpoint_FullHeaderSetPasses(t *testing.T) {
	r, bearer := pspRouter(t)

	req := intentRequest(bearer)
	req.Header.Set("API-Version", "2025-09-29")
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("User-Agent", "acp-demo-merchant/1.0")
	req.Header.Set("Request-Id", "req-1")
	req.Header.Set("Timestamp", time.Now().UTC().Format(time.RFC3339))
	req.Header.Set("Signature", base64.StdEncoding.EncodeToString([]byte("sig")))
	req.Header.Set("Idempotency-Key", "key-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "pi_1")
}

func TestPaymentIntentEndpoint_RejectsMissingBearer(t *testing.T) {
	r, _ := pspRouter(t)

	req := intentRequest("")
	req.Header.Del("Authorization")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
