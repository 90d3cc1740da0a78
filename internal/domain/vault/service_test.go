package vault

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// fakeRepository is an in-memory vault.Repository
type fakeRepository struct {
	tokens  map[string]*VaultToken
	intents map[string]*PaymentIntent
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		tokens:  make(map[string]*VaultToken),
		intents: make(map[string]*PaymentIntent),
	}
}

func (r *fakeRepository) CreateToken(ctx context.Context, token *VaultToken) error {
	copied := *token
	r.tokens[token.ID] = &copied
	return nil
}

func (r *fakeRepository) GetToken(ctx context.Context, id string) (*VaultToken, error) {
	token, ok := r.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *fakeRepository) CreateIntent(ctx context.Context, intent *PaymentIntent) error {
	copied := *intent
	r.intents[intent.ID] = &copied
	return nil
}

func (r *fakeRepository) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	intent, ok := r.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	copied := *intent
	return &copied, nil
}

func (r *fakeRepository) CompleteIntent(ctx context.Context, intentID, tokenID string, completedAt time.Time) error {
	token, ok := r.tokens[tokenID]
	if !ok || token.Status != TokenStatusActive {
		return ErrTokenConsumed
	}
	token.Status = TokenStatusConsumed

	intent := r.intents[intentID]
	intent.Status = IntentStatusCompleted
	intent.CompletedAt = &completedAt
	return nil
}

func (r *fakeRepository) FailIntent(ctx context.Context, intentID string) error {
	if intent, ok := r.intents[intentID]; ok {
		intent.Status = IntentStatusFailed
	}
	return nil
}

func pspConfig(delay time.Duration) *config.Config {
	return &config.Config{
		PSP: config.PSPConfig{ProcessingDelay: delay},
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestService(repo Repository, delay time.Duration) *Service {
	return NewService(repo, pspConfig(delay), quietLogger())
}

func validRequest() *DelegatePaymentRequest {
	return &DelegatePaymentRequest{
		PaymentMethod: PaymentMethod{
			Type:           "card",
			CardNumberType: CardNumberTypeFPAN,
			Number:         "4242424242424242",
			ExpMonth:       "12",
			ExpYear:        "2030",
			Name:           "Ada Lovelace",
		},
		Allowance: Allowance{
			Reason:            "one_time",
			MaxAmount:         7148,
			Currency:          "usd",
			CheckoutSessionID: "cs_test",
			MerchantID:        "merchant_demo",
			ExpiresAt:         time.Now().UTC().Add(time.Hour),
		},
		RiskSignals: []RiskSignal{
			{Type: "card_testing", Action: "authorized", Score: 5},
		},
		Metadata: map[string]string{"source": "test"},
	}
}

func TestLuhnValid(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"4242424242424242", true},
		{"4111111111111111", true},
		{"5555555555554444", true},
		{"4242424242424241", false},
		{"1234567890123456", false},
		{"42424242", false},
		{"424242424242424a", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, luhnValid(tt.number), "number %s", tt.number)
	}
}

func TestDelegatePayment_Success(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, 0)

	resp, err := svc.DelegatePayment(context.Background(), validRequest(), "idem-key-1", "merchant_demo")
	require.NoError(t, err)

	assert.Regexp(t, `^vt_`, resp.ID)
	assert.False(t, resp.Created.IsZero())
	assert.Equal(t, "test", resp.Metadata["source"])
	assert.Equal(t, "idem-key-1", resp.Metadata["idempotency_key"])
	assert.Equal(t, "merchant_demo", resp.Metadata["merchant_id"])

	stored := repo.tokens[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, TokenStatusActive, stored.Status)
	assert.Equal(t, "visa", stored.CardBrand)
	assert.Equal(t, "4242", stored.CardLast4)
	assert.NotContains(t, stored.CardFingerprint, "4242424242424242")
	assert.Len(t, stored.CardFingerprint, 64)
}

func TestDelegatePayment_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(req *DelegatePaymentRequest)
		wantType apierror.Type
		wantCode string
		wantParm string
	}{
		{
			name:     "wrong payment method type",
			mutate:   func(req *DelegatePaymentRequest) { req.PaymentMethod.Type = "bank_transfer" },
			wantType: apierror.TypeInvalidRequest,
			wantCode: apierror.CodeInvalid,
			wantParm: "$.payment_method.type",
		},
		{
			name:     "unknown card number type",
			mutate:   func(req *DelegatePaymentRequest) { req.PaymentMethod.CardNumberType = "pan" },
			wantType: apierror.TypeInvalidRequest,
			wantCode: apierror.CodeInvalid,
			wantParm: "$.payment_method.card_number_type",
		},
		{
			name:     "fpan failing luhn",
			mutate:   func(req *DelegatePaymentRequest) { req.PaymentMethod.Number = "4242424242424241" },
			wantType: apierror.TypeInvalidCard,
			wantCode: apierror.CodeInvalidCard,
			wantParm: "$.payment_method.number",
		},
		{
			name:     "wrong allowance reason",
			mutate:   func(req *DelegatePaymentRequest) { req.Allowance.Reason = "recurring" },
			wantType: apierror.TypeInvalidRequest,
			wantCode: apierror.CodeInvalid,
			wantParm: "$.allowance.reason",
		},
		{
			name:     "uppercase currency",
			mutate:   func(req *DelegatePaymentRequest) { req.Allowance.Currency = "USD" },
			wantType: apierror.TypeInvalidRequest,
			wantCode: apierror.CodeInvalid,
			wantParm: "$.allowance.currency",
		},
		{
			name:     "no risk signals",
			mutate:   func(req *DelegatePaymentRequest) { req.RiskSignals = nil },
			wantType: apierror.TypeInvalidRequest,
			wantCode: apierror.CodeMissing,
			wantParm: "$.risk_signals",
		},
		{
			name:     "bad risk signal action",
			mutate:   func(req *DelegatePaymentRequest) { req.RiskSignals[0].Action = "ignored" },
			wantType: apierror.TypeInvalidRequest,
			wantCode: apierror.CodeInvalid,
			wantParm: "$.risk_signals[0].action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			svc := newTestService(repo, 0)

			req := validRequest()
			tt.mutate(req)

			_, err := svc.DelegatePayment(context.Background(), req, "k", "m")
			var apiErr *apierror.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantParm, apiErr.Param)
			assert.Empty(t, repo.tokens, "no token on validation failure")
		})
	}
}

func TestDelegatePayment_NetworkTokenSkipsLuhn(t *testing.T) {
	svc := newTestService(newFakeRepository(), 0)

	req := validRequest()
	req.PaymentMethod.CardNumberType = CardNumberTypeNetworkToken
	req.PaymentMethod.Number = "9999999999999999"

	_, err := svc.DelegatePayment(context.Background(), req, "k", "m")
	assert.NoError(t, err)
}

func TestCreateAndProcessPaymentIntent_ScenarioC(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, 0)

	token, err := svc.DelegatePayment(context.Background(), validRequest(), "k", "merchant_demo")
	require.NoError(t, err)

	intent, err := svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: token.ID,
		Amount:             7148,
		Currency:           "usd",
		MerchantID:         "merchant_demo",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^pi_`, intent.ID)
	assert.Equal(t, IntentStatusCompleted, intent.Status)
	require.NotNil(t, intent.CompletedAt)
	assert.Equal(t, TokenStatusConsumed, repo.tokens[token.ID].Status)

	// Reuse must fail regardless of idempotency key.
	_, err = svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: token.ID,
		Amount:             100,
		Currency:           "usd",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeVaultTokenAlreadyUsed, apiErr.Code)
}

func TestCreateAndProcessPaymentIntent_AmountExceedsAllowance(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, 0)

	token, err := svc.DelegatePayment(context.Background(), validRequest(), "k", "m")
	require.NoError(t, err)

	_, err = svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: token.ID,
		Amount:             7149,
		Currency:           "usd",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeAmountExceedsLimit, apiErr.Code)

	assert.Empty(t, repo.intents, "no intent row on allowance violation")
	assert.Equal(t, TokenStatusActive, repo.tokens[token.ID].Status)
}

func TestCreateAndProcessPaymentIntent_CurrencyMismatch(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, 0)

	token, err := svc.DelegatePayment(context.Background(), validRequest(), "k", "m")
	require.NoError(t, err)

	_, err = svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: token.ID,
		Amount:             7148,
		Currency:           "eur",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeCurrencyMismatch, apiErr.Code)
	assert.Empty(t, repo.intents)
}

func TestCreateAndProcessPaymentIntent_ExpiredToken(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, 0)

	req := validRequest()
	req.Allowance.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	token, err := svc.DelegatePayment(context.Background(), req, "k", "m")
	require.NoError(t, err)

	_, err = svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: token.ID,
		Amount:             100,
		Currency:           "usd",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeVaultTokenExpired, apiErr.Code)
}

func TestCreateAndProcessPaymentIntent_UnknownToken(t *testing.T) {
	svc := newTestService(newFakeRepository(), 0)

	_, err := svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: "vt_missing",
		Amount:             100,
		Currency:           "usd",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeVaultTokenNotFound, apiErr.Code)
}

func TestCreateAndProcessPaymentIntent_DelayIsObservable(t *testing.T) {
	repo := newFakeRepository()
	delay := 50 * time.Millisecond
	svc := newTestService(repo, delay)

	token, err := svc.DelegatePayment(context.Background(), validRequest(), "k", "m")
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: token.ID,
		Amount:             7148,
		Currency:           "usd",
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestGetIntent(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, 0)

	token, err := svc.DelegatePayment(context.Background(), validRequest(), "k", "m")
	require.NoError(t, err)

	created, err := svc.CreateAndProcessPaymentIntent(context.Background(), &CreateIntentRequest{
		SharedPaymentToken: token.ID,
		Amount:             7148,
		Currency:           "usd",
	})
	require.NoError(t, err)

	intent, err := svc.GetIntent(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusCompleted, intent.Status)

	_, err = svc.GetIntent(context.Background(), "pi_missing")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeIntentNotFound, apiErr.Code)
}
