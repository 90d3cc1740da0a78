// internal/domain/vault/service.go
package vault

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// Card number types accepted on delegate_payment
const (
	CardNumberTypeFPAN         = "fpan"
	CardNumberTypeNetworkToken = "network_token"
)

// Risk signal actions accepted on delegate_payment
var validRiskActions = map[string]bool{
	"blocked":       true,
	"manual_review": true,
	"authorized":    true,
}

// PaymentMethod is the delegated card credential
type PaymentMethod struct {
	Type           string `json:"type"`
	CardNumberType string `json:"card_number_type"`
	Number         string `json:"number"`
	ExpMonth       string `json:"exp_month,omitempty"`
	ExpYear        string `json:"exp_year,omitempty"`
	Name           string `json:"name,omitempty"`
	CVC            string `json:"cvc,omitempty"`
	DisplayBrand   string `json:"display_brand,omitempty"`
}

// RiskSignal carries fraud intelligence attached to a tokenization request
type RiskSignal struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Score  int    `json:"score"`
}

// BillingAddress is the address attached to the payment method
type BillingAddress struct {
	Name       string `json:"name,omitempty"`
	LineOne    string `json:"line_one"`
	LineTwo    string `json:"line_two,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// DelegatePaymentRequest is the tokenization request body
type DelegatePaymentRequest struct {
	PaymentMethod  PaymentMethod     `json:"payment_method"`
	Allowance      Allowance         `json:"allowance"`
	BillingAddress *BillingAddress   `json:"billing_address,omitempty"`
	RiskSignals    []RiskSignal      `json:"risk_signals"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DelegatePaymentResponse is the tokenization response body
type DelegatePaymentResponse struct {
	ID       string            `json:"id"`
	Created  time.Time         `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

// CreateIntentRequest is the merchant-side redemption request body
type CreateIntentRequest struct {
	SharedPaymentToken string            `json:"shared_payment_token"`
	Amount             int64             `json:"amount"`
	Currency           string            `json:"currency"`
	MerchantID         string            `json:"merchant_id,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Service implements the PSP vault token and payment intent engine
type Service struct {
	repo   Repository
	config *config.Config
	logger *logrus.Logger
}

// NewService creates the vault service
func NewService(repo Repository, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		config: cfg,
		logger: logger,
	}
}

// DelegatePayment validates a tokenization request and mints a one-time-use
// vault token. The raw card number never reaches storage; only display-safe
// fields and a SHA-256 fingerprint are kept.
func (s *Service) DelegatePayment(ctx context.Context, req *DelegatePaymentRequest, idempotencyKey, merchantID string) (*DelegatePaymentResponse, error) {
	if err := validateDelegatePayment(req); err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if idempotencyKey != "" {
		metadata["idempotency_key"] = idempotencyKey
	}
	if merchantID != "" {
		metadata["merchant_id"] = merchantID
	}

	token := &VaultToken{
		ID:              "vt_" + uuid.NewString(),
		Status:          TokenStatusActive,
		CardBrand:       cardBrand(req.PaymentMethod),
		CardLast4:       last4(req.PaymentMethod.Number),
		CardFingerprint: fingerprint(req.PaymentMethod.Number),
		Allowance:       req.Allowance,
		RiskSignals:     marshalJSON(req.RiskSignals),
		Metadata:        marshalJSON(metadata),
		CreatedAt:       time.Now().UTC(),
	}
	if req.BillingAddress != nil {
		token.BillingAddress = marshalJSON(req.BillingAddress)
	}

	if err := s.repo.CreateToken(ctx, token); err != nil {
		s.logger.WithError(err).Error("Failed to persist vault token")
		return nil, apierror.Processing("failed to store vault token")
	}

	s.logger.WithFields(logrus.Fields{
		"vault_token_id":      token.ID,
		"checkout_session_id": token.Allowance.CheckoutSessionID,
		"max_amount":          token.Allowance.MaxAmount,
	}).Info("Vault token created")

	return &DelegatePaymentResponse{
		ID:       token.ID,
		Created:  token.CreatedAt,
		Metadata: metadata,
	}, nil
}

// CreateAndProcessPaymentIntent redeems a vault token for the given amount.
// The call blocks for the configured processing delay before settling; the
// delay models the settlement round-trip and is part of the contract.
func (s *Service) CreateAndProcessPaymentIntent(ctx context.Context, req *CreateIntentRequest) (*PaymentIntent, error) {
	if req.SharedPaymentToken == "" {
		return nil, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeMissing,
			"shared_payment_token is required", "$.shared_payment_token")
	}
	if req.Amount <= 0 {
		return nil, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
			"amount must be a positive integer of minor units", "$.amount")
	}
	if !validCurrency(req.Currency) {
		return nil, apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
			"currency must be a lowercase ISO 4217 code", "$.currency")
	}

	token, err := s.repo.GetToken(ctx, req.SharedPaymentToken)
	if err != nil {
		if err == ErrTokenNotFound {
			return nil, apierror.NotFound(apierror.CodeVaultTokenNotFound, "no such vault token")
		}
		s.logger.WithError(err).Error("Failed to load vault token")
		return nil, apierror.Processing("failed to load vault token")
	}

	if err := checkRedeemable(token, req, time.Now().UTC()); err != nil {
		return nil, err
	}

	intent := &PaymentIntent{
		ID:           "pi_" + uuid.NewString(),
		VaultTokenID: token.ID,
		Status:       IntentStatusPending,
		Amount:       req.Amount,
		Currency:     req.Currency,
		MerchantID:   req.MerchantID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateIntent(ctx, intent); err != nil {
		s.logger.WithError(err).Error("Failed to persist payment intent")
		return nil, apierror.Processing("failed to store payment intent")
	}

	time.Sleep(s.config.PSP.ProcessingDelay)

	completedAt := time.Now().UTC()
	if err := s.repo.CompleteIntent(ctx, intent.ID, token.ID, completedAt); err != nil {
		if err == ErrTokenConsumed {
			// A concurrent redemption won the consume race; this intent
			// stays on record as failed.
			if failErr := s.repo.FailIntent(ctx, intent.ID); failErr != nil {
				s.logger.WithError(failErr).Error("Failed to mark losing payment intent failed")
			}
			return nil, apierror.NotAllowed(apierror.CodeVaultTokenAlreadyUsed,
				"vault token has already been used")
		}
		s.logger.WithError(err).Error("Failed to settle payment intent")
		return nil, apierror.Processing("failed to settle payment intent")
	}

	intent.Status = IntentStatusCompleted
	intent.CompletedAt = &completedAt

	s.logger.WithFields(logrus.Fields{
		"payment_intent_id": intent.ID,
		"vault_token_id":    token.ID,
		"amount":            intent.Amount,
	}).Info("Payment intent completed")

	return intent, nil
}

// GetIntent looks up a payment intent by id
func (s *Service) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	intent, err := s.repo.GetIntent(ctx, id)
	if err != nil {
		if err == ErrIntentNotFound {
			return nil, apierror.NotFound(apierror.CodeIntentNotFound, "no such payment intent")
		}
		s.logger.WithError(err).Error("Failed to load payment intent")
		return nil, apierror.Processing("failed to load payment intent")
	}
	return intent, nil
}

// checkRedeemable applies the allowance gates in a fixed order: consumed,
// expired, amount, currency, reason.
func checkRedeemable(token *VaultToken, req *CreateIntentRequest, now time.Time) error {
	if token.Status == TokenStatusConsumed {
		return apierror.NotAllowed(apierror.CodeVaultTokenAlreadyUsed,
			"vault token has already been used")
	}
	if token.Status == TokenStatusExpired || token.ExpiredAt(now) {
		return apierror.NotAllowed(apierror.CodeVaultTokenExpired,
			"vault token allowance has expired")
	}
	if req.Amount > token.Allowance.MaxAmount {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeAmountExceedsLimit,
			"amount exceeds the vault token allowance", "$.amount")
	}
	if req.Currency != token.Allowance.Currency {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeCurrencyMismatch,
			"currency does not match the vault token allowance", "$.currency")
	}
	if token.Allowance.Reason != "one_time" {
		return apierror.NotAllowed(apierror.CodeVaultTokenAlreadyUsed,
			"vault token allowance does not permit charges")
	}
	return nil
}

func validateDelegatePayment(req *DelegatePaymentRequest) error {
	pm := req.PaymentMethod
	if pm.Type != "card" {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
			"payment method type must be card", "$.payment_method.type")
	}
	if pm.CardNumberType != CardNumberTypeFPAN && pm.CardNumberType != CardNumberTypeNetworkToken {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
			"card_number_type must be fpan or network_token", "$.payment_method.card_number_type")
	}
	if pm.Number == "" {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeMissing,
			"card number is required", "$.payment_method.number")
	}
	if pm.CardNumberType == CardNumberTypeFPAN && !luhnValid(pm.Number) {
		return apierror.NewParam(apierror.TypeInvalidCard, apierror.CodeInvalidCard,
			"card number failed verification", "$.payment_method.number")
	}

	al := req.Allowance
	if al.Reason != "one_time" {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
			"allowance reason must be one_time", "$.allowance.reason")
	}
	if al.MaxAmount <= 0 {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
			"allowance max_amount must be a positive integer of minor units", "$.allowance.max_amount")
	}
	if !validCurrency(al.Currency) {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
			"allowance currency must be a lowercase ISO 4217 code", "$.allowance.currency")
	}
	if al.ExpiresAt.IsZero() {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeMissing,
			"allowance expires_at is required", "$.allowance.expires_at")
	}

	if len(req.RiskSignals) == 0 {
		return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeMissing,
			"at least one risk signal is required", "$.risk_signals")
	}
	for i, rs := range req.RiskSignals {
		if !validRiskActions[rs.Action] {
			return apierror.NewParam(apierror.TypeInvalidRequest, apierror.CodeInvalid,
				"risk signal action must be blocked, manual_review or authorized",
				"$.risk_signals["+strconv.Itoa(i)+"].action")
		}
	}

	return nil
}

func validCurrency(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	return currency == strings.ToLower(currency)
}

func cardBrand(pm PaymentMethod) string {
	if pm.DisplayBrand != "" {
		return strings.ToLower(pm.DisplayBrand)
	}
	switch {
	case strings.HasPrefix(pm.Number, "4"):
		return "visa"
	case strings.HasPrefix(pm.Number, "5"):
		return "mastercard"
	case strings.HasPrefix(pm.Number, "3"):
		return "amex"
	default:
		return "unknown"
	}
}

func last4(number string) string {
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}

func fingerprint(number string) string {
	sum := sha256.Sum256([]byte(number))
	return hex.EncodeToString(sum[:])
}

func marshalJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
