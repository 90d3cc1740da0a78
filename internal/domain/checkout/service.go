// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/catalog"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/order"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// PaymentIntentResult is what the payment gateway reports back after
// redeeming a vault token.
type PaymentIntentResult struct {
	ID     string
	Status string
}

// PaymentGateway redeems a vault token against the PSP. The merchant never
// inspects the token; it only presents the opaque id together with the
// amount and currency it computed itself.
type PaymentGateway interface {
	CreateAndProcessPaymentIntent(ctx context.Context, token string, amount int64, currency, checkoutSessionID string) (*PaymentIntentResult, error)
}

// Service handles checkout session business logic
type Service struct {
	repo    Repository
	catalog *catalog.Service
	gateway PaymentGateway
	config  *config.Config
	logger  *logrus.Logger
}

// NewService creates a new checkout service
func NewService(repo Repository, catalogService *catalog.Service, gateway PaymentGateway, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogService,
		gateway: gateway,
		config:  cfg,
		logger:  logger,
	}
}

// ItemParam references a product and quantity in a create/update request
type ItemParam struct {
	ID       string `json:"id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CreateSessionRequest represents session creation data
type CreateSessionRequest struct {
	Items              []ItemParam `json:"items" binding:"required,min=1,dive"`
	Buyer              *Buyer      `json:"buyer,omitempty"`
	FulfillmentAddress *Address    `json:"fulfillment_address,omitempty"`
}

// UpdateSessionRequest represents a partial session update. Absent fields are
// left untouched; items, when present, replace the cart wholesale.
type UpdateSessionRequest struct {
	Items               []ItemParam `json:"items,omitempty"`
	Buyer               *Buyer      `json:"buyer,omitempty"`
	FulfillmentAddress  *Address    `json:"fulfillment_address,omitempty"`
	FulfillmentOptionID string      `json:"fulfillment_option_id,omitempty"`
}

// PaymentData carries the vault token presented at completion
type PaymentData struct {
	Token          string   `json:"token" binding:"required"`
	Provider       string   `json:"provider,omitempty"`
	BillingAddress *Address `json:"billing_address,omitempty"`
}

// CompleteSessionRequest represents session completion data
type CompleteSessionRequest struct {
	Buyer       *Buyer      `json:"buyer,omitempty"`
	PaymentData PaymentData `json:"payment_data" binding:"required"`
}

// Create validates the requested items and persists a new session. Sessions
// carrying any item-level error are returned but never stored, so their ids
// cannot be retrieved later.
func (s *Service) Create(ctx context.Context, req *CreateSessionRequest) (*SessionResponse, error) {
	items, messages, err := s.buildLineItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	session := &CheckoutSession{
		ID:        "cs_" + uuid.NewString(),
		Currency:  s.config.Merchant.Currency,
		LineItems: items,
	}
	if req.Buyer != nil {
		session.HasBuyer = true
		session.Buyer = *req.Buyer
	}
	if req.FulfillmentAddress != nil {
		session.HasAddress = true
		session.FulfillmentAddress = *req.FulfillmentAddress
	}
	s.selectFulfillmentOption(session, "")

	if len(messages) > 0 {
		session.Messages = messages
		s.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"errors":     len(messages),
		}).Warn("checkout session has item errors; not persisting")
		return s.respond(session), nil
	}

	session.Status = DeriveStatus(session)
	s.cacheTotals(session)

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, apierror.Processing("failed to store checkout session")
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"status":     session.Status,
		"line_items": len(session.LineItems),
	}).Info("checkout session created")

	return s.respond(session), nil
}

// Get retrieves a session with all derived values recomputed
func (s *Service) Get(ctx context.Context, id string) (*SessionResponse, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apierror.NotFound(apierror.CodeSessionNotFound, "Checkout session not found.")
		}
		return nil, apierror.Processing("failed to load checkout session")
	}
	return s.respond(session), nil
}

// Update merges the provided fields onto the stored session. Item-level
// validation errors return an unpersisted error session and leave the stored
// row untouched.
func (s *Service) Update(ctx context.Context, id string, req *UpdateSessionRequest) (*SessionResponse, error) {
	var newItems []LineItem
	var messages []Message
	if req.Items != nil {
		var err error
		newItems, messages, err = s.buildLineItems(ctx, req.Items)
		if err != nil {
			return nil, err
		}
	}

	if len(messages) > 0 {
		stored, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return nil, apierror.NotFound(apierror.CodeSessionNotFound, "Checkout session not found.")
			}
			return nil, apierror.Processing("failed to load checkout session")
		}
		if stored.Status.IsTerminal() {
			return nil, apierror.NotAllowed(apierror.CodeSessionNotModifiable, "Checkout session can no longer be modified.")
		}
		// Mirror the attempted update in memory without persisting it.
		preview := *stored
		preview.LineItems = newItems
		s.applyUpdate(&preview, req)
		preview.Messages = messages
		return s.respond(&preview), nil
	}

	session, err := s.repo.Mutate(ctx, id, func(session *CheckoutSession) (*order.Order, error) {
		if session.Status.IsTerminal() {
			return nil, apierror.NotAllowed(apierror.CodeSessionNotModifiable, "Checkout session can no longer be modified.")
		}
		if req.Items != nil {
			session.LineItems = newItems
		}
		s.applyUpdate(session, req)
		session.Status = DeriveStatus(session)
		s.cacheTotals(session)
		return nil, nil
	})
	if err != nil {
		return nil, s.mutateError(err)
	}

	return s.respond(session), nil
}

// Complete redeems the vault token for the session's current total and, only
// on payment success, creates the order and flips the session status in the
// same transaction.
func (s *Service) Complete(ctx context.Context, id string, req *CompleteSessionRequest) (*SessionResponse, error) {
	session, err := s.repo.Mutate(ctx, id, func(session *CheckoutSession) (*order.Order, error) {
		if DeriveStatus(session) != StatusReadyForPayment {
			return nil, apierror.NotAllowed(apierror.CodeSessionNotCompletable, "Checkout session is not ready for payment.")
		}
		if req.Buyer != nil {
			session.HasBuyer = true
			session.Buyer = *req.Buyer
		}

		s.selectFulfillmentOption(session, session.FulfillmentOptionID)
		s.cacheTotals(session)

		if !canTransition(session.Status, StatusInProgress) {
			return nil, apierror.NotAllowed(apierror.CodeSessionNotCompletable, "Checkout session is not ready for payment.")
		}
		session.Status = StatusInProgress

		result, err := s.gateway.CreateAndProcessPaymentIntent(ctx, req.PaymentData.Token, session.TotalAmount, session.Currency, session.ID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"session_id": session.ID,
				"error":      err.Error(),
			}).Warn("payment intent failed; leaving session untouched")
			return nil, err
		}
		if result.Status != "completed" {
			return nil, apierror.New(apierror.TypeProcessingError, apierror.CodePaymentDeclined, "Payment was not completed.")
		}

		newOrder := &order.Order{
			ID:                "ord_" + uuid.NewString(),
			CheckoutSessionID: session.ID,
			TotalAmount:       session.TotalAmount,
			Currency:          session.Currency,
		}
		newOrder.PermalinkURL = s.config.Merchant.BaseURL + "/orders/" + newOrder.ID

		session.Status = StatusCompleted
		session.OrderID = newOrder.ID

		s.logger.WithFields(logrus.Fields{
			"session_id":     session.ID,
			"order_id":       newOrder.ID,
			"payment_intent": result.ID,
			"amount":         session.TotalAmount,
		}).Info("checkout session completed")

		return newOrder, nil
	})
	if err != nil {
		return nil, s.mutateError(err)
	}

	return s.respond(session), nil
}

// Cancel moves a non-terminal session to canceled. Canceling an already
// canceled session is a no-op; canceling a completed one fails.
func (s *Service) Cancel(ctx context.Context, id string) (*SessionResponse, error) {
	session, err := s.repo.Mutate(ctx, id, func(session *CheckoutSession) (*order.Order, error) {
		switch session.Status {
		case StatusCanceled:
			return nil, nil
		case StatusCompleted:
			return nil, apierror.NotAllowed(apierror.CodeSessionNotCancelable, "Completed checkout sessions cannot be canceled.")
		default:
			session.Status = StatusCanceled
			return nil, nil
		}
	})
	if err != nil {
		return nil, s.mutateError(err)
	}

	return s.respond(session), nil
}

// Private helper methods

// buildLineItems resolves and prices the requested items. Validation failures
// come back as structured messages, not errors; only infrastructure failures
// return an error.
func (s *Service) buildLineItems(ctx context.Context, params []ItemParam) ([]LineItem, []Message, error) {
	var items []LineItem
	var messages []Message

	for i, param := range params {
		product, err := s.catalog.GetProduct(ctx, param.ID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				messages = append(messages, invalidItemMessage(i, param.ID))
				continue
			}
			return nil, nil, apierror.Processing("failed to resolve catalog item")
		}
		if !product.InStock(param.Quantity) {
			messages = append(messages, outOfStockMessage(i, param.ID))
			continue
		}
		items = append(items, NewLineItem(product, param.Quantity))
	}

	return items, messages, nil
}

// applyUpdate merges the non-item fields of an update request and re-derives
// the fulfillment selection.
func (s *Service) applyUpdate(session *CheckoutSession, req *UpdateSessionRequest) {
	if req.Buyer != nil {
		session.HasBuyer = true
		session.Buyer = *req.Buyer
	}
	if req.FulfillmentAddress != nil {
		session.HasAddress = true
		session.FulfillmentAddress = *req.FulfillmentAddress
	}

	requested := session.FulfillmentOptionID
	if req.FulfillmentOptionID != "" {
		requested = req.FulfillmentOptionID
	}
	s.selectFulfillmentOption(session, requested)
}

// selectFulfillmentOption regenerates the option list and pins the selection.
// A requested id that no longer exists silently falls back to the first
// (cheapest) option.
func (s *Service) selectFulfillmentOption(session *CheckoutSession, requested string) {
	options := FulfillmentOptionsFor(session.RequiresShipping(), session.HasAddress, session.FulfillmentAddress, time.Now().UTC())
	if len(options) == 0 {
		session.FulfillmentOptionID = ""
		return
	}
	for _, option := range options {
		if option.ID == requested {
			session.FulfillmentOptionID = requested
			return
		}
	}
	session.FulfillmentOptionID = options[0].ID
}

// cacheTotals refreshes the denormalized totals columns
func (s *Service) cacheTotals(session *CheckoutSession) {
	totals := ComputeTotals(session.LineItems, s.selectedOption(session), session.FulfillmentAddress, session.HasAddress)
	session.SubtotalAmount = SubtotalAmount(totals)
	session.TotalAmount = TotalAmount(totals)
}

// selectedOption resolves the currently selected option from a fresh
// regeneration, or nil when none is selected.
func (s *Service) selectedOption(session *CheckoutSession) *FulfillmentOption {
	options := FulfillmentOptionsFor(session.RequiresShipping(), session.HasAddress, session.FulfillmentAddress, time.Now().UTC())
	for i := range options {
		if options[i].ID == session.FulfillmentOptionID {
			return &options[i]
		}
	}
	return nil
}

// respond assembles the wire representation with every derived value
// recomputed from the session's underlying state.
func (s *Service) respond(session *CheckoutSession) *SessionResponse {
	options := FulfillmentOptionsFor(session.RequiresShipping(), session.HasAddress, session.FulfillmentAddress, time.Now().UTC())

	var selected *FulfillmentOption
	for i := range options {
		if options[i].ID == session.FulfillmentOptionID {
			selected = &options[i]
		}
	}

	totals := ComputeTotals(session.LineItems, selected, session.FulfillmentAddress, session.HasAddress)
	session.SubtotalAmount = SubtotalAmount(totals)
	session.TotalAmount = TotalAmount(totals)

	resp := &SessionResponse{
		ID:                  session.ID,
		Status:              DeriveStatus(session),
		Currency:            session.Currency,
		LineItems:           session.LineItems,
		FulfillmentOptions:  options,
		FulfillmentOptionID: session.FulfillmentOptionID,
		Totals:              totals,
		Messages:            session.Messages,
		Links: []Link{
			{Type: "terms_of_use", URL: s.config.Merchant.BaseURL + "/terms"},
			{Type: "privacy_policy", URL: s.config.Merchant.BaseURL + "/privacy"},
		},
	}
	if resp.LineItems == nil {
		resp.LineItems = []LineItem{}
	}
	if resp.Messages == nil {
		resp.Messages = []Message{}
	}
	if resp.FulfillmentOptions == nil {
		resp.FulfillmentOptions = []FulfillmentOption{}
	}
	if session.HasBuyer {
		buyer := session.Buyer
		resp.Buyer = &buyer
	}
	if session.HasAddress {
		address := session.FulfillmentAddress
		resp.FulfillmentAddress = &address
	}
	if session.OrderID != "" {
		resp.Order = &OrderRef{
			ID:                session.OrderID,
			CheckoutSessionID: session.ID,
			PermalinkURL:      s.config.Merchant.BaseURL + "/orders/" + session.OrderID,
		}
	}

	return resp
}

// mutateError translates repository sentinel errors into structured errors
func (s *Service) mutateError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return apierror.NotFound(apierror.CodeSessionNotFound, "Checkout session not found.")
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return apierror.Processing("failed to update checkout session")
}
