package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/checkout"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

type stubCheckoutService struct {
	create   func(ctx context.Context, req *checkout.CreateSessionRequest) (*checkout.SessionResponse, error)
	get      func(ctx context.Context, id string) (*checkout.SessionResponse, error)
	update   func(ctx context.Context, id string, req *checkout.UpdateSessionRequest) (*checkout.SessionResponse, error)
	complete func(ctx context.Context, id string, req *checkout.CompleteSessionRequest) (*checkout.SessionResponse, error)
	cancel   func(ctx context.Context, id string) (*checkout.SessionResponse, error)
}

func (s *stubCheckoutService) Create(ctx context.Context, req *checkout.CreateSessionRequest) (*checkout.SessionResponse, error) {
	return s.create(ctx, req)
}

func (s *stubCheckoutService) Get(ctx context.Context, id string) (*checkout.SessionResponse, error) {
	return s.get(ctx, id)
}

func (s *stubCheckoutService) Update(ctx context.Context, id string, req *checkout.UpdateSessionRequest) (*checkout.SessionResponse, error) {
	return s.update(ctx, id, req)
}

func (s *stubCheckoutService) Complete(ctx context.Context, id string, req *checkout.CompleteSessionRequest) (*checkout.SessionResponse, error) {
	return s.complete(ctx, id, req)
}

func (s *stubCheckoutService) Cancel(ctx context.Context, id string) (*checkout.SessionResponse, error) {
	return s.cancel(ctx, id)
}

func checkoutRouter(service CheckoutService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewCheckoutHandler(service)

	r := gin.New()
	r.POST("/checkout_sessions", handler.CreateSession)
	r.GET("/checkout_sessions/:id", handler.GetSession)
	r.POST("/checkout_sessions/:id", handler.UpdateSession)
	r.POST("/checkout_sessions/:id/complete", handler.CompleteSession)
	r.POST("/checkout_sessions/:id/cancel", handler.CancelSession)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func readySession(id string) *checkout.SessionResponse {
	return &checkout.SessionResponse{
		ID:       id,
		Status:   checkout.StatusReadyForPayment,
		Currency: "usd",
	}
}

func TestCreateSession_Created(t *testing.T) {
	r := checkoutRouter(&stubCheckoutService{
		create: func(ctx context.Context, req *checkout.CreateSessionRequest) (*checkout.SessionResponse, error) {
			require.Len(t, req.Items, 1)
			return readySession("cs_1"), nil
		},
	})

	w := serve(r, http.MethodPost, "/checkout_sessions", `{"items":[{"id":"item_123","quantity":2}]}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "cs_1")
}

func TestCreateSession_MalformedBody(t *testing.T) {
	r := checkoutRouter(&stubCheckoutService{
		create: func(ctx context.Context, req *checkout.CreateSessionRequest) (*checkout.SessionResponse, error) {
			t.Fatal("service must not be called on malformed input")
			return nil, nil
		},
	})

	w := serve(r, http.MethodPost, "/checkout_sessions", `{"items":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apierror.CodeInvalid)
}

func TestGetSession_NotFoundMapsTo404(t *testing.T) {
	r := checkoutRouter(&stubCheckoutService{
		get: func(ctx context.Context, id string) (*checkout.SessionResponse, error) {
			return nil, apierror.NotFound(apierror.CodeSessionNotFound, "Checkout session not found.")
		},
	})

	w := serve(r, http.MethodGet, "/checkout_sessions/cs_missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apierror.CodeSessionNotFound)
}

func TestUpdateSession_TerminalMapsTo405(t *testing.T) {
	r := checkoutRouter(&stubCheckoutService{
		update: func(ctx context.Context, id string, req *checkout.UpdateSessionRequest) (*checkout.SessionResponse, error) {
			return nil, apierror.NotAllowed(apierror.CodeSessionNotModifiable, "Checkout session can no longer be modified.")
		},
	})

	w := serve(r, http.MethodPost, "/checkout_sessions/cs_1", `{"buyer":{"first_name":"Ada"}}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), apierror.CodeSessionNotModifiable)
}

func TestCompleteSession_IdempotencyConflictMapsTo409(t *testing.T) {
	r := checkoutRouter(&stubCheckoutService{
		complete: func(ctx context.Context, id string, req *checkout.CompleteSessionRequest) (*checkout.SessionResponse, error) {
			return nil, apierror.New(apierror.TypeIdempotencyError, apierror.CodeIdempotencyConflict,
				"idempotency key was already used with a different request body")
		},
	})

	w := serve(r, http.MethodPost, "/checkout_sessions/cs_1/complete", `{"payment_data":{"token":"vt_1"}}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), apierror.CodeIdempotencyConflict)
}

func TestCompleteSession_DeclinedMapsTo500(t *testing.T) {
	r := checkoutRouter(&stubCheckoutService{
		complete: func(ctx context.Context, id string, req *checkout.CompleteSessionRequest) (*checkout.SessionResponse, error) {
			return nil, apierror.New(apierror.TypeProcessingError, apierror.CodePaymentDeclined, "Payment was not completed.")
		},
	})

	w := serve(r, http.MethodPost, "/checkout_sessions/cs_1/complete", `{"payment_data":{"token":"vt_1"}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apierror.CodePaymentDeclined)
}

func TestCancelSession_OK(t *testing.T) {
	r := checkoutRouter(&stubCheckoutService{
		cancel: func(ctx context.Context, id string) (*checkout.SessionResponse, error) {
			session := readySession(id)
			session.Status = checkout.StatusCanceled
			return session, nil
		},
	})

	w := serve(r, http.MethodPost, "/checkout_sessions/cs_1/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(checkout.StatusCanceled))
}
