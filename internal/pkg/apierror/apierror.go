// internal/pkg/apierror/apierror.go
package apierror

import (
	"errors"
	"net/http"
)

// Type classifies an error into the protocol-level taxonomy.
type Type string

const (
	TypeInvalidRequest      Type = "invalid_request"
	TypeInvalidCard         Type = "invalid_card"
	TypeAuthenticationError Type = "authentication_error"
	TypeIdempotencyError    Type = "idempotency_error"
	TypeRequestNotFound     Type = "request_not_found"
	TypeRequestNotAllowed   Type = "request_not_allowed"
	TypeProcessingError     Type = "processing_error"
	TypeServiceUnavailable  Type = "service_unavailable"
)

// Machine-readable error codes surfaced to protocol peers.
const (
	CodeInvalid               = "invalid"
	CodeMissing               = "missing"
	CodeOutOfStock            = "out_of_stock"
	CodeInvalidCard           = "invalid_card"
	CodeInvalidAPIKey         = "invalid_api_key"
	CodeInvalidSignature      = "invalid_signature"
	CodeInvalidTimestamp      = "invalid_timestamp"
	CodeIdempotencyConflict   = "idempotency_conflict"
	CodeRequestNotIdempotent  = "request_not_idempotent"
	CodeSessionNotFound       = "session_not_found"
	CodeSessionNotModifiable  = "session_not_modifiable"
	CodeSessionNotCancelable  = "session_not_cancelable"
	CodeSessionNotCompletable = "session_not_completable"
	CodeProductNotFound       = "product_not_found"
	CodeOrderNotFound         = "order_not_found"
	CodeVaultTokenNotFound    = "vault_token_not_found"
	CodeVaultTokenAlreadyUsed = "vault_token_already_used"
	CodeVaultTokenExpired     = "vault_token_expired"
	CodeAmountExceedsLimit    = "amount_exceeds_allowance"
	CodeCurrencyMismatch      = "currency_mismatch"
	CodeIntentNotFound        = "payment_intent_not_found"
	CodePaymentDeclined       = "payment_declined"
	CodeProcessingError       = "processing_error"
)

// Error is the structured error object every endpoint returns.
type Error struct {
	Type    Type   `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// HTTPStatus maps the error taxonomy onto HTTP status codes.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeInvalidRequest:
		return http.StatusBadRequest
	case TypeInvalidCard:
		return http.StatusUnprocessableEntity
	case TypeAuthenticationError:
		return http.StatusUnauthorized
	case TypeIdempotencyError:
		return http.StatusConflict
	case TypeRequestNotFound:
		return http.StatusNotFound
	case TypeRequestNotAllowed:
		return http.StatusMethodNotAllowed
	case TypeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a structured error.
func New(t Type, code, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

// NewParam creates a structured error tied to a specific request parameter.
func NewParam(t Type, code, message, param string) *Error {
	return &Error{Type: t, Code: code, Message: message, Param: param}
}

// InvalidRequest is a convenience constructor for 400-class input errors.
func InvalidRequest(code, message string) *Error {
	return New(TypeInvalidRequest, code, message)
}

// NotFound is a convenience constructor for 404-class resource errors.
func NotFound(code, message string) *Error {
	return New(TypeRequestNotFound, code, message)
}

// NotAllowed is a convenience constructor for 405-class wrong-state errors.
func NotAllowed(code, message string) *Error {
	return New(TypeRequestNotAllowed, code, message)
}

// Authentication is a convenience constructor for 401 errors.
func Authentication(message string) *Error {
	return New(TypeAuthenticationError, CodeInvalidAPIKey, message)
}

// Processing is a convenience constructor for unexpected 500-class failures.
func Processing(message string) *Error {
	return New(TypeProcessingError, CodeProcessingError, message)
}

// From extracts a structured error from err, wrapping unknown errors as a
// processing error so handlers never leak raw error strings unclassified.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Processing(err.Error())
}
