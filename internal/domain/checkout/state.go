// internal/domain/checkout/state.go
package checkout

// DeriveStatus recomputes the session status from the current cart, address,
// and selected fulfillment option. Terminal states are sticky; everything
// else is a pure function of the underlying state so the status can never
// drift from the cart.
func DeriveStatus(s *CheckoutSession) Status {
	if s.Status.IsTerminal() {
		return s.Status
	}
	if s.Status == StatusInProgress {
		return s.Status
	}
	if len(s.LineItems) == 0 {
		return StatusNotReadyForPayment
	}
	if s.RequiresShipping() {
		if !s.HasAddress || s.FulfillmentOptionID == "" {
			return StatusNotReadyForPayment
		}
	}
	return StatusReadyForPayment
}

// canTransition encodes the allowed state machine edges
func canTransition(from, to Status) bool {
	switch from {
	case StatusNotReadyForPayment:
		return to == StatusReadyForPayment || to == StatusCanceled
	case StatusReadyForPayment:
		return to == StatusInProgress || to == StatusCanceled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCanceled
	default:
		return false
	}
}
