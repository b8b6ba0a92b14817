package orders

import (
	"fmt"

	"github.com/avaldezmon/shoplane-backend/pkg/enums"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
)

// PaymentEvent is the closed set of processor notifications the state machine
// understands. Webhook event types are mapped onto these before any state is
// touched.
type PaymentEvent string

const (
	EventPaymentSucceeded PaymentEvent = "payment_succeeded"
	EventPaymentFailed    PaymentEvent = "payment_failed"
	EventRefunded         PaymentEvent = "refunded"
)

// IsValid reports whether the event is part of the closed set.
func (e PaymentEvent) IsValid() bool {
	switch e {
	case EventPaymentSucceeded, EventPaymentFailed, EventRefunded:
		return true
	default:
		return false
	}
}

func (e PaymentEvent) String() string { return string(e) }

// Outcome describes what Apply did.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNoop    Outcome = "noop"
)

// Transition is the state pair an order moves to when an event applies.
type Transition struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
	Outcome       Outcome
}

// Apply consults the transition table for the given current state pair and
// event. The rules make final state independent of delivery order:
//
//   - PaymentSucceeded: pending -> processing/paid; no-op once paymentStatus
//     has left pending (first-applied-wins against a racing failure).
//   - PaymentFailed: pending -> cancelled/failed; no-op if already failed or
//     already paid (a late failure must never regress a paid order).
//   - Refunded: paid -> refunded/refunded; no-op if already refunded;
//     anything else is an illegal transition.
//
// Illegal transitions return a StateConflict error carrying the current and
// requested states; the caller logs it and drops the event without mutating
// the order.
func Apply(status enums.OrderStatus, paymentStatus enums.PaymentStatus, event PaymentEvent) (Transition, error) {
	switch event {
	case EventPaymentSucceeded:
		if paymentStatus == enums.PaymentStatusPending {
			return Transition{
				Status:        enums.OrderStatusProcessing,
				PaymentStatus: enums.PaymentStatusPaid,
				Outcome:       OutcomeApplied,
			}, nil
		}
		return noop(status, paymentStatus), nil

	case EventPaymentFailed:
		if paymentStatus == enums.PaymentStatusPending {
			return Transition{
				Status:        enums.OrderStatusCancelled,
				PaymentStatus: enums.PaymentStatusFailed,
				Outcome:       OutcomeApplied,
			}, nil
		}
		return noop(status, paymentStatus), nil

	case EventRefunded:
		switch paymentStatus {
		case enums.PaymentStatusPaid:
			return Transition{
				Status:        enums.OrderStatusRefunded,
				PaymentStatus: enums.PaymentStatusRefunded,
				Outcome:       OutcomeApplied,
			}, nil
		case enums.PaymentStatusRefunded:
			return noop(status, paymentStatus), nil
		default:
			return Transition{}, illegalTransition(status, paymentStatus, event)
		}

	default:
		return Transition{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment event %q", event))
	}
}

func noop(status enums.OrderStatus, paymentStatus enums.PaymentStatus) Transition {
	return Transition{
		Status:        status,
		PaymentStatus: paymentStatus,
		Outcome:       OutcomeNoop,
	}
}

func illegalTransition(status enums.OrderStatus, paymentStatus enums.PaymentStatus, event PaymentEvent) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed in current state").
		WithDetails(map[string]any{
			"current_status":         status.String(),
			"current_payment_status": paymentStatus.String(),
			"requested_event":        event.String(),
		})
}
