package orders

import (
	"testing"

	"github.com/avaldezmon/shoplane-backend/pkg/enums"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
)

func TestApplyPaymentSucceededFromPending(t *testing.T) {
	got, err := Apply(enums.OrderStatusPending, enums.PaymentStatusPending, EventPaymentSucceeded)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %s", got.Outcome)
	}
	if got.Status != enums.OrderStatusProcessing || got.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("unexpected state %s/%s", got.Status, got.PaymentStatus)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	cases := []struct {
		name          string
		status        enums.OrderStatus
		paymentStatus enums.PaymentStatus
		event         PaymentEvent
	}{
		{"succeeded twice", enums.OrderStatusProcessing, enums.PaymentStatusPaid, EventPaymentSucceeded},
		{"failed twice", enums.OrderStatusCancelled, enums.PaymentStatusFailed, EventPaymentFailed},
		{"refunded twice", enums.OrderStatusRefunded, enums.PaymentStatusRefunded, EventRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(tc.status, tc.paymentStatus, tc.event)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if got.Outcome != OutcomeNoop {
				t.Fatalf("expected noop, got %s", got.Outcome)
			}
			if got.Status != tc.status || got.PaymentStatus != tc.paymentStatus {
				t.Fatalf("state changed on noop: %s/%s", got.Status, got.PaymentStatus)
			}
		})
	}
}

func TestApplyFirstAppliedWins(t *testing.T) {
	// success then late failure: failure is a no-op
	first, err := Apply(enums.OrderStatusPending, enums.PaymentStatusPending, EventPaymentSucceeded)
	if err != nil {
		t.Fatalf("apply success: %v", err)
	}
	second, err := Apply(first.Status, first.PaymentStatus, EventPaymentFailed)
	if err != nil {
		t.Fatalf("apply failure after success: %v", err)
	}
	if second.Outcome != OutcomeNoop {
		t.Fatalf("late failure must be a noop, got %s", second.Outcome)
	}
	if second.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("paid order regressed to %s", second.PaymentStatus)
	}

	// failure then late success: success is a no-op
	first, err = Apply(enums.OrderStatusPending, enums.PaymentStatusPending, EventPaymentFailed)
	if err != nil {
		t.Fatalf("apply failure: %v", err)
	}
	if first.Status != enums.OrderStatusCancelled || first.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("unexpected state %s/%s", first.Status, first.PaymentStatus)
	}
	second, err = Apply(first.Status, first.PaymentStatus, EventPaymentSucceeded)
	if err != nil {
		t.Fatalf("apply success after failure: %v", err)
	}
	if second.Outcome != OutcomeNoop {
		t.Fatalf("late success must be a noop, got %s", second.Outcome)
	}
	if second.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("failed order regressed to %s", second.PaymentStatus)
	}
}

func TestApplyRefundRequiresPayment(t *testing.T) {
	for _, ps := range []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusFailed} {
		_, err := Apply(enums.OrderStatusPending, ps, EventRefunded)
		if err == nil {
			t.Fatalf("refund from %s must be rejected", ps)
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("expected state conflict, got %v", err)
		}
	}
}

func TestApplyRefundFromPaid(t *testing.T) {
	got, err := Apply(enums.OrderStatusProcessing, enums.PaymentStatusPaid, EventRefunded)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %s", got.Outcome)
	}
	if got.Status != enums.OrderStatusRefunded || got.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("unexpected state %s/%s", got.Status, got.PaymentStatus)
	}
}

func TestApplyRejectsUnknownEvent(t *testing.T) {
	_, err := Apply(enums.OrderStatusPending, enums.PaymentStatusPending, PaymentEvent("charge_disputed"))
	if err == nil {
		t.Fatal("unknown event must be rejected")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
