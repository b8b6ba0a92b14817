package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/avaldezmon/shoplane-backend/internal/orders"
	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

// ServiceParams bundles the reconciler dependencies.
type ServiceParams struct {
	OrdersRepo     orders.Repository
	Metrics        *metrics.WebhookMetrics
	Logger         *logger.Logger
	CASMaxAttempts int
}

// Service reconciles processor notifications against stored orders. It never
// calls out to the processor; it only reacts to what arrives.
type Service struct {
	ordersRepo     orders.Repository
	metrics        *metrics.WebhookMetrics
	logg           *logger.Logger
	casMaxAttempts int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.CASMaxAttempts <= 0 {
		params.CASMaxAttempts = 3
	}
	return &Service{
		ordersRepo:     params.OrdersRepo,
		metrics:        params.Metrics,
		logg:           params.Logger,
		casMaxAttempts: params.CASMaxAttempts,
	}, nil
}

// HandleEvent maps a verified Stripe event onto the order state machine and
// persists the result. A nil return means the delivery should be acknowledged;
// only transient errors (lost CAS races past the retry budget, storage
// failures) surface so the processor redelivers.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	eventType := string(event.Type)
	ctx = s.logg.WithStripeEventID(ctx, event.ID)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		order, err := s.resolveBySession(ctx, eventType, &session)
		if order == nil || err != nil {
			return err
		}
		return s.reconcile(ctx, eventType, order, orders.EventPaymentSucceeded)

	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		order, err := s.resolveByIntent(ctx, eventType, intent.ID)
		if order == nil || err != nil {
			return err
		}
		return s.reconcile(ctx, eventType, order, orders.EventPaymentSucceeded)

	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		order, err := s.resolveByIntent(ctx, eventType, intent.ID)
		if order == nil || err != nil {
			return err
		}
		return s.reconcile(ctx, eventType, order, orders.EventPaymentFailed)

	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
		}
		intentID := ""
		if charge.PaymentIntent != nil {
			intentID = charge.PaymentIntent.ID
		}
		order, err := s.resolveByIntent(ctx, eventType, intentID)
		if order == nil || err != nil {
			return err
		}
		return s.reconcile(ctx, eventType, order, orders.EventRefunded)

	default:
		s.metrics.IncEvent(eventType, metrics.OutcomeIgnored)
		return nil
	}
}

// resolveBySession finds the order for a completed checkout session and, when
// the session carries the payment intent, records the intent id so later
// intent-keyed events can find the same order. A nil order with nil error
// means the event was acknowledged as unmatched.
func (s *Service) resolveBySession(ctx context.Context, eventType string, session *stripe.CheckoutSession) (*models.Order, error) {
	if session.ID == "" {
		return s.unmatched(ctx, eventType, "session id missing from payload")
	}

	order, err := s.ordersRepo.FindBySessionID(ctx, session.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return s.unmatched(ctx, eventType, "no order for session "+session.ID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by session")
	}

	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" && order.StripePaymentIntentID == nil {
		intentID := session.PaymentIntent.ID
		if err := s.ordersRepo.AttachStripeRefs(ctx, order.ID, nil, &intentID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach payment intent")
		}
		order.StripePaymentIntentID = &intentID
	}
	return order, nil
}

func (s *Service) resolveByIntent(ctx context.Context, eventType, intentID string) (*models.Order, error) {
	if intentID == "" {
		return s.unmatched(ctx, eventType, "payment intent id missing from payload")
	}
	order, err := s.ordersRepo.FindByPaymentIntentID(ctx, intentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return s.unmatched(ctx, eventType, "no order for payment intent "+intentID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by payment intent")
	}
	return order, nil
}

// unmatched acknowledges an event that resolves to no order. In normal
// operation every real session has an order, so this is logged and counted
// for alerting (it usually means a stale/test event or a misconfigured
// webhook secret pointing at the wrong environment).
func (s *Service) unmatched(ctx context.Context, eventType, reason string) (*models.Order, error) {
	s.metrics.IncEvent(eventType, metrics.OutcomeUnmatched)
	s.logg.Warn(s.logg.WithField(ctx, "reason", reason), "webhook event matched no order")
	return nil, nil
}

// reconcile runs the read-apply-write cycle under optimistic concurrency. A
// lost CAS race re-reads and reapplies; an event that became a no-op after a
// racing writer won is discarded safely.
func (s *Service) reconcile(ctx context.Context, eventType string, order *models.Order, event orders.PaymentEvent) error {
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)

	for attempt := 0; attempt < s.casMaxAttempts; attempt++ {
		if attempt > 0 {
			fresh, err := s.ordersRepo.FindByID(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			order = fresh
		}

		transition, err := orders.Apply(order.Status, order.PaymentStatus, event)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				// Duplicate/out-of-order delivery or a genuine inconsistency.
				// Either way the order is left untouched and the delivery is
				// acknowledged.
				s.metrics.IncEvent(eventType, metrics.OutcomeIllegal)
				s.logg.Warn(s.logg.WithField(ctx, "event", event.String()), "state machine rejected webhook event")
				return nil
			}
			return err
		}

		if transition.Outcome == orders.OutcomeNoop {
			s.metrics.IncEvent(eventType, metrics.OutcomeNoop)
			return nil
		}

		ok, err := s.ordersRepo.UpdateStateCAS(ctx, order.ID, order.Version, transition.Status, transition.PaymentStatus)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order state")
		}
		if ok {
			s.metrics.IncEvent(eventType, metrics.OutcomeApplied)
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"event":          event.String(),
				"status":         transition.Status.String(),
				"payment_status": transition.PaymentStatus.String(),
			}), "order state transitioned")
			return nil
		}
		// lost the race, re-read and reapply
	}

	s.metrics.IncEvent(eventType, metrics.OutcomeError)
	return pkgerrors.New(pkgerrors.CodeConflict, "order state write lost repeated races")
}
