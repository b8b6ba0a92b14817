package webhooks

import (
	"io"
	"net/http"

	"github.com/avaldezmon/shoplane-backend/api/responses"
	stripewebhook "github.com/avaldezmon/shoplane-backend/internal/webhooks/stripe"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84/webhook"
)

// Stripe event payloads are small; the cap guards against misdirected uploads.
const maxWebhookBody = 1 << 20

// HandleStripeWebhook verifies, dedupes and reconciles Stripe events.
//
// Response contract: a non-2xx is returned only when the signature cannot be
// verified or when reconciliation genuinely failed and a redelivery should
// retry. Everything else, including events for unknown orders and disallowed
// transitions, is acknowledged so Stripe stops resending.
func HandleStripeWebhook(svc *stripewebhook.Service, guard *stripewebhook.IdempotencyGuard, signingSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook payload"))
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature"))
			return
		}

		event, err := webhook.ConstructEvent(payload, signature, signingSecret)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "webhook signature verification failed"))
			return
		}

		ctx := logg.WithStripeEventID(r.Context(), event.ID)

		duplicate, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook dedupe check"))
			return
		}
		if duplicate {
			logg.Info(ctx, "duplicate webhook acknowledged")
			responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			// Release the dedupe claim so Stripe's redelivery gets a clean
			// retry instead of a duplicate ack.
			if delErr := guard.Delete(ctx, event.ID); delErr != nil {
				logg.Error(ctx, "releasing webhook dedupe key failed", delErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
