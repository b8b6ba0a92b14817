package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avaldezmon/shoplane-backend/internal/orders"
	stripewebhook "github.com/avaldezmon/shoplane-backend/internal/webhooks/stripe"
	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

const testSigningSecret = "whsec_test_secret"

type fakeDedupeStore struct {
	keys map[string]string
}

func newFakeDedupeStore() *fakeDedupeStore {
	return &fakeDedupeStore{keys: map[string]string{}}
}

func (f *fakeDedupeStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.keys[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeDedupeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeDedupeStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeDedupeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

// stubOrdersRepo panics on any call; signature and dedupe tests never reach
// the repository.
type stubOrdersRepo struct {
	orders.Repository
}

// failingSessionRepo makes any session lookup fail so reconciliation errors.
type failingSessionRepo struct {
	orders.Repository
}

func (f *failingSessionRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return nil, fmt.Errorf("storage offline")
}

func signPayload(t *testing.T, payload []byte, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType, objectJSON string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_%s","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		uuid.NewString()[:8], stripe.APIVersion, eventType, objectJSON))
}

func newHandler(t *testing.T, repo orders.Repository, store *fakeDedupeStore) http.HandlerFunc {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})

	svc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo: repo,
		Logger:     logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	guard, err := stripewebhook.NewIdempotencyGuard(store, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	return HandleStripeWebhook(svc, guard, testSigningSecret, logg)
}

func postWebhook(handler http.HandlerFunc, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	store := newFakeDedupeStore()
	handler := newHandler(t, &stubOrdersRepo{}, store)

	rec := postWebhook(handler, eventPayload("invoice.created", "{}"), "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(store.keys) != 0 {
		t.Fatal("unsigned delivery must not claim a dedupe key")
	}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	store := newFakeDedupeStore()
	handler := newHandler(t, &stubOrdersRepo{}, store)

	rec := postWebhook(handler, eventPayload("invoice.created", "{}"), "t=123,v1=deadbeef")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
		t.Fatalf("expected unauthorized code in body, got %s", rec.Body.String())
	}
}

func TestWebhookAcknowledgesUnrelatedEventTypes(t *testing.T) {
	store := newFakeDedupeStore()
	handler := newHandler(t, &stubOrdersRepo{}, store)

	payload := eventPayload("invoice.created", "{}")
	rec := postWebhook(handler, payload, signPayload(t, payload, time.Now()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.keys) != 1 {
		t.Fatal("processed delivery must keep its dedupe claim")
	}
}

func TestWebhookAcknowledgesDuplicateDelivery(t *testing.T) {
	store := newFakeDedupeStore()
	handler := newHandler(t, &stubOrdersRepo{}, store)

	payload := eventPayload("invoice.created", "{}")
	signature := signPayload(t, payload, time.Now())

	first := postWebhook(handler, payload, signature)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", first.Code)
	}

	second := postWebhook(handler, payload, signature)
	if second.Code != http.StatusOK {
		t.Fatalf("redelivery: expected 200, got %d", second.Code)
	}
	if !strings.Contains(second.Body.String(), "duplicate") {
		t.Fatalf("expected duplicate ack, got %s", second.Body.String())
	}
}

func TestWebhookReleasesDedupeKeyOnFailure(t *testing.T) {
	store := newFakeDedupeStore()
	handler := newHandler(t, &failingSessionRepo{}, store)

	payload := eventPayload("checkout.session.completed", `{"id":"cs_test_fail"}`)
	rec := postWebhook(handler, payload, signPayload(t, payload, time.Now()))

	if rec.Code < 500 {
		t.Fatalf("expected server error for transient failure, got %d", rec.Code)
	}
	if len(store.keys) != 0 {
		t.Fatal("failed delivery must release its dedupe key so redelivery retries")
	}
}
