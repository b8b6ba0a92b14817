package middleware

import (
	"context"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	storeKey     contextKey = "store"
)

// StoreFromContext returns the store resolved by ResolveStore, or nil when the
// request was not store scoped.
func StoreFromContext(ctx context.Context) *models.Store {
	store, _ := ctx.Value(storeKey).(*models.Store)
	return store
}

func withStore(ctx context.Context, store *models.Store) context.Context {
	return context.WithValue(ctx, storeKey, store)
}

// RequestIDFromContext returns the request id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
