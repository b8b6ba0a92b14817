package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/redis"
	"github.com/google/uuid"
)

// tokenStore is the slice of the redis client the cart store needs.
type tokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(storeID, cartToken string) string
}

// Store persists cart state in Redis keyed by an opaque client-held token.
// Carts are ephemeral; each write refreshes the TTL so active carts survive
// and abandoned ones expire on their own.
type Store struct {
	redis tokenStore
	ttl   time.Duration
}

// NewStore builds a Redis-backed cart store.
func NewStore(redisClient tokenStore, ttl time.Duration) (*Store, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{redis: redisClient, ttl: ttl}, nil
}

// Load returns the cart for the token, or a fresh empty cart when the token
// is unknown or expired.
func (s *Store) Load(ctx context.Context, storeID uuid.UUID, token string) (*State, error) {
	raw, err := s.redis.Get(ctx, s.redis.CartKey(storeID.String(), token))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return NewState(storeID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// Corrupt payloads are treated like expiry; the user starts over
		// rather than being locked out of their cart.
		return NewState(storeID), nil
	}
	if state.StoreID != storeID {
		return NewState(storeID), nil
	}
	return &state, nil
}

// Save writes the cart and refreshes its TTL.
func (s *Store) Save(ctx context.Context, token string, state *State) error {
	if state == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart state required")
	}
	state.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	key := s.redis.CartKey(state.StoreID.String(), token)
	if err := s.redis.Set(ctx, key, string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// Delete removes the cart for the token.
func (s *Store) Delete(ctx context.Context, storeID uuid.UUID, token string) error {
	if err := s.redis.Del(ctx, s.redis.CartKey(storeID.String(), token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
