package orders

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes read-side order lookups used by the storefront success page
// and order-status queries. Mutation flows belong to checkout and webhook
// reconciliation; nothing here writes.
type Service interface {
	GetByOrderNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) (*OrderView, error)
	GetBySessionID(ctx context.Context, storeID uuid.UUID, sessionID string) (*OrderView, error)
}

type service struct {
	repo Repository
}

// NewService builds an orders read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByOrderNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) (*OrderView, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store context required")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	order, err := s.repo.FindByOrderNumber(ctx, storeID, orderNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by number")
	}
	return ToOrderView(order), nil
}

func (s *service) GetBySessionID(ctx context.Context, storeID uuid.UUID, sessionID string) (*OrderView, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store context required")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	order, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by session")
	}
	// Session ids are globally unique but the lookup is store-scoped at the
	// API edge; reject cross-store reads.
	if order.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return ToOrderView(order), nil
}
