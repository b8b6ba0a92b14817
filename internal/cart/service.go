package cart

import (
	"context"
	"fmt"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductReader resolves live catalog rows for cart mutations. Prices read
// here are display prices; checkout re-reads the catalog when freezing.
type ProductReader interface {
	FindActiveProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations keyed by a client-held cart token.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID, token string) (*View, error)
	AddItem(ctx context.Context, storeID uuid.UUID, token string, productID uuid.UUID, qty int) (*View, error)
	UpdateQuantity(ctx context.Context, storeID uuid.UUID, token string, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, storeID uuid.UUID, token string, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, storeID uuid.UUID, token string) error
	Snapshot(ctx context.Context, storeID uuid.UUID, token string) (*State, error)
}

// View is the API shape of a cart: lines plus derived totals.
type View struct {
	Items      []ItemView `json:"items"`
	TotalCents int64      `json:"total_cents"`
	Total      string     `json:"total"`
	ItemCount  int        `json:"item_count"`
}

// ItemView is a cart line with display amounts.
type ItemView struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	UnitPrice      string    `json:"unit_price"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
	LineTotal      string    `json:"line_total"`
}

type service struct {
	store    *Store
	products ProductReader
}

// NewService builds a cart service with the required dependencies.
func NewService(store *Store, products ProductReader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID, token string) (*View, error) {
	state, err := s.load(ctx, storeID, token)
	if err != nil {
		return nil, err
	}
	return toView(state), nil
}

func (s *service) AddItem(ctx context.Context, storeID uuid.UUID, token string, productID uuid.UUID, qty int) (*View, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindActiveProduct(ctx, storeID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	state, err := s.load(ctx, storeID, token)
	if err != nil {
		return nil, err
	}

	state.AddItem(product.ID, product.Name, product.PriceCents, qty)
	if err := s.store.Save(ctx, token, state); err != nil {
		return nil, err
	}
	return toView(state), nil
}

func (s *service) UpdateQuantity(ctx context.Context, storeID uuid.UUID, token string, productID uuid.UUID, qty int) (*View, error) {
	state, err := s.load(ctx, storeID, token)
	if err != nil {
		return nil, err
	}

	if !state.UpdateQuantity(productID, qty) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	if err := s.store.Save(ctx, token, state); err != nil {
		return nil, err
	}
	return toView(state), nil
}

func (s *service) RemoveItem(ctx context.Context, storeID uuid.UUID, token string, productID uuid.UUID) (*View, error) {
	state, err := s.load(ctx, storeID, token)
	if err != nil {
		return nil, err
	}

	state.RemoveItem(productID)
	if err := s.store.Save(ctx, token, state); err != nil {
		return nil, err
	}
	return toView(state), nil
}

func (s *service) Clear(ctx context.Context, storeID uuid.UUID, token string) error {
	return s.store.Delete(ctx, storeID, token)
}

// Snapshot returns the raw cart state for checkout to freeze.
func (s *service) Snapshot(ctx context.Context, storeID uuid.UUID, token string) (*State, error) {
	return s.load(ctx, storeID, token)
}

func (s *service) load(ctx context.Context, storeID uuid.UUID, token string) (*State, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store context required")
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	return s.store.Load(ctx, storeID, token)
}

func toView(state *State) *View {
	items := make([]ItemView, 0, len(state.Items))
	for _, item := range state.Items {
		lineTotal := item.UnitPriceCents * int64(item.Quantity)
		items = append(items, ItemView{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPriceCents: item.UnitPriceCents,
			UnitPrice:      types.FormatCents(item.UnitPriceCents),
			Quantity:       item.Quantity,
			LineTotalCents: lineTotal,
			LineTotal:      types.FormatCents(lineTotal),
		})
	}
	return &View{
		Items:      items,
		TotalCents: state.TotalCents(),
		Total:      types.FormatCents(state.TotalCents()),
		ItemCount:  state.ItemCount(),
	}
}
