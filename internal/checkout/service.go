package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avaldezmon/shoplane-backend/internal/cart"
	"github.com/avaldezmon/shoplane-backend/internal/catalog"
	"github.com/avaldezmon/shoplane-backend/internal/orders"
	"github.com/avaldezmon/shoplane-backend/pkg/config"
	"github.com/avaldezmon/shoplane-backend/pkg/db"
	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/avaldezmon/shoplane-backend/pkg/enums"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSnapshotter interface {
	Snapshot(ctx context.Context, storeID uuid.UUID, token string) (*cart.State, error)
	Clear(ctx context.Context, storeID uuid.UUID, token string) error
}

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// CustomerInput is the buyer snapshot captured at checkout time. It is copied
// onto the order, never linked to an account.
type CustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// InitiateInput carries everything needed to turn a cart into a pending order
// plus a hosted payment session.
type InitiateInput struct {
	StoreID         uuid.UUID
	CartToken       string
	Customer        CustomerInput
	ShippingAddress types.Address
}

// InitiateResult points the storefront at the hosted payment page.
type InitiateResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	RedirectURL string    `json:"redirect_url"`
}

// Service turns a cart snapshot into a durable pending order and a payment
// session at the external processor.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
}

type service struct {
	orders   orders.Repository
	products catalog.Repository
	stores   storeReader
	carts    cartSnapshotter
	tx       txRunner
	sessions StripeSessionClient
	cfg      config.CheckoutConfig
	logg     *logger.Logger
}

// ServiceParams bundles the checkout service dependencies.
type ServiceParams struct {
	Orders   orders.Repository
	Products catalog.Repository
	Stores   storeReader
	Carts    cartSnapshotter
	Tx       txRunner
	Sessions StripeSessionClient
	Config   config.CheckoutConfig
	Logger   *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.OrderNumberAttempts <= 0 {
		params.Config.OrderNumberAttempts = 3
	}
	return &service{
		orders:   params.Orders,
		products: params.Products,
		stores:   params.Stores,
		carts:    params.Carts,
		tx:       params.Tx,
		sessions: params.Sessions,
		cfg:      params.Config,
		logg:     params.Logger,
	}, nil
}

func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	store, err := s.stores.FindByID(ctx, input.StoreID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	snapshot, err := s.carts.Snapshot(ctx, input.StoreID, input.CartToken)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	items, subtotal, err := s.freezeItems(ctx, input.StoreID, snapshot)
	if err != nil {
		return nil, err
	}

	order, err := s.createOrder(ctx, input, items, subtotal)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)

	checkoutSession, err := s.createSession(ctx, store, order)
	if err != nil {
		// The pending order stays behind without a session id. That orphan
		// is benign: no payment can ever reference it, and the housekeeping
		// sweep counts it for alerting.
		s.logg.Warn(ctx, "payment session creation failed, pending order left without session")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	var intentID *string
	if checkoutSession.PaymentIntent != nil && checkoutSession.PaymentIntent.ID != "" {
		intentID = &checkoutSession.PaymentIntent.ID
	}
	if err := s.orders.AttachStripeRefs(ctx, order.ID, &checkoutSession.ID, intentID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach session to order")
	}

	if err := s.carts.Clear(ctx, input.StoreID, input.CartToken); err != nil {
		// The order and session exist; a stale cart is a cosmetic problem.
		s.logg.Warn(s.logg.WithField(ctx, "cart_token", input.CartToken), "clearing cart after checkout failed")
	}

	return &InitiateResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		RedirectURL: checkoutSession.URL,
	}, nil
}

func (s *service) validateInput(input InitiateInput) error {
	if input.StoreID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store context required")
	}
	if strings.TrimSpace(input.CartToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	if strings.TrimSpace(input.Customer.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if strings.TrimSpace(input.Customer.FirstName) == "" || strings.TrimSpace(input.Customer.LastName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	if len(s.cfg.AllowedCountries) > 0 && !s.countryAllowed(input.ShippingAddress.Country) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("shipping to %q is not supported", input.ShippingAddress.Country))
	}
	return nil
}

func (s *service) countryAllowed(country string) bool {
	for _, allowed := range s.cfg.AllowedCountries {
		if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(country)) {
			return true
		}
	}
	return false
}

// freezeItems re-reads the catalog and copies prices onto order items so
// later catalog edits never touch the order.
func (s *service) freezeItems(ctx context.Context, storeID uuid.UUID, snapshot *cart.State) ([]models.OrderItem, int64, error) {
	ids := make([]uuid.UUID, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindActiveProducts(ctx, storeID, ids)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(snapshot.Items))
	var subtotal int64
	for _, line := range snapshot.Items {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %q is no longer available", line.ProductName))
		}
		lineTotal := product.PriceCents * int64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       line.Quantity,
			TotalCents:     lineTotal,
		})
		subtotal += lineTotal
	}
	return items, subtotal, nil
}

// createOrder persists the pending order, retrying on order-number collision
// a bounded number of times.
func (s *service) createOrder(ctx context.Context, input InitiateInput, items []models.OrderItem, subtotal int64) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.OrderNumberAttempts; attempt++ {
		number, err := GenerateOrderNumber(time.Now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}

		order := &models.Order{
			OrderNumber:       number,
			StoreID:           input.StoreID,
			CustomerEmail:     strings.TrimSpace(input.Customer.Email),
			CustomerFirstName: strings.TrimSpace(input.Customer.FirstName),
			CustomerLastName:  strings.TrimSpace(input.Customer.LastName),
			CustomerPhone:     strings.TrimSpace(input.Customer.Phone),
			ShippingAddress:   input.ShippingAddress,
			SubtotalCents:     subtotal,
			TaxCents:          0,
			ShippingCents:     0,
			TotalCents:        subtotal,
			Status:            enums.OrderStatusPending,
			PaymentStatus:     enums.PaymentStatusPending,
			Version:           1,
			Items:             items,
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			_, createErr := s.orders.WithTx(tx).Create(ctx, order)
			return createErr
		})
		if err == nil {
			return order, nil
		}
		if db.IsUniqueViolation(err, "uidx_orders_order_number") {
			lastErr = err
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "order number collisions exhausted retries")
}

func (s *service) createSession(ctx context.Context, store *models.Store, order *models.Order) (*stripe.CheckoutSession, error) {
	sessionCtx := ctx
	if s.cfg.SessionTimeout > 0 {
		var cancel context.CancelFunc
		sessionCtx, cancel = context.WithTimeout(ctx, s.cfg.SessionTimeout)
		defer cancel()
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(store.Currency),
				UnitAmount: stripe.Int64(item.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		CustomerEmail: stripe.String(order.CustomerEmail),
		SuccessURL:    stripe.String(s.cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(s.cfg.CancelURL),
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"store_id":     order.StoreID.String(),
		},
	}

	return s.sessions.CreateSession(sessionCtx, params)
}
