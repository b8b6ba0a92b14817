package orders

import (
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/avaldezmon/shoplane-backend/pkg/types"
	"github.com/google/uuid"
)

// OrderView is the read-side shape served to the storefront. Monetary fields
// carry both raw cents and a display string derived from them.
type OrderView struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	StoreID     uuid.UUID `json:"store_id"`

	CustomerEmail     string `json:"customer_email"`
	CustomerFirstName string `json:"customer_first_name"`
	CustomerLastName  string `json:"customer_last_name"`
	CustomerPhone     string `json:"customer_phone,omitempty"`

	ShippingAddress types.Address `json:"shipping_address"`

	SubtotalCents int64  `json:"subtotal_cents"`
	TaxCents      int64  `json:"tax_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	TotalCents    int64  `json:"total_cents"`
	Subtotal      string `json:"subtotal"`
	Total         string `json:"total"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	Items []OrderItemView `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItemView is a line on the read-side order shape.
type OrderItemView struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	UnitPrice      string    `json:"unit_price"`
	Quantity       int       `json:"quantity"`
	TotalCents     int64     `json:"total_cents"`
	Total          string    `json:"total"`
}

// ToOrderView projects the persisted order into its API shape.
func ToOrderView(order *models.Order) *OrderView {
	if order == nil {
		return nil
	}

	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPriceCents: item.UnitPriceCents,
			UnitPrice:      types.FormatCents(item.UnitPriceCents),
			Quantity:       item.Quantity,
			TotalCents:     item.TotalCents,
			Total:          types.FormatCents(item.TotalCents),
		})
	}

	return &OrderView{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		StoreID:           order.StoreID,
		CustomerEmail:     order.CustomerEmail,
		CustomerFirstName: order.CustomerFirstName,
		CustomerLastName:  order.CustomerLastName,
		CustomerPhone:     order.CustomerPhone,
		ShippingAddress:   order.ShippingAddress,
		SubtotalCents:     order.SubtotalCents,
		TaxCents:          order.TaxCents,
		ShippingCents:     order.ShippingCents,
		TotalCents:        order.TotalCents,
		Subtotal:          types.FormatCents(order.SubtotalCents),
		Total:             types.FormatCents(order.TotalCents),
		Status:            order.Status.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		Items:             items,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}
