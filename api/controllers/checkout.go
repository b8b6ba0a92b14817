package controllers

import (
	"net/http"

	"github.com/avaldezmon/shoplane-backend/api/middleware"
	"github.com/avaldezmon/shoplane-backend/api/responses"
	"github.com/avaldezmon/shoplane-backend/api/validators"
	"github.com/avaldezmon/shoplane-backend/internal/checkout"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/types"
)

type checkoutAddressRequest struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country" validate:"required,len=2"`
}

type initiateCheckoutRequest struct {
	Email           string                 `json:"email" validate:"required,email"`
	FirstName       string                 `json:"first_name" validate:"required"`
	LastName        string                 `json:"last_name" validate:"required"`
	Phone           string                 `json:"phone,omitempty"`
	ShippingAddress checkoutAddressRequest `json:"shipping_address" validate:"required"`
}

// InitiateCheckout freezes the cart into a pending order and returns the
// hosted payment redirect.
func InitiateCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := middleware.StoreFromContext(r.Context())

		token := r.Header.Get(cartTokenHeader)
		if token == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
			return
		}

		var req initiateCheckoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), checkout.InitiateInput{
			StoreID:   store.ID,
			CartToken: token,
			Customer: checkout.CustomerInput{
				Email:     req.Email,
				FirstName: req.FirstName,
				LastName:  req.LastName,
				Phone:     req.Phone,
			},
			ShippingAddress: types.Address{
				Line1:      req.ShippingAddress.Line1,
				Line2:      req.ShippingAddress.Line2,
				City:       req.ShippingAddress.City,
				State:      req.ShippingAddress.State,
				PostalCode: req.ShippingAddress.PostalCode,
				Country:    req.ShippingAddress.Country,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
