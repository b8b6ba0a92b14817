package controllers

import (
	"net/http"

	"github.com/avaldezmon/shoplane-backend/api/middleware"
	"github.com/avaldezmon/shoplane-backend/api/responses"
	"github.com/avaldezmon/shoplane-backend/internal/orders"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// GetOrderByNumber returns one order by its public number, scoped to the
// resolved store.
func GetOrderByNumber(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := middleware.StoreFromContext(r.Context())
		orderNumber := chi.URLParam(r, "orderNumber")

		view, err := svc.GetByOrderNumber(r.Context(), store.ID, orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// GetOrderBySession resolves an order from the payment session id, used by
// the storefront success page before the webhook lands.
func GetOrderBySession(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := middleware.StoreFromContext(r.Context())
		sessionID := chi.URLParam(r, "sessionID")

		view, err := svc.GetBySessionID(r.Context(), store.ID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
