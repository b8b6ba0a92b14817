package routes

import (
	"net/http"

	"github.com/avaldezmon/shoplane-backend/api/controllers"
	webhookcontrollers "github.com/avaldezmon/shoplane-backend/api/controllers/webhooks"
	"github.com/avaldezmon/shoplane-backend/api/middleware"
	"github.com/avaldezmon/shoplane-backend/internal/cart"
	"github.com/avaldezmon/shoplane-backend/internal/catalog"
	"github.com/avaldezmon/shoplane-backend/internal/checkout"
	"github.com/avaldezmon/shoplane-backend/internal/orders"
	"github.com/avaldezmon/shoplane-backend/internal/stores"
	stripewebhook "github.com/avaldezmon/shoplane-backend/internal/webhooks/stripe"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Logger *logger.Logger

	Stores   stores.Repository
	Catalog  catalog.Repository
	Carts    cart.Service
	Checkout checkout.Service
	Orders   orders.Service

	Webhooks      *stripewebhook.Service
	WebhookGuard  *stripewebhook.IdempotencyGuard
	SigningSecret string

	HealthDeps map[string]controllers.Pinger
	Registry   *prometheus.Registry
}

// NewRouter wires middleware, health, metrics, webhook and store-scoped
// storefront routes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(params.Logger))
	r.Use(middleware.RequestID(params.Logger))
	r.Use(middleware.Logging(params.Logger))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(params.Logger, params.HealthDeps))

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/stripe", webhookcontrollers.HandleStripeWebhook(
			params.Webhooks, params.WebhookGuard, params.SigningSecret, params.Logger))

		r.Route("/stores/{storeSlug}", func(r chi.Router) {
			r.Use(middleware.ResolveStore(params.Stores, params.Logger))

			r.Get("/products", controllers.ListProducts(params.Catalog, params.Logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(params.Carts, params.Logger))
				r.Delete("/", controllers.ClearCart(params.Carts, params.Logger))
				r.Post("/items", controllers.AddCartItem(params.Carts, params.Logger))
				r.Patch("/items/{productID}", controllers.UpdateCartItem(params.Carts, params.Logger))
				r.Delete("/items/{productID}", controllers.RemoveCartItem(params.Carts, params.Logger))
			})

			r.Post("/checkout", controllers.InitiateCheckout(params.Checkout, params.Logger))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/{orderNumber}", controllers.GetOrderByNumber(params.Orders, params.Logger))
				r.Get("/session/{sessionID}", controllers.GetOrderBySession(params.Orders, params.Logger))
			})
		})
	})

	return r
}
