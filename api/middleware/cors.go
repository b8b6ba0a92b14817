package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser storefronts to hit the API directly.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "X-Cart-Token"},
		ExposedHeaders: []string{"X-Request-Id", "X-Cart-Token"},
		MaxAge:         300,
	})
}
