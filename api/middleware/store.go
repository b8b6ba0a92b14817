package middleware

import (
	"errors"
	"net/http"

	"github.com/avaldezmon/shoplane-backend/api/responses"
	"github.com/avaldezmon/shoplane-backend/internal/stores"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// ResolveStore turns the {storeSlug} route param into a tenant. Every
// store-scoped route runs behind it, so controllers can assume a store is
// present on the context.
func ResolveStore(repo stores.Repository, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := chi.URLParam(r, "storeSlug")
			if slug == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "store slug required"))
				return
			}

			store, err := repo.FindBySlug(r.Context(), slug)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "store not found"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve store"))
				return
			}

			ctx := withStore(r.Context(), store)
			ctx = logg.WithStoreID(ctx, store.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
