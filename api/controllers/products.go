package controllers

import (
	"net/http"

	"github.com/avaldezmon/shoplane-backend/api/middleware"
	"github.com/avaldezmon/shoplane-backend/api/responses"
	"github.com/avaldezmon/shoplane-backend/internal/catalog"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/types"
	"github.com/google/uuid"
)

type productView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Price       string    `json:"price"`
}

// ListProducts returns the store's active catalog.
func ListProducts(repo catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := middleware.StoreFromContext(r.Context())

		products, err := repo.ListActiveProducts(r.Context(), store.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products"))
			return
		}

		views := make([]productView, 0, len(products))
		for _, p := range products {
			views = append(views, productView{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				ImageURL:    p.ImageURL,
				PriceCents:  p.PriceCents,
				Price:       types.FormatCents(p.PriceCents),
			})
		}
		responses.WriteSuccess(w, map[string]any{"products": views})
	}
}
