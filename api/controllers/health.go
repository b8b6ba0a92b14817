package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/avaldezmon/shoplane-backend/api/responses"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
)

// Pinger is implemented by infra clients that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive answers as long as the process is serving.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady checks backing dependencies before reporting ready.
func HealthReady(logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg,
					w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
