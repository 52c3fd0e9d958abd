package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/medgrid/bedfinder-backend/api/responses"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/logger"
)

const envHeader = "X-BedFinder-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

type feedProbe interface {
	Available(ctx context.Context) bool
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness: redis must answer, the external feed is
// advisory and reported without failing the probe.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient pinger, feed feedProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}

		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				checks["redis"] = "down"
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis ping"))
				return
			}
			checks["redis"] = "ok"
		}

		if feed != nil {
			if feed.Available(ctx) {
				checks["provider"] = "ok"
			} else {
				checks["provider"] = "unavailable"
			}
		}

		payload := map[string]any{"status": "ready", "checks": checks}
		responses.WriteSuccess(w, payload)
	}
}
