package controllers

import (
	"net/http"

	"github.com/rashidalbanna/mandoob-backend/api/responses"
	"github.com/rashidalbanna/mandoob-backend/pkg/config"
	"github.com/rashidalbanna/mandoob-backend/pkg/db"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
	pkgredis "github.com/rashidalbanna/mandoob-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mandoob-Env", cfg.App.Env)
		responses.WriteSuccess(w, "live", map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mandoob-Env", cfg.App.Env)

		checks := map[string]string{}
		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
			checks["database"] = "ok"
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
			checks["redis"] = "ok"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, "ready", checks)
	}
}
