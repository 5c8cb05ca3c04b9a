package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/api/response"
	"github.com/Rrens/lingocode/internal/config"
)

// Pinger is a dependency that readiness depends on
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including connectivity of every
// named dependency
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if err := dep.Ping(r.Context()); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
				response.Error(w, http.StatusServiceUnavailable, "NOT_READY", name+" not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListLLMProviders reports the generation mode and the registered providers
func ListLLMProviders(cfg config.GenerationConfig, providers []string) http.HandlerFunc {
	if providers == nil {
		providers = []string{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"mode":      cfg.Mode,
			"provider":  cfg.Provider,
			"providers": providers,
		})
	}
}
