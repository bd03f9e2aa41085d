// Package httptransport assembles the HTTP surface: middleware chain, health
// and metrics endpoints, and the per-module route registrations.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medboard/internal/platform/middleware"
	"medboard/pkg/platform/httputil"
	"medboard/pkg/platform/middleware/metadata"
)

// Registrar is anything that can mount routes on the router. Every module
// handler implements it.
type Registrar interface {
	Register(r chi.Router)
}

// RegistrarFunc adapts a bare registration function to Registrar.
type RegistrarFunc func(r chi.Router)

func (f RegistrarFunc) Register(r chi.Router) { f(r) }

// HealthCheck probes one dependency; a non-nil error marks the service
// degraded.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router needs from main.
type Deps struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// Validator gates every route mounted via Protected.
	Validator middleware.JWTValidator

	// Public routes skip authentication (login).
	Public []Registrar
	// Protected routes require a valid bearer token.
	Protected []Registrar

	// HealthChecks run on /healthz, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	RequestTimeout time.Duration
}

const defaultRequestTimeout = 30 * time.Second

// NewRouter builds the full chi router.
func NewRouter(deps Deps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", healthHandler(deps.HealthChecks))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	for _, reg := range deps.Public {
		reg.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		for _, reg := range deps.Protected {
			reg.Register(r)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, status, body)
	}
}
