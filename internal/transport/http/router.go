// Package httptransport assembles the public router: the identity endpoints
// plus the operational surface (health, metrics).
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identityhandler "coalesce/internal/identity/handler"
)

// HealthCheck reports backend reachability for /healthz.
type HealthCheck func(ctx context.Context) error

// NewRouter wires all public endpoints.
func NewRouter(identity *identityhandler.Handler, health HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	identity.Register(r)

	return r
}
