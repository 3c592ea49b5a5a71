package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kontor-erp/kontor-erp/internal/documents"
	"github.com/kontor-erp/kontor-erp/internal/ledger"
	"github.com/kontor-erp/kontor-erp/internal/observability"
	"github.com/kontor-erp/kontor-erp/internal/periods"
	"github.com/kontor-erp/kontor-erp/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	DocumentsHandler *documents.Handler
	LedgerHandler    *ledger.Handler
	PeriodsHandler   *periods.Handler
	ReportsHandler   *reports.Handler
}

// NewRouter constructs the chi.Router with Kontor defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Route("/documents", params.DocumentsHandler.MountRoutes)
		r.Route("/periods", params.PeriodsHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		params.LedgerHandler.MountRoutes(r)
	})

	return r
}
