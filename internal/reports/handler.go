package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Handler exposes the report endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	devMode bool
}

func NewHandler(logger *slog.Logger, service *Service, devMode bool) *Handler {
	return &Handler{logger: logger, service: service, devMode: devMode}
}

// MountRoutes registers report routes on an org-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{reportType}", h.generate)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	from, to, err := shared.DateRangeFromQuery(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	rows, err := h.service.Generate(r.Context(), orgID, Type(chi.URLParam(r, "reportType")), from, to)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rows)
}
