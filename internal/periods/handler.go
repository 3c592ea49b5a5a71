package periods

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Handler exposes period administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	devMode bool
}

func NewHandler(logger *slog.Logger, service *Service, devMode bool) *Handler {
	return &Handler{logger: logger, service: service, devMode: devMode}
}

// MountRoutes registers period routes on an org-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{periodID}/lock", h.lock)
	r.Post("/{periodID}/unlock", h.unlock)
}

type createPeriodRequest struct {
	FromDate string `json:"fromDate" validate:"required,datetime=2006-01-02"`
	ToDate   string `json:"toDate" validate:"required,datetime=2006-01-02"`
}

type periodResponse struct {
	ID       int64  `json:"id"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	Locked   bool   `json:"locked"`
}

func toResponse(p Period) periodResponse {
	return periodResponse{
		ID:       p.ID,
		FromDate: p.FromDate.Format("2006-01-02"),
		ToDate:   p.ToDate.Format("2006-01-02"),
		Locked:   p.Locked,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	var req createPeriodRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	from, _ := time.Parse("2006-01-02", req.FromDate)
	to, _ := time.Parse("2006-01-02", req.ToDate)
	period, err := h.service.Create(r.Context(), orgID, from, to)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(period))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	list, err := h.service.List(r.Context(), orgID)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	out := make([]periodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) lock(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, true)
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, false)
}

func (h *Handler) setLock(w http.ResponseWriter, r *http.Request, locked bool) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "periodID"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.NewError(shared.KindValidation, "periods: invalid period id"), h.devMode)
		return
	}
	var period Period
	if locked {
		period, err = h.service.Lock(r.Context(), orgID, id)
	} else {
		period, err = h.service.Unlock(r.Context(), orgID, id)
	}
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(period))
}
