package payments

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Handler exposes the payment endpoint mounted under document routes.
type Handler struct {
	logger  *slog.Logger
	service *Service
	devMode bool
}

func NewHandler(logger *slog.Logger, service *Service, devMode bool) *Handler {
	return &Handler{logger: logger, service: service, devMode: devMode}
}

type recordRequest struct {
	Amount float64 `json:"amount" validate:"required"`
	PaidAt string  `json:"paidAt" validate:"omitempty,datetime=2006-01-02"`
	Method string  `json:"method" validate:"required"`
	Note   string  `json:"note"`
}

// RecordPayment handles POST /orgs/{orgID}/documents/{guid}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	guid, err := shared.GUIDFromRequest(r, "guid")
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	var req recordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	input := Input{Amount: req.Amount, Method: req.Method, Note: req.Note}
	if req.PaidAt != "" {
		input.PaidAt, _ = time.Parse("2006-01-02", req.PaidAt)
	}
	result, err := h.service.Record(r.Context(), orgID, guid, input)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"status":            string(result.Status),
		"paidTotal":         result.PaidTotal,
		"remainingAmount":   result.RemainingAmount,
		"additionalCharges": result.AdditionalCharges,
	})
}
