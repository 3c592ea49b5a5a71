package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Handler exposes ledger entry listing, import and export endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	devMode bool
}

func NewHandler(logger *slog.Logger, service *Service, devMode bool) *Handler {
	return &Handler{logger: logger, service: service, devMode: devMode}
}

// MountRoutes registers ledger routes on an org-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/entries", h.list)
	r.Post("/entries/import", h.importEntries)
	r.Get("/export", h.export)
}

type entryResponse struct {
	GUID        string  `json:"guid"`
	AccountNo   int64   `json:"accountNo"`
	VoucherNo   int64   `json:"voucherNo"`
	VoucherType string  `json:"voucherType"`
	EntryDate   string  `json:"entryDate"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	VATCode     *string `json:"vatCode,omitempty"`
	EntryType   string  `json:"entryType"`
	ContactID   *int64  `json:"contactId,omitempty"`
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		GUID:        e.GUID.String(),
		AccountNo:   e.AccountNo,
		VoucherNo:   e.VoucherNo,
		VoucherType: e.VoucherType,
		EntryDate:   e.EntryDate.Format("2006-01-02"),
		Amount:      e.Amount,
		Description: e.Description,
		VATCode:     e.VATCode,
		EntryType:   string(e.EntryType),
		ContactID:   e.ContactID,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
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
	filter := ListFilter{From: from, To: to}
	if v := r.URL.Query().Get("account"); v != "" {
		filter.AccountNo, _ = strconv.ParseInt(v, 10, 64)
	}
	entries, err := h.service.List(r.Context(), orgID, filter)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

type importRequest struct {
	Entries []ImportEntry `json:"entries" validate:"required,dive"`
}

func (h *Handler) importEntries(w http.ResponseWriter, r *http.Request) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	var req importRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	inserted, err := h.service.Import(r.Context(), orgID, req.Entries)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"imported": inserted})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
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
	snapshot, err := h.service.Export(r.Context(), orgID, from, to)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	entries := make([]entryResponse, 0, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		entries = append(entries, toEntryResponse(e))
	}
	docs := make([]map[string]any, 0, len(snapshot.Documents))
	for _, d := range snapshot.Documents {
		docs = append(docs, map[string]any{
			"guid":         d.GUID.String(),
			"class":        d.Class,
			"number":       d.Number,
			"documentDate": d.DocumentDate.Format("2006-01-02"),
			"currency":     d.Currency,
			"contactId":    d.ContactID,
			"totalInclVat": d.TotalInclVAT,
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries, "documents": docs})
}
