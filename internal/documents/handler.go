package documents

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Handler exposes the document lifecycle endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	payments PaymentHandler
	devMode  bool
}

// PaymentHandler lets the payments module mount under the document routes.
type PaymentHandler interface {
	RecordPayment(w http.ResponseWriter, r *http.Request)
}

func NewHandler(logger *slog.Logger, service *Service, payments PaymentHandler, devMode bool) *Handler {
	return &Handler{logger: logger, service: service, payments: payments, devMode: devMode}
}

// MountRoutes registers document routes on an org-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{guid}", h.get)
	r.Put("/{guid}", h.update)
	r.Delete("/{guid}", h.remove)
	r.Post("/{guid}/book", h.book)
	r.Post("/{guid}/reversal", h.reversal)
	if h.payments != nil {
		r.Post("/{guid}/payments", h.payments.RecordPayment)
	}
}

type documentResponse struct {
	GUID            string  `json:"guid"`
	Class           string  `json:"class"`
	Number          *int64  `json:"number,omitempty"`
	DocumentDate    string  `json:"documentDate"`
	Currency        string  `json:"currency"`
	ContactID       *int64  `json:"contactId,omitempty"`
	Template        string  `json:"template,omitempty"`
	PaymentTermDays int     `json:"paymentTermDays"`
	Status          string  `json:"status"`
	TotalExclVAT    float64 `json:"totalExclVat"`
	TotalVATable    float64 `json:"totalVatable"`
	TotalNonVATable float64 `json:"totalNonVatable"`
	TotalInclVAT    float64 `json:"totalInclVat"`
	TotalVAT        float64 `json:"totalVat"`
	CreditedBy      *string `json:"creditedByGuid,omitempty"`
	PaidAt          *string `json:"paidAt,omitempty"`
}

type lineResponse struct {
	AccountNo     int64   `json:"accountNo"`
	Description   string  `json:"description,omitempty"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unitPrice"`
	DiscountPct   float64 `json:"discountPct"`
	VATCode       *string `json:"vatCode,omitempty"`
	VATRate       float64 `json:"vatRate"`
	BaseAmount    float64 `json:"baseAmount"`
	InclVATAmount float64 `json:"inclVatAmount"`
}

func toDocumentResponse(d Document) documentResponse {
	resp := documentResponse{
		GUID:            d.GUID.String(),
		Class:           string(d.Class),
		Number:          d.Number,
		DocumentDate:    d.DocumentDate.Format("2006-01-02"),
		Currency:        d.Currency,
		ContactID:       d.ContactID,
		Template:        d.Template,
		PaymentTermDays: d.PaymentTermDays,
		Status:          string(d.Status),
		TotalExclVAT:    d.Totals.ExclVAT,
		TotalVATable:    d.Totals.VATable,
		TotalNonVATable: d.Totals.NonVATable,
		TotalInclVAT:    d.Totals.InclVAT,
		TotalVAT:        d.Totals.VAT,
	}
	if d.CreditedByGUID != nil {
		s := d.CreditedByGUID.String()
		resp.CreditedBy = &s
	}
	if d.PaidAt != nil {
		s := d.PaidAt.Format("2006-01-02")
		resp.PaidAt = &s
	}
	return resp
}

func toLineResponses(lines []Line) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse{
			AccountNo:     l.AccountNo,
			Description:   l.Description,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			DiscountPct:   l.DiscountPct,
			VATCode:       l.VATCode,
			VATRate:       l.VATRate,
			BaseAmount:    l.BaseAmount,
			InclVATAmount: l.InclVATAmount,
		})
	}
	return out
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	var req CreateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	doc, err := h.service.Create(r.Context(), orgID, req)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
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
	doc, lines, err := h.service.Get(r.Context(), orgID, guid)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	resp := map[string]any{
		"document": toDocumentResponse(doc),
		"lines":    toLineResponses(lines),
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, err := shared.OrgIDFromRequest(r)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	filter := ListFilter{
		Class:  Class(r.URL.Query().Get("class")),
		Status: Status(r.URL.Query().Get("status")),
	}
	docs, pagination, err := h.service.List(r.Context(), orgID, filter, page, perPage)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"documents": out,
		"page":      pagination.Page,
		"perPage":   pagination.PerPage,
		"total":     pagination.Total,
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
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
	var req UpdateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	doc, err := h.service.Update(r.Context(), orgID, guid, req)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.service.Book(r.Context(), orgID, guid)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"guid":          result.GUID.String(),
		"voucherNumber": result.VoucherNumber,
	})
}

func (h *Handler) reversal(w http.ResponseWriter, r *http.Request) {
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
	credit, err := h.service.CreateReversal(r.Context(), orgID, guid)
	if err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toDocumentResponse(credit))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.Delete(r.Context(), orgID, guid); err != nil {
		shared.WriteError(w, h.logger, err, h.devMode)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"guid": guid.String()})
}
