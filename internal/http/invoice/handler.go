package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/export"
	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/unitrack/internal/http/respond"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice/itemcsv"
)

const (
	maxUploadSize = 5 << 20
	xlsxType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	svc    *invoice.Service
	export *export.Service
}

func NewHandler(svc *invoice.Service, exporter *export.Service) *Handler {
	return &Handler{svc: svc, export: exporter}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/export", h.exportRegister)
	r.Post("/totals", h.totals)
	r.Post("/items/import", h.importItems)
	r.Get("/{id}", h.get)
}

type createInvoiceRequest struct {
	StudentID     uuid.UUID     `json:"student_id"`
	UniversityID  uuid.UUID     `json:"university_id"`
	PaymentMethod string        `json:"payment_method"`
	PaymentType   string        `json:"payment_type"`
	Amount        amount        `json:"amount"`
	TaxRate       amount        `json:"tax_rate"`
	Discount      amount        `json:"discount"`
	Notes         string        `json:"notes"`
	DueDate       string        `json:"due_date"`
	Items         []itemRequest `json:"items"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	createdBy, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "body", err.Error())
		return
	}

	form := invoice.Form{
		StudentID:     req.StudentID,
		UniversityID:  req.UniversityID,
		PaymentMethod: req.PaymentMethod,
		PaymentType:   req.PaymentType,
		FlatAmount:    req.Amount.dec(),
		TaxRate:       req.TaxRate.dec(),
		Discount:      req.Discount.dec(),
		Notes:         req.Notes,
	}

	if req.DueDate != "" {
		due, err := time.Parse(time.DateOnly, req.DueDate)
		if err != nil {
			respond.BadRequest(w, r, "due_date", "must be YYYY-MM-DD")
			return
		}

		form.DueDate = &due
	}

	inv, err := h.svc.Create(r.Context(), form, toLineItems(req.Items), createdBy)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toResponse(inv))
}

func listFilter(w http.ResponseWriter, r *http.Request) (invoice.ListFilter, bool) {
	var filter invoice.ListFilter

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(invoice.Status(s))
	}

	if s := r.URL.Query().Get("student_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respond.BadRequest(w, r, "student_id", "is not a valid id")
			return filter, false
		}

		filter.StudentID = &id
	}

	return filter, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}

	invs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponseList(invs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(inv))
}

type totalsRequest struct {
	Amount   amount        `json:"amount"`
	TaxRate  amount        `json:"tax_rate"`
	Discount amount        `json:"discount"`
	Items    []itemRequest `json:"items"`
}

type totalsPreviewResponse struct {
	Items  []itemResponse `json:"items"`
	Totals totalsResponse `json:"totals"`
}

// totals previews line amounts and totals without validating or persisting.
func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	var req totalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "body", err.Error())
		return
	}

	items := toLineItems(req.Items)

	respond.JSON(w, r, http.StatusOK, totalsPreviewResponse{
		Items:  toItemList(items),
		Totals: toTotals(invoice.ComputeTotals(items, req.Amount.dec(), req.TaxRate.dec(), req.Discount.dec())),
	})
}

type importResponse struct {
	Items  []itemResponse `json:"items"`
	Totals totalsResponse `json:"totals"`
}

func (h *Handler) importItems(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.BadRequest(w, r, "file", "upload too large or malformed")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, r, "file", "is required")
		return
	}
	defer file.Close()

	items, err := itemcsv.Parse(file)
	if err != nil {
		respond.BadRequest(w, r, "file", err.Error())
		return
	}

	taxRate := invoice.ParseAmount(r.FormValue("tax_rate"))
	discount := invoice.ParseAmount(r.FormValue("discount"))

	respond.JSON(w, r, http.StatusOK, importResponse{
		Items:  toItemList(items),
		Totals: toTotals(invoice.ComputeTotals(items, invoice.ParseAmount(r.FormValue("amount")), taxRate, discount)),
	})
}

func (h *Handler) exportRegister(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer

	if _, err := h.export.InvoiceRegister(r.Context(), filter, &buf); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"invoices_%s.xlsx\"", time.Now().Format("20060102")))

	if _, err := buf.WriteTo(w); err != nil {
		middleware.Logger(r.Context()).Error("failed to write register", "error", err)
	}
}
