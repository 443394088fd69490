package invoice

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
)

// amount decodes a JSON number or string forgivingly: blank or malformed input is zero.
type amount decimal.Decimal

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}

	*a = amount(invoice.ParseAmount(s))

	return nil
}

func (a amount) dec() decimal.Decimal {
	return decimal.Decimal(a)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type itemRequest struct {
	Description string `json:"description"`
	Quantity    amount `json:"quantity"`
	UnitPrice   amount `json:"unit_price"`
}

func toLineItems(reqs []itemRequest) []invoice.LineItem {
	items := make([]invoice.LineItem, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, invoice.RecomputeLineAmount(invoice.LineItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity.dec(),
			UnitPrice:   it.UnitPrice.dec(),
		}))
	}

	return items
}

type itemResponse struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
}

func toItemList(items []invoice.LineItem) []itemResponse {
	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, itemResponse{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.String(),
			Amount:      money(it.Amount),
		})
	}

	return resp
}

type totalsResponse struct {
	Subtotal   string `json:"subtotal"`
	TaxAmount  string `json:"tax_amount"`
	GrandTotal string `json:"grand_total"`
}

func toTotals(t invoice.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:   money(t.Subtotal),
		TaxAmount:  money(t.TaxAmount),
		GrandTotal: money(t.GrandTotal),
	}
}

type invoiceResponse struct {
	ID             string         `json:"invoice_id"`
	StudentID      uuid.UUID      `json:"student_id"`
	StudentName    string         `json:"student_name,omitempty"`
	UniversityID   uuid.UUID      `json:"university_id"`
	UniversityName string         `json:"university_name,omitempty"`
	CreatedBy      uuid.UUID      `json:"created_by"`
	PaymentMethod  string         `json:"payment_method"`
	PaymentType    string         `json:"payment_type"`
	Items          []itemResponse `json:"items"`
	TaxRate        string         `json:"tax_rate"`
	Discount       string         `json:"discount"`
	Totals         totalsResponse `json:"totals"`
	Notes          string         `json:"notes,omitempty"`
	DueDate        string         `json:"due_date,omitempty"`
	PaymentDate    string         `json:"payment_date"`
	Status         invoice.Status `json:"status"`
}

func toResponse(inv *invoice.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:             inv.ID,
		StudentID:      inv.StudentID,
		StudentName:    inv.StudentName,
		UniversityID:   inv.UniversityID,
		UniversityName: inv.UniversityName,
		CreatedBy:      inv.CreatedBy,
		PaymentMethod:  inv.PaymentMethod,
		PaymentType:    inv.PaymentType,
		Items:          toItemList(inv.Items),
		TaxRate:        inv.TaxRate.String(),
		Discount:       money(inv.Discount),
		Totals:         toTotals(inv.Totals()),
		Notes:          inv.Notes,
		PaymentDate:    inv.PaymentDate.Format(time.DateOnly),
		Status:         inv.Status,
	}

	if inv.DueDate != nil {
		resp.DueDate = inv.DueDate.Format(time.DateOnly)
	}

	return resp
}

func toResponseList(invs []*invoice.Invoice) []invoiceResponse {
	resp := make([]invoiceResponse, 0, len(invs))
	for _, inv := range invs {
		resp = append(resp, toResponse(inv))
	}

	return resp
}
