package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the payment state of an invoice.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}

	return false
}

// TaxRates lists the accepted tax rates, in percent.
var TaxRates = []int64{0, 5, 10, 12, 15, 18, 28}

// ValidTaxRate reports whether rate is one of TaxRates.
func ValidTaxRate(rate decimal.Decimal) bool {
	for _, r := range TaxRates {
		if rate.Equal(decimal.NewFromInt(r)) {
			return true
		}
	}

	return false
}

// LineItem is one billed entry. Amount is always Quantity × UnitPrice rounded to cents.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Totals is the derived money breakdown of an invoice.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Form holds the billing inputs entered for a new invoice.
type Form struct {
	StudentID     uuid.UUID
	UniversityID  uuid.UUID
	PaymentMethod string
	PaymentType   string
	FlatAmount    decimal.Decimal
	TaxRate       decimal.Decimal
	Discount      decimal.Decimal
	Notes         string
	DueDate       *time.Time
}

// Payload is the persisted shape of a newly created invoice.
type Payload struct {
	InvoiceID     string          `json:"invoice_id"`
	StudentID     uuid.UUID       `json:"student_id"`
	UniversityID  uuid.UUID       `json:"university_id"`
	PaymentMethod string          `json:"payment_method"`
	PaymentType   string          `json:"payment_type"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	Tax           decimal.Decimal `json:"tax"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes"`
	DueDate       *time.Time      `json:"due_date"`
	Items         []LineItem      `json:"items"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	PaymentDate   time.Time       `json:"payment_date"`
	Status        Status          `json:"status"`
}

// Invoice is a stored invoice. It carries only the inputs; see Totals.
type Invoice struct {
	ID             string
	StudentID      uuid.UUID
	UniversityID   uuid.UUID
	CreatedBy      uuid.UUID
	Items          []LineItem
	FlatAmount     decimal.Decimal
	TaxRate        decimal.Decimal
	Discount       decimal.Decimal
	PaymentMethod  string
	PaymentType    string
	Notes          string
	DueDate        *time.Time
	PaymentDate    time.Time
	Status         Status
	StudentName    string // Loaded via JOIN
	UniversityName string // Loaded via JOIN
	CreatedAt      time.Time
}

// Totals re-derives the money breakdown from the invoice inputs.
func (inv *Invoice) Totals() Totals {
	return ComputeTotals(inv.Items, inv.FlatAmount, inv.TaxRate, inv.Discount)
}

// Invoice returns the invoice described by the payload. The payment amount
// becomes the flat amount, which equals the item sum whenever items exist.
func (p *Payload) Invoice() *Invoice {
	return &Invoice{
		ID:            p.InvoiceID,
		StudentID:     p.StudentID,
		UniversityID:  p.UniversityID,
		CreatedBy:     p.CreatedBy,
		Items:         p.Items,
		FlatAmount:    p.PaymentAmount,
		TaxRate:       p.TaxRate,
		Discount:      p.Discount,
		PaymentMethod: p.PaymentMethod,
		PaymentType:   p.PaymentType,
		Notes:         p.Notes,
		DueDate:       p.DueDate,
		PaymentDate:   p.PaymentDate,
		Status:        p.Status,
	}
}
