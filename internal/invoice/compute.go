package invoice

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
)

var hundred = decimal.NewFromInt(100)

// Bounds on parsed input. Anything outside them is treated as malformed, so
// rounding never has to rescale an unbounded coefficient.
const (
	maxExponent = 18
	maxDigits   = 30
)

// ParseAmount parses user-entered money or quantity text.
// Blank or malformed input yields zero. A lone comma is read as the decimal
// separator; thousands separators ("1,234.56", "1.234,56") are not understood
// and also yield zero, as do exponents or digit counts beyond what money needs.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	if strings.Contains(s, ",") && !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent || d.NumDigits() > maxDigits {
		return decimal.Zero
	}

	return d
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NewLineItem builds a line item from raw form text.
func NewLineItem(description, quantity, unitPrice string) LineItem {
	return RecomputeLineAmount(LineItem{
		Description: strings.TrimSpace(description),
		Quantity:    ParseAmount(quantity),
		UnitPrice:   ParseAmount(unitPrice),
	})
}

// RecomputeLineAmount returns item with Amount set from its quantity and unit price.
func RecomputeLineAmount(item LineItem) LineItem {
	item.Amount = round2(item.Quantity.Mul(item.UnitPrice))
	return item
}

// IsEmpty reports whether the item carries neither a description nor an amount.
func (li LineItem) IsEmpty() bool {
	return strings.TrimSpace(li.Description) == "" && li.Amount.IsZero()
}

// ComputeTotals derives subtotal, tax and grand total. The subtotal is the sum
// of item amounts, or flatAmount when there are no items.
func ComputeTotals(items []LineItem, flatAmount, taxRate, discount decimal.Decimal) Totals {
	subtotal := flatAmount

	if len(items) > 0 {
		subtotal = decimal.Zero
		for _, it := range items {
			subtotal = subtotal.Add(it.Amount)
		}
	}

	subtotal = round2(subtotal)
	tax := round2(subtotal.Mul(taxRate).Div(hundred))

	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  tax,
		GrandTotal: subtotal.Add(tax).Sub(discount),
	}
}

func nonEmpty(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))

	for _, it := range items {
		if !it.IsEmpty() {
			out = append(out, it)
		}
	}

	return out
}

// BuildPayload assembles the persisted shape of a new invoice. Empty items are dropped.
func BuildPayload(id string, form Form, items []LineItem, totals Totals, createdBy uuid.UUID, today time.Time) Payload {
	return Payload{
		InvoiceID:     id,
		StudentID:     form.StudentID,
		UniversityID:  form.UniversityID,
		PaymentMethod: form.PaymentMethod,
		PaymentType:   form.PaymentType,
		PaymentAmount: totals.Subtotal,
		Tax:           totals.TaxAmount,
		TaxRate:       form.TaxRate,
		Discount:      form.Discount,
		Total:         totals.GrandTotal,
		Notes:         strings.TrimSpace(form.Notes),
		DueDate:       form.DueDate,
		Items:         nonEmpty(items),
		CreatedBy:     createdBy,
		PaymentDate:   today,
		Status:        StatusPending,
	}
}

// Validate checks the form before anything is persisted and reports the first offending field.
func Validate(form Form, items []LineItem) error {
	if form.StudentID == uuid.Nil {
		return apperrors.Required("student_id")
	}

	if form.UniversityID == uuid.Nil {
		return apperrors.Required("university_id")
	}

	items = nonEmpty(items)
	if len(items) == 0 && !form.FlatAmount.IsPositive() {
		return apperrors.NewValidation("amount", "needs at least one item or a positive amount")
	}

	if !ValidTaxRate(form.TaxRate) {
		return apperrors.NewValidation("tax_rate", "is not an accepted rate")
	}

	if form.Discount.IsNegative() {
		return apperrors.NewValidation("discount", "must not be negative")
	}

	totals := ComputeTotals(items, form.FlatAmount, form.TaxRate, decimal.Zero)
	if form.Discount.GreaterThan(totals.GrandTotal) {
		return apperrors.NewValidation("discount", "exceeds subtotal plus tax")
	}

	return nil
}
