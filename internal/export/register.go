package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
)

const registerSheet = "Invoices"

var registerHeader = []any{
	"Invoice", "Payment date", "Due date", "Student", "University",
	"Subtotal", "Tax", "Discount", "Total", "Status",
}

// moneyFormat is the built-in "0.00" number format.
const moneyFormat = 2

// InvoiceRegister writes an XLSX sheet with one row per invoice matching filter.
// Totals are re-derived from each invoice's inputs. It returns the row count.
func (s *Service) InvoiceRegister(ctx context.Context, filter invoice.ListFilter, w io.Writer) (int, error) {
	invs, err := s.invoices.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("listing invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return 0, fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(registerSheet, "A1", &registerHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return 0, fmt.Errorf("creating money style: %w", err)
	}

	if err := f.SetColStyle(registerSheet, "F:I", style); err != nil {
		return 0, fmt.Errorf("styling money columns: %w", err)
	}

	for i, inv := range invs {
		totals := inv.Totals()

		due := ""
		if inv.DueDate != nil {
			due = inv.DueDate.Format("2006-01-02")
		}

		row := []any{
			inv.ID,
			inv.PaymentDate.Format("2006-01-02"),
			due,
			inv.StudentName,
			inv.UniversityName,
			totals.Subtotal.InexactFloat64(),
			totals.TaxAmount.InexactFloat64(),
			inv.Discount.InexactFloat64(),
			totals.GrandTotal.InexactFloat64(),
			string(inv.Status),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, fmt.Errorf("addressing row %d: %w", i+2, err)
		}

		if err := f.SetSheetRow(registerSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("writing invoice %s: %w", inv.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("writing workbook: %w", err)
	}

	return len(invs), nil
}
