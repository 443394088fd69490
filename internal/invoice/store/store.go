package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectInvoiceColumns = `
	i.invoice_id, i.student_id, i.university_id, i.created_by,
	i.payment_method, i.payment_type, i.payment_amount, i.tax_rate, i.discount,
	i.notes, i.due_date, i.payment_date, i.status,
	COALESCE(s.name, ''), COALESCE(u.name, ''), i.created_at
`

const fromInvoices = `
	FROM invoices i
	LEFT JOIN students s ON i.student_id = s.id
	LEFT JOIN universities u ON i.university_id = u.id
`

// scanInvoice reads a row in selectInvoiceColumns order. Derived columns
// (tax, total) are never read back.
func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice

	var status string

	var notes sql.NullString

	if err := s.Scan(
		&inv.ID, &inv.StudentID, &inv.UniversityID, &inv.CreatedBy,
		&inv.PaymentMethod, &inv.PaymentType, &inv.FlatAmount, &inv.TaxRate, &inv.Discount,
		&notes, &inv.DueDate, &inv.PaymentDate, &status,
		&inv.StudentName, &inv.UniversityName, &inv.CreatedAt,
	); err != nil {
		return nil, err
	}

	inv.Status = invoice.Status(status)
	inv.Notes = notes.String

	return &inv, nil
}

// CreateInvoice writes the invoice and its items in one transaction.
func (s *Store) CreateInvoice(ctx context.Context, p *invoice.Payload) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `
		INSERT INTO invoices (
			invoice_id, student_id, university_id, created_by,
			payment_method, payment_type, payment_amount, tax_rate, tax, discount, total,
			notes, due_date, payment_date, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15, NOW())
	`,
		p.InvoiceID, p.StudentID, p.UniversityID, p.CreatedBy,
		p.PaymentMethod, p.PaymentType, p.PaymentAmount, p.TaxRate, p.Tax, p.Discount, p.Total,
		p.Notes, p.DueDate, p.PaymentDate, string(p.Status),
	); err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range p.Items {
		if _, err := stmt.ExecContext(ctx, p.InvoiceID, i, it.Description, it.Quantity, it.UnitPrice, it.Amount); err != nil {
			return fmt.Errorf("inserting invoice item %d: %w", i, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + fromInvoices + `WHERE i.invoice_id = $1`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	if err := s.loadItems(ctx, []*invoice.Invoice{inv}); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + fromInvoices + `WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.StudentID != nil {
		query += fmt.Sprintf(" AND i.student_id = $%d", argIdx)

		args = append(args, *filter.StudentID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND i.status = $%d", argIdx)

		args = append(args, string(*filter.Status))
		argIdx++
	}

	query += " ORDER BY i.payment_date DESC, i.invoice_id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invs []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice rows: %w", err)
	}

	if err := s.loadItems(ctx, invs); err != nil {
		return nil, err
	}

	return invs, nil
}

// loadItems attaches line items to invs, preserving their entry order.
func (s *Store) loadItems(ctx context.Context, invs []*invoice.Invoice) error {
	if len(invs) == 0 {
		return nil
	}

	byID := make(map[string]*invoice.Invoice, len(invs))
	ids := make([]string, 0, len(invs))

	for _, inv := range invs {
		byID[inv.ID] = inv
		ids = append(ids, inv.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_id, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("listing invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID string

		var it invoice.LineItem

		if err := rows.Scan(&invoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return fmt.Errorf("scanning invoice item: %w", err)
		}

		if inv, ok := byID[invoiceID]; ok {
			inv.Items = append(inv.Items, it)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating invoice item rows: %w", err)
	}

	return nil
}
