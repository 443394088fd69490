package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	CreateInvoice(ctx context.Context, p *Payload) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]*Invoice, error)
}

type ListFilter struct {
	StudentID *uuid.UUID
	Status    *Status
}

type Service struct {
	repo Repository
	ids  *IDGenerator
	now  func() time.Time
}

type Option func(*Service)

// WithClock replaces the clock used for invoice ids and payment dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	s.ids = NewIDGenerator(s.now)

	return s
}

// Create validates the form, derives totals and persists the invoice once.
func (s *Service) Create(ctx context.Context, form Form, items []LineItem, createdBy uuid.UUID) (*Invoice, error) {
	if err := Validate(form, items); err != nil {
		return nil, err
	}

	items = nonEmpty(items)
	totals := ComputeTotals(items, form.FlatAmount, form.TaxRate, form.Discount)

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	p := BuildPayload(s.ids.Next(), form, items, totals, createdBy, today)
	if err := s.repo.CreateInvoice(ctx, &p); err != nil {
		return nil, apperrors.Persistence("creating invoice", err)
	}

	return p.Invoice(), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("getting invoice", err)
	}

	return inv, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidation("status", "is not a known invoice status")
	}

	invs, err := s.repo.ListInvoices(ctx, filter)
	if err != nil {
		return nil, apperrors.Persistence("listing invoices", err)
	}

	return invs, nil
}
