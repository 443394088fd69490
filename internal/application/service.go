package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=application
type Repository interface {
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*Application, error)
	ListApplications(ctx context.Context) ([]*Application, error)
	UpdateApplication(ctx context.Context, app *Application) error
	DeleteApplication(ctx context.Context, id uuid.UUID) error

	AssignCounselor(ctx context.Context, assignment CounselorAssignment) error
	AssignProcessor(ctx context.Context, applicationID, processorID uuid.UUID) error
	SetVerification(ctx context.Context, id uuid.UUID, v Verification) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, which decides the default application date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	StudentID       uuid.UUID
	UniversityID    uuid.UUID
	ProgramName     string
	ApplicationDate *time.Time
	Decision        Decision
	OfferLetter     string
	TravelInsurance bool
	ProofOfIncome   bool
}

func (p CreateParams) validate() error {
	if p.StudentID == uuid.Nil {
		return apperrors.Required("student_id")
	}

	if p.UniversityID == uuid.Nil {
		return apperrors.Required("university_id")
	}

	if strings.TrimSpace(p.ProgramName) == "" {
		return apperrors.Required("program_name")
	}

	if p.Decision != "" && !p.Decision.Valid() {
		return apperrors.NewValidation("decision_status", "must be Pending, Accepted, Rejected or Waitlisted")
	}

	return nil
}

// UpdateParams holds the editable fields. Nil leaves a field unchanged.
type UpdateParams struct {
	ProgramName     *string
	ApplicationDate *time.Time
	Decision        *Decision
	OfferLetter     *string

	ApplicationStage *bool
	Interview        *bool
	VisaProcess      *bool
	TravelInsurance  *bool
	ProofOfIncome    *bool
}

func (p UpdateParams) validate() error {
	if p.ProgramName != nil && strings.TrimSpace(*p.ProgramName) == "" {
		return apperrors.Required("program_name")
	}

	if p.Decision != nil && !p.Decision.Valid() {
		return apperrors.NewValidation("decision_status", "must be Pending, Accepted, Rejected or Waitlisted")
	}

	return nil
}

func (p UpdateParams) apply(app *Application) {
	if p.ProgramName != nil {
		app.ProgramName = strings.TrimSpace(*p.ProgramName)
	}

	if p.ApplicationDate != nil {
		app.ApplicationDate = dateOnly(*p.ApplicationDate)
	}

	if p.Decision != nil {
		app.Decision = *p.Decision
	}

	if p.OfferLetter != nil {
		app.OfferLetter = *p.OfferLetter
	}

	setIf(&app.ApplicationStage, p.ApplicationStage)
	setIf(&app.Interview, p.Interview)
	setIf(&app.VisaProcess, p.VisaProcess)
	setIf(&app.TravelInsurance, p.TravelInsurance)
	setIf(&app.ProofOfIncome, p.ProofOfIncome)
}

func setIf(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Application, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	app := &Application{
		StudentID:       params.StudentID,
		UniversityID:    params.UniversityID,
		ProgramName:     strings.TrimSpace(params.ProgramName),
		ApplicationDate: dateOnly(s.now()),
		Decision:        DecisionPending,
		OfferLetter:     params.OfferLetter,
		TravelInsurance: params.TravelInsurance,
		ProofOfIncome:   params.ProofOfIncome,
		Verification:    VerificationPending,
	}

	if params.ApplicationDate != nil {
		app.ApplicationDate = dateOnly(*params.ApplicationDate)
	}

	if params.Decision != "" {
		app.Decision = params.Decision
	}

	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, apperrors.Persistence("creating application", err)
	}

	return app, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Application, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("getting application", err)
	}

	return app, nil
}

func (s *Service) List(ctx context.Context) ([]*Application, error) {
	apps, err := s.repo.ListApplications(ctx)
	if err != nil {
		return nil, apperrors.Persistence("listing applications", err)
	}

	return apps, nil
}

// Update merges params into the stored application. Identity, assignments and
// verification are never touched here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Application, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	params.apply(app)

	if err := s.repo.UpdateApplication(ctx, app); err != nil {
		return nil, apperrors.Persistence("updating application", err)
	}

	return app, nil
}

// Delete removes the application for good. Deleting an id that is already gone
// returns apperrors.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return apperrors.Persistence("deleting application", s.repo.DeleteApplication(ctx, id))
}

func (s *Service) AssignCounselor(ctx context.Context, assignment CounselorAssignment) (*Application, error) {
	if assignment.CounselorID == uuid.Nil {
		return nil, apperrors.Required("counselor_id")
	}

	if assignment.FollowUp.IsZero() {
		return nil, apperrors.Required("follow_up")
	}

	app, err := s.Get(ctx, assignment.ApplicationID)
	if err != nil {
		return nil, err
	}

	assignment.FollowUp = dateOnly(assignment.FollowUp)
	assignment.Notes = strings.TrimSpace(assignment.Notes)

	if err := s.repo.AssignCounselor(ctx, assignment); err != nil {
		return nil, apperrors.Persistence("assigning counselor", err)
	}

	app.CounselorID = &assignment.CounselorID

	return app, nil
}

func (s *Service) AssignProcessor(ctx context.Context, applicationID, processorID uuid.UUID) (*Application, error) {
	if processorID == uuid.Nil {
		return nil, apperrors.Required("processor_id")
	}

	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AssignProcessor(ctx, applicationID, processorID); err != nil {
		return nil, apperrors.Persistence("assigning processor", err)
	}

	app.ProcessorID = &processorID

	return app, nil
}

// ToggleVerification flips the verification flag between pending and verified.
func (s *Service) ToggleVerification(ctx context.Context, id uuid.UUID) (*Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := app.Verification.Toggled()
	if err := s.repo.SetVerification(ctx, id, next); err != nil {
		return nil, apperrors.Persistence("setting verification", err)
	}

	app.Verification = next

	return app, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
