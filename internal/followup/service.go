package followup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
)

// FollowUp is the note left behind each time a counselor is assigned.
type FollowUp struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	CounselorID   uuid.UUID
	Due           time.Time
	Notes         string
	CreatedAt     time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=followup
type Repository interface {
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*FollowUp, error)
	ListDue(ctx context.Context, counselorID uuid.UUID, until time.Time) ([]*FollowUp, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ForApplication returns the follow-up history of an application, newest first.
func (s *Service) ForApplication(ctx context.Context, applicationID uuid.UUID) ([]*FollowUp, error) {
	fus, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, apperrors.Persistence("listing follow-ups", err)
	}

	return fus, nil
}

// Upcoming returns a counselor's follow-ups due on or before until, soonest first.
func (s *Service) Upcoming(ctx context.Context, counselorID uuid.UUID, until time.Time) ([]*FollowUp, error) {
	if counselorID == uuid.Nil {
		return nil, apperrors.Required("counselor_id")
	}

	fus, err := s.repo.ListDue(ctx, counselorID, until)
	if err != nil {
		return nil, apperrors.Persistence("listing due follow-ups", err)
	}

	return fus, nil
}
