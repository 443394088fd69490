package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/followup"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*followup.FollowUp, error) {
	query := `
		SELECT id, application_id, counselor_id, due_date, notes, created_at
		FROM follow_ups
		WHERE application_id = $1
		ORDER BY created_at DESC
	`

	return s.list(ctx, query, applicationID)
}

func (s *Store) ListDue(ctx context.Context, counselorID uuid.UUID, until time.Time) ([]*followup.FollowUp, error) {
	query := `
		SELECT id, application_id, counselor_id, due_date, notes, created_at
		FROM follow_ups
		WHERE counselor_id = $1 AND due_date <= $2
		ORDER BY due_date ASC, created_at ASC
	`

	return s.list(ctx, query, counselorID, until)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*followup.FollowUp, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing follow-ups: %w", err)
	}
	defer rows.Close()

	var fus []*followup.FollowUp

	for rows.Next() {
		var fu followup.FollowUp

		var notes sql.NullString

		if err := rows.Scan(&fu.ID, &fu.ApplicationID, &fu.CounselorID, &fu.Due, &notes, &fu.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning follow-up: %w", err)
		}

		fu.Notes = notes.String
		fus = append(fus, &fu)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating follow-up rows: %w", err)
	}

	return fus, nil
}
