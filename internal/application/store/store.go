package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
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

const selectApplicationColumns = `
	a.id, a.student_id, a.university_id, a.counselor_id, a.processor_id,
	a.application_stage, a.interview, a.visa_process,
	a.travel_insurance, a.proof_of_income, a.status,
	a.program_name, a.application_date, a.decision_status, a.offer_letter,
	COALESCE(s.name, ''), COALESCE(u.name, ''), a.created_at, a.updated_at
`

const fromApplications = `
	FROM applications a
	LEFT JOIN students s ON a.student_id = s.id
	LEFT JOIN universities u ON a.university_id = u.id
`

// scanApplication reads a row in selectApplicationColumns order.
func scanApplication(s scanner) (*application.Application, error) {
	var app application.Application

	var decision string

	var offerLetter sql.NullString

	if err := s.Scan(
		&app.ID, &app.StudentID, &app.UniversityID, &app.CounselorID, &app.ProcessorID,
		&app.ApplicationStage, &app.Interview, &app.VisaProcess,
		&app.TravelInsurance, &app.ProofOfIncome, &app.Verification,
		&app.ProgramName, &app.ApplicationDate, &decision, &offerLetter,
		&app.StudentName, &app.UniversityName, &app.CreatedAt, &app.UpdatedAt,
	); err != nil {
		return nil, err
	}

	app.Decision = application.Decision(decision)
	app.OfferLetter = offerLetter.String

	return &app, nil
}

func (s *Store) CreateApplication(ctx context.Context, app *application.Application) error {
	query := `
		INSERT INTO applications (
			student_id, university_id, application_stage, interview, visa_process,
			travel_insurance, proof_of_income, status,
			program_name, application_date, decision_status, offer_letter, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		app.StudentID,
		app.UniversityID,
		app.ApplicationStage,
		app.Interview,
		app.VisaProcess,
		app.TravelInsurance,
		app.ProofOfIncome,
		app.Verification,
		app.ProgramName,
		app.ApplicationDate,
		app.Decision,
		app.OfferLetter,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating application: %w", err)
	}

	return nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	query := `SELECT ` + selectApplicationColumns + fromApplications + `WHERE a.id = $1`

	app, err := scanApplication(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}

		return nil, fmt.Errorf("getting application: %w", err)
	}

	return app, nil
}

func (s *Store) ListApplications(ctx context.Context) ([]*application.Application, error) {
	query := `SELECT ` + selectApplicationColumns + fromApplications + `ORDER BY a.application_date DESC, a.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var apps []*application.Application

	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}

		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating application rows: %w", err)
	}

	return apps, nil
}

// UpdateApplication writes the editable columns only.
func (s *Store) UpdateApplication(ctx context.Context, app *application.Application) error {
	query := `
		UPDATE applications
		SET program_name = $1, application_date = $2, decision_status = $3, offer_letter = NULLIF($4, ''),
			application_stage = $5, interview = $6, visa_process = $7,
			travel_insurance = $8, proof_of_income = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		app.ProgramName,
		app.ApplicationDate,
		app.Decision,
		app.OfferLetter,
		app.ApplicationStage,
		app.Interview,
		app.VisaProcess,
		app.TravelInsurance,
		app.ProofOfIncome,
		app.ID,
	).Scan(&app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNotFound
		}

		return fmt.Errorf("updating application: %w", err)
	}

	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting application: %w", err)
	}

	return requireAffected(res)
}

// AssignCounselor sets the counselor and records the follow-up in one database
// transaction.
func (s *Store) AssignCounselor(ctx context.Context, assignment application.CounselorAssignment) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `
		UPDATE applications
		SET counselor_id = $1, updated_at = NOW()
		WHERE id = $2
	`, assignment.CounselorID, assignment.ApplicationID)
	if err != nil {
		return fmt.Errorf("setting counselor: %w", err)
	}

	if err := requireAffected(res); err != nil {
		return err
	}

	if _, err := dbTx.ExecContext(ctx, `
		INSERT INTO follow_ups (application_id, counselor_id, due_date, notes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, assignment.ApplicationID, assignment.CounselorID, assignment.FollowUp, assignment.Notes); err != nil {
		return fmt.Errorf("recording follow-up: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) AssignProcessor(ctx context.Context, applicationID, processorID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET processor_id = $1, updated_at = NOW()
		WHERE id = $2
	`, processorID, applicationID)
	if err != nil {
		return fmt.Errorf("setting processor: %w", err)
	}

	return requireAffected(res)
}

func (s *Store) SetVerification(ctx context.Context, id uuid.UUID, v application.Verification) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, v, id)
	if err != nil {
		return fmt.Errorf("setting verification: %w", err)
	}

	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
