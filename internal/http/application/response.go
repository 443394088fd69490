package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/followup"
)

type applicationResponse struct {
	ID               uuid.UUID            `json:"id"`
	StudentID        uuid.UUID            `json:"student_id"`
	StudentName      string               `json:"student_name,omitempty"`
	UniversityID     uuid.UUID            `json:"university_id"`
	UniversityName   string               `json:"university_name,omitempty"`
	CounselorID      *uuid.UUID           `json:"counselor_id,omitempty"`
	ProcessorID      *uuid.UUID           `json:"processor_id,omitempty"`
	ApplicationStage bool                 `json:"application_stage"`
	Interview        bool                 `json:"interview"`
	VisaProcess      bool                 `json:"visa_process"`
	TravelInsurance  bool                 `json:"travel_insurance"`
	ProofOfIncome    bool                 `json:"proof_of_income"`
	Status           int                  `json:"status"`
	ProgramName      string               `json:"program_name"`
	ApplicationDate  string               `json:"application_date"`
	DecisionStatus   application.Decision `json:"decision_status"`
	OfferLetter      string               `json:"offer_letter,omitempty"`
	Badge            application.Badge    `json:"badge"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        *time.Time           `json:"updated_at,omitempty"`
}

func toResponse(a *application.Application) applicationResponse {
	return applicationResponse{
		ID:               a.ID,
		StudentID:        a.StudentID,
		StudentName:      a.StudentName,
		UniversityID:     a.UniversityID,
		UniversityName:   a.UniversityName,
		CounselorID:      a.CounselorID,
		ProcessorID:      a.ProcessorID,
		ApplicationStage: a.ApplicationStage,
		Interview:        a.Interview,
		VisaProcess:      a.VisaProcess,
		TravelInsurance:  a.TravelInsurance,
		ProofOfIncome:    a.ProofOfIncome,
		Status:           int(a.Verification),
		ProgramName:      a.ProgramName,
		ApplicationDate:  a.ApplicationDate.Format(time.DateOnly),
		DecisionStatus:   a.Decision,
		OfferLetter:      a.OfferLetter,
		Badge:            application.DeriveStatusBadge(a),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toResponseList(apps []*application.Application) []applicationResponse {
	resp := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		resp = append(resp, toResponse(a))
	}

	return resp
}

type followUpResponse struct {
	ID          uuid.UUID `json:"id"`
	CounselorID uuid.UUID `json:"counselor_id"`
	Due         string    `json:"due"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toFollowUpList(fus []*followup.FollowUp) []followUpResponse {
	resp := make([]followUpResponse, 0, len(fus))
	for _, fu := range fus {
		resp = append(resp, followUpResponse{
			ID:          fu.ID,
			CounselorID: fu.CounselorID,
			Due:         fu.Due.Format(time.DateOnly),
			Notes:       fu.Notes,
			CreatedAt:   fu.CreatedAt,
		})
	}

	return resp
}

type optionsResponse struct {
	Universities []string `json:"universities"`
	Students     []string `json:"students"`
}
