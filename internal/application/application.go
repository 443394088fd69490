package application

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the university's answer on an application.
type Decision string

const (
	DecisionPending    Decision = "Pending"
	DecisionAccepted   Decision = "Accepted"
	DecisionRejected   Decision = "Rejected"
	DecisionWaitlisted Decision = "Waitlisted"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionPending, DecisionAccepted, DecisionRejected, DecisionWaitlisted:
		return true
	}

	return false
}

// Verification records whether the uploaded documents have been checked.
type Verification int

const (
	VerificationPending  Verification = 0
	VerificationVerified Verification = 1
)

// Toggled returns the opposite state. There are no other states.
func (v Verification) Toggled() Verification {
	if v == VerificationVerified {
		return VerificationPending
	}

	return VerificationVerified
}

func (v Verification) String() string {
	if v == VerificationVerified {
		return "Verified"
	}

	return "Pending"
}

// Application is one student's application to one university program.
type Application struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	UniversityID uuid.UUID
	CounselorID  *uuid.UUID
	ProcessorID  *uuid.UUID

	// Stage flags are independent; DeriveStatusBadge decides which one shows.
	ApplicationStage bool
	Interview        bool
	VisaProcess      bool

	TravelInsurance bool
	ProofOfIncome   bool
	Verification    Verification

	ProgramName     string
	ApplicationDate time.Time
	Decision        Decision
	OfferLetter     string

	StudentName    string // Loaded via JOIN
	UniversityName string // Loaded via JOIN

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// CounselorAssignment is written once per assignment and never stored on its own;
// it updates the application and leaves a follow-up entry behind.
type CounselorAssignment struct {
	ApplicationID uuid.UUID
	CounselorID   uuid.UUID
	FollowUp      time.Time
	Notes         string
}
