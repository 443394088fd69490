package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newService(t *testing.T) (*application.Service, *application.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := application.NewMockRepository(ctrl)

	return application.NewService(repo, application.WithClock(func() time.Time { return fixedNow })), repo
}

func TestService_Create(t *testing.T) {
	studentID := uuid.New()
	universityID := uuid.New()

	type testCase struct {
		name      string
		params    application.CreateParams
		setupMock func(m *application.MockRepository)
		wantField string
		wantErr   bool
		check     func(t *testing.T, app *application.Application)
	}

	tests := []testCase{
		{
			name: "DefaultsDecisionAndDate",
			params: application.CreateParams{
				StudentID:    studentID,
				UniversityID: universityID,
				ProgramName:  "  MSc Computer Science ",
			},
			setupMock: func(m *application.MockRepository) {
				m.EXPECT().
					CreateApplication(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, app *application.Application) error {
						app.ID = uuid.New()
						return nil
					})
			},
			check: func(t *testing.T, app *application.Application) {
				assert.NotEqual(t, uuid.Nil, app.ID)
				assert.Equal(t, application.DecisionPending, app.Decision)
				assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), app.ApplicationDate)
				assert.Equal(t, "MSc Computer Science", app.ProgramName)
				assert.Equal(t, application.VerificationPending, app.Verification)
				assert.False(t, app.ApplicationStage || app.Interview || app.VisaProcess)
				assert.Nil(t, app.CounselorID)
			},
		},
		{
			name: "KeepsExplicitValues",
			params: application.CreateParams{
				StudentID:       studentID,
				UniversityID:    universityID,
				ProgramName:     "MBA",
				ApplicationDate: new(time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)),
				Decision:        application.DecisionWaitlisted,
				OfferLetter:     "https://docs.example.com/offer.pdf",
			},
			setupMock: func(m *application.MockRepository) {
				m.EXPECT().CreateApplication(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, app *application.Application) {
				assert.Equal(t, application.DecisionWaitlisted, app.Decision)
				assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), app.ApplicationDate)
				assert.Equal(t, "https://docs.example.com/offer.pdf", app.OfferLetter)
			},
		},
		{
			name:      "MissingStudent",
			params:    application.CreateParams{UniversityID: universityID, ProgramName: "MBA"},
			wantErr:   true,
			wantField: "student_id",
		},
		{
			name:      "MissingUniversity",
			params:    application.CreateParams{StudentID: studentID, ProgramName: "MBA"},
			wantErr:   true,
			wantField: "university_id",
		},
		{
			name:      "BlankProgram",
			params:    application.CreateParams{StudentID: studentID, UniversityID: universityID, ProgramName: "   "},
			wantErr:   true,
			wantField: "program_name",
		},
		{
			name: "UnknownDecision",
			params: application.CreateParams{
				StudentID: studentID, UniversityID: universityID, ProgramName: "MBA", Decision: "Maybe",
			},
			wantErr:   true,
			wantField: "decision_status",
		},
		{
			name: "RepoError",
			params: application.CreateParams{
				StudentID: studentID, UniversityID: universityID, ProgramName: "MBA",
			},
			setupMock: func(m *application.MockRepository) {
				m.EXPECT().CreateApplication(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)

				if tt.wantField != "" {
					field, ok := apperrors.FieldOf(err)
					assert.True(t, ok)
					assert.Equal(t, tt.wantField, field)
				} else {
					var pe *apperrors.PersistenceError
					assert.ErrorAs(t, err, &pe)
				}

				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_Update(t *testing.T) {
	id := uuid.New()
	counselor := uuid.New()

	existing := func() *application.Application {
		return &application.Application{
			ID:           id,
			ProgramName:  "MBA",
			Decision:     application.DecisionPending,
			CounselorID:  &counselor,
			Verification: application.VerificationVerified,
		}
	}

	t.Run("MergesEditableFields", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().GetApplication(gomock.Any(), id).Return(existing(), nil)
		repo.EXPECT().
			UpdateApplication(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, app *application.Application) error {
				assert.Equal(t, id, app.ID)
				return nil
			})

		got, err := svc.Update(context.Background(), id, application.UpdateParams{
			ProgramName: new("Executive MBA"),
			Decision:    new(application.DecisionAccepted),
			Interview:   new(true),
		})
		require.NoError(t, err)

		assert.Equal(t, "Executive MBA", got.ProgramName)
		assert.Equal(t, application.DecisionAccepted, got.Decision)
		assert.True(t, got.Interview)
		assert.Equal(t, &counselor, got.CounselorID)
		assert.Equal(t, application.VerificationVerified, got.Verification)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().GetApplication(gomock.Any(), id).Return(nil, apperrors.ErrNotFound)

		_, err := svc.Update(context.Background(), id, application.UpdateParams{ProgramName: new("X")})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("BlankProgramRejectedBeforeStore", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Update(context.Background(), id, application.UpdateParams{ProgramName: new("")})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestService_Delete_Twice(t *testing.T) {
	svc, repo := newService(t)
	id := uuid.New()

	gomock.InOrder(
		repo.EXPECT().DeleteApplication(gomock.Any(), id).Return(nil),
		repo.EXPECT().DeleteApplication(gomock.Any(), id).Return(apperrors.ErrNotFound),
	)

	require.NoError(t, svc.Delete(context.Background(), id))

	err := svc.Delete(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var pe *apperrors.PersistenceError
	assert.False(t, errors.As(err, &pe))
}

func TestService_AssignCounselor(t *testing.T) {
	appID := uuid.New()
	counselorID := uuid.New()
	followUp := time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

	t.Run("MissingCounselor", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.AssignCounselor(context.Background(), application.CounselorAssignment{
			ApplicationID: appID,
			FollowUp:      followUp,
		})

		var ve *apperrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "counselor_id", ve.Field)
	})

	t.Run("MissingFollowUp", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.AssignCounselor(context.Background(), application.CounselorAssignment{
			ApplicationID: appID,
			CounselorID:   counselorID,
		})

		field, _ := apperrors.FieldOf(err)
		assert.Equal(t, "follow_up", field)
	})

	t.Run("Success", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().GetApplication(gomock.Any(), appID).Return(&application.Application{ID: appID}, nil)
		repo.EXPECT().AssignCounselor(gomock.Any(), application.CounselorAssignment{
			ApplicationID: appID,
			CounselorID:   counselorID,
			FollowUp:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Notes:         "call about visa docs",
		}).Return(nil)

		got, err := svc.AssignCounselor(context.Background(), application.CounselorAssignment{
			ApplicationID: appID,
			CounselorID:   counselorID,
			FollowUp:      followUp,
			Notes:         " call about visa docs ",
		})
		require.NoError(t, err)
		require.NotNil(t, got.CounselorID)
		assert.Equal(t, counselorID, *got.CounselorID)
	})

	t.Run("StoreFailureSurfaced", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().GetApplication(gomock.Any(), appID).Return(&application.Application{ID: appID}, nil)
		repo.EXPECT().AssignCounselor(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)

		_, err := svc.AssignCounselor(context.Background(), application.CounselorAssignment{
			ApplicationID: appID,
			CounselorID:   counselorID,
			FollowUp:      followUp,
		})

		var pe *apperrors.PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestService_AssignProcessor(t *testing.T) {
	appID := uuid.New()
	processorID := uuid.New()

	t.Run("MissingProcessor", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.AssignProcessor(context.Background(), appID, uuid.Nil)
		field, _ := apperrors.FieldOf(err)
		assert.Equal(t, "processor_id", field)
	})

	t.Run("Success", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().GetApplication(gomock.Any(), appID).Return(&application.Application{ID: appID}, nil)
		repo.EXPECT().AssignProcessor(gomock.Any(), appID, processorID).Return(nil)

		got, err := svc.AssignProcessor(context.Background(), appID, processorID)
		require.NoError(t, err)
		assert.Equal(t, processorID, *got.ProcessorID)
	})
}

func TestService_ToggleVerification_Twice(t *testing.T) {
	svc, repo := newService(t)
	id := uuid.New()
	stored := application.VerificationPending

	repo.EXPECT().
		GetApplication(gomock.Any(), id).
		DoAndReturn(func(_ context.Context, _ uuid.UUID) (*application.Application, error) {
			return &application.Application{ID: id, Verification: stored}, nil
		}).
		Times(2)
	repo.EXPECT().
		SetVerification(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, v application.Verification) error {
			stored = v
			return nil
		}).
		Times(2)

	first, err := svc.ToggleVerification(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, application.VerificationVerified, first.Verification)

	second, err := svc.ToggleVerification(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, application.VerificationPending, second.Verification)
	assert.Equal(t, application.VerificationPending, stored)
}

func TestService_List(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, repo := newService(t)
		repo.EXPECT().ListApplications(gomock.Any()).Return([]*application.Application{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

		got, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Error", func(t *testing.T) {
		svc, repo := newService(t)
		repo.EXPECT().ListApplications(gomock.Any()).Return(nil, errors.New("list error"))

		_, err := svc.List(context.Background())
		var pe *apperrors.PersistenceError
		assert.ErrorAs(t, err, &pe)
	})
}
