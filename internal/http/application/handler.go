package application

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/export"
	"github.com/MrJamesThe3rd/unitrack/internal/followup"
	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/unitrack/internal/http/respond"
)

type Handler struct {
	svc       *application.Service
	followups *followup.Service
	export    *export.Service
}

func NewHandler(svc *application.Service, followups *followup.Service, exporter *export.Service) *Handler {
	return &Handler{svc: svc, followups: followups, export: exporter}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/options", h.options)
	r.Get("/offer-letters", h.offerLetters)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/counselor", h.assignCounselor)
	r.Post("/{id}/processor", h.assignProcessor)
	r.Post("/{id}/verification", h.toggleVerification)
	r.Get("/{id}/follow-ups", h.listFollowUps)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, r, "id", "is not a valid id")
		return uuid.Nil, false
	}

	return id, true
}

func parseDate(w http.ResponseWriter, r *http.Request, field string, s *string) (*time.Time, bool) {
	if s == nil || *s == "" {
		return nil, true
	}

	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		respond.BadRequest(w, r, field, "must be YYYY-MM-DD")
		return nil, false
	}

	return &t, true
}

func filterFromQuery(w http.ResponseWriter, r *http.Request) (application.Filter, bool) {
	var f application.Filter

	q := r.URL.Query()

	if s := q.Get("university"); s != "" {
		f.UniversityName = new(s)
	}

	if s := q.Get("student"); s != "" {
		f.StudentName = new(s)
	}

	if s := q.Get("travel_insurance"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			respond.BadRequest(w, r, "travel_insurance", "must be true or false")
			return f, false
		}

		f.TravelInsurance = new(b)
	}

	if s := q.Get("stage"); s != "" {
		stage := application.Stage(s)
		if !stage.Valid() {
			respond.BadRequest(w, r, "stage", "must be application, interview or visa")
			return f, false
		}

		f.Stage = &stage
	}

	return f, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	apps, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponseList(application.FilterApplications(apps, filter)))
}

func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, optionsResponse{
		Universities: application.UniversityNames(apps),
		Students:     application.StudentNames(apps),
	})
}

type createApplicationRequest struct {
	StudentID       uuid.UUID            `json:"student_id"`
	UniversityID    uuid.UUID            `json:"university_id"`
	ProgramName     string               `json:"program_name"`
	ApplicationDate *string              `json:"application_date,omitempty"`
	DecisionStatus  application.Decision `json:"decision_status,omitempty"`
	OfferLetter     string               `json:"offer_letter,omitempty"`
	TravelInsurance bool                 `json:"travel_insurance"`
	ProofOfIncome   bool                 `json:"proof_of_income"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "body", err.Error())
		return
	}

	date, ok := parseDate(w, r, "application_date", req.ApplicationDate)
	if !ok {
		return
	}

	app, err := h.svc.Create(r.Context(), application.CreateParams{
		StudentID:       req.StudentID,
		UniversityID:    req.UniversityID,
		ProgramName:     req.ProgramName,
		ApplicationDate: date,
		Decision:        req.DecisionStatus,
		OfferLetter:     req.OfferLetter,
		TravelInsurance: req.TravelInsurance,
		ProofOfIncome:   req.ProofOfIncome,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toResponse(app))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	app, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(app))
}

type updateApplicationRequest struct {
	ProgramName      *string               `json:"program_name,omitempty"`
	ApplicationDate  *string               `json:"application_date,omitempty"`
	DecisionStatus   *application.Decision `json:"decision_status,omitempty"`
	OfferLetter      *string               `json:"offer_letter,omitempty"`
	ApplicationStage *bool                 `json:"application_stage,omitempty"`
	Interview        *bool                 `json:"interview,omitempty"`
	VisaProcess      *bool                 `json:"visa_process,omitempty"`
	TravelInsurance  *bool                 `json:"travel_insurance,omitempty"`
	ProofOfIncome    *bool                 `json:"proof_of_income,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "body", err.Error())
		return
	}

	date, ok := parseDate(w, r, "application_date", req.ApplicationDate)
	if !ok {
		return
	}

	app, err := h.svc.Update(r.Context(), id, application.UpdateParams{
		ProgramName:      req.ProgramName,
		ApplicationDate:  date,
		Decision:         req.DecisionStatus,
		OfferLetter:      req.OfferLetter,
		ApplicationStage: req.ApplicationStage,
		Interview:        req.Interview,
		VisaProcess:      req.VisaProcess,
		TravelInsurance:  req.TravelInsurance,
		ProofOfIncome:    req.ProofOfIncome,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(app))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type assignCounselorRequest struct {
	CounselorID uuid.UUID `json:"counselor_id"`
	FollowUp    string    `json:"follow_up"`
	Notes       string    `json:"notes"`
}

func (h *Handler) assignCounselor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req assignCounselorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "body", err.Error())
		return
	}

	due, ok := parseDate(w, r, "follow_up", &req.FollowUp)
	if !ok {
		return
	}

	assignment := application.CounselorAssignment{
		ApplicationID: id,
		CounselorID:   req.CounselorID,
		Notes:         req.Notes,
	}
	if due != nil {
		assignment.FollowUp = *due
	}

	app, err := h.svc.AssignCounselor(r.Context(), assignment)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(app))
}

type assignProcessorRequest struct {
	ProcessorID uuid.UUID `json:"processor_id"`
}

func (h *Handler) assignProcessor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req assignProcessorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "body", err.Error())
		return
	}

	app, err := h.svc.AssignProcessor(r.Context(), id, req.ProcessorID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(app))
}

func (h *Handler) toggleVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	app, err := h.svc.ToggleVerification(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(app))
}

func (h *Handler) listFollowUps(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	fus, err := h.followups.ForApplication(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toFollowUpList(fus))
}

// offerLettersTimeout bounds the whole offer-letter export. Letters download
// one after another, so it overrides the server-wide write timeout.
const offerLettersTimeout = 10 * time.Minute

// offerLetters streams a zip of the offer letters of the filtered applications
// plus a summary.txt. Every letter is downloaded before the first byte is written.
func (h *Handler) offerLetters(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	deadline := time.Now().Add(offerLettersTimeout)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		middleware.Logger(r.Context()).Warn("failed to extend write deadline", "error", err)
	}

	ctx, cancel := context.WithDeadline(r.Context(), deadline)
	defer cancel()

	apps, err := h.svc.List(ctx)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "unitrack-offers-*")
	if err != nil {
		respond.Error(w, r, fmt.Errorf("creating temp dir: %w", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	items, err := h.export.OfferLetters(ctx, application.FilterApplications(apps, filter), filepath.Join(tmpDir, "letters"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "summary.txt"), []byte(h.export.Summary(items)), 0o644); err != nil {
		respond.Error(w, r, fmt.Errorf("writing summary: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"offer_letters_%s.zip\"", time.Now().Format("20060102")))

	zw := zip.NewWriter(w)
	defer zw.Close()

	err = filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, _ := filepath.Rel(tmpDir, path)
		rel = filepath.ToSlash(rel)

		zf, err := zw.Create(rel)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		middleware.Logger(r.Context()).Error("failed to create zip", "error", err)
	}
}
