package followup

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/followup"
	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/unitrack/internal/http/respond"
)

// defaultHorizon is how far ahead upcoming follow-ups are listed without ?until.
const defaultHorizon = 7 * 24 * time.Hour

type Handler struct {
	svc *followup.Service
	now func() time.Time
}

func NewHandler(svc *followup.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.upcoming)
}

type followUpResponse struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	Due           string    `json:"due"`
	Notes         string    `json:"notes,omitempty"`
}

// upcoming lists the acting counselor's follow-ups due up to ?until=YYYY-MM-DD.
func (h *Handler) upcoming(w http.ResponseWriter, r *http.Request) {
	counselorID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	until := h.now().Add(defaultHorizon)

	if s := r.URL.Query().Get("until"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			respond.BadRequest(w, r, "until", "must be YYYY-MM-DD")
			return
		}

		until = t
	}

	fus, err := h.svc.Upcoming(r.Context(), counselorID, until)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]followUpResponse, 0, len(fus))
	for _, fu := range fus {
		resp = append(resp, followUpResponse{
			ID:            fu.ID,
			ApplicationID: fu.ApplicationID,
			Due:           fu.Due.Format(time.DateOnly),
			Notes:         fu.Notes,
		})
	}

	respond.JSON(w, r, http.StatusOK, resp)
}
