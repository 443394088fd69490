package reference

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/unitrack/internal/http/respond"
	"github.com/MrJamesThe3rd/unitrack/internal/reference"
)

type Handler struct {
	svc *reference.Service
}

func NewHandler(svc *reference.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{kind}", h.options)
	r.Delete("/{kind}/cache", h.invalidate)
}

func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Options(r.Context(), reference.Kind(chi.URLParam(r, "kind")))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, opts)
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Invalidate(r.Context(), reference.Kind(chi.URLParam(r, "kind"))); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
