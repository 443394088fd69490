package respond_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
	"github.com/MrJamesThe3rd/unitrack/internal/http/respond"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation", apperrors.Required("student_id"), http.StatusBadRequest},
		{"WrappedValidation", fmt.Errorf("creating: %w", apperrors.Required("x")), http.StatusBadRequest},
		{"NotFound", apperrors.ErrNotFound, http.StatusNotFound},
		{"Persistence", apperrors.Persistence("listing", errors.New("connection reset")), http.StatusBadGateway},
		{"PersistenceCanceled", apperrors.Persistence("listing", context.Canceled), http.StatusInternalServerError},
		{"PersistenceDeadline", apperrors.Persistence("listing", context.DeadlineExceeded), http.StatusInternalServerError},
		{"Other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, respond.Status(tt.err))
		})
	}
}

func TestError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(rec, req, apperrors.Required("counselor_id"))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "counselor_id", body["field"])
	assert.NotEmpty(t, body["error"])

	rec = httptest.NewRecorder()
	respond.Error(rec, req, apperrors.Persistence("creating invoice", errors.New("pq: secret detail")))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}
