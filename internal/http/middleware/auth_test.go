package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
)

func TestAuth_Authenticate(t *testing.T) {
	auth := middleware.NewAuth("s3cret", "unitrack")
	userID := uuid.New()

	valid, err := auth.Issue(userID, time.Hour)
	require.NoError(t, err)

	expired, err := auth.Issue(userID, -time.Hour)
	require.NoError(t, err)

	foreign, err := middleware.NewAuth("other", "unitrack").Issue(userID, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := middleware.NewAuth("s3cret", "someone-else").Issue(userID, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"Valid", "Bearer " + valid, http.StatusOK},
		{"LowercaseScheme", "bearer " + valid, http.StatusOK},
		{"Missing", "", http.StatusUnauthorized},
		{"WrongScheme", "Token " + valid, http.StatusUnauthorized},
		{"Expired", "Bearer " + expired, http.StatusUnauthorized},
		{"WrongSecret", "Bearer " + foreign, http.StatusUnauthorized},
		{"WrongIssuer", "Bearer " + wrongIssuer, http.StatusUnauthorized},
		{"Garbage", "Bearer not.a.token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID uuid.UUID

			h := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = middleware.UserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotID)
			}
		})
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	h := middleware.RequestLogger(nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, middleware.Logger(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	_, err := middleware.RateLimit("nonsense")
	require.Error(t, err)

	disabled, err := middleware.RateLimit("")
	require.NoError(t, err)
	assert.Nil(t, disabled)

	mw, err := middleware.RateLimit("2-M")
	require.NoError(t, err)

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
