package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
	"github.com/MrJamesThe3rd/unitrack/internal/export"
	"github.com/MrJamesThe3rd/unitrack/internal/followup"
	unihttp "github.com/MrJamesThe3rd/unitrack/internal/http"
	applicationHandler "github.com/MrJamesThe3rd/unitrack/internal/http/application"
	followupHandler "github.com/MrJamesThe3rd/unitrack/internal/http/followup"
	invoiceHandler "github.com/MrJamesThe3rd/unitrack/internal/http/invoice"
	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
	referenceHandler "github.com/MrJamesThe3rd/unitrack/internal/http/reference"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
	"github.com/MrJamesThe3rd/unitrack/internal/reference"
)

type harness struct {
	apps      *application.MockRepository
	invoices  *invoice.MockRepository
	followups *followup.MockRepository
	refs      *reference.MockRepository
	userID    uuid.UUID
	token     string
	router    http.Handler
}

func newHarness(t *testing.T, configure ...func(*unihttp.Options)) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)

	h := &harness{
		apps:      application.NewMockRepository(ctrl),
		invoices:  invoice.NewMockRepository(ctrl),
		followups: followup.NewMockRepository(ctrl),
		refs:      reference.NewMockRepository(ctrl),
		userID:    uuid.New(),
	}

	clock := func() time.Time { return time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC) }

	appSvc := application.NewService(h.apps, application.WithClock(clock))
	invSvc := invoice.NewService(h.invoices, invoice.WithClock(clock))
	fuSvc := followup.NewService(h.followups)
	refSvc := reference.NewService(h.refs, nil)
	expSvc := export.NewService(invSvc, "")

	auth := middleware.NewAuth("test-secret", "unitrack")

	token, err := auth.Issue(h.userID, time.Hour)
	require.NoError(t, err)

	opts := unihttp.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Auth: auth}
	for _, c := range configure {
		c(&opts)
	}

	h.token = token
	h.router = unihttp.New(
		opts,
		applicationHandler.NewHandler(appSvc, fuSvc, expSvc),
		invoiceHandler.NewHandler(invSvc, expSvc),
		referenceHandler.NewHandler(refSvc),
		followupHandler.NewHandler(fuSvc),
	)

	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+h.token)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))

	return v
}

func TestRouter_RequiresToken(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/applications", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApplications_ListFiltersAndBadges(t *testing.T) {
	h := newHarness(t)

	apps := []*application.Application{
		{ID: uuid.New(), UniversityName: "TU Delft", StudentName: "Ana", ApplicationStage: true, Interview: true},
		{ID: uuid.New(), UniversityName: "TU Delft", StudentName: "Bruno", ApplicationStage: true},
		{ID: uuid.New(), UniversityName: "Leeds", StudentName: "Caio", VisaProcess: true, Interview: true},
	}

	h.apps.EXPECT().ListApplications(gomock.Any()).Return(apps, nil).Times(2)

	rec := h.do(t, http.MethodGet, "/api/v1/applications?stage=interview&university=TU+Delft", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, apps[0].ID.String(), got[0]["id"])
	assert.Equal(t, "Interview Stage", got[0]["badge"])

	rec = h.do(t, http.MethodGet, "/api/v1/applications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got = decode[[]map[string]any](t, rec)
	require.Len(t, got, 3)
	assert.Equal(t, "Visa Process", got[2]["badge"])

	rec = h.do(t, http.MethodGet, "/api/v1/applications?stage=offer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplications_AssignCounselorValidation(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()

	rec := h.do(t, http.MethodPost, "/api/v1/applications/"+id.String()+"/counselor", map[string]any{
		"counselor_id": "",
		"follow_up":    "2025-01-01",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body", decode[map[string]string](t, rec)["field"])

	rec = h.do(t, http.MethodPost, "/api/v1/applications/"+id.String()+"/counselor", map[string]any{
		"follow_up": "2025-01-01",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "counselor_id", decode[map[string]string](t, rec)["field"])
}

func TestApplications_DeleteTwice(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()

	gomock.InOrder(
		h.apps.EXPECT().DeleteApplication(gomock.Any(), id).Return(nil),
		h.apps.EXPECT().DeleteApplication(gomock.Any(), id).Return(apperrors.ErrNotFound),
	)

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/api/v1/applications/"+id.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/api/v1/applications/"+id.String(), nil).Code)
}

func TestApplications_ToggleVerification(t *testing.T) {
	h := newHarness(t)
	app := &application.Application{ID: uuid.New(), ProgramName: "MSc"}

	h.apps.EXPECT().GetApplication(gomock.Any(), app.ID).Return(app, nil)
	h.apps.EXPECT().SetVerification(gomock.Any(), app.ID, application.VerificationVerified).Return(nil)

	rec := h.do(t, http.MethodPost, "/api/v1/applications/"+app.ID.String()+"/verification", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["status"])
}

func TestApplications_StoreFailureIsBadGateway(t *testing.T) {
	h := newHarness(t)

	h.apps.EXPECT().ListApplications(gomock.Any()).Return(nil, assert.AnError)

	assert.Equal(t, http.StatusBadGateway, h.do(t, http.MethodGet, "/api/v1/applications", nil).Code)
}

func TestInvoices_Create(t *testing.T) {
	h := newHarness(t)

	var saved *invoice.Payload

	h.invoices.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *invoice.Payload) error {
			saved = p
			return nil
		},
	)

	rec := h.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{
		"student_id":    uuid.New(),
		"university_id": uuid.New(),
		"tax_rate":      10,
		"discount":      "5",
		"due_date":      "2025-02-01",
		"items": []map[string]any{
			{"description": "Tuition", "quantity": 2, "unit_price": "50.00"},
			{"description": "Fee", "quantity": "1", "unit_price": 25.5},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, saved)
	assert.Equal(t, h.userID, saved.CreatedBy)

	body := decode[map[string]any](t, rec)
	totals := body["totals"].(map[string]any)
	assert.Equal(t, "125.50", totals["subtotal"])
	assert.Equal(t, "12.55", totals["tax_amount"])
	assert.Equal(t, "133.05", totals["grand_total"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "2025-01-04", body["payment_date"])
}

func TestInvoices_CreateValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{
		"student_id":    uuid.New(),
		"university_id": uuid.New(),
		"amount":        "",
		"tax_rate":      "0",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount", decode[map[string]string](t, rec)["field"])
}

func TestInvoices_TotalsPreview(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/invoices/totals", map[string]any{
		"amount":   "200",
		"tax_rate": "0",
		"discount": "abc",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "200.00", body["totals"].(map[string]any)["grand_total"])
}

func TestInvoices_ImportItems(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "items.csv")
	require.NoError(t, err)

	_, err = io.WriteString(fw, "description;quantity;unit_price\nTuition;2;50,00\nFee;1;25,50\n")
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("tax_rate", "10"))
	require.NoError(t, mw.WriteField("discount", "5"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/items/import", &buf)
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.Len(t, body["items"], 2)
	assert.Equal(t, "133.05", body["totals"].(map[string]any)["grand_total"])
}

func TestInvoices_Export(t *testing.T) {
	h := newHarness(t)

	h.invoices.EXPECT().ListInvoices(gomock.Any(), invoice.ListFilter{}).Return(nil, nil)

	rec := h.do(t, http.MethodGet, "/api/v1/invoices/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/vnd.openxmlformats"))
	assert.NotZero(t, rec.Body.Len())
}

func TestReference_Options(t *testing.T) {
	h := newHarness(t)

	opts := []reference.Option{{Value: uuid.New(), Label: "Leeds"}}
	h.refs.EXPECT().ListOptions(gomock.Any(), reference.KindUniversities).Return(opts, nil)

	rec := h.do(t, http.MethodGet, "/api/v1/reference/universities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Leeds", decode[[]map[string]string](t, rec)[0]["label"])

	rec = h.do(t, http.MethodGet, "/api/v1/reference/agents", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowUps_UpcomingForActingUser(t *testing.T) {
	h := newHarness(t)
	until := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	h.followups.EXPECT().ListDue(gomock.Any(), h.userID, until).Return([]*followup.FollowUp{
		{ID: uuid.New(), ApplicationID: uuid.New(), CounselorID: h.userID, Due: until, Notes: "call"},
	}, nil)

	rec := h.do(t, http.MethodGet, "/api/v1/follow-ups?until=2025-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]map[string]string](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "2025-02-01", got[0]["due"])

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/v1/follow-ups?until=soon", nil).Code)
}

func TestRouter_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		want       []int
	}{
		{
			name: "direct clients are keyed by connection address",
			want: []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
		{
			name:       "behind a trusted proxy the forwarded address is the key",
			trustProxy: true,
			want:       []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, err := middleware.RateLimit("2-M")
			require.NoError(t, err)

			h := newHarness(t, func(o *unihttp.Options) {
				o.RateLimit = limit
				o.TrustProxy = tt.trustProxy
			})

			codes := make([]int, 0, len(tt.want))

			for i := range len(tt.want) {
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				req.RemoteAddr = "203.0.113.7:40000"
				req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))

				rec := httptest.NewRecorder()
				h.router.ServeHTTP(rec, req)
				codes = append(codes, rec.Code)
			}

			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestApplications_OfferLettersOutlastWriteTimeout(t *testing.T) {
	docs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="offer_letter.pdf"`)
		w.Write([]byte("letter " + r.URL.Path))
	}))
	defer docs.Close()

	h := newHarness(t)

	date := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	apps := []*application.Application{
		{ID: uuid.New(), StudentName: "Ana", UniversityName: "TU Delft", ProgramName: "MSc Data Science", ApplicationDate: date, OfferLetter: docs.URL + "/a"},
		{ID: uuid.New(), StudentName: "Bruno", UniversityName: "TU Delft", ProgramName: "MSc Data Science", ApplicationDate: date, OfferLetter: docs.URL + "/b"},
	}

	h.apps.EXPECT().ListApplications(gomock.Any()).Return(apps, nil)

	// Two sequential downloads take longer than the server-wide write timeout.
	srv := httptest.NewUnstartedServer(h.router)
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/applications/offer-letters", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.ElementsMatch(t, []string{"letters/offer_letter.pdf", "letters/offer_letter_2.pdf", "summary.txt"}, names)
}
