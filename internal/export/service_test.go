package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
)

type fakeInvoices struct {
	list func(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error)
}

func (f *fakeInvoices) List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	if f.list != nil {
		return f.list(ctx, filter)
	}

	return nil, nil
}

func TestService_OfferLetters(t *testing.T) {
	var gotAuth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		switch r.URL.Path {
		case "/offer.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", "attachment; filename=\"offer letter 42.pdf\"")
			w.Write([]byte("fake pdf content"))
		case "/offer_no_filename":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("fake pdf content"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	tmpDir := t.TempDir()
	date := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

	app1 := &application.Application{
		ID:              uuid.New(),
		ProgramName:     "MSc Data Science",
		ApplicationDate: date,
		OfferLetter:     ts.URL + "/offer.pdf",
	}

	app2 := &application.Application{
		ID:              uuid.New(),
		ProgramName:     "BA Economics",
		ApplicationDate: date,
		OfferLetter:     ts.URL + "/offer_no_filename",
	}

	app3 := &application.Application{
		ID:              uuid.New(),
		ProgramName:     "LLM",
		ApplicationDate: date,
	}

	service := NewService(&fakeInvoices{}, "test-token")

	items, err := service.OfferLetters(context.Background(), []*application.Application{app1, app2, app3}, tmpDir)
	if err != nil {
		t.Fatalf("OfferLetters failed: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if gotAuth != "Token test-token" {
		t.Errorf("expected token header, got %q", gotAuth)
	}

	if items[0].Application != app1 {
		t.Errorf("expected item 1 to be app1")
	}

	if filepath.Base(items[0].FilePath) != "offer_letter_42.pdf" {
		t.Errorf("expected offer_letter_42.pdf, got %s", filepath.Base(items[0].FilePath))
	}

	content, _ := os.ReadFile(items[0].FilePath)
	if string(content) != "fake pdf content" {
		t.Errorf("file content mismatch")
	}

	want := "20240902_BA_Economics_" + app2.ID.String()[:8] + ".pdf"
	if filepath.Base(items[1].FilePath) != want {
		t.Errorf("expected %s, got %s", want, filepath.Base(items[1].FilePath))
	}

	if items[2].FilePath != "" {
		t.Errorf("expected empty file path for item 3, got %s", items[2].FilePath)
	}
}

func TestService_OfferLetters_DownloadFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	app := &application.Application{ID: uuid.New(), OfferLetter: ts.URL + "/offer.pdf"}

	_, err := NewService(&fakeInvoices{}, "").OfferLetters(context.Background(), []*application.Application{app}, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestService_Summary(t *testing.T) {
	s := &Service{}

	date := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	items := []Item{
		{
			Application: &application.Application{
				ApplicationDate: date,
				StudentName:     "Ana Souza",
				UniversityName:  "University of Leeds",
				Decision:        application.DecisionAccepted,
			},
			FilePath: "/tmp/offer.pdf",
		},
		{
			Application: &application.Application{
				ApplicationDate: date,
				StudentName:     "Bruno Lima",
				UniversityName:  "TU Delft",
				Decision:        application.DecisionPending,
			},
		},
	}

	body := s.Summary(items)

	for _, sub := range []string{
		"2024-09-02 | Ana Souza | University of Leeds | Accepted | offer.pdf",
		"2024-09-02 | Bruno Lima | TU Delft | Pending | No offer letter",
	} {
		if !strings.Contains(body, sub) {
			t.Errorf("expected body to contain %q", sub)
		}
	}
}

func TestService_OfferLetters_SameNameDoesNotOverwrite(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")

		if strings.HasPrefix(r.URL.Path, "/generic/") {
			w.Header().Set("Content-Disposition", "attachment; filename=\"offer_letter.pdf\"")
		}

		w.Write([]byte("letter " + r.URL.Path))
	}))
	defer ts.Close()

	date := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{
		uuid.MustParse("11111111-0000-0000-0000-000000000001"),
		uuid.MustParse("11111111-0000-0000-0000-000000000002"),
		uuid.MustParse("22222222-0000-0000-0000-000000000003"),
		uuid.MustParse("33333333-0000-0000-0000-000000000004"),
	}

	apps := []*application.Application{
		{ID: ids[0], ProgramName: "MSc Data Science", ApplicationDate: date, OfferLetter: ts.URL + "/generic/a"},
		{ID: ids[1], ProgramName: "MSc Data Science", ApplicationDate: date, OfferLetter: ts.URL + "/generic/b"},
		{ID: ids[2], ProgramName: "MSc Data Science", ApplicationDate: date, OfferLetter: ts.URL + "/plain/c"},
		{ID: ids[3], ProgramName: "MSc Data Science", ApplicationDate: date, OfferLetter: ts.URL + "/plain/d"},
	}

	items, err := NewService(&fakeInvoices{}, "").OfferLetters(context.Background(), apps, t.TempDir())
	if err != nil {
		t.Fatalf("OfferLetters failed: %v", err)
	}

	wantNames := []string{
		"offer_letter.pdf",
		"offer_letter_2.pdf",
		"20240902_MSc_Data_Science_22222222.pdf",
		"20240902_MSc_Data_Science_33333333.pdf",
	}
	wantBodies := []string{"letter /generic/a", "letter /generic/b", "letter /plain/c", "letter /plain/d"}

	for i, item := range items {
		if got := filepath.Base(item.FilePath); got != wantNames[i] {
			t.Errorf("item %d: expected %s, got %s", i, wantNames[i], got)
		}

		content, err := os.ReadFile(item.FilePath)
		if err != nil {
			t.Fatalf("item %d: reading file: %v", i, err)
		}

		if string(content) != wantBodies[i] {
			t.Errorf("item %d: expected %q, got %q", i, wantBodies[i], content)
		}
	}
}

func TestCreateUnique(t *testing.T) {
	dir := t.TempDir()

	for i, want := range []string{"letter.pdf", "letter_2.pdf", "letter_3.pdf"} {
		f, path, err := createUnique(dir, "letter.pdf")
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		f.Close()

		if filepath.Base(path) != want {
			t.Errorf("attempt %d: expected %s, got %s", i, want, filepath.Base(path))
		}
	}
}
