package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
)

// InvoiceLister is the read side of the invoice service.
type InvoiceLister interface {
	List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error)
}

// Item pairs an application with its downloaded offer letter, if any.
type Item struct {
	Application *application.Application
	FilePath    string
}

// Service exports invoice registers and offer letters.
type Service struct {
	invoices InvoiceLister
	client   *http.Client
	docToken string
}

// NewService creates a Service. docToken, when set, is sent to the document
// store as "Authorization: Token <docToken>".
func NewService(invoices InvoiceLister, docToken string) *Service {
	return &Service{
		invoices: invoices,
		client:   &http.Client{Timeout: 30 * time.Second},
		docToken: docToken,
	}
}

// OfferLetters downloads the offer letter of every application that has one
// into dir. Items keep the order of apps.
func (s *Service) OfferLetters(ctx context.Context, apps []*application.Application, dir string) ([]Item, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(apps))

	for _, app := range apps {
		item := Item{Application: app}

		if app.OfferLetter != "" {
			path, err := s.download(ctx, app, dir)
			if err != nil {
				return nil, fmt.Errorf("downloading offer letter for application %s: %w", app.ID, err)
			}

			item.FilePath = path
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *Service) download(ctx context.Context, app *application.Application, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, app.OfferLetter, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if s.docToken != "" {
		req.Header.Set("Authorization", "Token "+s.docToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, app.OfferLetter)
	}

	f, path, err := createUnique(dir, filename(resp, app))
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// maxNameAttempts bounds the numeric suffixes tried by createUnique.
const maxNameAttempts = 1000

// createUnique creates name in dir without overwriting an existing file,
// appending _2, _3, ... before the extension on collision.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; i <= maxNameAttempts; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}

		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}

	return nil, "", fmt.Errorf("no free file name for %s after %d attempts", name, maxNameAttempts)
}

// filename prefers the server's Content-Disposition name, else
// <date>_<program>_<application id prefix>.<ext>.
func filename(resp *http.Response, app *application.Application) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return strings.ReplaceAll(filepath.Base(name), " ", "_")
			}
		}
	}

	ext := ".pdf"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	program := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, app.ProgramName)

	return fmt.Sprintf("%s_%s_%s%s", app.ApplicationDate.Format("20060102"), program, app.ID.String()[:8], ext)
}

// Summary renders one line per exported application, suitable for an email body.
func (s *Service) Summary(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		app := item.Application

		file := "No offer letter"
		if item.FilePath != "" {
			file = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s | %s\n",
			app.ApplicationDate.Format("2006-01-02"), app.StudentName, app.UniversityName, app.Decision, file)
	}

	return sb.String()
}
