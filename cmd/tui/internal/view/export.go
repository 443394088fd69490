package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/export"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
)

type exportState int

const (
	exportStateForm exportState = iota
	exportStateExporting
	exportStateResult
)

type exportKind string

const (
	exportInvoiceRegister exportKind = "invoices"
	exportOfferLetters    exportKind = "offer-letters"
)

type exportFields struct {
	kind exportKind
	path string
}

type ExportModel struct {
	CommonModel
	exportService      *export.Service
	applicationService *application.Service

	state   exportState
	err     error
	form    *huh.Form
	fields  *exportFields
	spinner spinner.Model
	summary string
}

func NewExportModel(svc *export.Service, apps *application.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exportService:      svc,
		applicationService: apps,
		state:              exportStateForm,
		fields:             &exportFields{kind: exportInvoiceRegister, path: "./exports"},
		spinner:            s,
	}
	m.form = m.buildForm()

	return m
}

func (m ExportModel) Title() string { return "Export" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case exportStateForm:
		return m.updateForm(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(*m.fields))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[exportKind]().
				Title("Export").
				Options(
					huh.NewOption("Invoice register (XLSX)", exportInvoiceRegister),
					huh.NewOption("Offer letters", exportOfferLetters),
				).
				Value(&m.fields.kind),
			huh.NewInput().
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(&m.fields.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Exporting...", m.spinner.View()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Summary:",
			"",
			m.summary,
		),
	)
}

type exportResultMsg struct {
	body string
	err  error
}

const exportTimeout = 2 * time.Minute

func (m ExportModel) runExportCmd(f exportFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		if err := os.MkdirAll(f.path, 0o755); err != nil {
			return exportResultMsg{err: fmt.Errorf("create output dir: %w", err)}
		}

		if f.kind == exportOfferLetters {
			return m.exportOfferLetters(ctx, f.path)
		}

		return m.exportRegister(ctx, f.path)
	}
}

func (m ExportModel) exportRegister(ctx context.Context, dir string) exportResultMsg {
	path := filepath.Join(dir, fmt.Sprintf("invoices-%s.xlsx", time.Now().Format("20060102")))

	file, err := os.Create(path)
	if err != nil {
		return exportResultMsg{err: fmt.Errorf("create %s: %w", path, err)}
	}
	defer file.Close()

	n, err := m.exportService.InvoiceRegister(ctx, invoice.ListFilter{}, file)
	if err != nil {
		return exportResultMsg{err: err}
	}

	return exportResultMsg{body: fmt.Sprintf("%d invoices written to %s", n, path)}
}

func (m ExportModel) exportOfferLetters(ctx context.Context, dir string) exportResultMsg {
	apps, err := m.applicationService.List(ctx)
	if err != nil {
		return exportResultMsg{err: err}
	}

	items, err := m.exportService.OfferLetters(ctx, apps, dir)
	if err != nil {
		return exportResultMsg{err: err}
	}

	return exportResultMsg{body: m.exportService.Summary(items)}
}
