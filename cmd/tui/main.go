package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/unitrack/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/unitrack/internal/application"
	appStore "github.com/MrJamesThe3rd/unitrack/internal/application/store"
	"github.com/MrJamesThe3rd/unitrack/internal/config"
	"github.com/MrJamesThe3rd/unitrack/internal/database"
	"github.com/MrJamesThe3rd/unitrack/internal/export"
	"github.com/MrJamesThe3rd/unitrack/internal/followup"
	followupStore "github.com/MrJamesThe3rd/unitrack/internal/followup/store"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/unitrack/internal/invoice/store"
	"github.com/MrJamesThe3rd/unitrack/internal/reference"
	referenceStore "github.com/MrJamesThe3rd/unitrack/internal/reference/store"
)

type model struct {
	applicationService *application.Service
	invoiceService     *invoice.Service
	followupService    *followup.Service
	referenceService   *reference.Service
	exportService      *export.Service
	operatorID         uuid.UUID

	currentView View

	applicationsView view.ApplicationsModel
	invoiceView      view.InvoiceModel
	followUpsView    view.FollowUpsModel
	exportView       view.ExportModel
}

type View int

const (
	ViewMenu         View = 0
	ViewApplications View = 1
	ViewInvoice      View = 2
	ViewFollowUps    View = 3
	ViewExport       View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	operatorID, err := cfg.Operator()
	if err != nil {
		slog.Error("invalid operator", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	appSvc := application.NewService(appStore.New(db))
	invSvc := invoice.NewService(invoiceStore.New(db))
	fuSvc := followup.NewService(followupStore.New(db))
	refSvc := reference.NewService(referenceStore.New(db), nil)
	expSvc := export.NewService(invSvc, cfg.Documents.Token)

	return model{
		applicationService: appSvc,
		invoiceService:     invSvc,
		followupService:    fuSvc,
		referenceService:   refSvc,
		exportService:      expSvc,
		operatorID:         operatorID,
		currentView:        ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewApplications
				m.applicationsView = view.NewApplicationsModel(m.applicationService, m.referenceService)

				return m, m.applicationsView.Init()
			case "2":
				m.currentView = ViewInvoice
				m.invoiceView = view.NewInvoiceModel(m.invoiceService, m.referenceService, m.operatorID)

				return m, m.invoiceView.Init()
			case "3":
				m.currentView = ViewFollowUps
				m.followUpsView = view.NewFollowUpsModel(m.followupService, m.operatorID)

				return m, m.followUpsView.Init()
			case "4":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.exportService, m.applicationService)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewApplications:
		var newModel tea.Model
		newModel, cmd = m.applicationsView.Update(msg)
		m.applicationsView = newModel.(view.ApplicationsModel)
	case ViewInvoice:
		var newModel tea.Model
		newModel, cmd = m.invoiceView.Update(msg)
		m.invoiceView = newModel.(view.InvoiceModel)
	case ViewFollowUps:
		var newModel tea.Model
		newModel, cmd = m.followUpsView.Update(msg)
		m.followUpsView = newModel.(view.FollowUpsModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"UniTrack TUI\n\n" +
				"1. Applications\n" +
				"2. New Invoice\n" +
				"3. Follow-ups\n" +
				"4. Export\n\n" +
				"q. Quit",
		)
	case ViewApplications:
		return m.applicationsView.View()
	case ViewInvoice:
		return m.invoiceView.View()
	case ViewFollowUps:
		return m.followUpsView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
