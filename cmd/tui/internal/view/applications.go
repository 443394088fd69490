package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	"github.com/MrJamesThe3rd/unitrack/internal/reference"
)

type appState int

const (
	appStateBrowse appState = iota
	appStateCreate
	appStateCounselor
	appStateProcessor
	appStateDelete
)

var (
	travelLabels = []string{"All", "Yes", "No"}
	stageFilters = []application.Stage{"", application.StageApplication, application.StageInterview, application.StageVisa}
	decisions    = []application.Decision{
		application.DecisionPending,
		application.DecisionAccepted,
		application.DecisionRejected,
		application.DecisionWaitlisted,
	}
)

// appFields holds form bindings. It lives behind a pointer so huh writes
// survive the value copies bubbletea makes of the model.
type appFields struct {
	studentID       string
	universityID    string
	program         string
	applicationDate string
	decision        application.Decision
	travelInsurance bool
	proofOfIncome   bool

	counselorID string
	followUp    string
	notes       string

	processorID string
	confirmed   bool
}

type ApplicationsModel struct {
	CommonModel
	service    *application.Service
	references *reference.Service

	state   appState
	table   table.Model
	form    *huh.Form
	fields  *appFields
	options map[reference.Kind][]reference.Option

	all     []*application.Application
	visible []*application.Application

	universityIdx int
	studentIdx    int
	travelIdx     int
	stageIdx      int

	loading bool
	err     error
	status  string
}

func NewApplicationsModel(svc *application.Service, refs *reference.Service) ApplicationsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Student", Width: 20},
			{Title: "University", Width: 22},
			{Title: "Program", Width: 24},
			{Title: "Status", Width: 18},
			{Title: "Decision", Width: 11},
			{Title: "Verification", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return ApplicationsModel{
		service:    svc,
		references: refs,
		table:      t,
		fields:     &appFields{},
		loading:    true,
	}
}

func (m ApplicationsModel) Title() string { return "Applications" }

func (m ApplicationsModel) ShortHelp() string {
	if m.state != appStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | c: counselor | p: processor | v: verify | x: delete | u/s/t/g: filters | r: refresh"
}

func (m ApplicationsModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.loadOptionsCmd())
}

func (m ApplicationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadAppsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.all = msg.apps
		m.applyFilter()

		return m, nil

	case loadOptionsMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading options: %v", msg.err)
		}

		m.options = msg.options

		return m, nil

	case appActionMsg:
		m.state = appStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = msg.status

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == appStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m ApplicationsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, tea.Batch(m.loadCmd(), m.loadOptionsCmd())
		case "n":
			return m.openForm(appStateCreate, m.createForm())
		case "c":
			if m.selected() != nil {
				return m.openForm(appStateCounselor, m.counselorForm())
			}
		case "p":
			if m.selected() != nil {
				return m.openForm(appStateProcessor, m.processorForm())
			}
		case "x":
			if m.selected() != nil {
				return m.openForm(appStateDelete, m.deleteForm())
			}
		case "v":
			if app := m.selected(); app != nil {
				return m, m.toggleVerificationCmd(app.ID)
			}
		case "u":
			m.universityIdx = (m.universityIdx + 1) % (len(application.UniversityNames(m.all)) + 1)
			m.applyFilter()

			return m, nil
		case "s":
			m.studentIdx = (m.studentIdx + 1) % (len(application.StudentNames(m.all)) + 1)
			m.applyFilter()

			return m, nil
		case "t":
			m.travelIdx = (m.travelIdx + 1) % len(travelLabels)
			m.applyFilter()

			return m, nil
		case "g":
			m.stageIdx = (m.stageIdx + 1) % len(stageFilters)
			m.applyFilter()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ApplicationsModel) openForm(state appState, form *huh.Form) (tea.Model, tea.Cmd) {
	m.state = state
	m.form = form
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m ApplicationsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = appStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.submitCmd()
}

func (m ApplicationsModel) selected() *application.Application {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return nil
	}

	return m.visible[idx]
}

func (m *ApplicationsModel) filter() application.Filter {
	var f application.Filter

	if names := application.UniversityNames(m.all); m.universityIdx > 0 && m.universityIdx <= len(names) {
		f.UniversityName = &names[m.universityIdx-1]
	}

	if names := application.StudentNames(m.all); m.studentIdx > 0 && m.studentIdx <= len(names) {
		f.StudentName = &names[m.studentIdx-1]
	}

	switch m.travelIdx {
	case 1:
		f.TravelInsurance = new(true)
	case 2:
		f.TravelInsurance = new(false)
	}

	if m.stageIdx > 0 {
		f.Stage = &stageFilters[m.stageIdx]
	}

	return f
}

func (m *ApplicationsModel) applyFilter() {
	m.visible = application.FilterApplications(m.all, m.filter())

	rows := make([]table.Row, 0, len(m.visible))
	for _, a := range m.visible {
		rows = append(rows, table.Row{
			a.StudentName,
			a.UniversityName,
			a.ProgramName,
			string(application.DeriveStatusBadge(a)),
			string(a.Decision),
			a.Verification.String(),
		})
	}

	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func filterLabel(p *string) string {
	if p == nil {
		return "All"
	}

	return *p
}

func (m ApplicationsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading applications...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	f := m.filter()

	stage := "All"
	if f.Stage != nil {
		stage = string(*f.Stage)
	}

	header := fmt.Sprintf(
		"Filter: [u] University: %s | [s] Student: %s | [t] Travel Insurance: %s | [g] Stage: %s",
		activeStyle(filterLabel(f.UniversityName)),
		activeStyle(filterLabel(f.StudentName)),
		activeStyle(travelLabels[m.travelIdx]),
		activeStyle(stage),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableBorder().Render(m.table.View()),
	)

	if m.state != appStateBrowse && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(52).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Forms

func (m ApplicationsModel) selectOptions(kind reference.Kind) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(m.options[kind]))
	for _, o := range m.options[kind] {
		opts = append(opts, huh.NewOption(o.Label, o.Value.String()))
	}

	return opts
}

func requiredChoice(s string) error {
	if s == "" {
		return errors.New("required")
	}

	return nil
}

func optionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}

	return nil
}

func (m ApplicationsModel) createForm() *huh.Form {
	*m.fields = appFields{decision: application.DecisionPending}

	decisionOpts := make([]huh.Option[application.Decision], 0, len(decisions))
	for _, d := range decisions {
		decisionOpts = append(decisionOpts, huh.NewOption(string(d), d))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Student").
				Options(m.selectOptions(reference.KindStudents)...).
				Value(&m.fields.studentID).
				Validate(requiredChoice),
			huh.NewSelect[string]().
				Title("University").
				Options(m.selectOptions(reference.KindUniversities)...).
				Value(&m.fields.universityID).
				Validate(requiredChoice),
			huh.NewInput().
				Title("Program").
				Value(&m.fields.program).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("program cannot be empty")
					}

					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Application Date").
				Placeholder("YYYY-MM-DD (blank for today)").
				Value(&m.fields.applicationDate).
				Validate(optionalDate),
			huh.NewSelect[application.Decision]().
				Title("Decision").
				Options(decisionOpts...).
				Value(&m.fields.decision),
			huh.NewConfirm().
				Title("Travel insurance?").
				Value(&m.fields.travelInsurance),
			huh.NewConfirm().
				Title("Proof of income?").
				Value(&m.fields.proofOfIncome),
		),
	).WithWidth(48).WithShowHelp(false)
}

func (m ApplicationsModel) counselorForm() *huh.Form {
	*m.fields = appFields{followUp: FormatDate(time.Now().AddDate(0, 0, 7))}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Counselor").
				Options(m.selectOptions(reference.KindCounselors)...).
				Value(&m.fields.counselorID).
				Validate(requiredChoice),
			huh.NewInput().
				Title("Follow-up Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fields.followUp).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("follow-up date is required")
					}

					return optionalDate(s)
				}),
			huh.NewText().
				Title("Notes").
				Value(&m.fields.notes),
		),
	).WithWidth(48).WithShowHelp(false)
}

func (m ApplicationsModel) processorForm() *huh.Form {
	*m.fields = appFields{}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Application Processor").
				Options(m.selectOptions(reference.KindProcessors)...).
				Value(&m.fields.processorID).
				Validate(requiredChoice),
		),
	).WithWidth(48).WithShowHelp(false)
}

func (m ApplicationsModel) deleteForm() *huh.Form {
	*m.fields = appFields{}

	app := m.selected()

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete application?").
				Description(fmt.Sprintf("%s at %s (%s)", app.StudentName, app.UniversityName, app.ProgramName)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.fields.confirmed),
		),
	).WithWidth(48).WithShowHelp(false)
}

// Messages

type loadAppsMsg struct {
	apps []*application.Application
	err  error
}

func (m ApplicationsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		apps, err := m.service.List(ctx)

		return loadAppsMsg{apps: apps, err: err}
	}
}

type loadOptionsMsg struct {
	options map[reference.Kind][]reference.Option
	err     error
}

func (m ApplicationsModel) loadOptionsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		options := make(map[reference.Kind][]reference.Option, len(reference.Kinds))

		for _, kind := range reference.Kinds {
			opts, err := m.references.Options(ctx, kind)
			if err != nil {
				return loadOptionsMsg{options: options, err: err}
			}

			options[kind] = opts
		}

		return loadOptionsMsg{options: options}
	}
}

type appActionMsg struct {
	status string
	err    error
}

func (m ApplicationsModel) toggleVerificationCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		app, err := m.service.ToggleVerification(ctx, id)
		if err != nil {
			return appActionMsg{err: err}
		}

		return appActionMsg{status: fmt.Sprintf("Verification: %s", app.Verification)}
	}
}

func (m ApplicationsModel) submitCmd() tea.Cmd {
	f := *m.fields
	app := m.selected()
	state := m.state

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		switch state {
		case appStateCreate:
			params, err := f.createParams()
			if err != nil {
				return appActionMsg{err: err}
			}

			if _, err := m.service.Create(ctx, params); err != nil {
				return appActionMsg{err: err}
			}

			return appActionMsg{status: "Application created."}

		case appStateCounselor:
			assignment, err := f.counselorAssignment(app.ID)
			if err != nil {
				return appActionMsg{err: err}
			}

			if _, err := m.service.AssignCounselor(ctx, assignment); err != nil {
				return appActionMsg{err: err}
			}

			return appActionMsg{status: "Counselor assigned."}

		case appStateProcessor:
			processorID, err := uuid.Parse(f.processorID)
			if err != nil {
				return appActionMsg{err: err}
			}

			if _, err := m.service.AssignProcessor(ctx, app.ID, processorID); err != nil {
				return appActionMsg{err: err}
			}

			return appActionMsg{status: "Processor assigned."}

		case appStateDelete:
			if !f.confirmed {
				return appActionMsg{}
			}

			if err := m.service.Delete(ctx, app.ID); err != nil {
				return appActionMsg{err: err}
			}

			return appActionMsg{status: "Application deleted."}
		}

		return appActionMsg{}
	}
}

func (f appFields) createParams() (application.CreateParams, error) {
	studentID, err := uuid.Parse(f.studentID)
	if err != nil {
		return application.CreateParams{}, fmt.Errorf("student: %w", err)
	}

	universityID, err := uuid.Parse(f.universityID)
	if err != nil {
		return application.CreateParams{}, fmt.Errorf("university: %w", err)
	}

	params := application.CreateParams{
		StudentID:       studentID,
		UniversityID:    universityID,
		ProgramName:     f.program,
		Decision:        f.decision,
		TravelInsurance: f.travelInsurance,
		ProofOfIncome:   f.proofOfIncome,
	}

	if s := strings.TrimSpace(f.applicationDate); s != "" {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return application.CreateParams{}, fmt.Errorf("application date: %w", err)
		}

		params.ApplicationDate = &d
	}

	return params, nil
}

func (f appFields) counselorAssignment(applicationID uuid.UUID) (application.CounselorAssignment, error) {
	counselorID, err := uuid.Parse(f.counselorID)
	if err != nil {
		return application.CounselorAssignment{}, fmt.Errorf("counselor: %w", err)
	}

	due, err := time.Parse(time.DateOnly, strings.TrimSpace(f.followUp))
	if err != nil {
		return application.CounselorAssignment{}, fmt.Errorf("follow-up date: %w", err)
	}

	return application.CounselorAssignment{
		ApplicationID: applicationID,
		CounselorID:   counselorID,
		FollowUp:      due,
		Notes:         f.notes,
	}, nil
}
