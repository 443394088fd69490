package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/followup"
)

type followUpState int

const (
	followUpStateHorizon followUpState = iota
	followUpStateList
)

// FollowUpsModel lists the operator's follow-ups due within a chosen horizon.
type FollowUpsModel struct {
	CommonModel
	service    *followup.Service
	operatorID uuid.UUID

	state  followUpState
	picker HorizonPicker
	table  table.Model
	until  time.Time

	items   []*followup.FollowUp
	loading bool
	err     error
}

func NewFollowUpsModel(svc *followup.Service, operatorID uuid.UUID) FollowUpsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Due", Width: 12},
			{Title: "Application", Width: 10},
			{Title: "Notes", Width: 60},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return FollowUpsModel{
		service:    svc,
		operatorID: operatorID,
		picker:     NewHorizonPicker(),
		table:      t,
	}
}

func (m FollowUpsModel) Title() string { return "Follow-ups" }

func (m FollowUpsModel) ShortHelp() string {
	if m.state == followUpStateList {
		return "Esc: change horizon | r: refresh"
	}

	return "Esc: back | Enter: select"
}

func (m FollowUpsModel) Init() tea.Cmd {
	return nil
}

func (m FollowUpsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HorizonSelectedMsg:
		m.until = msg.Until
		m.state = followUpStateList
		m.loading = true

		return m, m.loadCmd()

	case loadFollowUpsMsg:
		m.loading = false
		m.err = msg.err
		m.items = msg.items
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == followUpStateHorizon {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = followUpStateHorizon
			m.picker.Reset()

			return m, nil
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m FollowUpsModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.state == followUpStateHorizon {
		return style.Render(m.picker.View())
	}

	if m.loading {
		return style.Render("Loading follow-ups...")
	}

	if m.err != nil {
		return style.Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("Due until %s: %d", activeStyle(FormatDate(m.until)), len(m.items))

	if len(m.items) == 0 {
		return style.Render(header + "\n\nNothing due. (Esc to change horizon)")
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableBorder().Render(m.table.View()),
	))
}

func (m *FollowUpsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, f := range m.items {
		rows = append(rows, table.Row{FormatDate(f.Due), ShortID(f.ApplicationID), f.Notes})
	}

	m.table.SetRows(rows)
}

type loadFollowUpsMsg struct {
	items []*followup.FollowUp
	err   error
}

func (m FollowUpsModel) loadCmd() tea.Cmd {
	until := m.until

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		items, err := m.service.Upcoming(ctx, m.operatorID, until)

		return loadFollowUpsMsg{items: items, err: err}
	}
}
