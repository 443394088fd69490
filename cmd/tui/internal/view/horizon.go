package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Horizon is how far ahead the follow-up list looks.
type Horizon int

const (
	HorizonWeek      Horizon = 0
	HorizonFortnight Horizon = 1
	HorizonMonth     Horizon = 2
	HorizonCustom    Horizon = 3
)

func (h Horizon) String() string {
	switch h {
	case HorizonWeek:
		return "Next 7 Days"
	case HorizonFortnight:
		return "Next 14 Days"
	case HorizonMonth:
		return "Next 30 Days"
	case HorizonCustom:
		return "Until Date"
	}

	return "Unknown"
}

func (h Horizon) days() int {
	switch h {
	case HorizonFortnight:
		return 14
	case HorizonMonth:
		return 30
	}

	return 7
}

// horizonUntil returns the inclusive end of h counted from now, at end of day.
func horizonUntil(h Horizon, now time.Time) time.Time {
	return endOfDay(now.AddDate(0, 0, h.days()))
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

// HorizonSelectedMsg is emitted once the user has picked a horizon.
type HorizonSelectedMsg struct {
	Until time.Time
}

type horizonState int

const (
	horizonStateSelect horizonState = iota
	horizonStateCustom
)

// HorizonPicker selects the end date for the follow-up list.
type HorizonPicker struct {
	state    horizonState
	selected Horizon
	now      func() time.Time

	untilInput textinput.Model

	err error
}

func NewHorizonPicker() HorizonPicker {
	ti := textinput.New()
	ti.Placeholder = "YYYY-MM-DD"
	ti.CharLimit = 10
	ti.Width = 12
	ti.Prompt = "Until: "

	return HorizonPicker{
		state:      horizonStateSelect,
		selected:   HorizonWeek,
		now:        time.Now,
		untilInput: ti,
	}
}

func (m HorizonPicker) Init() tea.Cmd {
	return nil
}

func (m HorizonPicker) Update(msg tea.Msg) (HorizonPicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case horizonStateSelect:
			return m.updateSelect(keyMsg)
		case horizonStateCustom:
			if next, cmd, handled := m.updateCustom(keyMsg); handled {
				return next, cmd
			}
		}
	}

	if m.state == horizonStateCustom {
		var cmd tea.Cmd
		m.untilInput, cmd = m.untilInput.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m HorizonPicker) updateSelect(msg tea.KeyMsg) (HorizonPicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > HorizonWeek {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < HorizonCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == HorizonCustom {
			m.state = horizonStateCustom
			m.untilInput.Focus()

			return m, textinput.Blink
		}

		until := horizonUntil(m.selected, m.now())

		return m, func() tea.Msg {
			return HorizonSelectedMsg{Until: until}
		}
	}

	return m, nil
}

func (m HorizonPicker) updateCustom(msg tea.KeyMsg) (HorizonPicker, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		until, err := time.Parse(time.DateOnly, m.untilInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid date (YYYY-MM-DD)")
			return m, nil, true
		}

		m.err = nil
		until = endOfDay(until)

		return m, func() tea.Msg {
			return HorizonSelectedMsg{Until: until}
		}, true

	case tea.KeyEsc:
		m.state = horizonStateSelect
		m.err = nil

		return m, nil, true
	}

	return m, nil, false
}

func (m HorizonPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == horizonStateCustom {
		return fmt.Sprintf(
			"Show follow-ups due until:\n\n%s\n\n(Enter to confirm, Esc to back)%s",
			m.untilInput.View(),
			errStr,
		)
	}

	s := "Show follow-ups for:\n\n"
	for h := HorizonWeek; h <= HorizonCustom; h++ {
		cursor := " "
		if m.selected == h {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, h.String())
	}

	s += "\n(Enter to select, Esc to back)"

	return s + errStr
}

// IsSelecting reports whether the picker is on the preset list.
func (m HorizonPicker) IsSelecting() bool {
	return m.state == horizonStateSelect
}

// Reset returns the picker to its initial selection state.
func (m *HorizonPicker) Reset() {
	m.state = horizonStateSelect
	m.selected = HorizonWeek
	m.err = nil
	m.untilInput.SetValue("")
}
