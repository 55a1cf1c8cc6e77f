// Package tui implements the interactive terminal view started by `todo ui`.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"simpletodo/internal/output"
	"simpletodo/internal/service"
)

// Mode is the input mode of the view.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeEdit
)

// Filter limits which tasks are shown.
type Filter int

const (
	FilterAll Filter = iota
	FilterOpen
	FilterDone
)

func (f Filter) String() string {
	switch f {
	case FilterOpen:
		return "open"
	case FilterDone:
		return "done"
	default:
		return "all"
	}
}

// ChangedMsg reports a repository event delivered from outside the program.
type ChangedMsg struct {
	Event service.Event
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// Model is the bubbletea model. It holds no task state of its own beyond
// the last List() result; every gesture goes through the service.
type Model struct {
	svc     service.Service
	tasks   []service.Task
	cursor  int
	filter  Filter
	mode    Mode
	input   textinput.Model
	editing service.ID
	status  string
	isErr   bool
}

// New creates a model over svc.
func New(svc service.Service) Model {
	ti := textinput.New()
	ti.Placeholder = "New task..."
	ti.CharLimit = 256

	m := Model{svc: svc, input: ti}
	m.reload()
	return m
}

// Tasks returns the tasks currently shown.
func (m Model) Tasks() []service.Task { return m.tasks }

// Cursor returns the index of the selected task.
func (m Model) Cursor() int { return m.cursor }

// Mode returns the current input mode.
func (m Model) Mode() Mode { return m.mode }

// Status returns the status line text.
func (m Model) Status() string { return m.status }

// reload re-derives the visible list from the service.
func (m *Model) reload() {
	all := m.svc.List()
	m.tasks = make([]service.Task, 0, len(all))
	for _, t := range all {
		switch {
		case m.filter == FilterOpen && t.IsDone:
		case m.filter == FilterDone && !t.IsDone:
		default:
			m.tasks = append(m.tasks, t)
		}
	}
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setErr(err error) {
	m.status = err.Error()
	m.isErr = true
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.isErr = false
}

func (m Model) selected() (service.Task, bool) {
	if len(m.tasks) == 0 {
		return service.Task{}, false
	}
	return m.tasks[m.cursor], true
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ChangedMsg:
		m.reload()
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd, ModeEdit:
			return m.handleInputMode(msg)
		default:
			return m.handleNormalMode(msg)
		}
	}
	return m, nil
}

func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if len(m.tasks) > 0 {
			m.cursor = len(m.tasks) - 1
		}
	case " ", "space", "x":
		if t, ok := m.selected(); ok {
			// Read the stored flag rather than trusting the rendered row.
			current, err := m.svc.Get(t.ID)
			if err == nil {
				err = m.svc.Update(t.ID, service.SetDone(!current.IsDone))
			}
			if err != nil {
				m.setErr(err)
			}
			m.reload()
		}
	case "d", "delete":
		if t, ok := m.selected(); ok {
			if err := m.svc.Delete(t.ID); err != nil {
				m.setErr(err)
			} else {
				m.setStatus("removed %d", t.ID)
			}
			m.reload()
		}
	case "a", "n":
		m.mode = ModeAdd
		m.input.Placeholder = "New task..."
		m.input.SetValue("")
		return m, m.input.Focus()
	case "e", "enter":
		if t, ok := m.selected(); ok {
			m.mode = ModeEdit
			m.editing = t.ID
			m.input.SetValue(t.Text)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
		if msg.String() == "enter" {
			m.mode = ModeAdd
			m.input.SetValue("")
			return m, m.input.Focus()
		}
	case "f", "tab":
		m.filter = (m.filter + 1) % 3
		m.cursor = 0
		m.reload()
	case "r":
		m.reload()
	}
	return m, nil
}

func (m Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := m.input.Value()
		adding := m.mode == ModeAdd
		var err error
		if adding {
			var t service.Task
			t, err = m.svc.Add(text, false)
			if err == nil {
				m.setStatus("added %d", t.ID)
			}
		} else {
			err = m.svc.Update(m.editing, service.SetText(text))
			if err == nil {
				m.setStatus("updated %d", m.editing)
			}
		}
		if err != nil {
			// Stay in input mode so the text can be fixed.
			m.setErr(err)
			return m, nil
		}
		m.mode = ModeNormal
		m.input.Blur()
		m.reload()
		if adding && len(m.tasks) > 0 {
			m.cursor = len(m.tasks) - 1
		}
		return m, nil
	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		m.status = ""
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	open := 0
	for _, t := range m.svc.List() {
		if !t.IsDone {
			open++
		}
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("todo  (%d open, showing %s)", open, m.filter)))
	b.WriteString("\n")

	if len(m.tasks) == 0 {
		b.WriteString(hintStyle.Render(output.NoTasks))
		b.WriteString("\n")
	}
	for i, t := range m.tasks {
		line := fmt.Sprintf("%s %s", output.Checkbox(t.IsDone), output.NormalizeText(t.Text))
		if t.IsDone {
			line = doneStyle.Render(line)
		}
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch m.mode {
	case ModeAdd:
		b.WriteString("add: " + m.input.View() + "\n")
	case ModeEdit:
		b.WriteString(fmt.Sprintf("edit %d: %s\n", m.editing, m.input.View()))
	}

	if m.status != "" {
		if m.isErr {
			b.WriteString(errorStyle.Render("error: " + m.status))
		} else {
			b.WriteString(m.status)
		}
		b.WriteString("\n")
	}

	if m.mode == ModeNormal {
		b.WriteString(hintStyle.Render("j/k move  space toggle  a add  e edit  d delete  f filter  q quit"))
	} else {
		b.WriteString(hintStyle.Render("enter save  esc cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// Run starts the program on the terminal and returns when the user quits.
// Changes made elsewhere in the process (other observers) refresh the view.
func Run(svc service.Service, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(New(svc), opts...)
	cancel := svc.Subscribe(func(ev service.Event) {
		go p.Send(ChangedMsg{Event: ev})
	})
	defer cancel()

	_, err := p.Run()
	return err
}
