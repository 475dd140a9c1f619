package tui

import (
	"fmt"
	"strconv"
	"strings"

	"planline/internal/geom"
	"planline/internal/model"
	"planline/internal/weeks"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *appModel) startPrompt(kind promptKind, label, value string) tea.Cmd {
	m.prompt = kind
	m.input.Prompt = label
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *appModel) endPrompt() {
	if m.prompt == promptAddTaskHere && m.sess != nil {
		m.sess.Do(m.sess.Diagram.CloseMenus)
	}
	m.prompt = promptNone
	m.pendingDelete = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m *appModel) updatePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.endPrompt()
		return nil
	case "enter":
		return m.submitPrompt()
	}
	if m.prompt == promptDeleteTask || m.prompt == promptDeleteTimeline {
		// y/n prompts answer on the first key.
		return m.submitConfirm(strings.EqualFold(msg.String(), "y"))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *appModel) submitConfirm(yes bool) tea.Cmd {
	kind, id := m.prompt, m.pendingDelete
	m.endPrompt()
	if !yes || id == "" {
		return nil
	}
	switch kind {
	case promptDeleteTimeline:
		return m.deleteTimeline(id)
	case promptDeleteTask:
		if m.sess != nil {
			_ = m.sess.DeleteTask(id)
		}
	}
	return nil
}

func (m *appModel) submitPrompt() tea.Cmd {
	kind := m.prompt
	v := strings.TrimSpace(m.input.Value())
	if kind == promptDeleteTask || kind == promptDeleteTimeline {
		return m.submitConfirm(strings.EqualFold(v, "y") || strings.EqualFold(v, "yes"))
	}

	// The canvas menu must stay open until the task is created from it.
	if kind == promptAddTaskHere {
		m.prompt = promptNone
		m.input.Blur()
		m.input.SetValue("")
		return m.addTaskHere(v)
	}
	m.endPrompt()

	if kind == promptNewTimeline {
		if v == "" {
			return m.setFlash("Timeline name is required", true)
		}
		return m.createTimeline(v)
	}

	s := m.sess
	if s == nil {
		return nil
	}
	switch kind {
	case promptAddTask:
		now := m.now()
		spec := s.DatesSpec(v, now, now.AddDate(0, 0, 6), model.DefaultColor, "")
		if t, err := s.AddTask(spec, nil); err == nil {
			s.Do(func() { s.Diagram.Select(t.ID) })
		}
	case promptRenameTask:
		if id := m.selected(); id != "" {
			_ = s.RenameTask(id, v)
		}
	case promptRenameTimeline:
		_ = s.Rename(v)
	case promptStartDate:
		d, err := weeks.ParseDate(v)
		if err != nil {
			return m.setFlash(fmt.Sprintf("Invalid date %q (expected YYYY-MM-DD)", v), true)
		}
		_ = s.SetStartDate(d)
	case promptZoom:
		pct, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return m.setFlash(fmt.Sprintf("Invalid zoom %q", v), true)
		}
		s.Do(func() { s.Diagram.SetZoomPercent(pct) })
	}
	return nil
}

// addTaskHere creates a task at the point the canvas menu was opened on.
func (m *appModel) addTaskHere(name string) tea.Cmd {
	s := m.sess
	if s == nil {
		return nil
	}
	now := m.now()
	spec := s.DatesSpec(name, now, now.AddDate(0, 0, 6), model.DefaultColor, "")
	var (
		t   model.Task
		err error
	)
	s.Do(func() {
		t, err = s.Diagram.AddTaskAtMenu(spec)
		if err == nil {
			s.Diagram.Select(t.ID)
		}
	})
	return m.flashError(err)
}

// promptView is the input line, or "" when no prompt is open.
func (m *appModel) promptView() string {
	if m.prompt == promptNone {
		return ""
	}
	return m.input.View()
}

// placeHint describes where a new node would go; used by the add prompt.
func placeHint(p geom.Point) string {
	return fmt.Sprintf("at %.0f,%.0f", p.X, p.Y)
}
