package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// pickerTop is the first list row on screen.
const pickerTop = 2

func (m *appModel) updatePickerKey(msg tea.KeyMsg) tea.Cmd {
	if m.prompt != promptNone {
		return m.updatePromptKey(msg)
	}
	k := m.pickerKeys
	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
	case key.Matches(msg, k.Open):
		if id := m.cursorID(); id != "" {
			return m.openTimeline(id)
		}
	case key.Matches(msg, k.New):
		return m.startPrompt(promptNewTimeline, "New timeline: ", "")
	case key.Matches(msg, k.Delete):
		if id := m.cursorID(); id != "" {
			m.pendingDelete = id
			return m.startPrompt(promptDeleteTimeline, "Delete \""+m.list[m.cursor].Name+"\"? (y/N) ", "")
		}
	case key.Matches(msg, k.Refresh):
		m.loading = true
		return m.loadList()
	}
	return nil
}

func (m *appModel) cursorID() string {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return ""
	}
	return m.list[m.cursor].ID
}

// updatePickerMouse selects a row on click; clicking the selected row opens it.
func (m *appModel) updatePickerMouse(msg tea.MouseMsg) tea.Cmd {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		i := msg.Y - pickerTop
		if i < 0 || i >= len(m.list) {
			return nil
		}
		if i == m.cursor {
			return m.openTimeline(m.list[i].ID)
		}
		m.cursor = i
	}
	return nil
}

func (m *appModel) viewPicker() string {
	var b strings.Builder
	title := "planline"
	if m.label != "" {
		title += " · " + m.label
	}
	b.WriteString(styleAccent().Render(padRight(" "+title, m.width)))
	b.WriteString("\n")
	b.WriteString(styleChrome().Render(padRight("  Timeline", 36) + padRight("Starts", 14) + "Updated"))
	b.WriteString("\n")

	rows := max(0, m.height-pickerTop-2)
	switch {
	case m.loading && len(m.list) == 0:
		b.WriteString(styleMuted().Render("  Loading…"))
		b.WriteString("\n")
		rows--
	case len(m.list) == 0:
		b.WriteString(styleMuted().Render("  No timelines yet. Press n to create one."))
		b.WriteString("\n")
		rows--
	}
	now := m.now()
	for i, t := range m.list {
		if i >= rows {
			break
		}
		line := "  " + padRight(t.Name, 34) + padRight(t.StartDate, 14) + humanize.RelTime(t.UpdatedAt, now, "ago", "from now")
		line = padRight(line, m.width)
		if i == m.cursor {
			line = styleSelected().Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		rows--
	}
	for ; rows > 0; rows-- {
		b.WriteString("\n")
	}
	b.WriteString(m.messageLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.pickerKeys))
	return b.String()
}
