package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *appModel) resizeNotes() {
	w := m.notesWidth()
	if w == 0 {
		w = min(notesMaxWidth, max(20, m.width/3))
	}
	m.notes.SetWidth(max(10, w-2))
	m.notes.SetHeight(max(3, m.bodyHeight()-2))
}

// beginNotesEdit opens the editor on the selected task's notes, or on the
// timeline's when nothing is selected.
func (m *appModel) beginNotesEdit() tea.Cmd {
	m.notesTarget = ""
	value := m.sess.Notes()
	if t, ok := m.selectedTask(); ok {
		m.notesTarget = t.ID
		value = t.Notes
	}
	m.editingNotes = true
	m.resizeNotes()
	m.notes.SetValue(value)
	return m.notes.Focus()
}

func (m *appModel) updateNotesKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.editingNotes = false
		m.notes.Blur()
		return nil
	case "ctrl+s":
		value := strings.TrimRight(m.notes.Value(), " \n")
		m.editingNotes = false
		m.notes.Blur()
		if m.notesTarget != "" {
			_ = m.sess.SetTaskNotes(m.notesTarget, value)
		} else {
			_ = m.sess.SetNotes(value)
		}
		m.showNotes = true
		return nil
	case "ctrl+c":
		return tea.Quit
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return cmd
}

// notesPanel renders the side panel: the editor, or the selected task's (or
// the timeline's) notes as markdown.
func (m *appModel) notesPanel(w, h int) []string {
	title := "Timeline notes"
	body := m.sess.Notes()
	if m.editingNotes {
		title = "Editing timeline notes"
		if m.notesTarget != "" {
			title = "Editing task notes"
		}
	} else if t, ok := m.selectedTask(); ok {
		title = "Notes · " + t.Name
		body = t.Notes
	}

	out := []string{styleChrome().Bold(true).Render(padRight(" "+title, w))}
	var content []string
	switch {
	case m.editingNotes:
		content = strings.Split(m.notes.View(), "\n")
		content = append(content, styleMuted().Render(" ctrl+s save · esc cancel"))
	case strings.TrimSpace(body) == "":
		content = []string{styleMuted().Render(" (no notes, press e to write some)")}
	default:
		content = strings.Split(renderMarkdown(body, w-2), "\n")
	}
	for _, line := range content {
		if len(out) >= h {
			break
		}
		out = append(out, padRight(line, w))
	}
	for len(out) < h {
		out = append(out, strings.Repeat(" ", w))
	}
	return out
}
