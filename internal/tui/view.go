package tui

import (
	"fmt"
	"strings"

	"planline/internal/planner"
	"planline/internal/weeks"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

func (m *appModel) viewTimeline() string {
	s := m.sess
	bw, bh := m.bodyWidth(), m.bodyHeight()

	var body []string
	switch {
	case m.help.ShowAll:
		body = strings.Split(m.help.View(m.keys), "\n")
	case m.pane == paneDiagram:
		body = renderDiagram(buildScene(s, m.canvasRect()), bw, bh)
	default:
		body = renderBars(m.barsLayout(), s.Tasks(), m.barsState())
	}
	body = fitLines(body, bw, bh)

	if nw := m.notesWidth(); nw > 0 {
		panel := m.notesPanel(nw, bh)
		sep := styleMuted().Render("│")
		for i := range body {
			body[i] = body[i] + sep + panel[i]
		}
	}

	lines := make([]string, 0, bh+3)
	lines = append(lines, m.headerLine())
	lines = append(lines, body...)
	lines = append(lines, m.messageLine(), m.statusLine())
	return strings.Join(lines, "\n")
}

func (m *appModel) barsState() barsState {
	var st barsState
	m.sess.Do(func() {
		st.Selected = m.sess.Diagram.Selected()
		st.Dragged, st.Over = m.sess.Bars.Reordering()
	})
	return st
}

// fitLines pads or cuts lines to exactly w x h cells.
func fitLines(lines []string, w, h int) []string {
	out := make([]string, h)
	for i := range out {
		if i < len(lines) {
			out[i] = padRight(lines[i], w)
		} else {
			out[i] = strings.Repeat(" ", w)
		}
	}
	return out
}

func (m *appModel) headerLine() string {
	s := m.sess
	tasks := s.Tasks()
	pos := s.Positions()
	unplaced := 0
	for _, t := range tasks {
		if _, ok := pos[t.ID]; !ok {
			unplaced++
		}
	}
	var zoom float64
	s.Do(func() { zoom = s.Diagram.View().Zoom })

	diagramTab, barsTab := " Diagram ", " Timeline "
	if m.pane == paneDiagram {
		diagramTab = styleAccent().Render(diagramTab)
	} else {
		barsTab = styleAccent().Render(barsTab)
	}
	left := styleSelected().Render(" "+s.Name()+" ") + " " + diagramTab + barsTab
	info := fmt.Sprintf(" starts %s · %s · %d weeks · %d tasks",
		weeks.FormatDDMMYYYY(s.StartDate()), s.ViewMode(), s.TotalWeeks(), len(tasks))
	if unplaced > 0 {
		info += fmt.Sprintf(" (%d not on diagram)", unplaced)
	}
	if m.pane == paneDiagram {
		info += fmt.Sprintf(" · %.0f%%", zoom*100)
	}
	return padRight(left+styleChrome().Render(info), m.width)
}

// messageLine shows, in priority order: the open prompt, a context menu or
// connect hint, the flash message.
func (m *appModel) messageLine() string {
	if v := m.promptView(); v != "" {
		return padRight(v, m.width)
	}
	if m.sess != nil && m.screen == screenTimeline {
		if hint := m.diagramHint(); hint != "" {
			return padRight(styleAccent().Render(" "+hint+" "), m.width)
		}
	}
	if m.flash != "" {
		st := lipgloss.NewStyle().Foreground(colorFlashInfo)
		if m.flashErr {
			st = lipgloss.NewStyle().Foreground(colorFlashError).Bold(true)
		}
		return padRight(st.Render(" "+m.flash), m.width)
	}
	return strings.Repeat(" ", max(0, m.width))
}

func (m *appModel) diagramHint() string {
	s := m.sess
	names := map[string]string{}
	for _, t := range s.Tasks() {
		names[t.ID] = t.Name
	}
	var hint string
	s.Do(func() {
		c := s.Diagram
		if menu, ok := c.ArrowMenu(); ok {
			hint = menu.Label() + "   enter remove · esc cancel"
			return
		}
		if menu, ok := c.CanvasMenu(); ok {
			hint = "Add task here (" + placeHint(menu.Diagram) + ")   enter name it · esc cancel"
			return
		}
		if from, ok := c.Connecting(); ok {
			name := names[from]
			if name == "" {
				name = from
			}
			hint = "Linking from " + name + ": click the task it blocks (esc cancels)"
		}
	})
	return hint
}

func (m *appModel) statusLine() string {
	left := " " + m.saveStatus()
	if m.room != nil {
		left += styleMuted().Render(" · live")
	} else {
		left += styleMuted().Render(" · offline")
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - xansi.StringWidth(left) - xansi.StringWidth(right)
	if gap < 1 {
		return padRight(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *appModel) saveStatus() string {
	s := m.sess
	switch s.Status() {
	case planner.StatusSaving:
		return styleMuted().Render(string(planner.StatusSaving))
	case planner.StatusSaved:
		return lipgloss.NewStyle().Foreground(colorFlashInfo).Render(string(planner.StatusSaved))
	case planner.StatusError:
		msg := string(planner.StatusError)
		if err := s.LastError(); err != nil {
			msg += ": " + err.Error()
		}
		return lipgloss.NewStyle().Foreground(colorFlashError).Render(msg)
	}
	if t := s.LastSaved(); !t.IsZero() {
		return styleMuted().Render("saved " + humanize.RelTime(t, m.now(), "ago", "from now"))
	}
	return ""
}
