package tui

import (
	"strings"
	"time"

	"planline/internal/diagram"
	"planline/internal/geom"
	"planline/internal/model"
	"planline/internal/timelinebar"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *appModel) selected() string {
	if m.sess == nil {
		return ""
	}
	var id string
	m.sess.Do(func() { id = m.sess.Diagram.Selected() })
	return id
}

func (m *appModel) selectTask(id string) {
	m.sess.Do(func() { m.sess.Diagram.Select(id) })
}

func (m *appModel) selectedTask() (model.Task, bool) {
	id := m.selected()
	if id == "" {
		return model.Task{}, false
	}
	for _, t := range m.sess.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m *appModel) updateTimelineKey(msg tea.KeyMsg) tea.Cmd {
	if m.prompt != promptNone {
		return m.updatePromptKey(msg)
	}
	if m.editingNotes {
		return m.updateNotesKey(msg)
	}
	s := m.sess
	k := m.keys

	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, k.Cancel):
		return m.cancel()
	case key.Matches(msg, k.Back):
		m.closeSession()
		m.screen = screenPicker
		m.editingNotes, m.showNotes = false, false
		m.loading = true
		return m.loadList()
	case key.Matches(msg, k.SwitchPane):
		m.cancel()
		if m.pane == paneDiagram {
			m.pane = paneBars
		} else {
			m.pane = paneDiagram
		}
		return nil
	}

	if m.pane == paneDiagram {
		if cmd, ok := m.diagramKey(msg); ok {
			return cmd
		}
	} else if cmd, ok := m.barsKey(msg); ok {
		return cmd
	}

	switch {
	case key.Matches(msg, k.AddTask):
		return m.startPrompt(promptAddTask, "New task: ", "")
	case key.Matches(msg, k.RenameTask):
		t, ok := m.selectedTask()
		if !ok {
			return m.flashError(errNoSelection)
		}
		return m.startPrompt(promptRenameTask, "Rename task: ", t.Name)
	case key.Matches(msg, k.RenameTL):
		return m.startPrompt(promptRenameTimeline, "Rename timeline: ", s.Name())
	case key.Matches(msg, k.StartDate):
		return m.startPrompt(promptStartDate, "Start date (YYYY-MM-DD): ", s.StartDate().Format("2006-01-02"))
	case key.Matches(msg, k.Color):
		t, ok := m.selectedTask()
		if !ok {
			return m.flashError(errNoSelection)
		}
		next := nextColor(t.Color)
		if err := s.SetTaskColor(t.ID, next); err != nil {
			return nil
		}
		return m.setFlash(swatch(next)+" "+colorLabel(next), false)
	case key.Matches(msg, k.Done):
		t, ok := m.selectedTask()
		if !ok {
			return m.flashError(errNoSelection)
		}
		_ = s.ToggleTaskDone(t.ID)
	case key.Matches(msg, k.Delete):
		t, ok := m.selectedTask()
		if !ok {
			return m.flashError(errNoSelection)
		}
		m.pendingDelete = t.ID
		return m.startPrompt(promptDeleteTask, "Delete \""+t.Name+"\"? (y/N) ", "")
	case key.Matches(msg, k.Notes):
		m.showNotes = !m.showNotes
		m.resizeNotes()
	case key.Matches(msg, k.EditNotes):
		return m.beginNotesEdit()
	case key.Matches(msg, k.ViewMode):
		if s.ViewMode() == model.ViewMonthly {
			s.SetViewMode(model.ViewWeekly)
		} else {
			s.SetViewMode(model.ViewMonthly)
		}
	}
	return nil
}

// cancel is Escape: it ends whatever gesture, menu or mode is active.
func (m *appModel) cancel() tea.Cmd {
	s := m.sess
	s.Do(func() {
		s.Diagram.Escape()
		s.Bars.Cancel()
		s.Bars.DragEnd()
	})
	m.pressed = tea.MouseButtonNone
	m.barGesture = barGestureNone
	return nil
}

func nextColor(c model.Color) model.Color {
	for i, p := range model.Palette {
		if p == c {
			return model.Palette[(i+1)%len(model.Palette)]
		}
	}
	return model.DefaultColor
}

// diagramKey handles the keys that only mean something on the diagram.
func (m *appModel) diagramKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := m.sess
	k := m.keys

	if ak, ok := arrowKey(msg.String()); ok {
		mods := diagram.Modifiers{Shift: strings.HasPrefix(msg.String(), "shift+")}
		var consumed bool
		s.Do(func() { consumed = s.Diagram.KeyDown(ak, mods) })
		if !consumed {
			return nil, true
		}
		m.nudgeGen++
		gen := m.nudgeGen
		return tea.Tick(nudgeSettle, func(time.Time) tea.Msg { return nudgeDoneMsg{gen: gen, key: ak} }), true
	}

	var menuOpen, arrowOpen bool
	s.Do(func() {
		_, arrowOpen = s.Diagram.ArrowMenu()
		_, canvasOpen := s.Diagram.CanvasMenu()
		menuOpen = arrowOpen || canvasOpen
	})

	switch {
	case key.Matches(msg, k.Confirm) && menuOpen:
		if arrowOpen {
			var err error
			s.Do(func() { err = s.Diagram.DeleteMenuDependency() })
			return m.flashError(err), true
		}
		return m.startPrompt(promptAddTaskHere, "Task name: ", ""), true
	case key.Matches(msg, k.Connect):
		id := m.selected()
		if id == "" {
			return m.flashError(errNoSelection), true
		}
		s.Do(func() { s.Diagram.StartConnection(id) })
	case key.Matches(msg, k.Unplace):
		id := m.selected()
		if id == "" {
			return m.flashError(errNoSelection), true
		}
		s.Do(func() { s.Diagram.RemoveNode(id) })
	case key.Matches(msg, k.PlaceNew):
		s.Do(func() { s.Diagram.PlaceNewNodes() })
	case key.Matches(msg, k.Arrange):
		s.Do(s.Diagram.AutoArrange)
	case key.Matches(msg, k.Fit):
		s.Do(s.Diagram.FitToView)
	case key.Matches(msg, k.ResetView):
		s.Do(s.Diagram.ResetView)
	case key.Matches(msg, k.ZoomIn):
		s.Do(s.Diagram.ZoomIn)
	case key.Matches(msg, k.ZoomOut):
		s.Do(s.Diagram.ZoomOut)
	case key.Matches(msg, k.ZoomPercent):
		return m.startPrompt(promptZoom, "Zoom %: ", ""), true
	case key.Matches(msg, k.NextNode):
		m.cycleNode(1)
	case key.Matches(msg, k.PrevNode):
		m.cycleNode(-1)
	default:
		return nil, false
	}
	return nil, true
}

// cycleNode moves the focus through the placed nodes in task order.
func (m *appModel) cycleNode(dir int) {
	s := m.sess
	pos := s.Positions()
	var ids []string
	for _, t := range s.Tasks() {
		if _, ok := pos[t.ID]; ok {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	cur := m.selected()
	next := 0
	if dir < 0 {
		next = len(ids) - 1
	}
	for i, id := range ids {
		if id == cur {
			next = (i + dir + len(ids)) % len(ids)
			break
		}
	}
	m.selectTask(ids[next])
}

// barsKey handles row selection, schedule nudges and reordering.
func (m *appModel) barsKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := m.sess
	k := m.keys
	tasks := s.Tasks()
	idx := -1
	cur := m.selected()
	for i, t := range tasks {
		if t.ID == cur {
			idx = i
		}
	}

	switch msg.String() {
	case "up", "k":
		if len(tasks) > 0 {
			m.selectRow(tasks, max(0, idx-1))
		}
		return nil, true
	case "down", "j":
		if len(tasks) > 0 {
			m.selectRow(tasks, min(len(tasks)-1, idx+1))
		}
		return nil, true
	}

	if idx < 0 {
		switch {
		case key.Matches(msg, k.MoveEarlier, k.MoveLater, k.Shorter, k.Longer, k.RowUp, k.RowDown):
			return m.flashError(errNoSelection), true
		}
		return nil, false
	}
	t := tasks[idx]
	switch {
	case key.Matches(msg, k.MoveEarlier):
		if t.StartWeek > 1 {
			_ = s.SetTaskSchedule(t.ID, t.StartWeek-1, t.Duration)
		}
	case key.Matches(msg, k.MoveLater):
		_ = s.SetTaskSchedule(t.ID, t.StartWeek+1, t.Duration)
	case key.Matches(msg, k.Shorter):
		if t.Duration > 1 {
			_ = s.SetTaskSchedule(t.ID, t.StartWeek, t.Duration-1)
		}
	case key.Matches(msg, k.Longer):
		_ = s.SetTaskSchedule(t.ID, t.StartWeek, t.Duration+1)
	case key.Matches(msg, k.RowUp):
		if idx > 0 {
			_ = s.Reorder(t.ID, tasks[idx-1].ID)
		}
	case key.Matches(msg, k.RowDown):
		switch {
		case idx+2 < len(tasks):
			_ = s.Reorder(t.ID, tasks[idx+2].ID)
		case idx+1 < len(tasks):
			_ = s.Reorder(t.ID, "")
		}
	default:
		return nil, false
	}
	return nil, true
}

// selectRow focuses task i and scrolls it into view.
func (m *appModel) selectRow(tasks []model.Task, i int) {
	m.selectTask(tasks[i].ID)
	rows := max(1, m.bodyHeight()-barsHeaderRows)
	if i < m.barsScroll {
		m.barsScroll = i
	} else if i >= m.barsScroll+rows {
		m.barsScroll = i - rows + 1
	}
}

func (m *appModel) updateTimelineMouse(msg tea.MouseMsg) tea.Cmd {
	if m.prompt != promptNone || m.editingNotes || m.help.ShowAll {
		return nil
	}
	// Releases are delivered wherever the pointer is, so a gesture that
	// leaves the body still ends.
	inBody := msg.Y >= 1 && msg.Y <= m.bodyHeight() && msg.X < m.bodyWidth()
	if !inBody && msg.Action == tea.MouseActionPress {
		return nil
	}
	if m.pane == paneDiagram {
		return m.diagramMouse(msg)
	}
	return m.barsMouse(msg)
}

func toButton(b tea.MouseButton) (diagram.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return diagram.ButtonLeft, true
	case tea.MouseButtonMiddle:
		return diagram.ButtonMiddle, true
	case tea.MouseButtonRight:
		return diagram.ButtonRight, true
	}
	return 0, false
}

// wheelPan is how far one wheel notch scrolls the diagram, in pixels.
const wheelPan = 3 * cellH

func (m *appModel) diagramMouse(msg tea.MouseMsg) tea.Cmd {
	s := m.sess
	cx, cy := cellToClient(msg.X, msg.Y)
	p := diagram.Pointer{
		Client: geom.Point{X: cx, Y: cy},
		Mods:   diagram.Modifiers{Shift: msg.Shift, Ctrl: msg.Ctrl, Meta: msg.Alt},
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
			delta := wheelPan
			if msg.Button == tea.MouseButtonWheelUp {
				delta = -wheelPan
			}
			s.Do(func() {
				if s.Diagram.Wheel(delta, p.Mods) {
					return
				}
				v := s.Diagram.View()
				if msg.Shift {
					v.Pan.X -= delta
				} else {
					v.Pan.Y -= delta
				}
				s.Diagram.SetView(v)
			})
			return nil
		}
		btn, ok := toButton(msg.Button)
		if !ok {
			return nil
		}
		p.Button = btn
		m.pressed = msg.Button
		s.Do(func() {
			if btn == diagram.ButtonLeft && msg.Alt {
				if id, on := s.Diagram.NodeAt(s.Diagram.ScreenToDiagram(p.Client)); on {
					s.Diagram.StartConnection(id)
					return
				}
			}
			s.Diagram.PointerDown(p)
		})

	case tea.MouseActionMotion:
		if btn, ok := toButton(m.pressed); ok {
			p.Button = btn
		}
		s.Do(func() { s.Diagram.PointerMove(p) })

	case tea.MouseActionRelease:
		pressed := m.pressed
		m.pressed = tea.MouseButtonNone
		if btn, ok := toButton(pressed); ok {
			p.Button = btn
		}
		s.Do(func() {
			s.Diagram.PointerUp(p)
			if pressed != tea.MouseButtonRight {
				return
			}
			if s.Diagram.ContextMenu(p) {
				return
			}
			// Right-click on a task links from it.
			if id, on := s.Diagram.NodeAt(s.Diagram.ScreenToDiagram(p.Client)); on {
				s.Diagram.Select(id)
				s.Diagram.StartConnection(id)
			}
		})
	}
	return nil
}

func (m *appModel) barsMouse(msg tea.MouseMsg) tea.Cmd {
	s := m.sess
	l := m.barsLayout()
	tasks := s.Tasks()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.barsScroll = max(0, m.barsScroll-1)
			return nil
		case tea.MouseButtonWheelDown:
			if m.barsScroll+l.visibleRows() < len(tasks) {
				m.barsScroll++
			}
			return nil
		case tea.MouseButtonLeft:
		default:
			return nil
		}
		i, hit := l.hit(tasks, msg.X, msg.Y)
		if i < 0 {
			return nil
		}
		id := tasks[i].ID
		total := l.Total
		m.pressed = msg.Button
		x := float64(msg.X)
		s.Do(func() {
			s.Diagram.Select(id)
			switch hit {
			case hitHandle:
				s.Bars.BeginReorder(id)
				m.barGesture = barGestureReorder
			case hitLeftEdge:
				if s.Bars.BeginResize(id, timelinebar.EdgeLeft, x, total) {
					m.barGesture = barGestureEdit
				}
			case hitRightEdge:
				if s.Bars.BeginResize(id, timelinebar.EdgeRight, x, total) {
					m.barGesture = barGestureEdit
				}
			case hitBody:
				if s.Bars.BeginMove(id, x, total) {
					m.barGesture = barGestureEdit
				}
			}
		})

	case tea.MouseActionMotion:
		switch m.barGesture {
		case barGestureEdit:
			s.Do(func() { s.Bars.PointerMove(float64(msg.X)) })
		case barGestureReorder:
			if i, _ := l.hit(tasks, msg.X, msg.Y); i >= 0 {
				id := tasks[i].ID
				s.Do(func() { s.Bars.DragOver(id) })
			}
		}

	case tea.MouseActionRelease:
		g := m.barGesture
		m.barGesture = barGestureNone
		m.pressed = tea.MouseButtonNone
		switch g {
		case barGestureEdit:
			s.Do(s.Bars.PointerUp)
		case barGestureReorder:
			i, _ := l.hit(tasks, msg.X, msg.Y)
			s.Do(func() {
				if i < 0 {
					s.Bars.DragEnd()
					return
				}
				s.Bars.Drop(tasks[i].ID)
			})
		}
	}
	return nil
}
