// Package timelinebar handles the 1D timeline view gestures: reordering task
// rows and moving/resizing task bars on the week grid.
package timelinebar

import (
	"math"

	"planline/internal/graph"
)

// Edge is the bar side grabbed by a resize.
type Edge int

const (
	EdgeLeft Edge = iota + 1
	EdgeRight
)

type Kind int

const (
	KindNone Kind = iota
	KindMove
	KindResize
)

// TrackProvider reports the on-screen width of a task's bar track.
type TrackProvider interface {
	TrackWidth(taskID string) float64
}

type TrackFunc func(taskID string) float64

func (f TrackFunc) TrackWidth(taskID string) float64 { return f(taskID) }

type Committer interface {
	Commit()
}

// gestureState is captured at press time and read by every move, so moves
// never see a half-updated task.
type gestureState struct {
	taskID        string
	kind          Kind
	edge          Edge
	startX        float64
	startWeek     int
	startDuration int
	totalWeeks    int
	changed       bool
}

type Controller struct {
	graph  func() *graph.Graph
	track  TrackProvider
	commit Committer

	g *gestureState

	reorderID string
	overID    string
}

// NewController edits the graph returned by source (read on every call, so
// the owner may swap it).
func NewController(source func() *graph.Graph, track TrackProvider, commit Committer) *Controller {
	return &Controller{graph: source, track: track, commit: commit}
}

// roundHalfUp rounds .5 toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// WeeksDelta converts a pixel delta to whole weeks on a track showing
// totalWeeks columns.
func WeeksDelta(dx, trackWidth float64, totalWeeks int) int {
	if trackWidth <= 0 || totalWeeks <= 0 {
		return 0
	}
	return roundHalfUp(dx / (trackWidth / float64(totalWeeks)))
}

// MoveStart shifts a bar by delta weeks, keeping it inside the grid.
func MoveStart(startWeek, duration, delta, totalWeeks int) int {
	s := startWeek + delta
	if maxStart := totalWeeks - duration + 1; s > maxStart {
		s = maxStart
	}
	if s < 1 {
		s = 1
	}
	return s
}

// ResizeLeft drags the left edge. The start never passes the original end
// week; at that point the bar collapses to one week.
func ResizeLeft(startWeek, duration, delta int) (int, int) {
	s := max(1, startWeek+delta)
	d := max(1, duration-delta)
	originalEnd := startWeek + duration - 1
	if s > originalEnd {
		s = originalEnd
		d = 1
	}
	return s, d
}

// ResizeRight drags the right edge; the bar stays inside the grid.
func ResizeRight(startWeek, duration, delta, totalWeeks int) int {
	d := max(1, duration+delta)
	return min(d, totalWeeks-startWeek+1)
}

func (c *Controller) begin(taskID string, kind Kind, edge Edge, clientX float64, totalWeeks int) bool {
	if c.g != nil {
		return false
	}
	t, ok := c.graph().Find(taskID)
	if !ok {
		return false
	}
	c.g = &gestureState{
		taskID:        taskID,
		kind:          kind,
		edge:          edge,
		startX:        clientX,
		startWeek:     t.StartWeek,
		startDuration: t.Duration,
		totalWeeks:    totalWeeks,
	}
	return true
}

// BeginMove starts shifting a bar (press on its body).
func (c *Controller) BeginMove(taskID string, clientX float64, totalWeeks int) bool {
	return c.begin(taskID, KindMove, 0, clientX, totalWeeks)
}

// BeginResize starts dragging one edge of a bar.
func (c *Controller) BeginResize(taskID string, edge Edge, clientX float64, totalWeeks int) bool {
	return c.begin(taskID, KindResize, edge, clientX, totalWeeks)
}

// Active is the bar under an in-flight move/resize.
func (c *Controller) Active() (taskID string, kind Kind, edge Edge) {
	if c.g == nil {
		return "", KindNone, 0
	}
	return c.g.taskID, c.g.kind, c.g.edge
}

// PointerMove applies the current pointer x to the bar being edited.
func (c *Controller) PointerMove(clientX float64) {
	s := c.g
	if s == nil {
		return
	}
	width := 0.0
	if c.track != nil {
		width = c.track.TrackWidth(s.taskID)
	}
	if width <= 0 {
		return
	}
	delta := WeeksDelta(clientX-s.startX, width, s.totalWeeks)
	start, dur := s.startWeek, s.startDuration
	switch {
	case s.kind == KindMove:
		start = MoveStart(s.startWeek, s.startDuration, delta, s.totalWeeks)
	case s.kind == KindResize && s.edge == EdgeLeft:
		start, dur = ResizeLeft(s.startWeek, s.startDuration, delta)
	case s.kind == KindResize && s.edge == EdgeRight:
		dur = ResizeRight(s.startWeek, s.startDuration, delta, s.totalWeeks)
	}
	cur, ok := c.graph().Find(s.taskID)
	if !ok {
		c.g = nil
		return
	}
	if cur.StartWeek == start && cur.Duration == dur {
		return
	}
	if err := c.graph().SetSchedule(s.taskID, start, dur); err == nil {
		s.changed = true
	}
}

// PointerUp ends the gesture and commits once if the bar changed.
func (c *Controller) PointerUp() {
	s := c.g
	c.g = nil
	if s != nil && s.changed && c.commit != nil {
		c.commit.Commit()
	}
}

// Cancel restores the bar to its press-time schedule.
func (c *Controller) Cancel() {
	s := c.g
	c.g = nil
	if s == nil || !s.changed {
		return
	}
	_ = c.graph().SetSchedule(s.taskID, s.startWeek, s.startDuration)
}

// BeginReorder picks up a row.
func (c *Controller) BeginReorder(taskID string) {
	c.reorderID = taskID
	c.overID = ""
}

// DragOver marks the row under the dragged one.
func (c *Controller) DragOver(taskID string) {
	if c.reorderID != "" && taskID != c.reorderID {
		c.overID = taskID
	}
}

func (c *Controller) Reordering() (dragged, over string) {
	return c.reorderID, c.overID
}

// Drop splices the dragged row into the drop row's index and commits.
func (c *Controller) Drop(dropID string) bool {
	dragged := c.reorderID
	c.reorderID, c.overID = "", ""
	if dragged == "" || dragged == dropID {
		return false
	}
	g := c.graph()
	from, to := -1, -1
	for i, t := range g.Tasks() {
		switch t.ID {
		case dragged:
			from = i
		case dropID:
			to = i
		}
	}
	if from < 0 || to < 0 || !g.Move(from, to) {
		return false
	}
	if c.commit != nil {
		c.commit.Commit()
	}
	return true
}

// DragEnd clears reorder state without a drop.
func (c *Controller) DragEnd() {
	c.reorderID, c.overID = "", ""
}
