// Package planner wires one open timeline on a client: the task graph, node
// positions, both interaction controllers, the sync shim and the save path.
package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"planline/internal/diagram"
	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/layout"
	"planline/internal/livesync"
	"planline/internal/model"
	"planline/internal/timelinebar"
	"planline/internal/weeks"
)

// Persister stores a full snapshot. A returned error is shown as a transient
// save failure; nothing is rolled back.
type Persister interface {
	Save(ctx context.Context, timelineID string, snap model.Snapshot) error
}

// Broadcaster sends a payload to the other clients of a timeline.
type Broadcaster interface {
	EmitSync(ctx context.Context, timelineID string, p livesync.Payload) error
}

type SaveStatus string

const (
	StatusIdle   SaveStatus = ""
	StatusSaving SaveStatus = "Saving..."
	StatusSaved  SaveStatus = "Saved"
	StatusError  SaveStatus = "Error saving"
)

const (
	savedStatusTTL = 2 * time.Second
	errorStatusTTL = 3 * time.Second
)

type Options struct {
	Persister   Persister
	Broadcaster Broadcaster
	Bounds      diagram.BoundsProvider
	Track       timelinebar.TrackProvider
	ClientID    string
	Markers     livesync.MarkerSource
	ViewMode    model.ViewMode

	// OnChange runs after any state change that needs a redraw (remote apply,
	// save status). It is called without the session lock held.
	OnChange func()
	// Notify receives user-facing rejections (cycle, empty name). It runs
	// with the session locked and must not call back into the session.
	Notify func(error)
	Now    func() time.Time
}

// Session is safe for concurrent use. The two controllers are not: drive
// them only inside Do.
type Session struct {
	id   string
	opts Options
	now  func() time.Time

	mu        sync.Mutex
	doc       *diagram.Doc
	name      string
	startDate time.Time
	notes     string
	viewMode  model.ViewMode

	Diagram *diagram.Controller
	Bars    *timelinebar.Controller

	shim  *livesync.Shim
	saver *saver

	statusMu  sync.Mutex
	status    SaveStatus
	statusGen int
	lastSaved time.Time
	lastErr   error
}

// Open loads a record into a new session.
func Open(rec model.Record, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.ClientID == "" {
		opts.ClientID = livesync.NewClientID()
	}
	if opts.ViewMode == "" {
		opts.ViewMode = model.ViewWeekly
	}
	s := &Session{
		id:       rec.ID,
		opts:     opts,
		now:      now,
		doc:      &diagram.Doc{},
		viewMode: opts.ViewMode,
		shim:     livesync.NewShim(opts.ClientID, opts.Markers),
	}
	s.loadLocked(model.Snapshot{
		Tasks:         rec.Tasks,
		StartDate:     rec.StartDate,
		Name:          rec.Name,
		NodePositions: rec.NodePositions,
		Notes:         rec.Notes,
	})
	commit := diagram.CommitFunc(s.commitLocked)
	s.Diagram = diagram.NewController(s.doc, opts.Bounds, commit, diagram.NotifyFunc(s.notify))
	s.Bars = timelinebar.NewController(func() *graph.Graph { return s.doc.Graph }, opts.Track, commit)
	s.saver = newSaver(s)
	return s
}

func (s *Session) ID() string       { return s.id }
func (s *Session) ClientID() string { return s.shim.Self() }

func (s *Session) notify(err error) {
	if err != nil && s.opts.Notify != nil {
		s.opts.Notify(err)
	}
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

// loadLocked replaces the whole editable state. Missing fields fall back to
// the defaults a new timeline gets.
func (s *Session) loadLocked(snap model.Snapshot) {
	s.doc.Graph = graph.New(snap.Tasks)
	pos := snap.NodePositions.Clone()
	s.doc.Positions = pos
	s.name = snap.Name
	if strings.TrimSpace(s.name) == "" {
		s.name = model.DefaultTimelineName
	}
	if d, err := weeks.ParseDate(snap.StartDate); err == nil {
		s.startDate = d
	} else {
		s.startDate = s.now()
	}
	s.notes = snap.Notes
}

func (s *Session) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Tasks:         s.doc.Graph.Tasks(),
		StartDate:     weeks.FormatDate(s.startDate),
		Name:          s.name,
		NodePositions: s.doc.Positions.Clone(),
		Notes:         s.notes,
	}
}

// Snapshot is a copy of the current editable state.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Do runs fn with the session locked. Controller calls go through here; a
// commit triggered inside fn is queued for saving.
func (s *Session) Do(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}

// commitLocked queues the current state for persistence and broadcast.
func (s *Session) commitLocked() {
	s.setStatus(StatusSaving, nil)
	s.saver.enqueue(s.snapshotLocked())
}

// Commit saves the current state (e.g. after edits made inside Do without
// a controller).
func (s *Session) Commit() {
	s.mu.Lock()
	s.commitLocked()
	s.mu.Unlock()
}

func (s *Session) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Graph.Tasks()
}

func (s *Session) Positions() model.Positions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Positions.Clone()
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) StartDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startDate
}

func (s *Session) Notes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes
}

func (s *Session) ViewMode() model.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewMode
}

func (s *Session) SetViewMode(m model.ViewMode) {
	s.mu.Lock()
	s.viewMode = m
	s.mu.Unlock()
}

// TotalWeeks is the grid width for the current view mode.
func (s *Session) TotalWeeks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return weeks.TotalWeeks(s.viewMode, s.doc.Graph.Tasks())
}

// ApplyRemote tags an incoming payload and, if the shim accepts it,
// overwrites all local state with it. Tasks that arrive without a node are
// placed (and the placement committed) before anyone sees the new state.
func (s *Session) ApplyRemote(p livesync.Payload) bool {
	r := s.shim.Tag(p)
	if !s.shim.Accept(r) {
		return false
	}
	s.mu.Lock()
	s.loadLocked(r.Snapshot)
	s.Diagram.PlaceNewNodes()
	s.Diagram.Forget()
	s.mu.Unlock()
	s.changed()
	return true
}

// DatesSpec builds a task spec from calendar dates on this timeline.
func (s *Session) DatesSpec(name string, start, end time.Time, color model.Color, notes string) graph.TaskSpec {
	s.mu.Lock()
	origin := s.startDate
	s.mu.Unlock()
	return graph.TaskSpec{
		Name:      name,
		StartWeek: weeks.DateToWeek(origin, start),
		Duration:  weeks.DurationWeeks(start, end),
		Color:     color,
		Notes:     notes,
	}
}

// AddTask appends a task and gives it a node: at the explicit diagram point
// when given, otherwise the next grid slot.
func (s *Session) AddTask(spec graph.TaskSpec, at *geom.Point) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := layout.NextGridSlot(s.doc.Positions, s.Diagram.CanvasSize().W)
	if at != nil {
		p = model.Position(*at)
	}
	t, err := s.Diagram.AddTaskAt(spec, geom.Point(p))
	if err != nil {
		s.notify(err)
		return model.Task{}, err
	}
	return t, nil
}

// DeleteTask removes the task, its node and every edge to it.
func (s *Session) DeleteTask(id string) error {
	return s.edit(func() error {
		if err := s.doc.Graph.DeleteTask(id); err != nil {
			return err
		}
		delete(s.doc.Positions, id)
		s.Diagram.Forget()
		return nil
	})
}

// PlaceNode puts the node of an existing task at p (diagram space), adding
// the node if the task had none.
func (s *Session) PlaceNode(id string, p geom.Point) error {
	return s.edit(func() error {
		if !s.doc.Graph.Has(id) {
			return graph.NotFoundError{Kind: "task", ID: id}
		}
		if s.doc.Positions == nil {
			s.doc.Positions = model.Positions{}
		}
		s.doc.Positions[id] = model.Position(p)
		return nil
	})
}

// ToggleDependency flips taskID.blockedBy for depID. Adding an edge that
// would close a cycle is rejected and reported.
func (s *Session) ToggleDependency(taskID, depID string) (bool, error) {
	var added bool
	err := s.edit(func() error {
		var err error
		added, err = s.doc.Graph.ToggleDependency(taskID, depID)
		return err
	})
	return added, err
}

func (s *Session) RenameTask(id, name string) error {
	return s.edit(func() error { return s.doc.Graph.Rename(id, name) })
}

func (s *Session) SetTaskColor(id string, c model.Color) error {
	return s.edit(func() error { return s.doc.Graph.SetColor(id, c) })
}

func (s *Session) ToggleTaskDone(id string) error {
	return s.edit(func() error { return s.doc.Graph.ToggleDone(id) })
}

func (s *Session) SetTaskNotes(id, notes string) error {
	return s.edit(func() error { return s.doc.Graph.SetNotes(id, notes) })
}

func (s *Session) SetTaskSchedule(id string, startWeek, duration int) error {
	return s.edit(func() error { return s.doc.Graph.SetSchedule(id, startWeek, duration) })
}

// Reorder moves taskID before beforeID ("" = to the end).
func (s *Session) Reorder(taskID, beforeID string) error {
	return s.edit(func() error { return s.doc.Graph.Reorder(taskID, beforeID) })
}

var ErrEmptyTimelineName = errors.New("timeline name is required")

func (s *Session) Rename(name string) error {
	return s.edit(func() error {
		name = strings.TrimSpace(name)
		if name == "" {
			return ErrEmptyTimelineName
		}
		s.name = name
		return nil
	})
}

func (s *Session) SetStartDate(d time.Time) error {
	return s.edit(func() error {
		s.startDate = d
		return nil
	})
}

func (s *Session) SetNotes(notes string) error {
	return s.edit(func() error {
		s.notes = notes
		return nil
	})
}

// edit runs fn under the lock and commits when it succeeds. Failures are
// reported and leave state untouched.
func (s *Session) edit(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		s.notify(err)
		return err
	}
	s.commitLocked()
	return nil
}
