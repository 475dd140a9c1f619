package model

import (
	"encoding/json"
	"time"
)

// Color is one of the fixed palette entries a task bar/node is drawn with.
type Color string

const (
	ColorBlue   Color = "bg-blue-500"
	ColorPurple Color = "bg-purple-500"
	ColorRed    Color = "bg-red-500"
	ColorYellow Color = "bg-yellow-500"
	ColorPink   Color = "bg-pink-500"
	ColorIndigo Color = "bg-indigo-500"
	ColorOrange Color = "bg-orange-500"
	ColorGreen  Color = "bg-green-500"
)

// Palette lists the allowed task colors in picker order.
var Palette = []Color{
	ColorBlue,
	ColorPurple,
	ColorRed,
	ColorYellow,
	ColorPink,
	ColorIndigo,
	ColorOrange,
	ColorGreen,
}

const DefaultColor = ColorBlue

func (c Color) Valid() bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

type Task struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	StartWeek int      `json:"startWeek"`
	Duration  int      `json:"duration"`
	Color     Color    `json:"color"`
	BlockedBy []string `json:"blockedBy"`
	Done      bool     `json:"done"`
	Notes     string   `json:"notes,omitempty"`
}

// EndWeek is the last week (inclusive) the task occupies.
func (t Task) EndWeek() int {
	return t.StartWeek + t.Duration - 1
}

func (t Task) IsBlockedBy(id string) bool {
	for _, b := range t.BlockedBy {
		if b == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy (BlockedBy is not shared).
func (t Task) Clone() Task {
	out := t
	if t.BlockedBy != nil {
		out.BlockedBy = append([]string(nil), t.BlockedBy...)
	}
	return out
}

func CloneTasks(in []Task) []Task {
	if in == nil {
		return nil
	}
	out := make([]Task, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Position is a node's top-left corner in diagram space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Positions maps task id -> node position.
type Positions map[string]Position

func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

type ViewMode string

const (
	ViewWeekly  ViewMode = "weekly"
	ViewMonthly ViewMode = "monthly"
)

// Timeline is the aggregate root held in memory by a client.
type Timeline struct {
	ID            string
	Name          string
	StartDate     time.Time
	Tasks         []Task
	NodePositions Positions
	Notes         string
	UpdatedAt     time.Time
}

const DefaultTimelineName = "My Timeline"

const DateLayout = "2006-01-02"

// Snapshot is the editable part of a timeline. It is both the persistence
// input and the broadcast payload.
type Snapshot struct {
	Tasks         []Task    `json:"tasks"`
	StartDate     string    `json:"startDate"`
	Name          string    `json:"name"`
	NodePositions Positions `json:"nodePositions"`
	Notes         string    `json:"notes"`
}

// Record is the persisted JSON shape of a timeline.
type Record struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StartDate     string    `json:"start_date"`
	Tasks         []Task    `json:"tasks"`
	NodePositions Positions `json:"node_positions"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Snapshot is the editable part of the record.
func (r Record) Snapshot() Snapshot {
	return Snapshot{
		Tasks:         CloneTasks(r.Tasks),
		StartDate:     r.StartDate,
		Name:          r.Name,
		NodePositions: r.NodePositions.Clone(),
		Notes:         r.Notes,
	}
}

// Summary is the list view of a record (no tasks/positions).
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch is a partial update: nil fields are left untouched.
type Patch struct {
	Name          *string    `json:"name,omitempty"`
	StartDate     *string    `json:"startDate,omitempty"`
	Tasks         *[]Task    `json:"tasks,omitempty"`
	NodePositions *Positions `json:"nodePositions,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.StartDate == nil && p.Tasks == nil && p.NodePositions == nil && p.Notes == nil
}

// PatchFromSnapshot builds a full-overwrite patch.
func PatchFromSnapshot(s Snapshot) Patch {
	tasks := s.Tasks
	if tasks == nil {
		tasks = []Task{}
	}
	pos := s.NodePositions
	if pos == nil {
		pos = Positions{}
	}
	name := s.Name
	start := s.StartDate
	notes := s.Notes
	return Patch{Name: &name, StartDate: &start, Tasks: &tasks, NodePositions: &pos, Notes: &notes}
}

// Event is an entry in the append-only save log.
type Event struct {
	Seq      int64           `json:"seq"`
	ID       string          `json:"id"`
	TS       time.Time       `json:"ts"`
	ActorID  string          `json:"actorId"`
	Source   string          `json:"source"`
	Type     string          `json:"type"`
	EntityID string          `json:"entityId"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}
