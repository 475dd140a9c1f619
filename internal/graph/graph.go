// Package graph holds the ordered task sequence of a timeline and the
// dependency edges between tasks. The sequence order is the display order.
package graph

import (
	"strings"

	"planline/internal/model"
)

// Graph owns a private copy of the task sequence. It is not safe for
// concurrent use.
type Graph struct {
	tasks []model.Task
	newID func() (string, error)
}

func New(tasks []model.Task) *Graph {
	return &Graph{
		tasks: model.CloneTasks(tasks),
		newID: func() (string, error) { return model.NewRandomID("task") },
	}
}

// WithIDSource replaces the id generator (tests use deterministic ids).
func (g *Graph) WithIDSource(fn func() (string, error)) *Graph {
	if fn != nil {
		g.newID = fn
	}
	return g
}

// Tasks returns a copy of the sequence.
func (g *Graph) Tasks() []model.Task {
	out := model.CloneTasks(g.tasks)
	if out == nil {
		return []model.Task{}
	}
	return out
}

func (g *Graph) Len() int { return len(g.tasks) }

func (g *Graph) index(id string) int {
	for i := range g.tasks {
		if g.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *Graph) Has(id string) bool { return g.index(id) >= 0 }

func (g *Graph) Find(id string) (model.Task, bool) {
	i := g.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	return g.tasks[i].Clone(), true
}

// TaskSpec describes a task to add. Zero schedule fields default to week 1
// for one week.
type TaskSpec struct {
	Name      string
	StartWeek int
	Duration  int
	Color     model.Color
	BlockedBy []string
	Done      bool
	Notes     string
}

// AddTask appends a new task. An empty (after trimming) name is rejected
// with ErrEmptyName and nothing changes.
func (g *Graph) AddTask(spec TaskSpec) (model.Task, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return model.Task{}, ErrEmptyName
	}
	id, err := g.newID()
	if err != nil {
		return model.Task{}, err
	}
	t := model.Task{
		ID:        id,
		Name:      name,
		StartWeek: spec.StartWeek,
		Duration:  spec.Duration,
		Color:     spec.Color,
		BlockedBy: []string{},
		Done:      spec.Done,
		Notes:     spec.Notes,
	}
	if t.StartWeek < 1 {
		t.StartWeek = 1
	}
	if t.Duration < 1 {
		t.Duration = 1
	}
	if !t.Color.Valid() {
		t.Color = model.DefaultColor
	}
	for _, dep := range spec.BlockedBy {
		// A brand new task has no dependents, so none of these can close a cycle.
		if dep != id && !t.IsBlockedBy(dep) {
			t.BlockedBy = append(t.BlockedBy, dep)
		}
	}
	g.tasks = append(g.tasks, t)
	return t.Clone(), nil
}

// DeleteTask removes the task and drops it from every other task's blockedBy.
func (g *Graph) DeleteTask(id string) error {
	i := g.index(id)
	if i < 0 {
		return NotFoundError{Kind: "task", ID: id}
	}
	g.tasks = append(g.tasks[:i], g.tasks[i+1:]...)
	for j := range g.tasks {
		g.tasks[j].BlockedBy = without(g.tasks[j].BlockedBy, id)
	}
	return nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// AddDependency records taskID.blockedBy += depID. It is a no-op when the
// edge already exists.
func (g *Graph) AddDependency(taskID, depID string) error {
	if taskID == depID {
		return ErrSelfDependency
	}
	ti := g.index(taskID)
	if ti < 0 {
		return NotFoundError{Kind: "task", ID: taskID}
	}
	if !g.Has(depID) {
		return NotFoundError{Kind: "task", ID: depID}
	}
	if g.tasks[ti].IsBlockedBy(depID) {
		return nil
	}
	if g.HasCycle(depID, taskID) {
		return CycleError{From: depID, To: taskID}
	}
	g.tasks[ti].BlockedBy = append(g.tasks[ti].BlockedBy, depID)
	return nil
}

// RemoveDependency drops depID from taskID.blockedBy. Dangling ids can be
// removed even though the referenced task no longer exists.
func (g *Graph) RemoveDependency(taskID, depID string) error {
	ti := g.index(taskID)
	if ti < 0 {
		return NotFoundError{Kind: "task", ID: taskID}
	}
	g.tasks[ti].BlockedBy = without(g.tasks[ti].BlockedBy, depID)
	return nil
}

// ToggleDependency flips the edge. Removal is unconditional; adding goes
// through the cycle check. added reports the resulting direction.
func (g *Graph) ToggleDependency(taskID, depID string) (added bool, err error) {
	ti := g.index(taskID)
	if ti < 0 {
		return false, NotFoundError{Kind: "task", ID: taskID}
	}
	if g.tasks[ti].IsBlockedBy(depID) {
		return false, g.RemoveDependency(taskID, depID)
	}
	if err := g.AddDependency(taskID, depID); err != nil {
		return false, err
	}
	return true, nil
}

// Blockers returns the existing tasks taskID is blocked by, skipping
// dangling references.
func (g *Graph) Blockers(id string) []model.Task {
	i := g.index(id)
	if i < 0 {
		return nil
	}
	var out []model.Task
	for _, dep := range g.tasks[i].BlockedBy {
		if t, ok := g.Find(dep); ok {
			out = append(out, t)
		}
	}
	return out
}

// Dependents returns tasks that list id in blockedBy.
func (g *Graph) Dependents(id string) []model.Task {
	var out []model.Task
	for _, t := range g.tasks {
		if t.IsBlockedBy(id) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Neighbors is the one-hop set of blockers and dependents, without id itself.
func (g *Graph) Neighbors(id string) []string {
	seen := map[string]bool{id: true}
	var out []string
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, t := range g.Blockers(id) {
		add(t.ID)
	}
	for _, t := range g.Dependents(id) {
		add(t.ID)
	}
	return out
}

// Edge is a drawn dependency arrow, from blocker to dependent.
type Edge struct {
	From string
	To   string
}

// Edges lists every dependency whose both endpoints exist, in sequence order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, t := range g.tasks {
		for _, dep := range t.BlockedBy {
			if g.Has(dep) {
				out = append(out, Edge{From: dep, To: t.ID})
			}
		}
	}
	return out
}
