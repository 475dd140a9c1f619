package graph

import (
	"strings"

	"planline/internal/model"
)

func (g *Graph) update(id string, fn func(t *model.Task)) error {
	i := g.index(id)
	if i < 0 {
		return NotFoundError{Kind: "task", ID: id}
	}
	fn(&g.tasks[i])
	return nil
}

// Rename trims name; an empty result is rejected.
func (g *Graph) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return g.update(id, func(t *model.Task) { t.Name = name })
}

func (g *Graph) SetColor(id string, c model.Color) error {
	if !c.Valid() {
		c = model.DefaultColor
	}
	return g.update(id, func(t *model.Task) { t.Color = c })
}

func (g *Graph) ToggleDone(id string) error {
	return g.update(id, func(t *model.Task) { t.Done = !t.Done })
}

func (g *Graph) SetNotes(id, notes string) error {
	return g.update(id, func(t *model.Task) { t.Notes = notes })
}

// SetSchedule sets start week and duration, both floored at 1.
func (g *Graph) SetSchedule(id string, startWeek, duration int) error {
	if startWeek < 1 {
		startWeek = 1
	}
	if duration < 1 {
		duration = 1
	}
	return g.update(id, func(t *model.Task) {
		t.StartWeek = startWeek
		t.Duration = duration
	})
}

// Reorder moves taskID to sit immediately before beforeID. An empty beforeID
// moves the task to the end. Schedule and edges are untouched.
func (g *Graph) Reorder(taskID, beforeID string) error {
	from := g.index(taskID)
	if from < 0 {
		return NotFoundError{Kind: "task", ID: taskID}
	}
	if taskID == beforeID {
		return nil
	}
	t := g.tasks[from]
	rest := append(append([]model.Task(nil), g.tasks[:from]...), g.tasks[from+1:]...)
	at := len(rest)
	if beforeID != "" {
		at = -1
		for i := range rest {
			if rest[i].ID == beforeID {
				at = i
				break
			}
		}
		if at < 0 {
			return NotFoundError{Kind: "task", ID: beforeID}
		}
	}
	out := make([]model.Task, 0, len(g.tasks))
	out = append(out, rest[:at]...)
	out = append(out, t)
	out = append(out, rest[at:]...)
	g.tasks = out
	return nil
}

// Move splices the task at index from out and reinserts it at index to
// (the drop target index in the original sequence).
func (g *Graph) Move(from, to int) bool {
	n := len(g.tasks)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	t := g.tasks[from]
	rest := append(append([]model.Task(nil), g.tasks[:from]...), g.tasks[from+1:]...)
	out := make([]model.Task, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, t)
	out = append(out, rest[to:]...)
	g.tasks = out
	return true
}
