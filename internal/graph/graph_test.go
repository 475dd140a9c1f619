package graph

import (
	"errors"
	"fmt"
	"testing"

	"planline/internal/model"
)

func seqIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("t%d", n), nil
	}
}

func chain() *Graph {
	// 1 <- 2 <- 3
	return New([]model.Task{
		{ID: "1", Name: "one", StartWeek: 1, Duration: 1},
		{ID: "2", Name: "two", StartWeek: 1, Duration: 1, BlockedBy: []string{"1"}},
		{ID: "3", Name: "three", StartWeek: 1, Duration: 1, BlockedBy: []string{"2"}},
	})
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestHasCycle_Chain(t *testing.T) {
	g := chain()
	if !g.HasCycle("3", "1") {
		t.Fatalf("expected hasCycle(3,1)=true")
	}
	if g.HasCycle("1", "3") {
		t.Fatalf("expected hasCycle(1,3)=false")
	}
	if !g.HasCycle("2", "2") {
		t.Fatalf("expected self edge to be a cycle")
	}
}

func TestHasCycle_ToleratesExistingLoopAndDangling(t *testing.T) {
	g := New([]model.Task{
		{ID: "a", Name: "a", BlockedBy: []string{"b", "ghost"}},
		{ID: "b", Name: "b", BlockedBy: []string{"a"}},
		{ID: "c", Name: "c"},
	})
	if g.HasCycle("a", "c") {
		t.Fatalf("c is not reachable from a")
	}
	if !g.HasCycle("a", "b") {
		t.Fatalf("b is reachable from a")
	}
}

func TestAddTask_EmptyNameIsNoop(t *testing.T) {
	g := New(nil).WithIDSource(seqIDs())
	if _, err := g.AddTask(TaskSpec{Name: "   "}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName; got %v", err)
	}
	if g.Len() != 0 {
		t.Fatalf("expected no tasks; got %d", g.Len())
	}
}

func TestAddTask_Defaults(t *testing.T) {
	g := New(nil).WithIDSource(seqIDs())
	task, err := g.AddTask(TaskSpec{Name: "  Design  ", Color: "bg-nope"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.ID != "t1" || task.Name != "Design" {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.StartWeek != 1 || task.Duration != 1 || task.Color != model.DefaultColor {
		t.Fatalf("expected defaults; got %+v", task)
	}
	if task.BlockedBy == nil {
		t.Fatalf("expected non-nil blockedBy")
	}
}

func TestDeleteTask_CleansDependencies(t *testing.T) {
	g := New([]model.Task{
		{ID: "x", Name: "x"},
		{ID: "y", Name: "y", BlockedBy: []string{"x"}},
		{ID: "z", Name: "z", BlockedBy: []string{"y", "x"}},
	})
	if err := g.DeleteTask("x"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	for _, task := range g.Tasks() {
		if task.IsBlockedBy("x") {
			t.Fatalf("task %s still blocked by x", task.ID)
		}
	}
	var nf NotFoundError
	if err := g.DeleteTask("x"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError; got %v", err)
	}
}

func TestScenario_ToggleRejectsCycle(t *testing.T) {
	g := New(nil).WithIDSource(seqIDs())
	a, _ := g.AddTask(TaskSpec{Name: "A", StartWeek: 1, Duration: 2})
	b, _ := g.AddTask(TaskSpec{Name: "B", StartWeek: 3, Duration: 1})

	added, err := g.ToggleDependency(b.ID, a.ID)
	if err != nil || !added {
		t.Fatalf("expected B to depend on A; added=%v err=%v", added, err)
	}

	_, err = g.ToggleDependency(a.ID, b.ID)
	var ce CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CycleError; got %v", err)
	}
	gotA, _ := g.Find(a.ID)
	gotB, _ := g.Find(b.ID)
	if len(gotA.BlockedBy) != 0 {
		t.Fatalf("A.blockedBy changed: %v", gotA.BlockedBy)
	}
	if len(gotB.BlockedBy) != 1 || gotB.BlockedBy[0] != a.ID {
		t.Fatalf("B.blockedBy changed: %v", gotB.BlockedBy)
	}

	// Toggling again removes the edge.
	added, err = g.ToggleDependency(b.ID, a.ID)
	if err != nil || added {
		t.Fatalf("expected removal; added=%v err=%v", added, err)
	}
	gotB, _ = g.Find(b.ID)
	if len(gotB.BlockedBy) != 0 {
		t.Fatalf("expected no deps; got %v", gotB.BlockedBy)
	}
}

func TestAddDependency_SelfRejected(t *testing.T) {
	g := chain()
	if err := g.AddDependency("1", "1"); !errors.Is(err, ErrSelfDependency) {
		t.Fatalf("expected ErrSelfDependency; got %v", err)
	}
}

func TestNeighbors_OneHop(t *testing.T) {
	g := chain()
	got := g.Neighbors("2")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("expected [1 3]; got %v", got)
	}
	if got := g.Neighbors("1"); len(got) != 1 || got[0] != "2" {
		t.Fatalf("expected [2]; got %v", got)
	}
}

func TestEdges_SkipDangling(t *testing.T) {
	g := New([]model.Task{
		{ID: "a", Name: "a"},
		{ID: "b", Name: "b", BlockedBy: []string{"a", "gone"}},
	})
	edges := g.Edges()
	if len(edges) != 1 || edges[0] != (Edge{From: "a", To: "b"}) {
		t.Fatalf("unexpected edges %v", edges)
	}
}

func TestReorder(t *testing.T) {
	g := chain()
	if err := g.Reorder("3", "1"); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := fmt.Sprint(ids(g.Tasks())); got != "[3 1 2]" {
		t.Fatalf("unexpected order %s", got)
	}
	if err := g.Reorder("3", ""); err != nil {
		t.Fatalf("Reorder to end: %v", err)
	}
	if got := fmt.Sprint(ids(g.Tasks())); got != "[1 2 3]" {
		t.Fatalf("unexpected order %s", got)
	}
	// Edges are untouched.
	if !g.HasCycle("3", "1") {
		t.Fatalf("expected edges preserved")
	}
}

func TestMove(t *testing.T) {
	g := chain()
	if !g.Move(0, 2) {
		t.Fatalf("expected move")
	}
	if got := fmt.Sprint(ids(g.Tasks())); got != "[2 3 1]" {
		t.Fatalf("unexpected order %s", got)
	}
	if g.Move(0, 9) {
		t.Fatalf("expected out-of-range move to be rejected")
	}
}

func TestEdits(t *testing.T) {
	g := chain()
	if err := g.Rename("1", " "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName; got %v", err)
	}
	if err := g.Rename("1", " First "); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := g.SetColor("1", model.ColorGreen); err != nil {
		t.Fatalf("SetColor: %v", err)
	}
	if err := g.ToggleDone("1"); err != nil {
		t.Fatalf("ToggleDone: %v", err)
	}
	if err := g.SetSchedule("1", 0, -3); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	got, _ := g.Find("1")
	if got.Name != "First" || got.Color != model.ColorGreen || !got.Done || got.StartWeek != 1 || got.Duration != 1 {
		t.Fatalf("unexpected task %+v", got)
	}
}
