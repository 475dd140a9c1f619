package timelinebar

import (
	"fmt"
	"testing"

	"planline/internal/graph"
	"planline/internal/model"
)

type counter struct{ n int }

func (c *counter) Commit() { c.n++ }

// 20 weeks on a 1000px track: 50px per week.
func setup(t *testing.T, tasks ...model.Task) (*Controller, *graph.Graph, *counter) {
	t.Helper()
	g := graph.New(tasks)
	cnt := &counter{}
	c := NewController(func() *graph.Graph { return g }, TrackFunc(func(string) float64 { return 1000 }), cnt)
	return c, g, cnt
}

func TestWeeksDelta_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		dx   float64
		want int
	}{
		{0, 0},
		{24, 0},
		{25, 1},
		{-25, 0},
		{-26, -1},
		{130, 3},
	}
	for _, tc := range cases {
		if got := WeeksDelta(tc.dx, 1000, 20); got != tc.want {
			t.Fatalf("dx=%v: expected %d; got %d", tc.dx, tc.want, got)
		}
	}
}

func TestMoveStart_Clamps(t *testing.T) {
	if got := MoveStart(3, 4, -10, 20); got != 1 {
		t.Fatalf("expected clamp to 1; got %d", got)
	}
	if got := MoveStart(3, 4, 100, 20); got != 17 {
		t.Fatalf("expected clamp to 17; got %d", got)
	}
}

func TestResizeLeft_CollapsesAtOriginalEnd(t *testing.T) {
	s, d := ResizeLeft(5, 3, 1)
	if s != 6 || d != 2 {
		t.Fatalf("expected (6,2); got (%d,%d)", s, d)
	}
	s, d = ResizeLeft(5, 3, 10)
	if s != 7 || d != 1 {
		t.Fatalf("expected collapse to (7,1); got (%d,%d)", s, d)
	}
	s, d = ResizeLeft(2, 3, -5)
	if s != 1 || d != 8 {
		t.Fatalf("expected (1,8); got (%d,%d)", s, d)
	}
}

func TestResizeRight_Clamps(t *testing.T) {
	if got := ResizeRight(5, 3, -10, 20); got != 1 {
		t.Fatalf("expected 1; got %d", got)
	}
	if got := ResizeRight(5, 3, 100, 20); got != 16 {
		t.Fatalf("expected 16; got %d", got)
	}
}

func TestMoveGesture_CommitsOnceOnRelease(t *testing.T) {
	c, g, cnt := setup(t, model.Task{ID: "a", Name: "a", StartWeek: 2, Duration: 3})
	if !c.BeginMove("a", 100, 20) {
		t.Fatalf("expected gesture")
	}
	c.PointerMove(160)
	c.PointerMove(250)
	if cnt.n != 0 {
		t.Fatalf("expected no commit during move")
	}
	got, _ := g.Find("a")
	if got.StartWeek != 5 || got.Duration != 3 {
		t.Fatalf("unexpected task %+v", got)
	}
	c.PointerUp()
	if cnt.n != 1 {
		t.Fatalf("expected one commit; got %d", cnt.n)
	}
	if id, _, _ := c.Active(); id != "" {
		t.Fatalf("expected gesture cleared")
	}
}

func TestResizeGesture_UsesPressTimeState(t *testing.T) {
	c, g, _ := setup(t, model.Task{ID: "a", Name: "a", StartWeek: 5, Duration: 3})
	c.BeginResize("a", EdgeLeft, 0, 20)
	c.PointerMove(50)
	c.PointerMove(100)
	got, _ := g.Find("a")
	// Delta is measured from press time, not accumulated.
	if got.StartWeek != 7 || got.Duration != 1 {
		t.Fatalf("unexpected task %+v", got)
	}
	c.Cancel()
	got, _ = g.Find("a")
	if got.StartWeek != 5 || got.Duration != 3 {
		t.Fatalf("expected cancel to restore; got %+v", got)
	}
}

func TestUnchangedGestureDoesNotCommit(t *testing.T) {
	c, _, cnt := setup(t, model.Task{ID: "a", Name: "a", StartWeek: 1, Duration: 1})
	c.BeginResize("a", EdgeRight, 0, 20)
	c.PointerMove(10)
	c.PointerUp()
	if cnt.n != 0 {
		t.Fatalf("expected no commit; got %d", cnt.n)
	}
}

func TestDrop_Splices(t *testing.T) {
	c, g, cnt := setup(t,
		model.Task{ID: "a", Name: "a"},
		model.Task{ID: "b", Name: "b"},
		model.Task{ID: "c", Name: "c"},
	)
	c.BeginReorder("c")
	c.DragOver("c")
	if _, over := c.Reordering(); over != "" {
		t.Fatalf("dragging over itself must not mark a target")
	}
	c.DragOver("a")
	if !c.Drop("a") {
		t.Fatalf("expected drop")
	}
	var order []string
	for _, task := range g.Tasks() {
		order = append(order, task.ID)
	}
	if fmt.Sprint(order) != "[c a b]" {
		t.Fatalf("unexpected order %v", order)
	}
	if cnt.n != 1 {
		t.Fatalf("expected one commit; got %d", cnt.n)
	}
	if c.Drop("b") {
		t.Fatalf("drop without a drag must be ignored")
	}
}
