package layout

import (
	"reflect"
	"testing"

	"planline/internal/geom"
	"planline/internal/model"
)

func tasks(ids ...string) []model.Task {
	out := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Task{ID: id, Name: id, StartWeek: 1, Duration: 1})
	}
	return out
}

func TestPlaceNewNodes_Grid(t *testing.T) {
	canvas := geom.Size{W: 800, H: 500}
	if got := Columns(canvas.W); got != 3 {
		t.Fatalf("expected 3 columns; got %d", got)
	}
	got, changed := PlaceNewNodes(model.Positions{}, tasks("a", "b", "c", "d"), "", canvas)
	if !changed {
		t.Fatalf("expected changes")
	}
	want := model.Positions{
		"a": {X: 20, Y: 20},
		"b": {X: 220, Y: 20},
		"c": {X: 420, Y: 20},
		"d": {X: 20, Y: 120},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected positions %v", got)
	}
}

func TestPlaceNewNodes_KeepsExistingAndSlotIndex(t *testing.T) {
	in := model.Positions{"a": {X: 5, Y: 5}}
	got, _ := PlaceNewNodes(in, tasks("a", "b"), "", geom.Size{W: 800, H: 500})
	if got["a"] != (model.Position{X: 5, Y: 5}) {
		t.Fatalf("existing position moved: %v", got["a"])
	}
	if got["b"] != (model.Position{X: 220, Y: 20}) {
		t.Fatalf("expected b in slot 1; got %v", got["b"])
	}
	if len(in) != 1 {
		t.Fatalf("input map mutated")
	}
	_, changed := PlaceNewNodes(got, tasks("a", "b"), "", geom.Size{W: 800, H: 500})
	if changed {
		t.Fatalf("expected no change when all are placed")
	}
}

func TestPlaceNewNodes_AnchorFlips(t *testing.T) {
	canvas := geom.Size{W: 800, H: 500}
	in := model.Positions{"src": {X: 100, Y: 100}}
	got, _ := PlaceNewNodes(in, tasks("src", "n"), "src", canvas)
	if got["n"] != (model.Position{X: 160, Y: 220}) {
		t.Fatalf("unexpected anchored position %v", got["n"])
	}

	in = model.Positions{"src": {X: 600, Y: 350}}
	got, _ = PlaceNewNodes(in, tasks("src", "n"), "src", canvas)
	if got["n"] != (model.Position{X: 540, Y: 230}) {
		t.Fatalf("expected flipped position; got %v", got["n"])
	}
}

func TestPlaceNewNodes_NarrowCanvasOneColumn(t *testing.T) {
	got, _ := PlaceNewNodes(model.Positions{}, tasks("a", "b"), "", geom.Size{W: 100, H: 500})
	if got["b"] != (model.Position{X: 20, Y: 120}) {
		t.Fatalf("expected single column; got %v", got["b"])
	}
}

func TestLevels_LongestPath(t *testing.T) {
	ts := []model.Task{
		{ID: "a"},
		{ID: "b", BlockedBy: []string{"a"}},
		{ID: "c", BlockedBy: []string{"b"}},
		{ID: "d", BlockedBy: []string{"a", "c"}},
		{ID: "e", BlockedBy: []string{"ghost"}},
	}
	got := Levels(ts)
	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected levels %v", got)
	}
}

func TestLevels_CycleUnreachableIsZero(t *testing.T) {
	ts := []model.Task{
		{ID: "x", BlockedBy: []string{"y"}},
		{ID: "y", BlockedBy: []string{"x"}},
		{ID: "r"},
		{ID: "k", BlockedBy: []string{"r", "x"}},
	}
	got := Levels(ts)
	if got["x"] != 0 || got["y"] != 0 {
		t.Fatalf("expected cycle members at level 0; got %v", got)
	}
	if got["k"] != 1 {
		t.Fatalf("expected k at level 1; got %v", got)
	}
}

func TestAutoArrange(t *testing.T) {
	ts := []model.Task{
		{ID: "a"},
		{ID: "b", BlockedBy: []string{"a"}},
		{ID: "c", BlockedBy: []string{"a"}},
	}
	got := AutoArrange(ts, 800)
	// Row 0 holds one node centered at (800-160)/2.
	if got["a"] != (model.Position{X: 320, Y: 50}) {
		t.Fatalf("unexpected a %v", got["a"])
	}
	// Row 1: width 360, start 220.
	if got["b"] != (model.Position{X: 220, Y: 210}) || got["c"] != (model.Position{X: 420, Y: 210}) {
		t.Fatalf("unexpected row 1 %v %v", got["b"], got["c"])
	}
	if again := AutoArrange(ts, 800); !reflect.DeepEqual(got, again) {
		t.Fatalf("expected deterministic layout")
	}
}

func TestAutoArrange_WideRowClampsToPadding(t *testing.T) {
	got := AutoArrange(tasks("a", "b", "c", "d", "e"), 800)
	if got["a"].X != 50 {
		t.Fatalf("expected row to start at padding; got %v", got["a"])
	}
}

func TestFitToView(t *testing.T) {
	if got := FitToView(model.Positions{}, geom.Size{W: 800, H: 500}); got != DefaultView {
		t.Fatalf("expected default view; got %+v", got)
	}

	one := model.Positions{"a": {X: 100, Y: 100}}
	got := FitToView(one, geom.Size{W: 800, H: 500})
	if got.Zoom != 1 {
		t.Fatalf("expected zoom capped at 1; got %v", got.Zoom)
	}
	if got.Pan != (geom.Point{X: 220, Y: 120}) {
		t.Fatalf("unexpected pan %+v", got.Pan)
	}

	far := model.Positions{"a": {X: 0, Y: 0}, "b": {X: 10000, Y: 0}}
	got = FitToView(far, geom.Size{W: 800, H: 500})
	if got.Zoom != MinZoom {
		t.Fatalf("expected zoom floor; got %v", got.Zoom)
	}
}
