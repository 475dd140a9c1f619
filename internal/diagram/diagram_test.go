package diagram

import (
	"errors"
	"reflect"
	"testing"

	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/layout"
	"planline/internal/model"
)

type harness struct {
	doc      *Doc
	c        *Controller
	commits  int
	notified []error
}

// Canvas sits at screen (10,20); at zoom 1 and no pan, diagram (x,y) is
// screen (x+10, y+20).
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	h.doc = &Doc{
		Graph: graph.New([]model.Task{
			{ID: "a", Name: "Alpha", StartWeek: 1, Duration: 1},
			{ID: "b", Name: "Beta", StartWeek: 1, Duration: 1, BlockedBy: []string{"a"}},
			{ID: "c", Name: "Gamma", StartWeek: 1, Duration: 1, BlockedBy: []string{"b"}},
			{ID: "d", Name: "Delta", StartWeek: 1, Duration: 1},
		}),
		Positions: model.Positions{
			"a": {X: 0, Y: 0},
			"b": {X: 300, Y: 0},
			"c": {X: 600, Y: 200},
			"d": {X: 0, Y: 400},
		},
	}
	h.c = NewController(h.doc,
		StaticBounds{X: 10, Y: 20, W: 800, H: 500},
		CommitFunc(func() { h.commits++ }),
		NotifyFunc(func(err error) { h.notified = append(h.notified, err) }),
	)
	return h
}

func screen(x, y float64) geom.Point { return geom.Point{X: x + 10, Y: y + 20} }

func left(p geom.Point) Pointer  { return Pointer{Client: p, Button: ButtonLeft} }
func right(p geom.Point) Pointer { return Pointer{Client: p, Button: ButtonRight} }

func TestScreenToDiagram(t *testing.T) {
	h := newHarness(t)
	h.c.SetView(layout.View{Pan: geom.Point{X: 30, Y: -10}, Zoom: 2})
	got := h.c.ScreenToDiagram(geom.Point{X: 140, Y: 90})
	if got != (geom.Point{X: 50, Y: 40}) {
		t.Fatalf("unexpected diagram point %+v", got)
	}
	if back := h.c.DiagramToScreen(got); back != (geom.Point{X: 140, Y: 90}) {
		t.Fatalf("unexpected round trip %+v", back)
	}
}

func TestDrag_ScalesByZoomAndCommitsOnce(t *testing.T) {
	h := newHarness(t)
	h.c.SetView(layout.View{Zoom: 2})
	// Diagram (10,10) inside a is screen (30,40) at zoom 2.
	h.c.PointerDown(left(geom.Point{X: 30, Y: 40}))
	if h.c.Selected() != "a" {
		t.Fatalf("expected a selected; got %q", h.c.Selected())
	}
	h.c.PointerMove(left(geom.Point{X: 40, Y: 45}))
	h.c.PointerMove(left(geom.Point{X: 50, Y: 60}))
	if h.commits != 0 {
		t.Fatalf("expected no commit during drag; got %d", h.commits)
	}
	if got := h.doc.Positions["a"]; got != (model.Position{X: 10, Y: 10}) {
		t.Fatalf("unexpected position %+v", got)
	}
	h.c.PointerUp(left(geom.Point{X: 50, Y: 60}))
	if h.commits != 1 {
		t.Fatalf("expected one commit; got %d", h.commits)
	}
	if _, dragging := h.c.Dragging(); dragging {
		t.Fatalf("expected gesture torn down")
	}
}

func TestClickWithoutMoveDoesNotCommit(t *testing.T) {
	h := newHarness(t)
	h.c.PointerDown(left(screen(310, 10)))
	h.c.PointerUp(left(screen(310, 10)))
	if h.commits != 0 {
		t.Fatalf("expected no commit; got %d", h.commits)
	}
	if h.c.Selected() != "b" {
		t.Fatalf("expected b selected")
	}
}

func TestBoxSelect_ThenGroupDrag(t *testing.T) {
	h := newHarness(t)
	h.c.PointerDown(left(screen(-20, -20)))
	if _, ok := h.c.BoxRect(); !ok {
		t.Fatalf("expected box gesture")
	}
	h.c.PointerMove(left(screen(350, 10)))
	if got := h.c.Selection(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected selection %v", got)
	}
	h.c.PointerUp(left(screen(350, 10)))
	if h.commits != 0 {
		t.Fatalf("box selection must not commit")
	}

	h.c.PointerDown(left(screen(50, 20)))
	h.c.PointerMove(left(screen(70, 50)))
	h.c.PointerUp(left(screen(70, 50)))
	if h.doc.Positions["a"] != (model.Position{X: 20, Y: 30}) || h.doc.Positions["b"] != (model.Position{X: 320, Y: 30}) {
		t.Fatalf("expected group move; got a=%+v b=%+v", h.doc.Positions["a"], h.doc.Positions["b"])
	}
	if h.doc.Positions["c"] != (model.Position{X: 600, Y: 200}) {
		t.Fatalf("unselected node moved")
	}
	if h.commits != 1 {
		t.Fatalf("expected one commit; got %d", h.commits)
	}
}

func TestBoxSelect_HalfOpenEdges(t *testing.T) {
	h := newHarness(t)
	h.c.PointerDown(left(screen(170, -50)))
	h.c.PointerMove(left(screen(300, 100)))
	if got := h.c.Selection(); len(got) != 0 {
		t.Fatalf("touching box must not select; got %v", got)
	}
	h.c.PointerMove(left(screen(301, 100)))
	if got := h.c.Selection(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected b; got %v", got)
	}
}

func TestBoxSelect_SingleNodeTakesArrowKeys(t *testing.T) {
	h := newHarness(t)
	h.c.PointerDown(left(screen(-20, 380)))
	h.c.PointerMove(left(screen(40, 420)))
	h.c.PointerUp(left(screen(40, 420)))
	if got := h.c.Selection(); !reflect.DeepEqual(got, []string{"d"}) {
		t.Fatalf("expected d; got %v", got)
	}
	if h.c.Selected() != "d" {
		t.Fatalf("expected d focused; got %q", h.c.Selected())
	}
	if !h.c.KeyDown(KeyRight, Modifiers{}) {
		t.Fatalf("expected arrow consumed")
	}
	h.c.KeyUp(KeyRight)
	if h.doc.Positions["d"] == (model.Position{X: 0, Y: 400}) {
		t.Fatalf("d did not move")
	}
	if h.commits != 1 {
		t.Fatalf("expected one commit; got %d", h.commits)
	}
}

func TestKeyboardNudge_OneHopAndCommitOnKeyUp(t *testing.T) {
	h := newHarness(t)
	h.c.Select("b")
	for i := 0; i < 3; i++ {
		if !h.c.KeyDown(KeyRight, Modifiers{}) {
			t.Fatalf("expected arrow consumed")
		}
	}
	h.c.KeyDown(KeyDown, Modifiers{Shift: true})
	if h.commits != 0 {
		t.Fatalf("expected no commit before key-up")
	}
	want := map[string]model.Position{
		"a": {X: 30, Y: 50},
		"b": {X: 330, Y: 50},
		"c": {X: 630, Y: 250},
		"d": {X: 0, Y: 400},
	}
	for id, p := range want {
		if h.doc.Positions[id] != p {
			t.Fatalf("%s: expected %+v; got %+v", id, p, h.doc.Positions[id])
		}
	}
	h.c.KeyUp(KeyDown)
	h.c.KeyUp(KeyRight)
	if h.commits != 1 {
		t.Fatalf("expected one commit; got %d", h.commits)
	}
}

func TestKeyboardNudge_OnlyDirectNeighbors(t *testing.T) {
	h := newHarness(t)
	h.c.Select("a")
	h.c.KeyDown(KeyUp, Modifiers{})
	if h.doc.Positions["c"] != (model.Position{X: 600, Y: 200}) {
		t.Fatalf("two-hop neighbor moved")
	}
	if h.doc.Positions["b"] != (model.Position{X: 300, Y: -10}) {
		t.Fatalf("direct dependent not moved: %+v", h.doc.Positions["b"])
	}
}

func TestConnect_SnapsAndRejectsCycle(t *testing.T) {
	h := newHarness(t)
	h.c.StartConnection("c")
	h.c.PointerMove(left(screen(500, 450)))
	p, ok := h.c.ConnectPreview()
	if !ok || p.Style != PreviewFree || p.To != (geom.Point{X: 500, Y: 450}) {
		t.Fatalf("unexpected free preview %+v", p)
	}
	h.c.PointerMove(left(screen(20, 20)))
	p, _ = h.c.ConnectPreview()
	if p.Style != PreviewSnapped || p.TargetID != "a" || p.To != (geom.Point{X: 80, Y: 30}) {
		t.Fatalf("unexpected snapped preview %+v", p)
	}

	h.c.PointerDown(left(screen(20, 20)))
	if _, on := h.c.Connecting(); on {
		t.Fatalf("expected connect mode to end")
	}
	var ce graph.CycleError
	if len(h.notified) != 1 || !errors.As(h.notified[0], &ce) {
		t.Fatalf("expected cycle notification; got %v", h.notified)
	}
	a, _ := h.doc.Graph.Find("a")
	if len(a.BlockedBy) != 0 || h.commits != 0 {
		t.Fatalf("expected no change; blockedBy=%v commits=%d", a.BlockedBy, h.commits)
	}

	h.c.StartConnection("d")
	h.c.PointerDown(left(screen(650, 220)))
	c, _ := h.doc.Graph.Find("c")
	if !c.IsBlockedBy("d") || h.commits != 1 {
		t.Fatalf("expected c blocked by d; got %v commits=%d", c.BlockedBy, h.commits)
	}
	if h.c.Anchor() != "d" {
		t.Fatalf("expected anchor d; got %q", h.c.Anchor())
	}
}

func TestConnect_EscapeAndEmptyClickCancel(t *testing.T) {
	h := newHarness(t)
	h.c.StartConnection("a")
	h.c.KeyDown(KeyEscape, Modifiers{})
	if _, on := h.c.Connecting(); on {
		t.Fatalf("escape should cancel")
	}
	h.c.StartConnection("a")
	h.c.PointerDown(left(screen(500, 450)))
	if _, on := h.c.Connecting(); on {
		t.Fatalf("empty click should cancel")
	}
	if h.commits != 0 {
		t.Fatalf("expected no commit")
	}
}

func TestPan_SuppressesContextMenuOnce(t *testing.T) {
	h := newHarness(t)
	h.c.PointerDown(right(geom.Point{X: 500, Y: 400}))
	h.c.PointerMove(right(geom.Point{X: 520, Y: 410}))
	h.c.PointerUp(right(geom.Point{X: 520, Y: 410}))
	if got := h.c.View().Pan; got != (geom.Point{X: 20, Y: 10}) {
		t.Fatalf("unexpected pan %+v", got)
	}
	if !h.c.ContextMenu(right(geom.Point{X: 520, Y: 410})) {
		t.Fatalf("expected context menu suppressed")
	}
	if _, open := h.c.CanvasMenu(); open {
		t.Fatalf("menu must not open after a pan")
	}

	h.c.ContextMenu(right(geom.Point{X: 500, Y: 400}))
	m, open := h.c.CanvasMenu()
	if !open {
		t.Fatalf("expected canvas menu")
	}
	if m.Diagram != (geom.Point{X: 470, Y: 370}) {
		t.Fatalf("unexpected diagram point %+v", m.Diagram)
	}
}

func TestRightPressOnNodeDoesNotPan(t *testing.T) {
	h := newHarness(t)
	h.c.PointerDown(right(screen(10, 10)))
	if h.c.Panning() {
		t.Fatalf("right press on a node must not pan")
	}
	h.c.PointerDown(Pointer{Client: screen(10, 10), Button: ButtonMiddle})
	if !h.c.Panning() {
		t.Fatalf("middle press pans anywhere")
	}
}

func TestArrowMenu_DeleteDependency(t *testing.T) {
	h := newHarness(t)
	h.c.PointerMove(left(screen(230, 40)))
	if e, ok := h.c.HoveredEdge(); !ok || e != (graph.Edge{From: "a", To: "b"}) {
		t.Fatalf("expected hovered a->b; got %+v %v", e, ok)
	}
	h.c.ContextMenu(right(screen(230, 40)))
	m, ok := h.c.ArrowMenu()
	if !ok || m.FromName != "Alpha" || m.ToName != "Beta" {
		t.Fatalf("unexpected arrow menu %+v", m)
	}
	if err := h.c.DeleteMenuDependency(); err != nil {
		t.Fatalf("DeleteMenuDependency: %v", err)
	}
	if _, ok := h.c.ArrowMenu(); ok {
		t.Fatalf("menu should be closed")
	}
	b, _ := h.doc.Graph.Find("b")
	if b.IsBlockedBy("a") || h.commits != 1 {
		t.Fatalf("expected edge removed; %v commits=%d", b.BlockedBy, h.commits)
	}
}

func TestCanvasMenu_AddTaskAlwaysClosesMenu(t *testing.T) {
	h := newHarness(t)
	h.c.ContextMenu(right(screen(400, 300)))
	if _, err := h.c.AddTaskAtMenu(graph.TaskSpec{Name: " "}); !errors.Is(err, graph.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName; got %v", err)
	}
	if _, open := h.c.CanvasMenu(); open {
		t.Fatalf("menu should close on failure")
	}

	h.c.ContextMenu(right(screen(400, 300)))
	task, err := h.c.AddTaskAtMenu(graph.TaskSpec{Name: "Here"})
	if err != nil {
		t.Fatalf("AddTaskAtMenu: %v", err)
	}
	if h.doc.Positions[task.ID] != (model.Position{X: 400, Y: 300}) {
		t.Fatalf("unexpected position %+v", h.doc.Positions[task.ID])
	}
	if h.commits != 1 {
		t.Fatalf("expected one commit; got %d", h.commits)
	}
}

func TestEscapeCancelsDrag(t *testing.T) {
	h := newHarness(t)
	h.c.PointerDown(left(screen(10, 10)))
	h.c.PointerMove(left(screen(110, 10)))
	h.c.KeyDown(KeyEscape, Modifiers{})
	if h.doc.Positions["a"] != (model.Position{X: 0, Y: 0}) {
		t.Fatalf("expected position restored; got %+v", h.doc.Positions["a"])
	}
	h.c.PointerUp(left(screen(110, 10)))
	if h.commits != 0 {
		t.Fatalf("cancelled drag must not commit")
	}
}

func TestZoomClamp(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 40; i++ {
		h.c.ZoomIn()
	}
	if got := h.c.View().Zoom; got != layout.MaxZoom {
		t.Fatalf("expected max zoom; got %v", got)
	}
	if h.c.Wheel(120, Modifiers{}) {
		t.Fatalf("plain wheel must not zoom")
	}
	for i := 0; i < 40; i++ {
		h.c.Wheel(120, Modifiers{Ctrl: true})
	}
	if got := h.c.View().Zoom; got != layout.MinZoom {
		t.Fatalf("expected min zoom; got %v", got)
	}
	h.c.SetZoomPercent(1000)
	if got := h.c.View().Zoom; got != 3 {
		t.Fatalf("expected 300%%; got %v", got)
	}
	h.c.ResetView()
	if h.c.View() != layout.DefaultView {
		t.Fatalf("expected reset view")
	}
}

func TestRemoveNodeKeepsTask(t *testing.T) {
	h := newHarness(t)
	h.c.RemoveNode("d")
	if _, ok := h.doc.Positions["d"]; ok {
		t.Fatalf("expected position removed")
	}
	if !h.doc.Graph.Has("d") {
		t.Fatalf("task must survive")
	}
	if h.commits != 1 {
		t.Fatalf("expected commit")
	}
	if !h.c.PlaceNewNodes() {
		t.Fatalf("expected d to be placed again")
	}
	// d is fourth in the sequence: slot 3 is column 0, row 1.
	if h.doc.Positions["d"] != (model.Position{X: 20, Y: 120}) {
		t.Fatalf("unexpected slot %+v", h.doc.Positions["d"])
	}
}
