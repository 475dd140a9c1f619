// Package diagram is the pointer/keyboard interaction controller for the
// dependency diagram: node drag, box selection, connect mode, pan/zoom, arrow
// hit-testing and the two context menus.
//
// The controller is driven by plain input events in screen space. It never
// looks anything up globally: the canvas rectangle comes from a
// BoundsProvider, persistence goes through a Committer, and user-facing
// rejections go through a Notifier.
package diagram

import (
	"math"

	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/layout"
	"planline/internal/model"
)

// Doc is the shared mutable state the controller edits. The owner may swap
// Graph or Positions wholesale (remote snapshot); the controller always reads
// through the pointer.
type Doc struct {
	Graph     *graph.Graph
	Positions model.Positions
}

// BoundsProvider reports the canvas element's rectangle in screen space.
type BoundsProvider interface {
	CanvasRect() geom.Rect
}

// BoundsFunc adapts a function to BoundsProvider.
type BoundsFunc func() geom.Rect

func (f BoundsFunc) CanvasRect() geom.Rect { return f() }

// StaticBounds is a fixed canvas rect.
type StaticBounds geom.Rect

func (b StaticBounds) CanvasRect() geom.Rect { return geom.Rect(b) }

// Committer persists and broadcasts the current doc. It is called once per
// finished gesture, never per intermediate move.
type Committer interface {
	Commit()
}

type CommitFunc func()

func (f CommitFunc) Commit() { f() }

// Notifier surfaces a rejected action to the user.
type Notifier interface {
	Notify(err error)
}

type NotifyFunc func(err error)

func (f NotifyFunc) Notify(err error) { f(err) }

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

type Modifiers struct {
	Shift bool
	Ctrl  bool
	Meta  bool
}

// Pointer is a mouse event at a screen ("client") coordinate.
type Pointer struct {
	Client geom.Point
	Button Button
	Mods   Modifiers
}

const (
	ZoomStep = 0.1

	nudgeStep      = 10.0
	nudgeStepLarge = 50.0
)

// Fallback start point for dragging a node that has no stored position.
var unplacedStart = model.Position{X: 100, Y: 100}

type Controller struct {
	doc    *Doc
	bounds BoundsProvider
	commit Committer
	notify Notifier

	view layout.View

	selected    string
	selection   map[string]bool
	hoveredNode string
	hoveredEdge *graph.Edge

	active  gesture
	connect *connectSession
	didPan  bool
	nudging bool
	anchor  string

	arrowMenu  *ArrowMenu
	canvasMenu *CanvasMenu
}

func NewController(doc *Doc, bounds BoundsProvider, commit Committer, notify Notifier) *Controller {
	if commit == nil {
		commit = CommitFunc(func() {})
	}
	if notify == nil {
		notify = NotifyFunc(func(error) {})
	}
	return &Controller{
		doc:       doc,
		bounds:    bounds,
		commit:    commit,
		notify:    notify,
		view:      layout.DefaultView,
		selection: map[string]bool{},
	}
}

func (c *Controller) canvas() geom.Rect {
	if c.bounds == nil {
		return geom.Rect{W: geom.DefaultCanvasWidth, H: geom.DefaultCanvasHeight}
	}
	r := c.bounds.CanvasRect()
	if r.W <= 0 || r.H <= 0 {
		r.W, r.H = geom.DefaultCanvasWidth, geom.DefaultCanvasHeight
	}
	return r
}

// CanvasSize is the container size used for placement, arrange and fit.
func (c *Controller) CanvasSize() geom.Size {
	r := c.canvas()
	return geom.Size{W: r.W, H: r.H}
}

// ScreenToDiagram converts a client coordinate to diagram space.
func (c *Controller) ScreenToDiagram(client geom.Point) geom.Point {
	r := c.canvas()
	return geom.Point{
		X: (client.X - r.X - c.view.Pan.X) / c.view.Zoom,
		Y: (client.Y - r.Y - c.view.Pan.Y) / c.view.Zoom,
	}
}

// DiagramToScreen is the inverse of ScreenToDiagram.
func (c *Controller) DiagramToScreen(p geom.Point) geom.Point {
	r := c.canvas()
	return geom.Point{
		X: p.X*c.view.Zoom + c.view.Pan.X + r.X,
		Y: p.Y*c.view.Zoom + c.view.Pan.Y + r.Y,
	}
}

func (c *Controller) View() layout.View { return c.view }

func (c *Controller) SetView(v layout.View) {
	v.Zoom = clampZoom(v.Zoom)
	c.view = v
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) || z == 0 {
		return 1
	}
	return math.Max(layout.MinZoom, math.Min(layout.MaxZoom, z))
}

func (c *Controller) ZoomIn()  { c.view.Zoom = clampZoom(c.view.Zoom + ZoomStep) }
func (c *Controller) ZoomOut() { c.view.Zoom = clampZoom(c.view.Zoom - ZoomStep) }

// SetZoomPercent applies a typed zoom value, clamped to 25..300 percent.
func (c *Controller) SetZoomPercent(pct float64) {
	c.view.Zoom = clampZoom(math.Max(25, math.Min(300, pct)) / 100)
}

func (c *Controller) ResetView() { c.view = layout.DefaultView }

func (c *Controller) FitToView() {
	c.view = layout.FitToView(c.doc.Positions, c.CanvasSize())
}

// Wheel zooms by one step when Ctrl or Meta is held. It reports whether the
// event was consumed.
func (c *Controller) Wheel(deltaY float64, mods Modifiers) bool {
	if !mods.Ctrl && !mods.Meta {
		return false
	}
	if deltaY > 0 {
		c.ZoomOut()
	} else {
		c.ZoomIn()
	}
	return true
}

// NodeAt returns the topmost positioned node containing the diagram point.
// Later tasks in the sequence are drawn on top.
func (c *Controller) NodeAt(p geom.Point) (string, bool) {
	tasks := c.doc.Graph.Tasks()
	for i := len(tasks) - 1; i >= 0; i-- {
		pos, ok := c.doc.Positions[tasks[i].ID]
		if !ok {
			continue
		}
		if geom.NodeRect(geom.Point(pos)).Contains(p) {
			return tasks[i].ID, true
		}
	}
	return "", false
}

// Selected is the single focused node (keyboard nudge target).
func (c *Controller) Selected() string { return c.selected }

// Selection returns the multi-selection in task order.
func (c *Controller) Selection() []string {
	var out []string
	for _, t := range c.doc.Graph.Tasks() {
		if c.selection[t.ID] {
			out = append(out, t.ID)
		}
	}
	return out
}

func (c *Controller) IsSelected(id string) bool {
	return c.selected == id || c.selection[id]
}

// Select focuses one node and clears the multi-selection.
func (c *Controller) Select(id string) {
	c.selected = id
	c.selection = map[string]bool{}
}

func (c *Controller) ClearSelection() {
	c.selected = ""
	c.selection = map[string]bool{}
}

func (c *Controller) HoveredNode() string { return c.hoveredNode }

func (c *Controller) HoveredEdge() (graph.Edge, bool) {
	if c.hoveredEdge == nil {
		return graph.Edge{}, false
	}
	return *c.hoveredEdge, true
}

// Dragging is the node grabbed by the active drag gesture, if any.
func (c *Controller) Dragging() (string, bool) {
	if d, ok := c.active.(*dragGesture); ok {
		return d.grabbed, true
	}
	return "", false
}

func (c *Controller) Panning() bool {
	_, ok := c.active.(*panGesture)
	return ok
}

// BoxRect is the live selection rectangle in diagram space.
func (c *Controller) BoxRect() (geom.Rect, bool) {
	if b, ok := c.active.(*boxGesture); ok {
		return geom.RectFromCorners(b.start, b.cur), true
	}
	return geom.Rect{}, false
}

// RemoveNode drops the node from the diagram. The task itself stays.
func (c *Controller) RemoveNode(id string) {
	if _, ok := c.doc.Positions[id]; !ok {
		return
	}
	delete(c.doc.Positions, id)
	if c.selected == id {
		c.selected = ""
	}
	delete(c.selection, id)
	c.commit.Commit()
}

// AutoArrange replaces every position with the level layout.
func (c *Controller) AutoArrange() {
	c.doc.Positions = layout.AutoArrange(c.doc.Graph.Tasks(), c.CanvasSize().W)
	c.commit.Commit()
}

// PlaceNewNodes gives a position to every task without one, offset from the
// anchor when it is set and positioned. It reports whether anything was
// placed (and committed); the anchor is used up by a placement.
func (c *Controller) PlaceNewNodes() bool {
	next, changed := layout.PlaceNewNodes(c.doc.Positions, c.doc.Graph.Tasks(), c.anchor, c.CanvasSize())
	if !changed {
		return false
	}
	c.doc.Positions = next
	c.anchor = ""
	c.commit.Commit()
	return true
}

// ContentSize is the scrollable diagram surface for the current nodes.
func (c *Controller) ContentSize() geom.Size {
	pts := make([]geom.Point, 0, len(c.doc.Positions))
	for _, p := range c.doc.Positions {
		pts = append(pts, geom.Point(p))
	}
	return geom.ContentSize(pts)
}

// Forget drops selection, hover and menu state that refers to tasks or
// nodes that no longer exist. Call after the doc is replaced.
func (c *Controller) Forget() {
	alive := func(id string) bool {
		_, ok := c.doc.Positions[id]
		return ok && c.doc.Graph.Has(id)
	}
	if c.selected != "" && !alive(c.selected) {
		c.selected = ""
	}
	for id := range c.selection {
		if !alive(id) {
			delete(c.selection, id)
		}
	}
	if c.hoveredNode != "" && !alive(c.hoveredNode) {
		c.hoveredNode = ""
	}
	c.hoveredEdge = nil
	if c.arrowMenu != nil && (!c.doc.Graph.Has(c.arrowMenu.Edge.From) || !c.doc.Graph.Has(c.arrowMenu.Edge.To)) {
		c.arrowMenu = nil
	}
	if c.connect != nil && !c.doc.Graph.Has(c.connect.from) {
		c.CancelConnection()
	}
}
