package diagram

import (
	"planline/internal/geom"
	"planline/internal/model"
)

// gesture is one in-flight pointer interaction. It owns its own state for its
// lifetime; end tears it down on release, cancel on Escape.
type gesture interface {
	move(c *Controller, p Pointer)
	end(c *Controller)
	cancel(c *Controller)
}

type dragGesture struct {
	grabbed     string
	startClient geom.Point
	start       map[string]model.Position
	moved       bool
}

func (g *dragGesture) move(c *Controller, p Pointer) {
	dx := (p.Client.X - g.startClient.X) / c.view.Zoom
	dy := (p.Client.Y - g.startClient.Y) / c.view.Zoom
	if dx == 0 && dy == 0 && !g.moved {
		return
	}
	g.moved = true
	for id, s := range g.start {
		c.doc.Positions[id] = model.Position{X: s.X + dx, Y: s.Y + dy}
	}
}

func (g *dragGesture) end(c *Controller) {
	if g.moved {
		c.commit.Commit()
	}
}

func (g *dragGesture) cancel(c *Controller) {
	if !g.moved {
		return
	}
	for id, s := range g.start {
		c.doc.Positions[id] = s
	}
}

type panGesture struct {
	// panStart is client - pan at press time.
	panStart geom.Point
}

func (g *panGesture) move(c *Controller, p Pointer) {
	c.didPan = true
	c.view.Pan = p.Client.Sub(g.panStart)
}

func (g *panGesture) end(*Controller)    {}
func (g *panGesture) cancel(*Controller) {}

type boxGesture struct {
	start geom.Point
	cur   geom.Point
}

func (g *boxGesture) move(c *Controller, p Pointer) {
	g.cur = c.ScreenToDiagram(p.Client)
	box := geom.RectFromCorners(g.start, g.cur)
	sel := map[string]bool{}
	for id, pos := range c.doc.Positions {
		if !c.doc.Graph.Has(id) {
			continue
		}
		if geom.NodeRect(geom.Point(pos)).Overlaps(box) {
			sel[id] = true
		}
	}
	c.selection = sel
}

// Selection is not saved state, so a finished box never commits. A box that
// caught a single node focuses it, so the arrow keys can nudge it.
func (g *boxGesture) end(c *Controller) {
	if len(c.selection) != 1 {
		return
	}
	for id := range c.selection {
		c.selected = id
	}
}

func (g *boxGesture) cancel(*Controller) {}

// PointerDown starts the gesture matching the button and the thing under the
// pointer. In connect mode a primary press is the connect click instead.
func (c *Controller) PointerDown(p Pointer) {
	at := c.ScreenToDiagram(p.Client)
	nodeID, onNode := c.NodeAt(at)

	if c.connect != nil {
		if p.Button == ButtonLeft {
			c.connectClick(nodeID, onNode)
		}
		return
	}
	if c.active != nil {
		return
	}

	switch {
	case p.Button == ButtonMiddle, p.Button == ButtonRight && !onNode:
		c.didPan = false
		c.active = &panGesture{panStart: p.Client.Sub(c.view.Pan)}
	case p.Button == ButtonLeft && onNode:
		c.startDrag(nodeID, p.Client)
	case p.Button == ButtonLeft:
		c.closeMenus()
		c.selected = ""
		c.selection = map[string]bool{}
		c.active = &boxGesture{start: at, cur: at}
	}
}

func (c *Controller) startDrag(id string, client geom.Point) {
	c.closeMenus()
	moving := []string{id}
	if c.selection[id] {
		moving = c.Selection()
	}
	c.selected = id
	start := make(map[string]model.Position, len(moving))
	for _, m := range moving {
		pos, ok := c.doc.Positions[m]
		if !ok {
			pos = unplacedStart
		}
		start[m] = pos
	}
	c.active = &dragGesture{grabbed: id, startClient: client, start: start}
}

// PointerMove advances the active gesture, or updates hover and the connect
// preview when nothing is pressed.
func (c *Controller) PointerMove(p Pointer) {
	if c.active != nil {
		c.active.move(c, p)
		return
	}
	at := c.ScreenToDiagram(p.Client)
	if c.connect != nil {
		c.connect.track(c, at)
		return
	}
	if id, ok := c.NodeAt(at); ok {
		c.hoveredNode = id
		c.hoveredEdge = nil
		return
	}
	c.hoveredNode = ""
	if e, ok := c.EdgeAt(at); ok {
		c.hoveredEdge = &e
	} else {
		c.hoveredEdge = nil
	}
}

// PointerUp finishes the active gesture.
func (c *Controller) PointerUp(Pointer) {
	g := c.active
	if g == nil {
		return
	}
	c.active = nil
	g.end(c)
}

// ContextMenu handles the context-menu event that follows a right release.
// It reports whether the event was consumed (the caller suppresses the
// platform menu). A pan that just happened swallows the event once.
func (c *Controller) ContextMenu(p Pointer) bool {
	if c.didPan {
		c.didPan = false
		return true
	}
	at := c.ScreenToDiagram(p.Client)
	if _, onNode := c.NodeAt(at); onNode {
		return false
	}
	c.closeMenus()
	if e, ok := c.EdgeAt(at); ok {
		c.arrowMenu = c.newArrowMenu(e, p.Client)
		return true
	}
	c.canvasMenu = &CanvasMenu{Screen: p.Client, Diagram: at}
	return true
}

// Escape cancels connect mode and any in-flight gesture.
func (c *Controller) Escape() {
	if c.connect != nil {
		c.CancelConnection()
	}
	if g := c.active; g != nil {
		c.active = nil
		g.cancel(c)
	}
	c.closeMenus()
}
