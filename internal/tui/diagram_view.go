package tui

import (
	"math"
	"time"

	"planline/internal/diagram"
	"planline/internal/geom"
	"planline/internal/model"
	"planline/internal/planner"
	"planline/internal/weeks"

	"github.com/charmbracelet/lipgloss"
)

type nodeView struct {
	ID    string
	Name  string
	Dates string
	Color model.Color
	Done  bool

	// Rect is in screen pixels.
	Rect     geom.Rect
	Focused  bool
	Selected bool
	Hovered  bool
	Target   bool
}

type edgeView struct {
	From, To geom.Point
	Hovered  bool
}

type previewView struct {
	From, To geom.Point
	Snapped  bool
}

// diagramScene is everything the diagram pane draws, in screen pixels.
type diagramScene struct {
	Canvas   geom.Rect
	Nodes    []nodeView
	Edges    []edgeView
	Preview  *previewView
	Box      *geom.Rect
	Zoom     float64
	Unplaced int
}

func buildScene(s *planner.Session, canvas geom.Rect) diagramScene {
	tasks := s.Tasks()
	positions := s.Positions()
	start := s.StartDate()

	sc := diagramScene{Canvas: canvas}
	s.Do(func() {
		c := s.Diagram
		sc.Zoom = c.View().Zoom
		size := geom.Point{X: geom.NodeWidth * sc.Zoom, Y: geom.NodeHeight * sc.Zoom}

		var target string
		if p, ok := c.ConnectPreview(); ok {
			pv := &previewView{
				From:    c.DiagramToScreen(p.From),
				To:      c.DiagramToScreen(p.To),
				Snapped: p.Style == diagram.PreviewSnapped,
			}
			target = p.TargetID
			sc.Preview = pv
		}

		for _, e := range c.Edges() {
			sc.Edges = append(sc.Edges, edgeView{
				From:    c.DiagramToScreen(e.Start),
				To:      c.DiagramToScreen(e.End),
				Hovered: e.Hovered,
			})
		}

		for _, t := range tasks {
			pos, ok := positions[t.ID]
			if !ok {
				sc.Unplaced++
				continue
			}
			tl := c.DiagramToScreen(geom.Point(pos))
			sc.Nodes = append(sc.Nodes, nodeView{
				ID:       t.ID,
				Name:     t.Name,
				Dates:    weeks.FormatRange(start, t.StartWeek, t.Duration),
				Color:    t.Color,
				Done:     t.Done,
				Rect:     geom.Rect{X: tl.X, Y: tl.Y, W: size.X, H: size.Y},
				Focused:  c.Selected() == t.ID,
				Selected: c.IsSelected(t.ID),
				Hovered:  c.HoveredNode() == t.ID,
				Target:   target == t.ID,
			})
		}

		if b, ok := c.BoxRect(); ok {
			a := c.DiagramToScreen(geom.Point{X: b.X, Y: b.Y})
			r := geom.Rect{X: a.X, Y: a.Y, W: b.W * sc.Zoom, H: b.H * sc.Zoom}
			sc.Box = &r
		}
	})
	return sc
}

// renderDiagram draws the scene into w x h cells: edges first so nodes cover
// their ends, then the box and the connect preview on top.
func renderDiagram(sc diagramScene, w, h int) []string {
	g := newGrid(w, h)
	ox, oy := sc.Canvas.X, sc.Canvas.Y
	toCell := func(p geom.Point) (int, int) {
		return pxToCellX(p.X - ox), pxToCellY(p.Y - oy)
	}

	edgeStyle := g.style(lipgloss.NewStyle().Foreground(colorEdge))
	edgeHover := g.style(lipgloss.NewStyle().Foreground(colorEdgeHover).Bold(true))
	for _, e := range sc.Edges {
		st := edgeStyle
		if e.Hovered {
			st = edgeHover
		}
		x0, y0 := toCell(e.From)
		x1, y1 := toCell(e.To)
		g.line(x0, y0, x1, y1, glyphEdge(), st)
		hx, hy := toCell(stepBack(e.From, e.To))
		g.set(hx, hy, glyphArrowHead(e.To.X-e.From.X, e.To.Y-e.From.Y), st)
	}

	for _, n := range sc.Nodes {
		drawNode(g, n, ox, oy)
	}

	if sc.Box != nil {
		st := g.style(lipgloss.NewStyle().Foreground(colorAccent))
		x0, y0 := toCell(geom.Point{X: sc.Box.X, Y: sc.Box.Y})
		x1, y1 := toCell(geom.Point{X: sc.Box.X + sc.Box.W, Y: sc.Box.Y + sc.Box.H})
		g.frame(x0, y0, x1-x0+1, y1-y0+1, glyphBox(false), st)
	}

	if p := sc.Preview; p != nil {
		color := colorPreview
		if p.Snapped {
			color = colorSnapped
		}
		st := g.style(lipgloss.NewStyle().Foreground(color).Bold(true))
		x0, y0 := toCell(p.From)
		x1, y1 := toCell(p.To)
		g.line(x0, y0, x1, y1, glyphPreview(p.Snapped), st)
	}
	return g.lines()
}

// stepBack is one cell before `to` along from->to, where the arrow head goes
// so the target's frame doesn't cover it.
func stepBack(from, to geom.Point) geom.Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	l := math.Hypot(dx/cellW, dy/cellH)
	if l <= 1 {
		return to
	}
	return geom.Point{X: to.X - dx/l, Y: to.Y - dy/l}
}

func drawNode(g *grid, n nodeView, ox, oy float64) {
	x0 := pxToCellX(n.Rect.X - ox)
	y0 := pxToCellY(n.Rect.Y - oy)
	x1 := pxToCellX(n.Rect.X+n.Rect.W-ox) - 1
	y1 := pxToCellY(n.Rect.Y+n.Rect.H-oy) - 1
	w := max(1, x1-x0+1)
	h := max(1, y1-y0+1)

	base := styleTask(n.Color)
	if n.Done {
		base = base.Strikethrough(true)
	}
	body := g.style(base)
	g.fill(x0, y0, w, h, ' ', body)

	name := n.Name
	if n.Done {
		name = glyphDone() + " " + name
	}

	if w < 4 || h < 3 {
		g.text(x0, y0, truncate(name, w), body)
		return
	}

	border := base.Strikethrough(false).Foreground(colorTaskFg)
	switch {
	case n.Target:
		border = border.Foreground(colorSnapped).Bold(true)
	case n.Focused, n.Selected:
		border = border.Foreground(colorBorderFocus).Bold(true)
	case n.Hovered:
		border = border.Foreground(colorAccent)
	}
	g.frame(x0, y0, w, h, glyphBox(n.Focused || n.Selected || n.Target), g.style(border))
	g.text(x0+1, y0+1, truncate(name, w-2), g.style(base.Bold(true)))
	if h >= 4 {
		g.text(x0+1, y0+2, truncate(n.Dates, w-2), body)
	}
}

// nudgeSettle is how long after the last arrow key a nudge is treated as
// released. Terminals don't report key-up.
const nudgeSettle = 350 * time.Millisecond

func arrowKey(s string) (diagram.Key, bool) {
	switch s {
	case "up", "shift+up":
		return diagram.KeyUp, true
	case "down", "shift+down":
		return diagram.KeyDown, true
	case "left", "shift+left":
		return diagram.KeyLeft, true
	case "right", "shift+right":
		return diagram.KeyRight, true
	}
	return "", false
}
