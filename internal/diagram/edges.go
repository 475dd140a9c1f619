package diagram

import (
	"planline/internal/geom"
	"planline/internal/graph"
)

// EdgeView is an arrow ready to draw: boundary-to-boundary in diagram space.
type EdgeView struct {
	graph.Edge
	Start   geom.Point
	End     geom.Point
	Hovered bool
}

// Edges lists the drawable arrows. Arrows whose endpoints are missing a task
// or a node position are skipped.
func (c *Controller) Edges() []EdgeView {
	var out []EdgeView
	for _, e := range c.doc.Graph.Edges() {
		fp, ok := c.doc.Positions[e.From]
		if !ok {
			continue
		}
		tp, ok := c.doc.Positions[e.To]
		if !ok {
			continue
		}
		a, b := geom.EdgeSegment(geom.NodeRect(geom.Point(fp)), geom.NodeRect(geom.Point(tp)))
		hovered := c.hoveredEdge != nil && *c.hoveredEdge == e
		out = append(out, EdgeView{Edge: e, Start: a, End: b, Hovered: hovered})
	}
	return out
}

// EdgeAt returns the arrow whose hit line covers the diagram point. The last
// drawn arrow wins.
func (c *Controller) EdgeAt(p geom.Point) (graph.Edge, bool) {
	edges := c.Edges()
	for i := len(edges) - 1; i >= 0; i-- {
		if geom.HitsSegment(p, edges[i].Start, edges[i].End) {
			return edges[i].Edge, true
		}
	}
	return graph.Edge{}, false
}
