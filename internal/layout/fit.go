package layout

import (
	"math"

	"planline/internal/geom"
	"planline/internal/model"
)

const (
	MinZoom = 0.25
	MaxZoom = 3.0

	fitPadding = 50.0
)

// View is the pan offset and zoom scalar relating diagram space to screen.
type View struct {
	Pan  geom.Point
	Zoom float64
}

var DefaultView = View{Zoom: 1}

// Bounds is the bounding box of all nodes, or false when there are none.
func Bounds(positions model.Positions) (geom.Rect, bool) {
	if len(positions) == 0 {
		return geom.Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X+geom.NodeWidth)
		maxY = math.Max(maxY, p.Y+geom.NodeHeight)
	}
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// FitToView centers all nodes in the container. It zooms out as far as
// MinZoom but never zooms in past 1.
func FitToView(positions model.Positions, container geom.Size) View {
	box, ok := Bounds(positions)
	if !ok {
		return DefaultView
	}
	availW := container.W - fitPadding*2
	availH := container.H - fitPadding*2
	zoom := math.Min(availW/box.W, availH/box.H)
	zoom = math.Max(MinZoom, math.Min(1, zoom))
	c := box.Center()
	return View{
		Pan:  geom.Point{X: container.W/2 - c.X*zoom, Y: container.H/2 - c.Y*zoom},
		Zoom: zoom,
	}
}
