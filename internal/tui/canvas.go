package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// One terminal cell stands for cellW x cellH diagram-screen pixels, so the
// controllers keep working in the same units they use everywhere else.
const (
	cellW = 8.0
	cellH = 16.0
)

// cellToClient is the screen point at the center of a cell.
func cellToClient(x, y int) (float64, float64) {
	return float64(x)*cellW + cellW/2, float64(y)*cellH + cellH/2
}

func pxToCellX(px float64) int { return int(math.Floor(px / cellW)) }
func pxToCellY(py float64) int { return int(math.Floor(py / cellH)) }

type cell struct {
	r     rune
	style int

	// cont marks the trailing half of a wide rune.
	cont bool
}

// grid is a fixed-size character canvas. Later writes win; out-of-range
// writes are dropped.
type grid struct {
	w, h   int
	cells  []cell
	styles []lipgloss.Style
}

func newGrid(w, h int) *grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	g := &grid{w: w, h: h, cells: make([]cell, w*h)}
	g.styles = []lipgloss.Style{lipgloss.NewStyle()}
	for i := range g.cells {
		g.cells[i] = cell{r: ' '}
	}
	return g
}

// style registers st and returns its id for set/text.
func (g *grid) style(st lipgloss.Style) int {
	g.styles = append(g.styles, st)
	return len(g.styles) - 1
}

func (g *grid) in(x, y int) bool { return x >= 0 && y >= 0 && x < g.w && y < g.h }

func (g *grid) set(x, y int, r rune, style int) {
	if !g.in(x, y) {
		return
	}
	g.cells[y*g.w+x] = cell{r: r, style: style}
}

func (g *grid) at(x, y int) rune {
	if !g.in(x, y) {
		return 0
	}
	return g.cells[y*g.w+x].r
}

// text writes s from (x, y), clipped at the right edge. Wide runes take two
// cells.
func (g *grid) text(x, y int, s string, style int) int {
	for _, r := range s {
		rw := xansi.StringWidth(string(r))
		if rw <= 0 {
			continue
		}
		if x+rw > g.w {
			break
		}
		g.set(x, y, r, style)
		if rw == 2 && g.in(x+1, y) {
			g.cells[y*g.w+x+1] = cell{style: style, cont: true}
		}
		x += rw
	}
	return x
}

// fill paints a rectangle of cells.
func (g *grid) fill(x, y, w, h int, r rune, style int) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			g.set(xx, yy, r, style)
		}
	}
}

// line draws a Bresenham segment between two cells.
func (g *grid) line(x0, y0, x1, y1 int, r rune, style int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for steps := 0; steps <= g.w+g.h+dx-dy; steps++ {
		g.set(x0, y0, r, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// frame draws a rectangle outline.
func (g *grid) frame(x, y, w, h int, b boxGlyphs, style int) {
	if w < 2 || h < 2 {
		return
	}
	for xx := x + 1; xx < x+w-1; xx++ {
		g.set(xx, y, b.H, style)
		g.set(xx, y+h-1, b.H, style)
	}
	for yy := y + 1; yy < y+h-1; yy++ {
		g.set(x, yy, b.V, style)
		g.set(x+w-1, yy, b.V, style)
	}
	g.set(x, y, b.TL, style)
	g.set(x+w-1, y, b.TR, style)
	g.set(x, y+h-1, b.BL, style)
	g.set(x+w-1, y+h-1, b.BR, style)
}

// lines renders each row, styling runs of equal style together.
func (g *grid) lines() []string {
	out := make([]string, g.h)
	var b, run strings.Builder
	for y := 0; y < g.h; y++ {
		b.Reset()
		cur := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur <= 0 {
				b.WriteString(run.String())
			} else {
				b.WriteString(g.styles[cur].Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < g.w; x++ {
			c := g.cells[y*g.w+x]
			if c.cont {
				continue
			}
			if c.style != cur {
				flush()
				cur = c.style
			}
			run.WriteRune(c.r)
		}
		flush()
		out[y] = b.String()
	}
	return out
}

func (g *grid) String() string { return strings.Join(g.lines(), "\n") }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// truncate cuts s to w cells with an ellipsis.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return xansi.Truncate(s, w, "…")
}

// padRight pads (or truncates) s to exactly w cells.
func padRight(s string, w int) string {
	s = truncate(s, w)
	if n := xansi.StringWidth(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}
