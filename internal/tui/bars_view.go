package tui

import (
	"math"
	"strconv"
	"time"

	"planline/internal/model"
	"planline/internal/weeks"

	"github.com/charmbracelet/lipgloss"
)

const (
	barsNameWidth   = 24
	barsHeaderRows  = 2
	barsHandleWidth = 2
)

// barsLayout places the bar chart inside the body area. Coordinates are
// screen cells.
type barsLayout struct {
	X, Y, W, H int
	Mode       model.ViewMode
	Start      time.Time
	Total      int
	Scroll     int
	months     []time.Time
}

func newBarsLayout(x, y, w, h int, mode model.ViewMode, start time.Time, total, scroll int) barsLayout {
	l := barsLayout{X: x, Y: y, W: w, H: h, Mode: mode, Start: start, Total: max(1, total), Scroll: max(0, scroll)}
	if mode == model.ViewMonthly {
		l.months = weeks.MonthColumns(start, l.Total)
	}
	return l
}

func (l barsLayout) nameW() int {
	if l.W < barsNameWidth*2 {
		return max(barsHandleWidth+4, l.W/3)
	}
	return barsNameWidth
}

func (l barsLayout) trackX() int { return l.X + l.nameW() }
func (l barsLayout) trackW() int { return max(1, l.W-l.nameW()) }

func (l barsLayout) visibleRows() int { return max(0, l.H-barsHeaderRows) }

// row is the task index shown on screen row y, or -1.
func (l barsLayout) row(y, n int) int {
	r := y - l.Y - barsHeaderRows
	if r < 0 || r >= l.visibleRows() {
		return -1
	}
	i := r + l.Scroll
	if i >= n {
		return -1
	}
	return i
}

// span is the first and last cell of a task's bar.
func (l barsLayout) span(t model.Task) (int, int) {
	tw := float64(l.trackW())
	var left, right float64
	if l.Mode == model.ViewMonthly {
		pos := weeks.MonthlyTaskPosition(l.Start, t.StartWeek, t.Duration, l.months)
		left = pos.Left / 100 * tw
		right = (pos.Left + pos.Width) / 100 * tw
	} else {
		left = float64(t.StartWeek-1) / float64(l.Total) * tw
		right = float64(t.EndWeek()) / float64(l.Total) * tw
	}
	x0 := l.trackX() + int(math.Floor(left))
	x1 := l.trackX() + int(math.Ceil(right)) - 1
	if x1 < x0 {
		x1 = x0
	}
	return x0, min(x1, l.X+l.W-1)
}

type barHit int

const (
	hitNone barHit = iota
	hitHandle
	hitName
	hitTrack
	hitBody
	hitLeftEdge
	hitRightEdge
)

// hit resolves a cell to a task row and the part of it under the pointer.
func (l barsLayout) hit(tasks []model.Task, x, y int) (int, barHit) {
	i := l.row(y, len(tasks))
	if i < 0 || x < l.X || x >= l.X+l.W {
		return -1, hitNone
	}
	if x < l.X+barsHandleWidth {
		return i, hitHandle
	}
	if x < l.trackX() {
		return i, hitName
	}
	x0, x1 := l.span(tasks[i])
	switch {
	case x < x0 || x > x1:
		return i, hitTrack
	case x1 > x0 && x == x0:
		return i, hitLeftEdge
	case x1 > x0 && x == x1:
		return i, hitRightEdge
	}
	return i, hitBody
}

type barsState struct {
	Selected string
	Dragged  string
	Over     string
}

func renderBars(l barsLayout, tasks []model.Task, st barsState) []string {
	g := newGrid(l.W, l.H)
	at := func(x int) int { return x - l.X }
	tx := at(l.trackX())
	tw := l.trackW()

	chrome := g.style(styleChrome())
	muted := g.style(styleMuted())
	track := g.style(lipgloss.NewStyle().Background(colorBarTrack))

	// Header: month labels, then week numbers (weekly) or a rule.
	if l.Mode == model.ViewMonthly {
		for i, m := range l.months {
			x := tx + i*tw/max(1, len(l.months))
			g.text(x, 0, m.Format("Jan 06"), chrome)
		}
		for x := tx; x < tx+tw; x++ {
			g.text(x, 1, glyphHRule(), muted)
		}
	} else {
		prevMonth := ""
		lastEnd := -1
		every := max(1, int(math.Ceil(3/(float64(tw)/float64(l.Total)))))
		for n := 1; n <= l.Total; n++ {
			x := tx + (n-1)*tw/l.Total
			if mo := weeks.MonthForWeek(l.Start, n); mo != prevMonth && x > lastEnd {
				lastEnd = g.text(x, 0, mo, chrome)
				prevMonth = mo
			}
			if (n-1)%every == 0 {
				g.text(x, 1, strconv.Itoa(n), muted)
			}
		}
	}
	g.text(0, 1, padRight("Task", l.nameW()), chrome)

	for r := 0; r < l.visibleRows(); r++ {
		i := r + l.Scroll
		if i >= len(tasks) {
			break
		}
		t := tasks[i]
		y := barsHeaderRows + r

		handle := muted
		if t.ID == st.Dragged {
			handle = g.style(lipgloss.NewStyle().Foreground(colorAccent).Bold(true))
		}
		g.text(0, y, glyphDragHandle(), handle)

		nameSt := lipgloss.NewStyle()
		switch {
		case t.ID == st.Over:
			nameSt = nameSt.Underline(true).Foreground(colorAccent)
		case t.ID == st.Selected:
			nameSt = styleSelected()
		}
		if t.Done {
			nameSt = nameSt.Strikethrough(true).Faint(true)
		}
		g.text(barsHandleWidth, y, padRight(t.Name, l.nameW()-barsHandleWidth-1), g.style(nameSt))

		g.fill(tx, y, tw, 1, ' ', track)
		x0, x1 := l.span(t)
		x0, x1 = at(x0), at(x1)
		barSt := styleTask(t.Color)
		if t.ID == st.Selected {
			barSt = barSt.Bold(true).Underline(true)
		}
		if t.Done {
			barSt = barSt.Faint(true)
		}
		bar := g.style(barSt)
		g.fill(x0, y, x1-x0+1, 1, glyphBarFill(), bar)
		if x1 > x0 {
			g.set(x0, y, glyphBarHandle(), bar)
			g.set(x1, y, glyphBarHandle(), bar)
		}
		label := strconv.Itoa(t.Duration) + "w"
		if x1-x0-1 >= 6 {
			label = weeks.FormatDDMMYYYY(weeks.WeekToDate(l.Start, t.StartWeek))
		}
		if inner := x1 - x0 - 1; inner > 0 {
			g.text(x0+1, y, truncate(label, inner), bar)
		}
	}
	return g.lines()
}
