package weeks

import (
	"fmt"
	"math"
	"time"
)

// FormatDDMMYYYY renders d as DD/MM/YYYY.
func FormatDDMMYYYY(d time.Time) string {
	return dateOnly(d).Format("02/01/2006")
}

// FormatRange renders the calendar span covered by a task bar, from the
// Monday of startWeek to the Sunday of its last week.
func FormatRange(start time.Time, startWeek, duration int) string {
	from := WeekToDate(start, startWeek)
	to := from.AddDate(0, 0, duration*7-1)
	return fmt.Sprintf("%s - %s", FormatDDMMYYYY(from), FormatDDMMYYYY(to))
}

// MonthForWeek is the short month label ("Jan 2026") of week n's Monday.
func MonthForWeek(start time.Time, n int) string {
	return WeekToDate(start, n).Format("Jan 2006")
}

// MonthColumns lists the first day of every month from start's month up to
// the Monday of the last grid week.
func MonthColumns(start time.Time, totalWeeks int) []time.Time {
	s := dateOnly(start)
	end := WeekToDate(start, totalWeeks)
	cur := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// BarPosition is a task bar's placement in the monthly view, as percentages of
// the track width.
type BarPosition struct {
	Left  float64
	Width float64
}

const MinBarWidthPercent = 2.0

// MonthlyTaskPosition places a task on a track spanning the given month columns.
func MonthlyTaskPosition(start time.Time, startWeek, duration int, months []time.Time) BarPosition {
	if len(months) == 0 {
		return BarPosition{Width: MinBarWidthPercent}
	}
	trackStart := months[0]
	trackEnd := months[len(months)-1].AddDate(0, 1, 0)
	totalDays := float64(daysBetween(trackStart, trackEnd))
	if totalDays <= 0 {
		return BarPosition{Width: MinBarWidthPercent}
	}
	from := WeekToDate(start, startWeek)
	left := float64(daysBetween(trackStart, from)) / totalDays * 100
	width := float64(duration*7) / totalDays * 100
	return BarPosition{Left: left, Width: math.Max(width, MinBarWidthPercent)}
}
