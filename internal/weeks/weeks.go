// Package weeks maps between calendar dates and the 1-based, Monday-aligned
// week grid that task bars are drawn on.
package weeks

import (
	"math"
	"time"

	"planline/internal/model"
)

const (
	BaseWeeksWeekly  = 16
	BaseWeeksMonthly = 24

	// TrailingWeeks is the empty buffer kept after the last task.
	TrailingWeeks = 8
)

const day = 24 * time.Hour

// dateOnly drops the clock part, keeping the calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Monday returns the Monday on or before d. Sunday belongs to the week that
// started six days earlier.
func Monday(d time.Time) time.Time {
	d = dateOnly(d)
	wd := int(d.Weekday())
	offset := 1 - wd
	if wd == 0 {
		offset = -6
	}
	return d.AddDate(0, 0, offset)
}

// WeekToDate returns the Monday of week n (week 1 starts on Monday(start)).
func WeekToDate(start time.Time, n int) time.Time {
	return Monday(start).AddDate(0, 0, (n-1)*7)
}

// DateToWeek is the inverse of WeekToDate. Dates before week 1 yield 0 or
// negative week numbers.
func DateToWeek(start, date time.Time) int {
	diff := daysBetween(Monday(start), dateOnly(date))
	return int(math.Floor(float64(diff)/7)) + 1
}

// DurationWeeks is the number of weeks spanned by [start, end], at least 1.
func DurationWeeks(start, end time.Time) int {
	diff := daysBetween(dateOnly(start), dateOnly(end))
	w := int(math.Ceil(float64(diff) / 7))
	if w < 1 {
		return 1
	}
	return w
}

func daysBetween(a, b time.Time) int {
	// Both sides are UTC midnights so the division is exact.
	return int(b.Sub(a) / day)
}

func BaseWeeks(mode model.ViewMode) int {
	switch mode {
	case model.ViewMonthly:
		return BaseWeeksMonthly
	default:
		return BaseWeeksWeekly
	}
}

// MinWeeksNeeded is the last occupied week plus the trailing buffer, or the
// weekly base for an empty timeline.
func MinWeeksNeeded(tasks []model.Task) int {
	if len(tasks) == 0 {
		return BaseWeeksWeekly
	}
	maxEnd := math.MinInt
	for _, t := range tasks {
		if e := t.EndWeek(); e > maxEnd {
			maxEnd = e
		}
	}
	return maxEnd + TrailingWeeks
}

// TotalWeeks is the grid width for a view mode.
func TotalWeeks(mode model.ViewMode, tasks []model.Task) int {
	base := BaseWeeks(mode)
	if need := MinWeeksNeeded(tasks); need > base {
		return need
	}
	return base
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, s, time.UTC)
}

func FormatDate(t time.Time) string {
	return dateOnly(t).Format(model.DateLayout)
}
