package weeks

import (
	"testing"
	"time"

	"planline/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonday_NormalizesBackward(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2026, 3, 2), date(2026, 3, 2)}, // Monday
		{date(2026, 3, 4), date(2026, 3, 2)}, // Wednesday
		{date(2026, 3, 7), date(2026, 3, 2)}, // Saturday
		{date(2026, 3, 8), date(2026, 3, 2)}, // Sunday is day 7 of the prior week
	}
	for _, tc := range cases {
		if got := Monday(tc.in); !got.Equal(tc.want) {
			t.Fatalf("Monday(%s): expected %s; got %s", tc.in.Format(model.DateLayout), tc.want.Format(model.DateLayout), got.Format(model.DateLayout))
		}
	}
}

func TestWeekToDate(t *testing.T) {
	start := date(2026, 3, 4)
	if got := WeekToDate(start, 1); !got.Equal(date(2026, 3, 2)) {
		t.Fatalf("week 1: got %s", got)
	}
	if got := WeekToDate(start, 3); !got.Equal(date(2026, 3, 16)) {
		t.Fatalf("week 3: got %s", got)
	}
}

func TestDateToWeek_RoundTrip(t *testing.T) {
	starts := []time.Time{
		date(2026, 1, 1),
		date(2026, 3, 8),
		date(2024, 2, 29),
		date(2025, 12, 28),
	}
	for _, s := range starts {
		for n := 1; n <= 60; n++ {
			if got := DateToWeek(s, WeekToDate(s, n)); got != n {
				t.Fatalf("start %s week %d: round trip gave %d", s.Format(model.DateLayout), n, got)
			}
		}
	}
}

func TestDateToWeek_BeforeStartIsNonPositive(t *testing.T) {
	start := date(2026, 3, 2)
	if got := DateToWeek(start, date(2026, 3, 1)); got != 0 {
		t.Fatalf("expected week 0; got %d", got)
	}
	if got := DateToWeek(start, date(2026, 2, 20)); got != -1 {
		t.Fatalf("expected week -1; got %d", got)
	}
	if got := DateToWeek(start, date(2026, 3, 8)); got != 1 {
		t.Fatalf("expected sunday in week 1; got %d", got)
	}
}

func TestDurationWeeks(t *testing.T) {
	d := date(2026, 5, 13)
	if got := DurationWeeks(d, d); got != 1 {
		t.Fatalf("same day: expected 1; got %d", got)
	}
	if got := DurationWeeks(d, d.AddDate(0, 0, 7)); got != 1 {
		t.Fatalf("7 days: expected 1; got %d", got)
	}
	if got := DurationWeeks(d, d.AddDate(0, 0, 8)); got != 2 {
		t.Fatalf("8 days: expected 2; got %d", got)
	}
	if got := DurationWeeks(d, d.AddDate(0, 0, -10)); got != 1 {
		t.Fatalf("reversed: expected 1; got %d", got)
	}
}

func TestTotalWeeks(t *testing.T) {
	if got := TotalWeeks(model.ViewWeekly, nil); got != 16 {
		t.Fatalf("weekly empty: expected 16; got %d", got)
	}
	if got := TotalWeeks(model.ViewMonthly, nil); got != 24 {
		t.Fatalf("monthly empty: expected 24; got %d", got)
	}
	tasks := []model.Task{{StartWeek: 20, Duration: 5}}
	if got := TotalWeeks(model.ViewWeekly, tasks); got != 32 {
		t.Fatalf("weekly: expected 32; got %d", got)
	}
	small := []model.Task{{StartWeek: 1, Duration: 2}}
	if got := TotalWeeks(model.ViewMonthly, small); got != 24 {
		t.Fatalf("monthly small: expected base 24; got %d", got)
	}
}

func TestFormatRange(t *testing.T) {
	got := FormatRange(date(2026, 3, 4), 2, 2)
	if got != "09/03/2026 - 22/03/2026" {
		t.Fatalf("unexpected range %q", got)
	}
}

func TestMonthColumns(t *testing.T) {
	cols := MonthColumns(date(2026, 1, 14), 16)
	// Week 16 Monday is 2026-04-27.
	if len(cols) != 4 {
		t.Fatalf("expected 4 months; got %d", len(cols))
	}
	if !cols[0].Equal(date(2026, 1, 1)) || !cols[3].Equal(date(2026, 4, 1)) {
		t.Fatalf("unexpected columns %v", cols)
	}
	if got := MonthForWeek(date(2026, 1, 14), 16); got != "Apr 2026" {
		t.Fatalf("unexpected month label %q", got)
	}
}

func TestMonthlyTaskPosition_WidthFloor(t *testing.T) {
	start := date(2026, 1, 5)
	cols := MonthColumns(start, 200)
	pos := MonthlyTaskPosition(start, 1, 1, cols)
	if pos.Width < MinBarWidthPercent {
		t.Fatalf("width below floor: %v", pos.Width)
	}
	if pos.Left <= 0 {
		t.Fatalf("expected positive left offset; got %v", pos.Left)
	}
}
