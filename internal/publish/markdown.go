package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"planline/internal/graph"
	"planline/internal/model"
	"planline/internal/weeks"
)

type RenderOptions struct {
	ViewMode model.ViewMode
	// IncludeDone keeps finished tasks in the table.
	IncludeDone bool
}

// RenderTimelineMarkdown renders a timeline as a single Markdown document:
// meta, a task table with calendar ranges, the dependency list and notes.
func RenderTimelineMarkdown(rec model.Record, opt RenderOptions) (string, error) {
	start, err := weeks.ParseDate(rec.StartDate)
	if err != nil {
		return "", fmt.Errorf("timeline %s: bad start date %q", rec.ID, rec.StartDate)
	}
	if opt.ViewMode == "" {
		opt.ViewMode = model.ViewWeekly
	}
	g := graph.New(rec.Tasks)
	tasks := g.Tasks()

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = model.DefaultTimelineName
	}
	writeLn("# " + name)
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + rec.ID)
	writeLn("- Start: " + weeks.FormatDDMMYYYY(weeks.WeekToDate(start, 1)))
	writeLn(fmt.Sprintf("- Weeks: %d (%s view)", weeks.TotalWeeks(opt.ViewMode, tasks), opt.ViewMode))
	if !rec.UpdatedAt.IsZero() {
		writeLn("- Updated: " + rec.UpdatedAt.UTC().Format(time.RFC3339))
	}
	writeLn("")

	writeLn("## Tasks")
	writeLn("")
	shown := 0
	for _, t := range tasks {
		if t.Done && !opt.IncludeDone {
			continue
		}
		if shown == 0 {
			writeLn("| # | Task | Weeks | Dates | Blocked by | Done |")
			writeLn("|---|------|-------|-------|------------|------|")
		}
		shown++
		var blockers []string
		for _, b := range g.Blockers(t.ID) {
			blockers = append(blockers, cell(b.Name))
		}
		done := ""
		if t.Done {
			done = "yes"
		}
		writeLn(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |",
			shown,
			cell(t.Name),
			weekSpan(t),
			weeks.FormatRange(start, t.StartWeek, t.Duration),
			strings.Join(blockers, ", "),
			done,
		))
	}
	if shown == 0 {
		writeLn("_No tasks._")
	}
	writeLn("")

	edges := g.Edges()
	if len(edges) > 0 {
		writeLn("## Dependencies")
		writeLn("")
		for _, e := range edges {
			from, _ := g.Find(e.From)
			to, _ := g.Find(e.To)
			writeLn(fmt.Sprintf("- %s → %s", strings.TrimSpace(from.Name), strings.TrimSpace(to.Name)))
		}
		writeLn("")
	}

	if notes := strings.TrimSpace(rec.Notes); notes != "" {
		writeLn("## Notes")
		writeLn("")
		writeLn(notes)
		writeLn("")
	}

	var withNotes []model.Task
	for _, t := range tasks {
		if strings.TrimSpace(t.Notes) != "" && (!t.Done || opt.IncludeDone) {
			withNotes = append(withNotes, t)
		}
	}
	if len(withNotes) > 0 {
		writeLn("## Task notes")
		writeLn("")
		for _, t := range withNotes {
			writeLn("### " + strings.TrimSpace(t.Name))
			writeLn("")
			writeLn(strings.TrimSpace(t.Notes))
			writeLn("")
		}
	}

	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

func weekSpan(t model.Task) string {
	if t.Duration <= 1 {
		return fmt.Sprintf("%d", t.StartWeek)
	}
	return fmt.Sprintf("%d–%d", t.StartWeek, t.EndWeek())
}

// cell makes s safe inside a GFM table cell.
func cell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
