package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"planline/internal/model"
)

func sampleRecord() model.Record {
	return model.Record{
		ID:        "tl-test",
		Name:      "Launch | v2",
		StartDate: "2026-03-04",
		Notes:     "Ship *carefully*.",
		UpdatedAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Tasks: []model.Task{
			{ID: "a", Name: "Design", StartWeek: 1, Duration: 2, BlockedBy: []string{}},
			{ID: "b", Name: "Build", StartWeek: 3, Duration: 1, BlockedBy: []string{"a", "gone"}, Notes: "API first"},
			{ID: "c", Name: "Old", StartWeek: 1, Duration: 1, Done: true},
		},
	}
}

func TestRenderTimelineMarkdown_TableAndDependencies(t *testing.T) {
	t.Parallel()

	md, err := RenderTimelineMarkdown(sampleRecord(), RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"# Launch | v2\n",
		"- Start: 02/03/2026",
		"- Weeks: 16 (weekly view)",
		"| 1 | Design | 1–2 | 02/03/2026 - 15/03/2026 |  |  |",
		"| 2 | Build | 3 | 16/03/2026 - 22/03/2026 | Design |  |",
		"## Dependencies\n\n- Design → Build\n",
		"## Notes\n\nShip *carefully*.",
		"### Build\n\nAPI first",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Old") {
		t.Fatalf("done tasks hidden by default:\n%s", md)
	}
	if strings.Contains(md, "gone") {
		t.Fatalf("dangling blockers must be skipped:\n%s", md)
	}
}

func TestRenderTimelineMarkdown_IncludeDoneAndEscaping(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	rec.Tasks[0].Name = "A|B"
	md, err := RenderTimelineMarkdown(rec, RenderOptions{IncludeDone: true, ViewMode: model.ViewMonthly})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(md, `| A\|B |`) {
		t.Fatalf("expected escaped pipe:\n%s", md)
	}
	if !strings.Contains(md, "| 3 | Old |") || !strings.Contains(md, "| yes |") {
		t.Fatalf("expected done task included:\n%s", md)
	}
	if !strings.Contains(md, "- Weeks: 24 (monthly view)") {
		t.Fatalf("expected monthly grid width:\n%s", md)
	}
}

func TestRenderTimelineMarkdown_Empty(t *testing.T) {
	t.Parallel()

	md, err := RenderTimelineMarkdown(model.Record{ID: "tl-x", StartDate: "2026-01-05"}, RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(md, "# My Timeline\n") || !strings.Contains(md, "_No tasks._") {
		t.Fatalf("unexpected output:\n%s", md)
	}
	if _, err := RenderTimelineMarkdown(model.Record{ID: "tl-x", StartDate: "soon"}, RenderOptions{}); err == nil {
		t.Fatalf("expected bad start date rejected")
	}
}

func TestWriteTimeline_RespectsOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res, err := WriteTimeline(sampleRecord(), dir, WriteOptions{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := filepath.Join(dir, "timelines", "tl-test.md")
	if len(res.Written) != 1 || res.Written[0] != want {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected file: %v", err)
	}
	if _, err := WriteTimeline(sampleRecord(), dir, WriteOptions{}); err == nil {
		t.Fatalf("expected refusal without overwrite")
	}
	if _, err := WriteTimeline(sampleRecord(), dir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
