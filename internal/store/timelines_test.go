package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"planline/internal/model"
)

func withNow(t *testing.T, ts time.Time) {
	t.Helper()
	old := nowFunc
	nowFunc = func() time.Time { return ts }
	t.Cleanup(func() { nowFunc = old })
}

func TestCreate_Defaults(t *testing.T) {
	withNow(t, time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC))
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()

	rec, err := s.Create(ctx, Origin{Actor: "ann", Source: SourceAPI}, CreateInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Name != model.DefaultTimelineName || rec.StartDate != "2026-05-20" {
		t.Fatalf("unexpected defaults: %+v", rec)
	}
	if rec.Tasks == nil || rec.NodePositions == nil {
		t.Fatalf("expected empty, non-nil collections")
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != rec.ID || !got.UpdatedAt.Equal(rec.UpdatedAt) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, rec)
	}
}

func TestCreate_RejectsBadStartDate(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	_, err := s.Create(context.Background(), Origin{}, CreateInput{StartDate: "05/20/2026"})
	var fe InvalidFieldError
	if !errors.As(err, &fe) || fe.Field != "startDate" {
		t.Fatalf("expected InvalidFieldError; got %v", err)
	}
}

func TestUpdate_PartialAndEmpty(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()
	rec, err := s.Create(ctx, Origin{}, CreateInput{
		Name:      "Launch",
		StartDate: "2026-03-02",
		Tasks:     []model.Task{{ID: "a", Name: "A", StartWeek: 1, Duration: 2, Color: model.ColorRed}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Update(ctx, Origin{}, rec.ID, model.Patch{}); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields; got %v", err)
	}

	notes := "ship it"
	pos := model.Positions{"a": {X: 20, Y: 20}}
	got, err := s.Update(ctx, Origin{}, rec.ID, model.Patch{Notes: &notes, NodePositions: &pos})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Launch" || len(got.Tasks) != 1 || got.Tasks[0].Color != model.ColorRed {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.Notes != "ship it" || got.NodePositions["a"] != (model.Position{X: 20, Y: 20}) {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if got.Tasks[0].BlockedBy == nil {
		t.Fatalf("expected blockedBy normalized to []")
	}
}

func TestSave_OverwritesEverything(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()
	rec, _ := s.Create(ctx, Origin{}, CreateInput{Name: "Old", Notes: "old notes"})

	got, err := s.Save(ctx, Origin{}, rec.ID, model.Snapshot{Name: "New", StartDate: "2026-01-05"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got.Name != "New" || got.Notes != "" || got.StartDate != "2026-01-05" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMissingTimeline(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()
	name := "x"
	if _, err := s.Get(ctx, "tl-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound; got %v", err)
	}
	if _, err := s.Update(ctx, Origin{}, "tl-missing", model.Patch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound; got %v", err)
	}
	if err := s.Delete(ctx, Origin{}, "tl-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound; got %v", err)
	}
}

func TestList_MostRecentFirst(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()

	withNow(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	a, _ := s.Create(ctx, Origin{}, CreateInput{Name: "A"})
	withNow(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	b, _ := s.Create(ctx, Origin{}, CreateInput{Name: "B"})
	withNow(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))
	name := "A2"
	if _, err := s.Update(ctx, Origin{}, a.ID, model.Patch{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].Name != "A2" {
		t.Fatalf("expected summary name updated; got %q", list[0].Name)
	}
}

func TestEventLog_RecordsWrites(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()

	rec, _ := s.Create(ctx, Origin{Actor: "ann", Source: SourceAPI}, CreateInput{Name: "T"})
	name := "Renamed"
	if _, err := s.Update(ctx, Origin{Actor: "bob"}, rec.ID, model.Patch{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Delete(ctx, Origin{Actor: "bob", Source: SourceCLI}, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	evs, err := s.ReadEvents(ctx, 0, 0)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("expected 3 events; got %d", len(evs))
	}
	wantTypes := []string{"timeline.create", "timeline.update", "timeline.delete"}
	for i, ev := range evs {
		if ev.Type != wantTypes[i] || ev.EntityID != rec.ID {
			t.Fatalf("event %d: %+v", i, ev)
		}
	}
	if evs[0].Source != SourceAPI || evs[1].Source != SourceCLI {
		t.Fatalf("unexpected sources: %q %q", evs[0].Source, evs[1].Source)
	}
	var p map[string]any
	if err := json.Unmarshal(evs[1].Payload, &p); err != nil || p["name"] != "Renamed" {
		t.Fatalf("unexpected update payload %s", evs[1].Payload)
	}

	after, err := s.ReadEvents(ctx, evs[0].Seq, 1)
	if err != nil || len(after) != 1 || after[0].Type != "timeline.update" {
		t.Fatalf("unexpected tail read: %+v %v", after, err)
	}
	last, err := s.LastEventSeq(ctx)
	if err != nil || last != evs[2].Seq {
		t.Fatalf("unexpected last seq %d (%v)", last, err)
	}

	forTL, err := s.ReadEventsForTimeline(ctx, rec.ID, 2)
	if err != nil || len(forTL) != 2 || forTL[1].Type != "timeline.delete" {
		t.Fatalf("unexpected timeline events: %+v %v", forTL, err)
	}
}
