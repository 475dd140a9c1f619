package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"planline/internal/client"
	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/layout"
	"planline/internal/livesync"
	"planline/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeBackend struct {
	mu    sync.Mutex
	recs  map[string]model.Record
	saves []model.Snapshot
}

func newFakeBackend(recs ...model.Record) *fakeBackend {
	f := &fakeBackend{recs: map[string]model.Record{}}
	for _, r := range recs {
		f.recs[r.ID] = r
	}
	return f
}

func (f *fakeBackend) List(ctx context.Context) ([]model.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Summary
	for _, r := range f.recs {
		out = append(out, model.Summary{ID: r.ID, Name: r.Name, StartDate: r.StartDate, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (f *fakeBackend) Get(ctx context.Context, id string) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[id]
	if !ok {
		return model.Record{}, &client.APIError{Status: 404, Message: "Timeline not found"}
	}
	return r, nil
}

func (f *fakeBackend) Create(ctx context.Context, in client.CreateInput) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := model.Record{ID: "tl-new", Name: in.Name, StartDate: "2026-03-02"}
	f.recs[r.ID] = r
	return r, nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, id)
	return nil
}

func (f *fakeBackend) Save(ctx context.Context, id string, snap model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, snap)
	return nil
}

func (f *fakeBackend) lastSave(t *testing.T) model.Snapshot {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		t.Fatalf("nothing was saved")
	}
	return f.saves[len(f.saves)-1]
}

type fakeRoom struct {
	mu     sync.Mutex
	joined []string
	left   []string
}

func (r *fakeRoom) Join(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, id)
	return nil
}

func (r *fakeRoom) Leave(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left = append(r.left, id)
	return nil
}

func (r *fakeRoom) EmitSync(ctx context.Context, id string, p livesync.Payload) error { return nil }

var testNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func launchRecord() model.Record {
	return model.Record{
		ID:        "tl-1",
		Name:      "Launch",
		StartDate: "2026-03-02",
		Tasks: []model.Task{
			{ID: "a", Name: "Design", StartWeek: 1, Duration: 2, Color: model.ColorBlue, BlockedBy: []string{}},
			{ID: "b", Name: "Build", StartWeek: 3, Duration: 2, Color: model.ColorGreen, BlockedBy: []string{"a"}},
		},
		NodePositions: model.Positions{"a": {X: 0, Y: 0}, "b": {X: 320, Y: 0}},
		UpdatedAt:     testNow.Add(-2 * time.Hour),
	}
}

// openModel returns a model with the record's timeline open, sized 100x30.
func openModel(t *testing.T, rec model.Record) (*appModel, *fakeBackend) {
	t.Helper()
	api := newFakeBackend(rec)
	m := newAppModel(context.Background(), api, nil, modelOptions{Now: func() time.Time { return testNow }})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(m.openTimeline(rec.ID)())
	if m.screen != screenTimeline || m.sess == nil {
		t.Fatalf("timeline did not open")
	}
	// Gesture tests address nodes by cell, so start from the unpanned view.
	m.sess.Do(m.sess.Diagram.ResetView)
	return m, api
}

func flushSession(t *testing.T, m *appModel) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.sess.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func typeText(m *appModel, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(runes(string(r)))
	}
}

func press(x, y int, b tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: b}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone}
}

func findTaskByID(tasks []model.Task, id string) model.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return model.Task{}
}

func TestPicker_ListsAndOpensTimeline(t *testing.T) {
	room := &fakeRoom{}
	api := newFakeBackend(launchRecord())
	m := newAppModel(context.Background(), api, room, modelOptions{Now: func() time.Time { return testNow }})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m.Update(m.loadList()())

	if len(m.list) != 1 || m.loading {
		t.Fatalf("list = %+v loading=%v", m.list, m.loading)
	}
	view := m.View()
	if !strings.Contains(view, "Launch") || !strings.Contains(view, "2 hours ago") {
		t.Fatalf("picker view missing row:\n%s", view)
	}

	cmd := m.updatePickerKey(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter should open the timeline")
	}
	_, joinCmd := m.Update(cmd())
	if m.screen != screenTimeline || m.sess.Name() != "Launch" {
		t.Fatalf("screen=%v", m.screen)
	}
	if joinCmd == nil {
		t.Fatalf("opening should join the room")
	}
	if msg := joinCmd().(joinedMsg); msg.err != nil || msg.id != "tl-1" {
		t.Fatalf("join = %+v", msg)
	}

	m.Update(runes("q"))
	if m.screen != screenPicker {
		t.Fatalf("q should go back to the picker")
	}
	if len(room.left) != 1 || room.left[0] != "tl-1" {
		t.Fatalf("left = %v", room.left)
	}
}

func TestPicker_OpenMissingTimelineFlashes(t *testing.T) {
	m := newAppModel(context.Background(), newFakeBackend(), nil, modelOptions{})
	m.Update(m.openTimeline("nope")())
	if m.screen != screenPicker || !m.flashErr || m.flash != "Timeline not found" {
		t.Fatalf("flash=%q err=%v screen=%v", m.flash, m.flashErr, m.screen)
	}
}

func TestPicker_NewTimelinePrompt(t *testing.T) {
	api := newFakeBackend()
	m := newAppModel(context.Background(), api, nil, modelOptions{})
	m.Update(runes("n"))
	if m.prompt != promptNewTimeline {
		t.Fatalf("prompt = %v", m.prompt)
	}
	typeText(m, "Roadmap")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter should create")
	}
	m.Update(cmd())
	if m.sess == nil || m.sess.Name() != "Roadmap" {
		t.Fatalf("new timeline not opened")
	}
}

func TestTimeline_AddTaskPromptSaves(t *testing.T) {
	m, api := openModel(t, launchRecord())
	m.Update(runes("a"))
	if m.prompt != promptAddTask {
		t.Fatalf("prompt = %v", m.prompt)
	}
	typeText(m, "Ship")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	flushSession(t, m)

	snap := api.lastSave(t)
	if len(snap.Tasks) != 3 || snap.Tasks[2].Name != "Ship" {
		t.Fatalf("tasks = %+v", snap.Tasks)
	}
	id := snap.Tasks[2].ID
	if _, ok := snap.NodePositions[id]; !ok {
		t.Fatalf("new task has no node")
	}
	if m.selected() != id {
		t.Fatalf("new task should be selected")
	}
}

func TestDiagram_DragMovesNode(t *testing.T) {
	m, api := openModel(t, launchRecord())

	// Node "a" sits at diagram (0,0): cells x 0..19 on screen rows 1..3.
	m.Update(press(2, 2, tea.MouseButtonLeft))
	m.Update(motion(12, 4))
	m.Update(release(12, 4))
	flushSession(t, m)

	got := api.lastSave(t).NodePositions["a"]
	if got != (model.Position{X: 80, Y: 32}) {
		t.Fatalf("position = %+v", got)
	}
	if m.selected() != "a" {
		t.Fatalf("dragged node should be focused")
	}
}

func TestDiagram_ConnectCycleIsRejected(t *testing.T) {
	m, _ := openModel(t, launchRecord())
	msgs := make(chan tea.Msg, 8)
	m.send = func(msg tea.Msg) { msgs <- msg }

	m.selectTask("b")
	m.Update(runes("l"))
	if hint := m.diagramHint(); !strings.Contains(hint, "Linking from Build") {
		t.Fatalf("hint = %q", hint)
	}
	// Click "a": a blocked by b would close a cycle.
	m.Update(press(2, 2, tea.MouseButtonLeft))
	m.Update(release(2, 2))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-msgs:
			n, ok := msg.(notifyMsg)
			if !ok {
				continue
			}
			var cycle graph.CycleError
			if !errors.As(n.err, &cycle) {
				t.Fatalf("notify err = %v", n.err)
			}
			if a := findTaskByID(m.sess.Tasks(), "a"); len(a.BlockedBy) != 0 {
				t.Fatalf("a.BlockedBy = %v", a.BlockedBy)
			}
			return
		case <-deadline:
			t.Fatalf("no cycle notification")
		}
	}
}

func TestDiagram_ArrowMenuDeletesDependency(t *testing.T) {
	m, api := openModel(t, launchRecord())

	// The a->b arrow runs along diagram y=30, screen row 2, cells 20..39.
	m.Update(press(30, 2, tea.MouseButtonRight))
	m.Update(release(30, 2))
	if hint := m.diagramHint(); !strings.Contains(hint, "Remove dependency: Design → Build") {
		t.Fatalf("hint = %q", hint)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	flushSession(t, m)

	if b := findTaskByID(api.lastSave(t).Tasks, "b"); len(b.BlockedBy) != 0 {
		t.Fatalf("b.BlockedBy = %v", b.BlockedBy)
	}
	if m.diagramHint() != "" {
		t.Fatalf("menu should be closed")
	}
}

func TestDiagram_CanvasMenuAddsTaskAtPoint(t *testing.T) {
	m, api := openModel(t, launchRecord())

	m.Update(press(10, 10, tea.MouseButtonRight))
	m.Update(release(10, 10))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.prompt != promptAddTaskHere {
		t.Fatalf("prompt = %v", m.prompt)
	}
	typeText(m, "Test")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	flushSession(t, m)

	snap := api.lastSave(t)
	added := snap.Tasks[len(snap.Tasks)-1]
	if added.Name != "Test" {
		t.Fatalf("tasks = %+v", snap.Tasks)
	}
	// Cell (10,10) is client (84,168): diagram (84,152).
	if got := snap.NodePositions[added.ID]; got != (model.Position{X: 84, Y: 152}) {
		t.Fatalf("position = %+v", got)
	}
}

func TestDiagram_NudgeCommitsAfterSettle(t *testing.T) {
	m, api := openModel(t, launchRecord())
	m.selectTask("a")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if cmd == nil {
		t.Fatalf("nudge should schedule its release")
	}
	gen := m.nudgeGen
	m.Update(nudgeDoneMsg{gen: gen, key: "ArrowRight"})
	flushSession(t, m)

	snap := api.lastSave(t)
	if snap.NodePositions["a"].X != 10 || snap.NodePositions["b"].X != 330 {
		t.Fatalf("positions = %+v", snap.NodePositions)
	}
}

func TestBars_DragRightEdgeResizes(t *testing.T) {
	m, api := openModel(t, launchRecord())
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneBars {
		t.Fatalf("tab should switch to the bar chart")
	}

	l := m.barsLayout()
	a := findTaskByID(m.sess.Tasks(), "a")
	_, x1 := l.span(a)
	y := l.Y + barsHeaderRows
	perWeek := float64(l.trackW()) / float64(l.Total)
	dx := int(2*perWeek + 0.5)

	m.Update(press(x1, y, tea.MouseButtonLeft))
	m.Update(motion(x1+dx, y))
	m.Update(release(x1+dx, y))
	flushSession(t, m)

	got := findTaskByID(api.lastSave(t).Tasks, "a")
	if got.StartWeek != 1 || got.Duration != 4 {
		t.Fatalf("a = start %d duration %d", got.StartWeek, got.Duration)
	}
}

func TestBars_KeysMoveAndReorder(t *testing.T) {
	m, api := openModel(t, launchRecord())
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.selected() != "a" {
		t.Fatalf("down from nothing selects the first row, got %q", m.selected())
	}
	m.Update(runes("L"))
	m.Update(runes(">"))
	m.Update(runes("J"))
	flushSession(t, m)

	snap := api.lastSave(t)
	if snap.Tasks[1].ID != "a" {
		t.Fatalf("order = %s,%s", snap.Tasks[0].ID, snap.Tasks[1].ID)
	}
	if a := snap.Tasks[1]; a.StartWeek != 2 || a.Duration != 3 {
		t.Fatalf("a = start %d duration %d", a.StartWeek, a.Duration)
	}
}

func TestTimeline_EditTaskNotes(t *testing.T) {
	m, api := openModel(t, launchRecord())
	m.selectTask("b")
	m.Update(runes("e"))
	if !m.editingNotes || m.notesTarget != "b" {
		t.Fatalf("editing=%v target=%q", m.editingNotes, m.notesTarget)
	}
	typeText(m, "needs **review**")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	flushSession(t, m)

	if b := findTaskByID(api.lastSave(t).Tasks, "b"); b.Notes != "needs **review**" {
		t.Fatalf("notes = %q", b.Notes)
	}
	if !m.showNotes {
		t.Fatalf("saving notes should leave the panel open")
	}
	if !strings.Contains(m.View(), "review") {
		t.Fatalf("notes panel should render the notes")
	}
}

func TestTimeline_ColorAndDone(t *testing.T) {
	m, api := openModel(t, launchRecord())
	m.selectTask("a")
	m.Update(runes("c"))
	m.Update(runes("x"))
	flushSession(t, m)

	a := findTaskByID(api.lastSave(t).Tasks, "a")
	if a.Color != model.ColorPurple || !a.Done {
		t.Fatalf("a = %+v", a)
	}
	if !strings.Contains(m.flash, "purple") {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestTimeline_RejectsBadStartDate(t *testing.T) {
	m, _ := openModel(t, launchRecord())
	m.Update(runes("s"))
	m.input.SetValue("next week")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.flashErr || !strings.Contains(m.flash, "Invalid date") {
		t.Fatalf("flash = %q", m.flash)
	}
	if m.sess.StartDate().Format("2006-01-02") != "2026-03-02" {
		t.Fatalf("start date changed")
	}
}

func TestTimeline_RemoteSnapshotReplacesState(t *testing.T) {
	m, _ := openModel(t, launchRecord())
	m.Update(remoteMsg{id: "tl-1", payload: livesync.Payload{
		Origin: "someone-else",
		Snapshot: model.Snapshot{
			Name:      "Launch v2",
			StartDate: "2026-04-06",
			Tasks:     []model.Task{{ID: "c", Name: "Only", StartWeek: 1, Duration: 1, BlockedBy: []string{}}},
		},
	}})
	if m.sess.Name() != "Launch v2" || len(m.sess.Tasks()) != 1 {
		t.Fatalf("remote snapshot not applied: %q %d", m.sess.Name(), len(m.sess.Tasks()))
	}
	m.Update(remoteMsg{id: "tl-other", payload: livesync.Payload{Snapshot: model.Snapshot{Name: "Elsewhere"}}})
	if m.sess.Name() != "Launch v2" {
		t.Fatalf("payload for another timeline applied")
	}
}

func TestTimeline_ViewShowsHeaderAndStatus(t *testing.T) {
	m, _ := openModel(t, launchRecord())
	view := m.View()
	for _, want := range []string{"Launch", "Diagram", "02/03/2026", "offline", "Design"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if lines := strings.Split(view, "\n"); len(lines) != 30 {
		t.Fatalf("view has %d lines, want 30", len(lines))
	}
}

func TestNextColorWraps(t *testing.T) {
	last := model.Palette[len(model.Palette)-1]
	if got := nextColor(last); got != model.Palette[0] {
		t.Fatalf("nextColor(%s) = %s", last, got)
	}
	if got := nextColor("bogus"); got != model.DefaultColor {
		t.Fatalf("nextColor(bogus) = %s", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	if renderMarkdown("   ", 40) != "" {
		t.Fatalf("blank notes should render empty")
	}
	if out := renderMarkdown("# Plan\n\nship it", 40); !strings.Contains(out, "ship it") {
		t.Fatalf("rendered = %q", out)
	}
}

func farRecord() model.Record {
	rec := launchRecord()
	rec.Tasks = rec.Tasks[:1]
	rec.NodePositions = model.Positions{"a": {X: 3000, Y: 2000}}
	return rec
}

func diagramView(m *appModel) layout.View {
	var v layout.View
	m.sess.Do(func() { v = m.sess.Diagram.View() })
	return v
}

func TestTimeline_OpenFitsDiagram(t *testing.T) {
	rec := farRecord()
	m := newAppModel(context.Background(), newFakeBackend(rec), nil, modelOptions{Now: func() time.Time { return testNow }})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(m.openTimeline(rec.ID)())

	r := m.canvasRect()
	want := layout.FitToView(rec.NodePositions, geom.Size{W: r.W, H: r.H})
	if got := diagramView(m); got != want {
		t.Fatalf("view = %+v; want %+v", got, want)
	}
	var at geom.Point
	m.sess.Do(func() { at = m.sess.Diagram.DiagramToScreen(geom.Point{X: 3000, Y: 2000}) })
	if at.X < r.X || at.X > r.X+r.W || at.Y < r.Y || at.Y > r.Y+r.H {
		t.Fatalf("node drawn at %+v, outside canvas %+v", at, r)
	}
}

func TestTimeline_FirstResizeRefits(t *testing.T) {
	rec := farRecord()
	m := newAppModel(context.Background(), newFakeBackend(rec), nil, modelOptions{Now: func() time.Time { return testNow }})
	m.Update(m.openTimeline(rec.ID)())
	if m.sess == nil {
		t.Fatalf("timeline did not open")
	}

	m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})
	r := m.canvasRect()
	want := layout.FitToView(rec.NodePositions, geom.Size{W: r.W, H: r.H})
	if got := diagramView(m); got != want {
		t.Fatalf("view after first resize = %+v; want %+v", got, want)
	}

	// Later resizes leave the user's view alone.
	m.sess.Do(m.sess.Diagram.ResetView)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if got := diagramView(m); got != layout.DefaultView {
		t.Fatalf("view changed on a later resize: %+v", got)
	}
}
