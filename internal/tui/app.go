package tui

import (
	"context"
	"errors"
	"time"

	"planline/internal/client"
	"planline/internal/diagram"
	"planline/internal/geom"
	"planline/internal/livesync"
	"planline/internal/logging"
	"planline/internal/model"
	"planline/internal/planner"
	"planline/internal/timelinebar"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Backend is the timeline API the TUI reads and saves through.
type Backend interface {
	List(ctx context.Context) ([]model.Summary, error)
	Get(ctx context.Context, id string) (model.Record, error)
	Create(ctx context.Context, in client.CreateInput) (model.Record, error)
	Delete(ctx context.Context, id string) error
	Save(ctx context.Context, timelineID string, snap model.Snapshot) error
}

// Room is the live channel of the open timeline.
type Room interface {
	Join(ctx context.Context, timelineID string) error
	Leave(ctx context.Context, timelineID string) error
	EmitSync(ctx context.Context, timelineID string, p livesync.Payload) error
}

type screen int

const (
	screenPicker screen = iota
	screenTimeline
)

type pane int

const (
	paneDiagram pane = iota
	paneBars
)

type promptKind int

const (
	promptNone promptKind = iota
	promptNewTimeline
	promptAddTask
	promptAddTaskHere
	promptRenameTask
	promptRenameTimeline
	promptStartDate
	promptZoom
	promptDeleteTask
	promptDeleteTimeline
)

type barGesture int

const (
	barGestureNone barGesture = iota
	barGestureEdit
	barGestureReorder
)

type (
	timelinesMsg struct {
		items []model.Summary
		err   error
	}
	openedMsg struct {
		rec model.Record
		err error
	}
	createdMsg struct {
		rec model.Record
		err error
	}
	deletedMsg struct {
		id  string
		err error
	}
	joinedMsg struct {
		id  string
		err error
	}
	remoteMsg struct {
		id      string
		payload livesync.Payload
	}
	changedMsg      struct{}
	notifyMsg       struct{ err error }
	flashExpiredMsg struct{ gen int }
	nudgeDoneMsg    struct {
		gen int
		key diagram.Key
	}
	clockMsg time.Time
)

const (
	flashTTL       = 3 * time.Second
	clockInterval  = 15 * time.Second
	requestTimeout = 15 * time.Second
	notesMaxWidth  = 44
)

type appModel struct {
	ctx   context.Context
	api   Backend
	room  Room
	mode  model.ViewMode
	log   *logging.Logger
	now   func() time.Time
	label string

	// send delivers a message to the running program. Callbacks fire inside
	// Update, so delivery must not block.
	send func(tea.Msg)

	width, height int
	sized         bool
	refit         bool
	screen        screen
	pane          pane

	list    []model.Summary
	cursor  int
	loading bool
	openID  string

	sess       *planner.Session
	barsScroll int
	pressed    tea.MouseButton
	barGesture barGesture
	nudgeGen   int

	showNotes    bool
	editingNotes bool
	notesTarget  string
	notes        textarea.Model

	prompt        promptKind
	input         textinput.Model
	pendingDelete string

	flash    string
	flashErr bool
	flashGen int

	pickerKeys pickerKeyMap
	keys       timelineKeyMap
	help       help.Model
}

type modelOptions struct {
	ViewMode   model.ViewMode
	TimelineID string
	Log        *logging.Logger
	Now        func() time.Time

	// Label names the server in the picker title.
	Label string
}

func newAppModel(ctx context.Context, api Backend, room Room, opts modelOptions) *appModel {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.ViewMode == "" {
		opts.ViewMode = model.ViewWeekly
	}
	in := textinput.New()
	in.CharLimit = 200
	in.Width = 40

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	return &appModel{
		ctx:        ctx,
		api:        api,
		room:       room,
		mode:       opts.ViewMode,
		log:        opts.Log,
		now:        opts.Now,
		label:      opts.Label,
		openID:     opts.TimelineID,
		width:      100,
		height:     30,
		loading:    true,
		input:      in,
		notes:      ta,
		pickerKeys: newPickerKeyMap(),
		keys:       newTimelineKeyMap(),
		help:       help.New(),
	}
}

func (m *appModel) post(msg tea.Msg) {
	if m.send != nil {
		go m.send(msg)
	}
}

func (m *appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadList(), m.tick()}
	if m.openID != "" {
		cmds = append(cmds, m.openTimeline(m.openID))
	}
	return tea.Batch(cmds...)
}

func (m *appModel) tick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func (m *appModel) requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, requestTimeout)
}

func (m *appModel) loadList() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		items, err := api.List(ctx)
		return timelinesMsg{items: items, err: err}
	}
}

func (m *appModel) openTimeline(id string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		rec, err := api.Get(ctx, id)
		return openedMsg{rec: rec, err: err}
	}
}

func (m *appModel) createTimeline(name string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		rec, err := api.Create(ctx, client.CreateInput{Name: name})
		return createdMsg{rec: rec, err: err}
	}
}

func (m *appModel) deleteTimeline(id string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		return deletedMsg{id: id, err: api.Delete(ctx, id)}
	}
}

func (m *appModel) join(id string) tea.Cmd {
	room := m.room
	if room == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		return joinedMsg{id: id, err: room.Join(ctx, id)}
	}
}

func (m *appModel) setFlash(text string, isErr bool) tea.Cmd {
	m.flashGen++
	gen := m.flashGen
	m.flash, m.flashErr = text, isErr
	return tea.Tick(flashTTL, func(time.Time) tea.Msg { return flashExpiredMsg{gen: gen} })
}

func (m *appModel) flashError(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return m.setFlash(err.Error(), true)
}

// Layout. Row 0 is the header, the last two rows are the message and
// status lines, everything between is the body.

func (m *appModel) bodyHeight() int { return max(1, m.height-3) }

func (m *appModel) notesWidth() int {
	if !m.showNotes && !m.editingNotes {
		return 0
	}
	return min(notesMaxWidth, max(20, m.width/3))
}

func (m *appModel) bodyWidth() int {
	if w := m.notesWidth(); w > 0 {
		return max(1, m.width-w-1)
	}
	return max(1, m.width)
}

// canvasRect is the diagram pane in screen pixels. It is read by the diagram
// controller under the session lock, so it must not touch the session.
func (m *appModel) canvasRect() geom.Rect {
	return geom.Rect{
		X: 0,
		Y: cellH,
		W: float64(m.bodyWidth()) * cellW,
		H: float64(m.bodyHeight()) * cellH,
	}
}

func (m *appModel) trackWidth(string) float64 {
	l := barsLayout{W: m.bodyWidth()}
	return float64(l.trackW())
}

func (m *appModel) barsLayout() barsLayout {
	s := m.sess
	return newBarsLayout(0, 1, m.bodyWidth(), m.bodyHeight(), s.ViewMode(), s.StartDate(), s.TotalWeeks(), m.barsScroll)
}

func (m *appModel) startSession(rec model.Record) tea.Cmd {
	m.closeSession()
	opts := planner.Options{
		Persister: m.api,
		Bounds:    diagram.BoundsFunc(m.canvasRect),
		Track:     timelinebar.TrackFunc(m.trackWidth),
		ViewMode:  m.mode,
		OnChange:  func() { m.post(changedMsg{}) },
		Notify:    func(err error) { m.post(notifyMsg{err: err}) },
		Now:       m.now,
	}
	if m.room != nil {
		opts.Broadcaster = m.room
	}
	m.sess = planner.Open(rec, opts)
	m.screen = screenTimeline
	m.pane = paneDiagram
	m.barsScroll = 0
	m.prompt = promptNone
	m.editingNotes = false
	m.sess.Do(func() {
		m.sess.Diagram.PlaceNewNodes()
		m.sess.Diagram.FitToView()
	})
	// Fitted against the default size; fit again once the terminal reports.
	m.refit = !m.sized
	m.log.Infof("opened timeline=%s tasks=%d", rec.ID, len(rec.Tasks))
	return m.join(rec.ID)
}

// closeSession waits for pending saves and leaves the room.
func (m *appModel) closeSession() {
	s := m.sess
	if s == nil {
		return
	}
	m.sess = nil
	// Pending saves still go out when the program is shutting down.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.ctx), requestTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		m.log.Warnf("flush timeline=%s err=%v", s.ID(), err)
	}
	if m.room != nil {
		if err := m.room.Leave(ctx, s.ID()); err != nil {
			m.log.Debugf("leave timeline=%s err=%v", s.ID(), err)
		}
	}
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sized = true
		m.help.Width = msg.Width
		m.resizeNotes()
		if m.refit && m.sess != nil {
			m.refit = false
			m.sess.Do(m.sess.Diagram.FitToView)
		}
		return m, nil

	case timelinesMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.flashError(msg.err)
		}
		m.list = msg.items
		m.cursor = min(m.cursor, max(0, len(m.list)-1))
		return m, nil

	case openedMsg:
		if msg.err != nil {
			if client.IsNotFound(msg.err) {
				return m, tea.Batch(m.setFlash("Timeline not found", true), m.loadList())
			}
			return m, m.flashError(msg.err)
		}
		return m, m.startSession(msg.rec)

	case createdMsg:
		if msg.err != nil {
			return m, m.flashError(msg.err)
		}
		return m, tea.Batch(m.startSession(msg.rec), m.loadList())

	case deletedMsg:
		if msg.err != nil {
			return m, m.flashError(msg.err)
		}
		return m, tea.Batch(m.setFlash("Timeline deleted", false), m.loadList())

	case joinedMsg:
		if msg.err != nil {
			m.log.Warnf("join timeline=%s err=%v", msg.id, msg.err)
			return m, m.setFlash("Live sync unavailable: "+msg.err.Error(), true)
		}
		return m, nil

	case remoteMsg:
		if m.sess != nil && msg.id == m.sess.ID() {
			m.sess.ApplyRemote(msg.payload)
		}
		return m, nil

	case changedMsg:
		return m, nil

	case notifyMsg:
		return m, m.flashError(msg.err)

	case flashExpiredMsg:
		if msg.gen == m.flashGen {
			m.flash = ""
		}
		return m, nil

	case nudgeDoneMsg:
		if m.sess != nil && msg.gen == m.nudgeGen {
			m.sess.Do(func() { m.sess.Diagram.KeyUp(msg.key) })
		}
		return m, nil

	case clockMsg:
		return m, m.tick()

	case tea.KeyMsg:
		if m.screen == screenPicker {
			return m, m.updatePickerKey(msg)
		}
		return m, m.updateTimelineKey(msg)

	case tea.MouseMsg:
		if m.screen == screenPicker {
			return m, m.updatePickerMouse(msg)
		}
		return m, m.updateTimelineMouse(msg)
	}

	if m.prompt != promptNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if m.editingNotes {
		var cmd tea.Cmd
		m.notes, cmd = m.notes.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *appModel) View() string {
	if m.screen == screenPicker {
		return m.viewPicker()
	}
	return m.viewTimeline()
}

var errNoSelection = errors.New("select a task first")
