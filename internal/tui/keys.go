package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type pickerKeyMap struct {
	Up, Down, Open, New, Delete, Refresh, Quit key.Binding
}

func newPickerKeyMap() pickerKeyMap {
	return pickerKeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new timeline")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.New, k.Delete, k.Refresh, k.Quit}
}

func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Open}, {k.New, k.Delete, k.Refresh, k.Quit}}
}

// timelineKeyMap is shared by both panes; a few keys mean different things
// per pane (see the pane handlers).
type timelineKeyMap struct {
	SwitchPane  key.Binding
	AddTask     key.Binding
	RenameTask  key.Binding
	RenameTL    key.Binding
	StartDate   key.Binding
	Color       key.Binding
	Done        key.Binding
	Delete      key.Binding
	Unplace     key.Binding
	Connect     key.Binding
	PlaceNew    key.Binding
	Arrange     key.Binding
	Fit         key.Binding
	ResetView   key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	ZoomPercent key.Binding
	NextNode    key.Binding
	PrevNode    key.Binding
	Notes       key.Binding
	EditNotes   key.Binding
	ViewMode    key.Binding
	MoveEarlier key.Binding
	MoveLater   key.Binding
	Shorter     key.Binding
	Longer      key.Binding
	RowUp       key.Binding
	RowDown     key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	Back        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func newTimelineKeyMap() timelineKeyMap {
	return timelineKeyMap{
		SwitchPane:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "diagram/timeline")),
		AddTask:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		RenameTask:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename task")),
		RenameTL:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename timeline")),
		StartDate:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start date")),
		Color:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "next color")),
		Done:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
		Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete task")),
		Unplace:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "remove from diagram")),
		Connect:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l/alt+click", "link from task")),
		PlaceNew:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "place new nodes")),
		Arrange:     key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "auto arrange")),
		Fit:         key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		ResetView:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
		ZoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		ZoomPercent: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom %")),
		NextNode:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next task")),
		PrevNode:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev task")),
		Notes:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notes panel")),
		EditNotes:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit notes")),
		ViewMode:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "weekly/monthly")),
		MoveEarlier: key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "week earlier")),
		MoveLater:   key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "week later")),
		Shorter:     key.NewBinding(key.WithKeys("<", ","), key.WithHelp("<", "shorter")),
		Longer:      key.NewBinding(key.WithKeys(">", "."), key.WithHelp(">", "longer")),
		RowUp:       key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move row up")),
		RowDown:     key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move row down")),
		Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Back:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "timelines")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k timelineKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchPane, k.AddTask, k.Connect, k.EditNotes, k.Back, k.Help}
}

func (k timelineKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SwitchPane, k.AddTask, k.RenameTask, k.RenameTL, k.StartDate, k.Delete},
		{k.Color, k.Done, k.Notes, k.EditNotes, k.ViewMode},
		{k.Connect, k.Unplace, k.PlaceNew, k.Arrange, k.NextNode, k.PrevNode},
		{k.Fit, k.ResetView, k.ZoomIn, k.ZoomOut, k.ZoomPercent},
		{k.MoveEarlier, k.MoveLater, k.Shorter, k.Longer, k.RowUp, k.RowDown},
		{k.Back, k.Help, k.Quit},
	}
}
