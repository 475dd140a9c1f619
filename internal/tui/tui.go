// Package tui is the terminal front end: a timeline picker, a mouse-driven
// dependency diagram and a draggable bar chart, kept live through the
// server's relay.
package tui

import (
	"context"
	"strings"

	"planline/internal/client"
	"planline/internal/livesync"
	"planline/internal/logging"
	"planline/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	ServerURL  string
	Actor      string
	TimelineID string
	ViewMode   model.ViewMode
	Log        *logging.Logger
}

// Run blocks until the user quits. Without a relay connection the TUI still
// loads and saves over HTTP, it just doesn't see other editors live.
func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	api := client.NewAPI(opts.ServerURL, opts.Actor)

	var room Room
	sock, err := client.Dial(ctx, opts.ServerURL, client.SocketOptions{Log: log.With("socket")})
	if err != nil {
		log.Warnf("relay unavailable url=%s err=%v", opts.ServerURL, err)
	} else {
		defer sock.Close()
		room = sock
	}

	m := newAppModel(ctx, api, room, modelOptions{
		ViewMode:   opts.ViewMode,
		TimelineID: strings.TrimSpace(opts.TimelineID),
		Log:        log,
		Label:      opts.ServerURL,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	m.send = p.Send
	if sock != nil {
		sock.OnSync(func(timelineID string, payload livesync.Payload) {
			m.post(remoteMsg{id: timelineID, payload: payload})
		})
	}

	_, err = p.Run()
	m.closeSession()
	return err
}
