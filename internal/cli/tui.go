package cli

import (
	"os"
	"strings"

	"planline/internal/logging"
	"planline/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "tui [timeline-id]",
		Short: "Open the interactive planner (picker, diagram and bar chart)",
		Long: strings.TrimSpace(`
The TUI talks to a running 'planline serve' (--server, config server.url, or
http://127.0.0.1:3001). Edits are saved over HTTP and shared live through the
relay.

Set PLANLINE_TUI_LOG=<file> to write a debug log while the TUI runs.
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = strings.TrimSpace(args[0])
			}
			app.tuiView = view
			return runTUI(cmd, app, id)
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "Bar chart view mode (weekly|monthly; default: config view.mode)")
	return cmd
}

func runTUI(cmd *cobra.Command, app *App, timelineID string) error {
	log := logging.Discard()
	if p := strings.TrimSpace(os.Getenv("PLANLINE_TUI_LOG")); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return writeErr(cmd, err)
		}
		defer f.Close()
		log = logging.New(f, logging.LevelDebug, "tui")
	}

	err := tui.Run(cmd.Context(), tui.Options{
		ServerURL:  app.tuiServerURL(),
		Actor:      app.actor(),
		TimelineID: timelineID,
		ViewMode:   app.viewMode(app.tuiView),
		Log:        log,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
