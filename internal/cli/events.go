package cli

import (
	"errors"
	"strings"

	"planline/internal/store"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var limit int
	var timelineID string
	var after int64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the local save log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events (oldest-first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.serverURL() != "" {
				return writeErr(cmd, errors.New("events are only readable from the local data dir (drop --server)"))
			}
			dir, err := app.resolveDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			s := store.Store{Dir: dir}
			if id := strings.TrimSpace(timelineID); id != "" {
				evs, err := s.ReadEventsForTimeline(cmd.Context(), id, limit)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": evs})
			}
			evs, err := s.ReadEvents(cmd.Context(), after, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 200, "Max events to return (0 = all)")
	listCmd.Flags().StringVar(&timelineID, "timeline", "", "Only events of this timeline (newest --limit, oldest-first)")
	listCmd.Flags().Int64Var(&after, "after", 0, "Only events with seq greater than this")

	cmd.AddCommand(listCmd)
	return cmd
}
