package cli

import (
	"strings"
	"time"

	"planline/internal/model"
	"planline/internal/planner"
	"planline/internal/store"
	"planline/internal/weeks"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newTimelinesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timelines",
		Aliases: []string{"timeline", "tl"},
		Short:   "Timeline commands",
	}
	cmd.AddCommand(newTimelinesListCmd(app))
	cmd.AddCommand(newTimelinesCreateCmd(app))
	cmd.AddCommand(newTimelinesShowCmd(app))
	cmd.AddCommand(newTimelinesRenameCmd(app))
	cmd.AddCommand(newTimelinesStartCmd(app))
	cmd.AddCommand(newTimelinesNotesCmd(app))
	cmd.AddCommand(newTimelinesDeleteCmd(app))
	return cmd
}

type timelineListRow struct {
	model.Summary
	UpdatedAgo string `json:"updatedAgo"`
}

func listRows(list []model.Summary, now time.Time) []timelineListRow {
	out := make([]timelineListRow, 0, len(list))
	for _, s := range list {
		out = append(out, timelineListRow{Summary: s, UpdatedAgo: humanize.RelTime(s.UpdatedAt, now, "ago", "from now")})
	}
	return out
}

func newTimelinesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List timelines (most recently updated first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := be.List(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": listRows(list, time.Now())})
		},
	}
}

func newTimelinesCreateCmd(app *App) *cobra.Command {
	var name, start, notes string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			rec, err := be.Create(cmd.Context(), store.CreateInput{
				Name:      strings.TrimSpace(name),
				StartDate: strings.TrimSpace(start),
				Notes:     notes,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": rec,
				"_hints": []string{
					"planline tasks add " + rec.ID + " --name <name>",
					"planline tui " + rec.ID,
				},
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Timeline name (default: My Timeline)")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&notes, "notes", "", "Timeline notes (markdown)")
	return cmd
}

func newTimelinesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <timeline-id>",
		Short: "Show a timeline record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			rec, err := be.Get(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, timelineErr(args[0], err))
			}
			return writeOut(cmd, app, map[string]any{"data": rec})
		},
	}
}

// runEdit is the shared body of every command that changes one timeline.
func runEdit(cmd *cobra.Command, app *App, id string, fn func(s *planner.Session) error) error {
	rec, err := app.editTimeline(cmd.Context(), id, fn)
	if err != nil {
		return writeErr(cmd, timelineErr(id, err))
	}
	return writeOut(cmd, app, map[string]any{"data": rec})
}

func newTimelinesRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <timeline-id> <name>",
		Short: "Rename a timeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.Rename(args[1])
			})
		},
	}
}

func newTimelinesStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <timeline-id> <YYYY-MM-DD>",
		Short: "Change the start date (week 1 is the Monday on or before it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := weeks.ParseDate(strings.TrimSpace(args[1]))
			if err != nil {
				return writeErr(cmd, errUsage("invalid date %q (expected YYYY-MM-DD)", args[1]))
			}
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.SetStartDate(d)
			})
		},
	}
}

func newTimelinesNotesCmd(app *App) *cobra.Command {
	var clearNotes bool

	cmd := &cobra.Command{
		Use:   "notes <timeline-id> [text]",
		Short: "Set the timeline notes (markdown)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 && !clearNotes {
				return writeErr(cmd, errUsage("missing notes text (or pass --clear)"))
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.SetNotes(text)
			})
		},
	}
	cmd.Flags().BoolVar(&clearNotes, "clear", false, "Clear the notes")
	return cmd
}

func newTimelinesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <timeline-id>",
		Short: "Delete a timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := be.Delete(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, timelineErr(args[0], err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": args[0], "deleted": true}})
		},
	}
}
