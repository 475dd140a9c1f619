package cli

import (
	"planline/internal/graph"
	"planline/internal/layout"
	"planline/internal/planner"

	"github.com/spf13/cobra"
)

func newDepsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Dependency commands (<task-id> is blocked by <blocker-id>)",
	}
	cmd.AddCommand(newDepsListCmd(app))
	cmd.AddCommand(newDepsAddCmd(app))
	cmd.AddCommand(newDepsRemoveCmd(app))
	cmd.AddCommand(newDepsToggleCmd(app))
	return cmd
}

type depRow struct {
	From     string `json:"from"`
	FromName string `json:"fromName"`
	To       string `json:"to"`
	ToName   string `json:"toName"`
}

func newDepsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <timeline-id>",
		Short: "List dependency arrows and each task's level",
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
			g := graph.New(rec.Tasks)
			names := map[string]string{}
			for _, t := range rec.Tasks {
				names[t.ID] = t.Name
			}
			edges := make([]depRow, 0)
			for _, e := range g.Edges() {
				edges = append(edges, depRow{From: e.From, FromName: names[e.From], To: e.To, ToName: names[e.To]})
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"edges":  edges,
					"levels": layout.Levels(rec.Tasks),
				},
			})
		},
	}
}

type alreadyError struct{ msg string }

func (e alreadyError) Error() string { return e.msg }

func newDepsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <timeline-id> <task-id> <blocker-id>",
		Short: "Make a task depend on another (cycles are refused)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, depID := args[1], args[2]
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				t, ok := findTask(s.Tasks(), taskID)
				if !ok {
					return graph.NotFoundError{Kind: "task", ID: taskID}
				}
				if t.IsBlockedBy(depID) {
					return alreadyError{msg: "dependency already exists: " + taskID + " <- " + depID}
				}
				_, err := s.ToggleDependency(taskID, depID)
				return err
			})
		},
	}
}

func newDepsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <timeline-id> <task-id> <blocker-id>",
		Aliases: []string{"delete"},
		Short:   "Remove a dependency",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, depID := args[1], args[2]
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				t, ok := findTask(s.Tasks(), taskID)
				if !ok {
					return graph.NotFoundError{Kind: "task", ID: taskID}
				}
				if !t.IsBlockedBy(depID) {
					return errNotFound("dependency", taskID+" <- "+depID)
				}
				_, err := s.ToggleDependency(taskID, depID)
				return err
			})
		},
	}
}

func newDepsToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <timeline-id> <task-id> <blocker-id>",
		Short: "Add the dependency if missing, remove it if present",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var added bool
			rec, err := app.editTimeline(cmd.Context(), args[0], func(s *planner.Session) error {
				var err error
				added, err = s.ToggleDependency(args[1], args[2])
				return err
			})
			if err != nil {
				return writeErr(cmd, timelineErr(args[0], err))
			}
			return writeOut(cmd, app, map[string]any{
				"data":  rec,
				"added": added,
			})
		},
	}
}
