package cli

import (
	"strings"
	"time"

	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/model"
	"planline/internal/planner"
	"planline/internal/weeks"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksRemoveCmd(app))
	cmd.AddCommand(newTasksRenameCmd(app))
	cmd.AddCommand(newTasksColorCmd(app))
	cmd.AddCommand(newTasksDoneCmd(app))
	cmd.AddCommand(newTasksNotesCmd(app))
	cmd.AddCommand(newTasksScheduleCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	return cmd
}

// parseColor accepts a palette value ("bg-blue-500") or its short name ("blue").
func parseColor(s string) (model.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c := model.Color(s); c.Valid() {
		return c, nil
	}
	if c := model.Color("bg-" + s + "-500"); c.Valid() {
		return c, nil
	}
	names := make([]string, 0, len(model.Palette))
	for _, c := range model.Palette {
		names = append(names, colorName(c))
	}
	return "", errUsage("unknown color %q (expected one of: %s)", s, strings.Join(names, ", "))
}

func colorName(c model.Color) string {
	return strings.TrimSuffix(strings.TrimPrefix(string(c), "bg-"), "-500")
}

type taskRow struct {
	model.Task
	Position       int      `json:"position"`
	Dates          string   `json:"dates"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	OnDiagram      bool     `json:"onDiagram"`
	ColorName      string   `json:"colorName"`
	BlockedByNames []string `json:"blockedByNames,omitempty"`
}

func taskRows(rec model.Record) ([]taskRow, error) {
	start, err := weeks.ParseDate(rec.StartDate)
	if err != nil {
		return nil, errUsage("timeline %s has an invalid start date %q", rec.ID, rec.StartDate)
	}
	names := map[string]string{}
	for _, t := range rec.Tasks {
		names[t.ID] = t.Name
	}
	out := make([]taskRow, 0, len(rec.Tasks))
	for i, t := range rec.Tasks {
		_, placed := rec.NodePositions[t.ID]
		row := taskRow{
			Task:      t,
			Position:  i + 1,
			Dates:     weeks.FormatRange(start, t.StartWeek, t.Duration),
			StartDate: weeks.FormatDate(weeks.WeekToDate(start, t.StartWeek)),
			EndDate:   weeks.FormatDate(weeks.WeekToDate(start, t.EndWeek()).AddDate(0, 0, 6)),
			OnDiagram: placed,
			ColorName: colorName(t.Color),
		}
		for _, b := range t.BlockedBy {
			// Dangling blockers are left out.
			if n, ok := names[b]; ok {
				row.BlockedByNames = append(row.BlockedByNames, n)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <timeline-id>",
		Short: "List tasks in timeline order, with their dates",
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
			rows, err := taskRows(rec)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
}

// scheduleFlags are the two ways of giving a task's span: week numbers or
// calendar dates.
type scheduleFlags struct {
	startWeek int
	duration  int
	from      string
	to        string
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.startWeek, "start-week", 0, "First week (1-based)")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "Duration in weeks")
	cmd.Flags().StringVar(&f.from, "from", "", "Start date YYYY-MM-DD (instead of --start-week)")
	cmd.Flags().StringVar(&f.to, "to", "", "End date YYYY-MM-DD (instead of --duration)")
}

func (f *scheduleFlags) usesDates() bool {
	return strings.TrimSpace(f.from) != "" || strings.TrimSpace(f.to) != ""
}

// dates parses --from/--to. A missing --to means a one-week task.
func (f *scheduleFlags) dates() (time.Time, time.Time, error) {
	from, err := weeks.ParseDate(strings.TrimSpace(f.from))
	if err != nil {
		return time.Time{}, time.Time{}, errUsage("invalid --from %q (expected YYYY-MM-DD)", f.from)
	}
	if strings.TrimSpace(f.to) == "" {
		return from, from, nil
	}
	to, err := weeks.ParseDate(strings.TrimSpace(f.to))
	if err != nil {
		return time.Time{}, time.Time{}, errUsage("invalid --to %q (expected YYYY-MM-DD)", f.to)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errUsage("--to is before --from")
	}
	return from, to, nil
}

func newTasksAddCmd(app *App) *cobra.Command {
	var name, color, notes string
	var blockedBy []string
	var x, y float64
	var sched scheduleFlags

	cmd := &cobra.Command{
		Use:   "add <timeline-id>",
		Short: "Add a task (and its diagram node)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := model.DefaultColor
			if strings.TrimSpace(color) != "" {
				var err error
				if c, err = parseColor(color); err != nil {
					return writeErr(cmd, err)
				}
			}
			var from, to time.Time
			if sched.usesDates() {
				var err error
				if from, to, err = sched.dates(); err != nil {
					return writeErr(cmd, err)
				}
			}
			var at *geom.Point
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				at = &geom.Point{X: x, Y: y}
			}

			var added model.Task
			rec, err := app.editTimeline(cmd.Context(), args[0], func(s *planner.Session) error {
				spec := graph.TaskSpec{Name: name, StartWeek: sched.startWeek, Duration: sched.duration, Color: c, Notes: notes}
				if sched.usesDates() {
					spec = s.DatesSpec(name, from, to, c, notes)
				}
				for _, id := range blockedBy {
					if _, ok := findTask(s.Tasks(), id); !ok {
						return errNotFound("task", id)
					}
					spec.BlockedBy = append(spec.BlockedBy, id)
				}
				t, err := s.AddTask(spec, at)
				added = t
				return err
			})
			if err != nil {
				return writeErr(cmd, timelineErr(args[0], err))
			}
			return writeOut(cmd, app, map[string]any{
				"data":     added,
				"timeline": map[string]any{"id": rec.ID, "tasks": len(rec.Tasks)},
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&color, "color", "", "Color (blue|purple|red|yellow|pink|indigo|orange|green)")
	cmd.Flags().StringVar(&notes, "notes", "", "Task notes (markdown)")
	cmd.Flags().StringSliceVar(&blockedBy, "blocked-by", nil, "Task ids this task depends on")
	cmd.Flags().Float64Var(&x, "x", 0, "Diagram x of the node (default: next grid slot)")
	cmd.Flags().Float64Var(&y, "y", 0, "Diagram y of the node (default: next grid slot)")
	sched.register(cmd)
	return cmd
}

func newTasksRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <timeline-id> <task-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task, its node and every dependency on it",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.DeleteTask(args[1])
			})
		},
	}
}

func newTasksRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <timeline-id> <task-id> <name>",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.RenameTask(args[1], args[2])
			})
		},
	}
}

func newTasksColorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "color <timeline-id> <task-id> <color>",
		Short: "Change a task's color",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseColor(args[2])
			if err != nil {
				return writeErr(cmd, err)
			}
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.SetTaskColor(args[1], c)
			})
		},
	}
}

func newTasksDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <timeline-id> <task-id>",
		Short: "Toggle a task's done flag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.ToggleTaskDone(args[1])
			})
		},
	}
}

func newTasksNotesCmd(app *App) *cobra.Command {
	var clearNotes bool

	cmd := &cobra.Command{
		Use:   "notes <timeline-id> <task-id> [text]",
		Short: "Set a task's notes (markdown)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 && !clearNotes {
				return writeErr(cmd, errUsage("missing notes text (or pass --clear)"))
			}
			text := ""
			if len(args) == 3 {
				text = args[2]
			}
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.SetTaskNotes(args[1], text)
			})
		},
	}
	cmd.Flags().BoolVar(&clearNotes, "clear", false, "Clear the notes")
	return cmd
}

func newTasksScheduleCmd(app *App) *cobra.Command {
	var sched scheduleFlags

	cmd := &cobra.Command{
		Use:   "schedule <timeline-id> <task-id>",
		Short: "Move or resize a task's bar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var from, to time.Time
			if sched.usesDates() {
				var err error
				if from, to, err = sched.dates(); err != nil {
					return writeErr(cmd, err)
				}
			} else if !cmd.Flags().Changed("start-week") && !cmd.Flags().Changed("duration") {
				return writeErr(cmd, errUsage("provide --start-week/--duration or --from/--to"))
			}
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				cur, ok := findTask(s.Tasks(), args[1])
				if !ok {
					return graph.NotFoundError{Kind: "task", ID: args[1]}
				}
				startWeek, duration := cur.StartWeek, cur.Duration
				if sched.usesDates() {
					spec := s.DatesSpec(cur.Name, from, to, cur.Color, "")
					startWeek, duration = spec.StartWeek, spec.Duration
				} else {
					if cmd.Flags().Changed("start-week") {
						startWeek = sched.startWeek
					}
					if cmd.Flags().Changed("duration") {
						duration = sched.duration
					}
				}
				return s.SetTaskSchedule(args[1], startWeek, duration)
			})
		},
	}
	sched.register(cmd)
	return cmd
}

func findTask(tasks []model.Task, id string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "move <timeline-id> <task-id>",
		Short: "Reorder a task in the timeline list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.Reorder(args[1], strings.TrimSpace(before))
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Task id to move before (default: move to the end)")
	return cmd
}
