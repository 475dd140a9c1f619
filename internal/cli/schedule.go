package cli

import (
	"strings"

	"planline/internal/model"
	"planline/internal/weeks"

	"github.com/spf13/cobra"
)

type gridWeek struct {
	Week   int    `json:"week"`
	Monday string `json:"monday"`
	Month  string `json:"month"`
}

type gridMonth struct {
	Start string `json:"start"`
	Label string `json:"label"`
}

type gridBar struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	StartWeek int     `json:"startWeek"`
	EndWeek   int     `json:"endWeek"`
	Dates     string  `json:"dates"`
	Left      float64 `json:"leftPercent,omitempty"`
	Width     float64 `json:"widthPercent,omitempty"`
	Done      bool    `json:"done"`
}

type grid struct {
	ViewMode   model.ViewMode `json:"viewMode"`
	StartDate  string         `json:"startDate"`
	TotalWeeks int            `json:"totalWeeks"`
	Weeks      []gridWeek     `json:"weeks,omitempty"`
	Months     []gridMonth    `json:"months,omitempty"`
	Bars       []gridBar      `json:"bars"`
}

// buildGrid lays a timeline out the way the bar chart draws it: one column per
// week (weekly) or per month with percentage bars (monthly).
func buildGrid(rec model.Record, mode model.ViewMode) (grid, error) {
	start, err := weeks.ParseDate(rec.StartDate)
	if err != nil {
		return grid{}, errUsage("timeline %s has an invalid start date %q", rec.ID, rec.StartDate)
	}
	total := weeks.TotalWeeks(mode, rec.Tasks)
	g := grid{ViewMode: mode, StartDate: rec.StartDate, TotalWeeks: total, Bars: []gridBar{}}

	columns := weeks.MonthColumns(start, total)
	if mode == model.ViewMonthly {
		for _, m := range columns {
			g.Months = append(g.Months, gridMonth{Start: weeks.FormatDate(m), Label: m.Format("Jan 2006")})
		}
	} else {
		for n := 1; n <= total; n++ {
			g.Weeks = append(g.Weeks, gridWeek{
				Week:   n,
				Monday: weeks.FormatDate(weeks.WeekToDate(start, n)),
				Month:  weeks.MonthForWeek(start, n),
			})
		}
	}
	for _, t := range rec.Tasks {
		bar := gridBar{
			ID:        t.ID,
			Name:      t.Name,
			StartWeek: t.StartWeek,
			EndWeek:   t.EndWeek(),
			Dates:     weeks.FormatRange(start, t.StartWeek, t.Duration),
			Done:      t.Done,
		}
		if mode == model.ViewMonthly {
			pos := weeks.MonthlyTaskPosition(start, t.StartWeek, t.Duration, columns)
			bar.Left, bar.Width = pos.Left, pos.Width
		}
		g.Bars = append(g.Bars, bar)
	}
	return g, nil
}

func newScheduleCmd(app *App) *cobra.Command {
	var view, date string

	cmd := &cobra.Command{
		Use:   "schedule <timeline-id>",
		Short: "Show the week grid and task bars (or the week of --date)",
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

			if d := strings.TrimSpace(date); d != "" {
				start, err := weeks.ParseDate(rec.StartDate)
				if err != nil {
					return writeErr(cmd, errUsage("timeline %s has an invalid start date %q", rec.ID, rec.StartDate))
				}
				at, err := weeks.ParseDate(d)
				if err != nil {
					return writeErr(cmd, errUsage("invalid --date %q (expected YYYY-MM-DD)", d))
				}
				n := weeks.DateToWeek(start, at)
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"date":   weeks.FormatDate(at),
					"week":   n,
					"monday": weeks.FormatDate(weeks.WeekToDate(start, n)),
				}})
			}

			g, err := buildGrid(rec, app.viewMode(view))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": g})
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "View mode (weekly|monthly; default: config view.mode)")
	cmd.Flags().StringVar(&date, "date", "", "Print the week number of this date instead of the grid")
	return cmd
}
