package cli

import (
	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/layout"
	"planline/internal/planner"

	"github.com/spf13/cobra"
)

func newLayoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Diagram node layout commands",
	}
	cmd.AddCommand(newLayoutArrangeCmd(app))
	cmd.AddCommand(newLayoutPlaceCmd(app))
	cmd.AddCommand(newLayoutPlaceNewCmd(app))
	cmd.AddCommand(newLayoutUnplaceCmd(app))
	cmd.AddCommand(newLayoutFitCmd(app))
	return cmd
}

func newLayoutArrangeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "arrange <timeline-id>",
		Short: "Lay every node out by dependency level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				s.Do(s.Diagram.AutoArrange)
				return nil
			})
		},
	}
}

func newLayoutPlaceCmd(app *App) *cobra.Command {
	var x, y float64

	cmd := &cobra.Command{
		Use:   "place <timeline-id> <task-id>",
		Short: "Put a task's node at a diagram position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
				return writeErr(cmd, errUsage("missing --x and --y"))
			}
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				return s.PlaceNode(args[1], geom.Point{X: x, Y: y})
			})
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "Diagram x (left edge of the node)")
	cmd.Flags().Float64Var(&y, "y", 0, "Diagram y (top edge of the node)")
	return cmd
}

func newLayoutPlaceNewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "place-new <timeline-id>",
		Short: "Give a grid slot to every task that has no node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var placed bool
			rec, err := app.editTimeline(cmd.Context(), args[0], func(s *planner.Session) error {
				s.Do(func() { placed = s.Diagram.PlaceNewNodes() })
				return nil
			})
			if err != nil {
				return writeErr(cmd, timelineErr(args[0], err))
			}
			return writeOut(cmd, app, map[string]any{"data": rec, "placed": placed})
		},
	}
}

func newLayoutUnplaceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unplace <timeline-id> <task-id>",
		Short: "Remove a task's node from the diagram (the task stays)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], func(s *planner.Session) error {
				if _, ok := findTask(s.Tasks(), args[1]); !ok {
					return graph.NotFoundError{Kind: "task", ID: args[1]}
				}
				if _, ok := s.Positions()[args[1]]; !ok {
					return errNotFound("node", args[1])
				}
				s.Do(func() { s.Diagram.RemoveNode(args[1]) })
				return nil
			})
		},
	}
}

func newLayoutFitCmd(app *App) *cobra.Command {
	var width, height float64

	cmd := &cobra.Command{
		Use:   "fit <timeline-id>",
		Short: "Compute the pan/zoom that fits every node in a viewport",
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
			canvas := app.canvas()
			if width > 0 {
				canvas.W = width
			}
			if height > 0 {
				canvas.H = height
			}
			view := layout.FitToView(rec.NodePositions, geom.Size{W: canvas.W, H: canvas.H})
			pts := make([]geom.Point, 0, len(rec.NodePositions))
			for _, p := range rec.NodePositions {
				pts = append(pts, geom.Point(p))
			}
			content := geom.ContentSize(pts)
			out := map[string]any{
				"viewport": map[string]float64{"width": canvas.W, "height": canvas.H},
				"pan":      map[string]float64{"x": view.Pan.X, "y": view.Pan.Y},
				"zoom":     view.Zoom,
				"content":  map[string]float64{"width": content.W, "height": content.H},
			}
			if box, ok := layout.Bounds(rec.NodePositions); ok {
				out["bounds"] = map[string]float64{"x": box.X, "y": box.Y, "width": box.W, "height": box.H}
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "Viewport width (default: canvas.width or 800)")
	cmd.Flags().Float64Var(&height, "height", 0, "Viewport height (default: canvas.height or 500)")
	return cmd
}
