package cli

import (
	"fmt"
	"strings"

	"planline/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var toDir, view string
	var hideDone, overwrite bool

	cmd := &cobra.Command{
		Use:   "export <timeline-id>",
		Short: "Export a timeline as Markdown (derived, not canonical)",
		Long: strings.TrimSpace(`
Render a timeline as Markdown: a task table with calendar dates, the
dependency list and the timeline/task notes.

Without --to the Markdown is printed to stdout. With --to it is written to
<dir>/timelines/<timeline-id>.md (existing files are kept unless --overwrite).
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			rec, err := be.Get(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, timelineErr(args[0], err))
			}
			mode := app.viewMode(view)

			toDir = strings.TrimSpace(toDir)
			if toDir == "" {
				md, err := publish.RenderTimelineMarkdown(rec, publish.RenderOptions{ViewMode: mode, IncludeDone: !hideDone})
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}

			res, err := publish.WriteTimeline(rec, toDir, publish.WriteOptions{
				ViewMode:    mode,
				IncludeDone: !hideDone,
				Overwrite:   overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"_hints": []string{
					"git status",
					"git add -A",
					"git commit -m \"Export: " + rec.Name + "\"",
				},
			})
		},
	}
	cmd.Flags().StringVar(&toDir, "to", "", "Output directory (default: print to stdout)")
	cmd.Flags().StringVar(&view, "view", "", "View mode for the week count (weekly|monthly)")
	cmd.Flags().BoolVar(&hideDone, "hide-done", false, "Leave done tasks out")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing export")
	return cmd
}
