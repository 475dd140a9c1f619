package cli

import (
	"fmt"
	"os"
	"strings"

	"planline/internal/format"
	"planline/internal/geom"
	"planline/internal/logging"
	"planline/internal/model"
	"planline/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	ActorID    string
	PrettyJSON bool
	Format     string
	Server     string

	cfg     *store.Config
	tuiView string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "planline",
		Short:        "planline: collaborative timelines and dependency diagrams",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the terminal planner
  planline

  # Run the server the TUI and browsers talk to
  planline serve

  # Scriptable commands
  planline timelines create --name "Launch" --start 2026-03-02
  planline tasks add tl-abc123 --name "Design" --start-week 1 --duration 2
  planline deps add tl-abc123 <task-id> <blocked-by-id>
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app, "")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("PLANLINE_DIR", ""), "Path to the data dir (default: <config dir>/data)")
	cmd.PersistentFlags().StringVar(&app.ActorID, "actor", envOr("PLANLINE_ACTOR", ""), "Actor id recorded on writes (default: config actor)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PLANLINE_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("PLANLINE_SERVER", ""), "Talk to a running server at this URL instead of the local data dir")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTimelinesCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newDepsCmd(app))
	cmd.AddCommand(newLayoutCmd(app))
	cmd.AddCommand(newScheduleCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// config loads config.yaml once per invocation. A missing file is an empty
// config.
func (app *App) config() (*store.Config, error) {
	if app.cfg != nil {
		return app.cfg, nil
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	app.cfg = cfg
	return cfg, nil
}

func (app *App) resolveDir() (string, error) {
	if d := strings.TrimSpace(app.Dir); d != "" {
		return d, nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

// actor is --actor, then the config actor, then $USER.
func (app *App) actor() string {
	if a := strings.TrimSpace(app.ActorID); a != "" {
		return a
	}
	if cfg, err := app.config(); err == nil && strings.TrimSpace(cfg.Actor) != "" {
		return strings.TrimSpace(cfg.Actor)
	}
	return strings.TrimSpace(os.Getenv("USER"))
}

// serverURL is --server for remote commands. Empty means local.
func (app *App) serverURL() string {
	return strings.TrimRight(strings.TrimSpace(app.Server), "/")
}

// tuiServerURL is --server, then config server.url, then the default.
func (app *App) tuiServerURL() string {
	if u := app.serverURL(); u != "" {
		return u
	}
	if cfg, err := app.config(); err == nil && cfg.Server.URL != "" {
		return cfg.Server.URL
	}
	return store.DefaultServerURL
}

func (app *App) canvas() geom.Rect {
	r := geom.Rect{W: geom.DefaultCanvasWidth, H: geom.DefaultCanvasHeight}
	if cfg, err := app.config(); err == nil {
		if cfg.Canvas.Width > 0 {
			r.W = cfg.Canvas.Width
		}
		if cfg.Canvas.Height > 0 {
			r.H = cfg.Canvas.Height
		}
	}
	return r
}

func (app *App) viewMode(flag string) model.ViewMode {
	v := strings.ToLower(strings.TrimSpace(flag))
	if v == "" {
		if cfg, err := app.config(); err == nil {
			v = cfg.View.Mode
		}
	}
	if v == string(model.ViewMonthly) {
		return model.ViewMonthly
	}
	return model.ViewWeekly
}

// logger writes to stderr at PLANLINE_LOG_LEVEL, else the configured level.
func (app *App) logger(cmd *cobra.Command, component string) *logging.Logger {
	level := envOr("PLANLINE_LOG_LEVEL", "")
	if level == "" {
		if cfg, err := app.config(); err == nil {
			level = cfg.Logging.Level
		}
	}
	return logging.New(cmd.ErrOrStderr(), logging.ParseLevel(level), component)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
