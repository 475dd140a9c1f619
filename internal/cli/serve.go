package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"planline/internal/logging"
	"planline/internal/store"
	"planline/internal/web"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timeline API, live relay and read-only HTML pages",
		Long: strings.TrimSpace(`
Serve the local data dir over HTTP:

- REST API under /api/timelines (what the TUI and --server commands use)
- websocket relay at /ws (rooms per timeline; snapshots are forwarded as-is)
- datastar signal streams under /api/timelines/{id}/events and /events
- HTML pages at / and /timelines/{id}

Edits made by local CLI commands while the server runs are picked up from
the save log and pushed to connected clients.
`),
		Example: strings.TrimSpace(`
# Serve on the configured address (default 127.0.0.1:3001)
planline serve

# Serve on all interfaces
planline serve --addr :3001
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.resolveDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				if cfg, err := app.config(); err == nil && cfg.Server.Addr != "" {
					listenAddr = cfg.Server.Addr
				} else {
					listenAddr = store.DefaultServerAddr
				}
			}

			log := app.logger(cmd, "web")
			srv, err := web.NewServer(web.ServerConfig{
				Addr:    listenAddr,
				Dir:     dir,
				ActorID: app.actor(),
				Log:     log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"dir":       dir,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{
					"open " + url,
					"planline --server " + strings.TrimSuffix(url, "/") + " timelines list",
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "planline serving %s at %s\n", dir, url)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runServer(ctx, srv, ln, log); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (default: config server.addr or 127.0.0.1:3001)")
	return cmd
}

// runServer serves on ln and follows the save log until ctx ends, then shuts
// the HTTP server down. The first failure of either stops both.
func runServer(ctx context.Context, srv *web.Server, ln net.Listener, log *logging.Logger) error {
	hs := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening addr=%s", ln.Addr())
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Infof("shutting down")
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}
