package cli

import (
	"context"
	"errors"
	"time"

	"planline/internal/client"
	"planline/internal/diagram"
	"planline/internal/model"
	"planline/internal/planner"
	"planline/internal/store"
)

// backend is where timeline commands read and write: the local SQLite store,
// or a running server when --server is set.
type backend interface {
	List(ctx context.Context) ([]model.Summary, error)
	Get(ctx context.Context, id string) (model.Record, error)
	Create(ctx context.Context, in store.CreateInput) (model.Record, error)
	Update(ctx context.Context, id string, p model.Patch) (model.Record, error)
	Delete(ctx context.Context, id string) error
	Save(ctx context.Context, id string, snap model.Snapshot) error
}

type localBackend struct {
	st     store.Store
	origin store.Origin
}

func (b localBackend) List(ctx context.Context) ([]model.Summary, error) { return b.st.List(ctx) }
func (b localBackend) Get(ctx context.Context, id string) (model.Record, error) {
	return b.st.Get(ctx, id)
}
func (b localBackend) Create(ctx context.Context, in store.CreateInput) (model.Record, error) {
	return b.st.Create(ctx, b.origin, in)
}
func (b localBackend) Update(ctx context.Context, id string, p model.Patch) (model.Record, error) {
	return b.st.Update(ctx, b.origin, id, p)
}
func (b localBackend) Delete(ctx context.Context, id string) error {
	return b.st.Delete(ctx, b.origin, id)
}
func (b localBackend) Save(ctx context.Context, id string, snap model.Snapshot) error {
	_, err := b.st.Save(ctx, b.origin, id, snap)
	return err
}

type remoteBackend struct {
	api *client.API
}

func (b remoteBackend) List(ctx context.Context) ([]model.Summary, error) { return b.api.List(ctx) }
func (b remoteBackend) Get(ctx context.Context, id string) (model.Record, error) {
	rec, err := b.api.Get(ctx, id)
	if client.IsNotFound(err) {
		return rec, store.ErrNotFound
	}
	return rec, err
}
func (b remoteBackend) Create(ctx context.Context, in store.CreateInput) (model.Record, error) {
	return b.api.Create(ctx, client.CreateInput(in))
}
func (b remoteBackend) Update(ctx context.Context, id string, p model.Patch) (model.Record, error) {
	rec, err := b.api.Update(ctx, id, p)
	if client.IsNotFound(err) {
		return rec, store.ErrNotFound
	}
	return rec, err
}
func (b remoteBackend) Delete(ctx context.Context, id string) error {
	err := b.api.Delete(ctx, id)
	if client.IsNotFound(err) {
		return store.ErrNotFound
	}
	return err
}
func (b remoteBackend) Save(ctx context.Context, id string, snap model.Snapshot) error {
	return b.api.Save(ctx, id, snap)
}

func (app *App) backend() (backend, error) {
	if u := app.serverURL(); u != "" {
		return remoteBackend{api: client.NewAPI(u, app.actor())}, nil
	}
	dir, err := app.resolveDir()
	if err != nil {
		return nil, err
	}
	return localBackend{
		st:     store.Store{Dir: dir},
		origin: store.Origin{Actor: app.actor(), Source: store.SourceCLI},
	}, nil
}

const editTimeout = 30 * time.Second

// editTimeline opens the timeline in a planner session, runs fn, waits for
// the resulting save and returns the stored record. fn returning an error
// means nothing was committed.
//
// Remote edits are also broadcast to the timeline's room so open clients see
// them; local edits reach clients through the server's watcher.
func (app *App) editTimeline(ctx context.Context, id string, fn func(s *planner.Session) error) (model.Record, error) {
	be, err := app.backend()
	if err != nil {
		return model.Record{}, err
	}
	rec, err := be.Get(ctx, id)
	if err != nil {
		return model.Record{}, err
	}

	opts := planner.Options{
		Persister: be,
		Bounds:    diagram.StaticBounds(app.canvas()),
		ViewMode:  app.viewMode(""),
	}
	if u := app.serverURL(); u != "" {
		if sock, err := client.Dial(ctx, u, client.SocketOptions{ReconnectAttempts: 1}); err == nil {
			defer sock.Close()
			if err := sock.Join(ctx, id); err == nil {
				opts.Broadcaster = sock
			}
		}
	}

	s := planner.Open(rec, opts)
	if err := fn(s); err != nil {
		return model.Record{}, err
	}

	wctx, cancel := context.WithTimeout(ctx, editTimeout)
	defer cancel()
	if err := s.Flush(wctx); err != nil {
		return model.Record{}, err
	}
	if err := s.LastError(); err != nil {
		return model.Record{}, err
	}
	return be.Get(ctx, id)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
