package planner

import (
	"context"
	"sync"
	"time"

	"planline/internal/model"
)

// saver persists snapshots one at a time, in commit order. Commits that
// arrive while a save is running collapse into the newest snapshot.
type saver struct {
	s *Session

	mu      sync.Mutex
	pending *model.Snapshot
	running bool
	idle    chan struct{}
}

func newSaver(s *Session) *saver {
	idle := make(chan struct{})
	close(idle)
	return &saver{s: s, idle: idle}
}

func (w *saver) enqueue(snap model.Snapshot) {
	w.mu.Lock()
	w.pending = &snap
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.idle = make(chan struct{})
	w.mu.Unlock()
	go w.run()
}

func (w *saver) run() {
	for {
		w.mu.Lock()
		snap := w.pending
		w.pending = nil
		if snap == nil {
			w.running = false
			close(w.idle)
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()
		w.s.persist(*snap)
	}
}

// wait blocks until no save is queued or running.
func (w *saver) wait(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// persist saves, then broadcasts on success. A broadcast failure does not
// change the save status; the next save sends the full state again.
func (s *Session) persist(snap model.Snapshot) {
	ctx := context.Background()
	if s.opts.Persister != nil {
		if err := s.opts.Persister.Save(ctx, s.id, snap); err != nil {
			s.setStatus(StatusError, err)
			return
		}
	}
	s.setStatus(StatusSaved, nil)
	if s.opts.Broadcaster != nil {
		_ = s.opts.Broadcaster.EmitSync(ctx, s.id, s.shim.Outgoing(snap))
	}
}

// Flush waits for queued saves to finish.
func (s *Session) Flush(ctx context.Context) error {
	return s.saver.wait(ctx)
}

func (s *Session) setStatus(st SaveStatus, err error) {
	s.statusMu.Lock()
	s.status = st
	s.statusGen++
	gen := s.statusGen
	switch st {
	case StatusSaved:
		s.lastSaved = s.now()
		s.lastErr = nil
	case StatusError:
		s.lastErr = err
	}
	s.statusMu.Unlock()

	var ttl time.Duration
	switch st {
	case StatusSaved:
		ttl = savedStatusTTL
	case StatusError:
		ttl = errorStatusTTL
	}
	if ttl > 0 {
		time.AfterFunc(ttl, func() {
			s.statusMu.Lock()
			if s.statusGen != gen {
				s.statusMu.Unlock()
				return
			}
			s.status = StatusIdle
			s.statusMu.Unlock()
			s.changed()
		})
	}
	if st != StatusSaving {
		s.changed()
	}
}

// Status is the transient save indicator.
func (s *Session) Status() SaveStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

// LastSaved is when the last successful save finished (zero if never).
func (s *Session) LastSaved() time.Time {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.lastSaved
}

// LastError is the error of the most recent failed save, cleared by the
// next successful one.
func (s *Session) LastError() error {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.lastErr
}
