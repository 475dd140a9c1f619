package web

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"planline/internal/livesync"
	"planline/internal/model"
	"planline/internal/store"
)

// ServerOrigin is the payload origin of snapshots the server itself
// broadcasts. No client uses it as its id.
const ServerOrigin = "planline-server"

const (
	watchDebounce = 50 * time.Millisecond
	watchBatch    = 500
)

// Watch follows the event log for writes the API did not make (CLI edits,
// other processes) and pushes them to websocket rooms and signal streams.
// It returns when ctx ends.
func (s *Server) Watch(ctx context.Context) error {
	lastSeq, err := s.store.LastEventSeq(ctx)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(s.cfg.Dir); err != nil {
		return err
	}
	s.log.Infof("watching dir=%s", s.cfg.Dir)

	ticker := time.NewTicker(s.cfg.WatchInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	scan := func() {
		next, err := s.scanEvents(ctx, lastSeq)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warnf("scan events: %v", err)
			}
			return
		}
		lastSeq = next
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isStoreFile(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if !pending {
				pending = true
				debounce.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warnf("watcher: %v", err)
		case <-debounce.C:
			pending = false
			scan()
		case <-ticker.C:
			scan()
		}
	}
}

func isStoreFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), "planline.sqlite")
}

// scanEvents publishes every timeline touched after afterSeq by a non-API
// write and returns the new high-water mark.
func (s *Server) scanEvents(ctx context.Context, afterSeq int64) (int64, error) {
	changed := map[string]string{}
	var order []string
	for {
		evs, err := s.store.ReadEvents(ctx, afterSeq, watchBatch)
		if err != nil {
			return afterSeq, err
		}
		for _, ev := range evs {
			afterSeq = ev.Seq
			if ev.Source == store.SourceAPI {
				continue
			}
			if _, ok := changed[ev.EntityID]; !ok {
				order = append(order, ev.EntityID)
			}
			changed[ev.EntityID] = ev.Type
		}
		if len(evs) < watchBatch {
			break
		}
	}
	for _, id := range order {
		s.publishTimeline(ctx, id, changed[id])
	}
	if len(order) > 0 {
		s.bc.notify(listKey)
	}
	return afterSeq, nil
}

func (s *Server) publishTimeline(ctx context.Context, id, lastType string) {
	s.bc.notify(id)
	if lastType == "timeline.delete" {
		return
	}
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warnf("load timeline id=%s: %v", id, err)
		return
	}
	n := s.hub.Publish(id, snapshotPayload(rec), nil)
	s.log.Debugf("pushed out-of-band edit timeline=%s recipients=%d", id, n)
}

func snapshotPayload(rec model.Record) json.RawMessage {
	b, err := json.Marshal(livesync.Payload{Origin: ServerOrigin, Snapshot: rec.Snapshot()})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
