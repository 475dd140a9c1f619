package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"planline/internal/model"
	"planline/internal/store"
)

// listKey is the hub for the timeline list; every other key is a timeline id.
const listKey = "timelines"

const keepAliveEvery = 25 * time.Second

type resourceHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newResourceHub() *resourceHub {
	return &resourceHub{subs: map[chan struct{}]struct{}{}}
}

func (h *resourceHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

// broadcast never blocks: a subscriber with a pending wakeup already has
// one queued.
func (h *resourceHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *resourceHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

type resourceBroadcaster struct {
	mu   sync.Mutex
	hubs map[string]*resourceHub
}

func newResourceBroadcaster() *resourceBroadcaster {
	return &resourceBroadcaster{hubs: map[string]*resourceHub{}}
}

func (b *resourceBroadcaster) hubFor(key string) *resourceHub {
	key = strings.TrimSpace(key)
	if key == "" {
		key = listKey
	}
	b.mu.Lock()
	h := b.hubs[key]
	if h == nil {
		h = newResourceHub()
		b.hubs[key] = h
	}
	b.mu.Unlock()
	return h
}

func (b *resourceBroadcaster) notify(key string) {
	b.hubFor(key).broadcast()
}

// timelineSignals is the signal set pushed to a timeline page.
func timelineSignals(rec model.Record) map[string]any {
	return map[string]any{
		"timeline":  rec,
		"taskCount": len(rec.Tasks),
		"updatedAt": rec.UpdatedAt.UTC().Format(time.RFC3339),
		"deleted":   false,
	}
}

func (s *Server) handleTimelineEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.storeError(w, err, "fetch timeline")
		return
	}
	s.serveSignalsStream(w, r, id, func() (map[string]any, error) {
		rec, err := s.store.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return map[string]any{"deleted": true}, nil
		}
		if err != nil {
			return nil, err
		}
		return timelineSignals(rec), nil
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	s.serveSignalsStream(w, r, listKey, func() (map[string]any, error) {
		list, err := s.store.List(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{"timelines": list}, nil
	})
}

func (s *Server) serveSignalsStream(w http.ResponseWriter, r *http.Request, key string, renderSignals func() (map[string]any, error)) {
	sse := datastar.NewSSE(w, r)

	// Subscribe before the first render so no change slips in between.
	ch, cancel := s.bc.hubFor(key).subscribe()
	defer cancel()

	if sig, err := renderSignals(); err == nil && sig != nil {
		_ = sse.MarshalAndPatchSignals(sig)
	}

	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			sig, err := renderSignals()
			if err != nil {
				s.log.Warnf("signals %s: %v", key, err)
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			if sig == nil {
				sig = map[string]any{}
			}
			_ = sse.MarshalAndPatchSignals(sig)
		}
	}
}
