// Package livesync decides which incoming full-state snapshots a client
// applies. Every received payload is tagged with a fresh marker; a snapshot
// is applied wholesale when its marker differs from the last one applied.
// Local saves never carry a marker.
package livesync

import (
	"sync"

	"github.com/google/uuid"

	"planline/internal/model"
)

// Marker identifies one received snapshot. Markers are UUIDv7 strings, so
// later markers sort after earlier ones.
type Marker string

// MarkerSource mints markers for received payloads.
type MarkerSource interface {
	Next() Marker
}

type uuidMarkers struct{}

func (uuidMarkers) Next() Marker {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return Marker(uuid.NewString())
	}
	return Marker(id.String())
}

// UUIDMarkers is the default source.
var UUIDMarkers MarkerSource = uuidMarkers{}

// NewClientID returns an id naming one editing client (the payload origin).
func NewClientID() string {
	return uuid.NewString()
}

// Payload is the broadcast body: the same fields as a save plus the
// sending client's id.
type Payload struct {
	Origin string `json:"origin,omitempty"`
	model.Snapshot
}

// Remote is a received payload after tagging.
type Remote struct {
	Marker   Marker
	Origin   string
	Snapshot model.Snapshot
}

type Shim struct {
	self    string
	markers MarkerSource

	mu   sync.Mutex
	last Marker
}

// NewShim creates the shim for the client self. A nil source uses UUIDv7.
func NewShim(self string, markers MarkerSource) *Shim {
	if markers == nil {
		markers = UUIDMarkers
	}
	return &Shim{self: self, markers: markers}
}

func (s *Shim) Self() string { return s.self }

// Tag stamps a received payload with a fresh marker.
func (s *Shim) Tag(p Payload) Remote {
	return Remote{Marker: s.markers.Next(), Origin: p.Origin, Snapshot: p.Snapshot}
}

// Accept reports whether r should overwrite local state, and records its
// marker if so. The client's own echoes and already-applied markers are
// refused.
func (s *Shim) Accept(r Remote) bool {
	if r.Marker == "" {
		return false
	}
	if s.self != "" && r.Origin == s.self {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Marker == s.last {
		return false
	}
	s.last = r.Marker
	return true
}

// Outgoing wraps a local snapshot for broadcast.
func (s *Shim) Outgoing(snap model.Snapshot) Payload {
	return Payload{Origin: s.self, Snapshot: snap}
}
