package livesync

import (
	"encoding/json"
	"fmt"
	"testing"

	"planline/internal/model"
)

type seqMarkers struct{ n int }

func (s *seqMarkers) Next() Marker {
	s.n++
	return Marker(fmt.Sprintf("m%03d", s.n))
}

func TestAccept_NewMarkerOnce(t *testing.T) {
	s := NewShim("me", &seqMarkers{})
	r := s.Tag(Payload{Origin: "other", Snapshot: model.Snapshot{Name: "x"}})
	if !s.Accept(r) {
		t.Fatalf("expected first delivery applied")
	}
	if s.Accept(r) {
		t.Fatalf("same marker must not apply twice")
	}
	if !s.Accept(s.Tag(Payload{Origin: "other"})) {
		t.Fatalf("expected a fresh marker to apply")
	}
}

func TestAccept_DropsSelfEchoAndUnmarked(t *testing.T) {
	s := NewShim("me", &seqMarkers{})
	if s.Accept(s.Tag(s.Outgoing(model.Snapshot{Name: "mine"}))) {
		t.Fatalf("own broadcast must be ignored")
	}
	if s.Accept(Remote{Origin: "other"}) {
		t.Fatalf("an unmarked snapshot is a local save, not a remote update")
	}
}

func TestUUIDMarkersIncrease(t *testing.T) {
	prev := UUIDMarkers.Next()
	for i := 0; i < 100; i++ {
		next := UUIDMarkers.Next()
		if next <= prev {
			t.Fatalf("markers not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestPayloadJSONIsFlat(t *testing.T) {
	b, err := json.Marshal(Payload{Origin: "c1", Snapshot: model.Snapshot{Name: "n", StartDate: "2026-01-05"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["origin"] != "c1" || m["name"] != "n" || m["startDate"] != "2026-01-05" {
		t.Fatalf("unexpected payload %s", b)
	}
}
