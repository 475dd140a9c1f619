// Package relay forwards timeline snapshots between websocket clients. A
// client joins the room of a timeline; whatever one member syncs is sent
// unchanged to every other member of that room.
//
// Wire messages are JSON envelopes {"event": ..., "data": ...}:
//
//	timeline:join   data: "<timelineId>"
//	timeline:leave  data: "<timelineId>"
//	timeline:sync   data: {"timelineId": "<id>", "data": <snapshot>}
//
// Members receive {"event":"timeline:sync","timelineId":"<id>","data":<snapshot>}.
package relay

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"planline/internal/logging"
)

const (
	EventJoin  = "timeline:join"
	EventLeave = "timeline:leave"
	EventSync  = "timeline:sync"
)

// RoomName is the room clients of one timeline share.
func RoomName(timelineID string) string { return "timeline:" + timelineID }

// Outgoing is what room members receive.
type Outgoing struct {
	Event      string          `json:"event"`
	TimelineID string          `json:"timelineId"`
	Data       json.RawMessage `json:"data"`
}

// Member is one connected client as the hub sees it.
type Member struct {
	ID   string
	send chan []byte

	once   sync.Once
	closed chan struct{}
}

const memberBuffer = 64

func newMember(id string) *Member {
	return &Member{ID: id, send: make(chan []byte, memberBuffer), closed: make(chan struct{})}
}

func (m *Member) close() {
	m.once.Do(func() { close(m.closed) })
}

// Hub tracks room membership. It is safe for concurrent use.
type Hub struct {
	log *logging.Logger

	mu      sync.Mutex
	rooms   map[string]map[*Member]struct{}
	members map[*Member]map[string]struct{}
}

func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	return &Hub{
		log:     log,
		rooms:   map[string]map[*Member]struct{}{},
		members: map[*Member]map[string]struct{}{},
	}
}

func (h *Hub) register(m *Member) {
	h.mu.Lock()
	h.members[m] = map[string]struct{}{}
	h.mu.Unlock()
}

// unregister drops m from every room.
func (h *Hub) unregister(m *Member) {
	h.mu.Lock()
	for room := range h.members[m] {
		h.removeLocked(room, m)
	}
	delete(h.members, m)
	h.mu.Unlock()
	m.close()
}

func (h *Hub) Join(m *Member, timelineID string) {
	room := RoomName(timelineID)
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms, ok := h.members[m]
	if !ok {
		return
	}
	rooms[room] = struct{}{}
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Member]struct{}{}
	}
	h.rooms[room][m] = struct{}{}
}

func (h *Hub) Leave(m *Member, timelineID string) {
	room := RoomName(timelineID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if rooms, ok := h.members[m]; ok {
		delete(rooms, room)
	}
	h.removeLocked(room, m)
}

func (h *Hub) removeLocked(room string, m *Member) {
	set := h.rooms[room]
	if set == nil {
		return
	}
	delete(set, m)
	if len(set) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize is the number of members in a timeline's room.
func (h *Hub) RoomSize(timelineID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[RoomName(timelineID)])
}

// Publish sends a snapshot to every member of the timeline's room except
// the sender (nil sends to all). Members whose buffer is full are dropped.
func (h *Hub) Publish(timelineID string, data json.RawMessage, except *Member) int {
	msg, err := json.Marshal(Outgoing{Event: EventSync, TimelineID: timelineID, Data: data})
	if err != nil {
		return 0
	}
	room := RoomName(timelineID)

	h.mu.Lock()
	targets := make([]*Member, 0, len(h.rooms[room]))
	for m := range h.rooms[room] {
		if m != except {
			targets = append(targets, m)
		}
	}
	h.mu.Unlock()

	sent := 0
	for _, m := range targets {
		select {
		case m.send <- msg:
			sent++
		default:
			h.log.Warnf("dropping slow client id=%s room=%s", m.ID, room)
			go h.unregister(m)
		}
	}
	return sent
}

// Handle routes one inbound envelope from m. Unknown events and malformed
// messages are ignored.
func (h *Hub) Handle(m *Member, raw []byte) {
	if !gjson.ValidBytes(raw) {
		h.log.Debugf("ignoring invalid json from id=%s", m.ID)
		return
	}
	env := gjson.ParseBytes(raw)
	event := env.Get("event").String()
	switch event {
	case EventJoin, EventLeave:
		id := strings.TrimSpace(timelineIDOf(env.Get("data")))
		if id == "" {
			return
		}
		if event == EventJoin {
			h.Join(m, id)
			h.log.Debugf("client id=%s joined room=%s", m.ID, RoomName(id))
		} else {
			h.Leave(m, id)
			h.log.Debugf("client id=%s left room=%s", m.ID, RoomName(id))
		}
	case EventSync:
		id := strings.TrimSpace(env.Get("data.timelineId").String())
		data := env.Get("data.data")
		if id == "" || !data.Exists() {
			return
		}
		n := h.Publish(id, json.RawMessage(data.Raw), m)
		h.log.Debugf("client id=%s synced timeline=%s recipients=%d", m.ID, id, n)
	default:
		h.log.Debugf("ignoring event %q from id=%s", event, m.ID)
	}
}

// timelineIDOf accepts both "id" and {"timelineId": "id"} join payloads.
func timelineIDOf(v gjson.Result) string {
	if v.IsObject() {
		return v.Get("timelineId").String()
	}
	return v.String()
}
