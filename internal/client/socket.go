package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"planline/internal/livesync"
	"planline/internal/logging"
	"planline/internal/relay"
)

// ErrDisconnected is returned by sends while the socket has no live
// connection (between reconnect attempts, or after giving up).
var ErrDisconnected = errors.New("socket disconnected")

const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = time.Second

	socketWriteWait = 10 * time.Second
)

// SyncFunc receives a snapshot another client broadcast to a joined room.
type SyncFunc func(timelineID string, p livesync.Payload)

type SocketOptions struct {
	Log               *logging.Logger
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Dialer            *websocket.Dialer
}

// Socket is a relay connection. It rejoins its rooms after a reconnect.
type Socket struct {
	url  string
	opts SocketOptions
	log  *logging.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	rooms    map[string]struct{}
	handlers []SyncFunc

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// SocketURL turns a server base URL into its websocket endpoint.
func SocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported scheme: " + u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Dial connects to the relay of the server at baseURL.
func Dial(ctx context.Context, baseURL string, opts SocketOptions) (*Socket, error) {
	wsURL, err := SocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = DefaultReconnectAttempts
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	s := &Socket{
		url:    wsURL,
		opts:   opts,
		log:    log.With("socket"),
		rooms:  map[string]struct{}{},
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	conn, _, err := opts.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.log.Infof("connected url=%s", wsURL)
	go s.readLoop(conn)
	return s, nil
}

// OnSync registers fn for incoming snapshots. Handlers run on the read
// goroutine in registration order.
func (s *Socket) OnSync(fn SyncFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.handlers = append(s.handlers, fn)
	s.mu.Unlock()
}

func (s *Socket) Join(ctx context.Context, timelineID string) error {
	s.mu.Lock()
	s.rooms[timelineID] = struct{}{}
	s.mu.Unlock()
	return s.send(ctx, map[string]any{"event": relay.EventJoin, "data": timelineID})
}

func (s *Socket) Leave(ctx context.Context, timelineID string) error {
	s.mu.Lock()
	delete(s.rooms, timelineID)
	s.mu.Unlock()
	return s.send(ctx, map[string]any{"event": relay.EventLeave, "data": timelineID})
}

// EmitSync broadcasts p to the other members of the timeline's room.
func (s *Socket) EmitSync(ctx context.Context, timelineID string, p livesync.Payload) error {
	return s.send(ctx, map[string]any{
		"event": relay.EventSync,
		"data":  map[string]any{"timelineId": timelineID, "data": p},
	})
}

func (s *Socket) send(ctx context.Context, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrDisconnected
	}
	return s.write(ctx, conn, b)
}

func (s *Socket) write(ctx context.Context, conn *websocket.Conn, b []byte) error {
	deadline := time.Now().Add(socketWriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Done is closed once the socket stops for good: after Close, or when every
// reconnect attempt failed.
func (s *Socket) Done() <-chan struct{} { return s.done }

// Connected reports whether a connection is currently live.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}
		s.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = conn.Close()
	})
	<-s.done
	return err
}

func (s *Socket) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	defer close(s.done)
	for {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if !s.isClosed() {
					s.log.Warnf("read: %v", err)
				}
				break
			}
			s.dispatch(raw)
		}

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()

		if s.isClosed() {
			return
		}
		next := s.reconnect()
		if next == nil {
			if !s.isClosed() {
				s.log.Errorf("giving up after %d reconnect attempts", s.opts.ReconnectAttempts)
			}
			return
		}
		conn = next
	}
}

func (s *Socket) reconnect() *websocket.Conn {
	for attempt := 1; attempt <= s.opts.ReconnectAttempts; attempt++ {
		select {
		case <-s.closed:
			return nil
		case <-time.After(s.opts.ReconnectDelay):
		}
		ctx, cancel := context.WithTimeout(context.Background(), socketWriteWait)
		conn, _, err := s.opts.Dialer.DialContext(ctx, s.url, nil)
		cancel()
		if err != nil {
			s.log.Warnf("reconnect attempt=%d: %v", attempt, err)
			continue
		}

		s.mu.Lock()
		rooms := make([]string, 0, len(s.rooms))
		for id := range s.rooms {
			rooms = append(rooms, id)
		}
		s.mu.Unlock()

		rejoined := true
		for _, id := range rooms {
			b, _ := json.Marshal(map[string]any{"event": relay.EventJoin, "data": id})
			if err := s.write(context.Background(), conn, b); err != nil {
				s.log.Warnf("rejoin timeline=%s: %v", id, err)
				rejoined = false
				break
			}
		}
		if !rejoined {
			_ = conn.Close()
			continue
		}

		s.mu.Lock()
		if s.isClosed() {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		s.conn = conn
		s.mu.Unlock()
		s.log.Infof("reconnected attempt=%d rooms=%d", attempt, len(rooms))
		return conn
	}
	return nil
}

func (s *Socket) dispatch(raw []byte) {
	var msg relay.Outgoing
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.Debugf("ignoring malformed message: %v", err)
		return
	}
	if msg.Event != relay.EventSync || msg.TimelineID == "" {
		return
	}
	var p livesync.Payload
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		s.log.Debugf("ignoring bad sync payload timeline=%s: %v", msg.TimelineID, err)
		return
	}
	s.mu.Lock()
	handlers := append([]SyncFunc(nil), s.handlers...)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(msg.TimelineID, p)
	}
}
