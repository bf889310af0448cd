// Package session implements the per-connection message state machine,
// Unauthenticated -> CharacterSelect -> InWorld, backed by a
// gorilla/websocket connection carrying line-delimited JSON.
package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// State is one of the three session lifecycle states.
type State int

const (
	Unauthenticated State = iota
	CharacterSelect
	InWorld
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case CharacterSelect:
		return "characterSelect"
	case InWorld:
		return "inWorld"
	default:
		return "unknown"
	}
}

// defaultOutboundQueueSize bounds each session's outbound buffer; an
// overflow disconnects the session.
const defaultOutboundQueueSize = 64

// Session is one connection's state: its websocket, outbound queue, and
// auth/character bindings. State/AccountID/PlayerID are guarded by the
// session's own mutex, not the world lock; the outbound queue is
// owned independently so a slow writer never blocks the tick.
type Session struct {
	ID string

	conn *websocket.Conn
	log  *slog.Logger

	mu        sync.Mutex
	state     State
	accountID int64
	playerID  string // session-bound character's player id, == ID once in-world

	outbound  chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

// New wraps conn as a Session in the Unauthenticated state.
func New(id string, conn *websocket.Conn, log *slog.Logger) *Session {
	return &Session{
		ID:       id,
		conn:     conn,
		log:      log,
		state:    Unauthenticated,
		outbound: make(chan []byte, defaultOutboundQueueSize),
		closed:   make(chan struct{}),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session to a new state.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// BindAccount records the authenticated account id.
func (s *Session) BindAccount(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = accountID
}

// AccountID returns the bound account id, or 0 if unauthenticated.
func (s *Session) AccountID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

// BindPlayer records the session's in-world player id.
func (s *Session) BindPlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = playerID
}

// PlayerID returns the bound player id, or "" if not yet in-world.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// Send enqueues v for delivery, encoding it as JSON. On a full queue the
// overflow is logged and the session is closed rather than blocking the
// caller; no error message is sent to the client and no error is returned.
func (s *Session) Send(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshaling outbound message", "session", s.ID, "error", err)
		return
	}
	select {
	case s.outbound <- raw:
	default:
		s.log.Warn("session outbound queue overflow, disconnecting", "session", s.ID)
		s.Close()
	}
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() <-chan struct{} {
	return s.closed
}

// Close closes the underlying connection exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// WritePump drains the outbound queue to the websocket connection until the
// session is closed. Run in its own goroutine per connection.
func (s *Session) WritePump() {
	for {
		select {
		case <-s.closed:
			return
		case msg := <-s.outbound:
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.Close()
				return
			}
		}
	}
}
