package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aethermoor/worldserver/internal/protocol"
	"github.com/aethermoor/worldserver/internal/world"
)

// Gateway accepts websocket connections, runs each as a Session, and
// dispatches its decoded messages to the world runtime. It implements
// world.Broadcaster so the tick loop can fan out without importing this
// package.
type Gateway struct {
	runtime  *world.Runtime
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
	nextID   int64
}

// NewGateway returns a Gateway bound to runtime.
func NewGateway(runtime *world.Runtime, log *slog.Logger) *Gateway {
	return &Gateway{
		runtime:  runtime,
		log:      log,
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the connection and runs the session's read loop until
// it disconnects.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	g.mu.Lock()
	g.nextID++
	id := sessionID(g.nextID)
	g.mu.Unlock()

	sess := New(id, conn, g.log)
	g.mu.Lock()
	g.sessions[id] = sess
	g.mu.Unlock()

	go sess.WritePump()
	g.readLoop(sess)

	g.onDisconnect(sess)
}

func sessionID(n int64) string {
	return "sess-" + time.Now().Format("20060102150405") + "-" + itoa(n)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (g *Gateway) readLoop(sess *Session) {
	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		g.dispatch(sess, raw)
	}
}

func (g *Gateway) onDisconnect(sess *Session) {
	sess.Close()
	g.mu.Lock()
	delete(g.sessions, sess.ID)
	g.mu.Unlock()

	g.runtime.WithLock(func() {
		g.runtime.Players().Remove(sess.ID)
	})
	g.runtime.Movement().Forget(sess.ID)
	g.Broadcast(&protocol.PlayerDisconnected{Type: "playerDisconnected", PlayerID: sess.ID})
}

// Broadcast implements world.Broadcaster: fan out v to every live session.
func (g *Gateway) Broadcast(v any) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, sess := range g.sessions {
		sess.Send(v)
	}
}

// Send implements world.Broadcaster: deliver v to one session by id.
func (g *Gateway) Send(sessionID string, v any) {
	g.mu.RLock()
	sess, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if !ok {
		return
	}
	sess.Send(v)
}

func (g *Gateway) dispatch(sess *Session, raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed message"})
		return
	}

	ctx := context.Background()

	switch env.Type {
	case "login":
		g.handleLogin(ctx, sess, raw)
	case "register":
		g.handleRegister(ctx, sess, raw)
	case "createCharacter":
		g.handleCreateCharacter(ctx, sess, raw)
	case "selectCharacter":
		g.handleSelectCharacter(ctx, sess, raw)
	case "move":
		g.handleMove(sess, raw)
	case "attackMonster":
		g.handleAttackMonster(sess, raw)
	case "useSkill":
		g.handleUseSkill(sess, raw)
	case "learnSkill":
		g.handleLearnSkill(ctx, sess, raw)
	case "levelUpSkill":
		g.handleLevelUpSkill(ctx, sess, raw)
	case "useItem":
		g.handleUseItem(sess, raw)
	case "equipItem":
		g.handleEquipItem(sess, raw)
	case "unequipItem":
		g.handleUnequipItem(sess, raw)
	case "dropItem":
		g.handleDropItem(sess, raw)
	case "respawn":
		g.handleRespawn(sess)
	case "addStatusPoint":
		g.handleAddStatusPoint(sess, raw)
	case "ping":
		sess.Send(&protocol.Pong{Type: "pong"})
	default:
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "unknown message type: " + env.Type})
	}
}

func decode[T any](raw []byte) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}
