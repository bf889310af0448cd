// Package world implements the authoritative tick loop, the registries it
// drives, and per-session speed-hack validation.
package world

import (
	"sync"

	"github.com/aethermoor/worldserver/internal/model"
)

// MaxAllowedSpeed is the default ceiling (3x normal movement speed) above
// which an accepted move is treated as a speed hack.
const MaxAllowedSpeed = 15.0

// lastAccepted is one session's last server-accepted position and when it
// was accepted.
type lastAccepted struct {
	position model.Position
	atMillis int64
}

// MovementGuard rejects accepted positions that imply a speed exceeding
// MaxAllowedSpeed. Guarded by its own mutex rather than the world lock: this
// bookkeeping only touches per-session state, never shared world state.
type MovementGuard struct {
	mu        sync.Mutex
	maxSpeed  float64
	bySession map[string]lastAccepted
}

// NewMovementGuard returns a MovementGuard with the default max speed.
func NewMovementGuard() *MovementGuard {
	return &MovementGuard{maxSpeed: MaxAllowedSpeed, bySession: make(map[string]lastAccepted)}
}

// Validate checks a newly proposed position against the session's last
// accepted one. Accepted positions update the tracked entry.
func (g *MovementGuard) Validate(sessionID string, proposed model.Position, nowMillis int64) (accepted model.Position, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev, known := g.bySession[sessionID]
	if !known {
		g.bySession[sessionID] = lastAccepted{position: proposed, atMillis: nowMillis}
		return proposed, true
	}

	dtMillis := nowMillis - prev.atMillis
	if dtMillis <= 0 {
		return prev.position, false
	}
	dt := float64(dtMillis) / 1000
	distance := prev.position.Distance2D(proposed)
	speed := distance / dt

	if speed > g.maxSpeed {
		// Do not disclose the threshold to the client; the caller logs a
		// SPEED_HACK event and reverts to prev.position.
		return prev.position, false
	}

	g.bySession[sessionID] = lastAccepted{position: proposed, atMillis: nowMillis}
	return proposed, true
}

// Forget drops tracked state for a disconnected session.
func (g *MovementGuard) Forget(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.bySession, sessionID)
}
