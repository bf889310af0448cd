package world

import (
	"sort"

	"github.com/aethermoor/worldserver/internal/model"
)

// PlayerRegistry is the set of active in-world players keyed by session ID.
// Owned exclusively by the tick loop and session handlers under the world
// lock.
type PlayerRegistry struct {
	byID map[string]*model.Player
}

// NewPlayerRegistry returns an empty PlayerRegistry.
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{byID: make(map[string]*model.Player)}
}

// Put adds or replaces a player.
func (r *PlayerRegistry) Put(p *model.Player) {
	r.byID[p.SessionID] = p
}

// Get returns the player for sessionID, or nil.
func (r *PlayerRegistry) Get(sessionID string) *model.Player {
	return r.byID[sessionID]
}

// Remove deletes a player from the registry.
func (r *PlayerRegistry) Remove(sessionID string) {
	delete(r.byID, sessionID)
}

// All returns every player in no defined order (insertion order is not
// tracked here; callers needing tick-stable order use AllSorted).
func (r *PlayerRegistry) All() []*model.Player {
	out := make([]*model.Player, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out
}

// AllSorted returns every player ordered by session ID, giving the tick loop
// a deterministic processing order within a phase.
func (r *PlayerRegistry) AllSorted() []*model.Player {
	out := r.All()
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Len returns the number of active players.
func (r *PlayerRegistry) Len() int {
	return len(r.byID)
}

// MonsterRegistry is the set of spawned monster instances keyed by id. Owned
// exclusively by the tick loop.
type MonsterRegistry struct {
	byID map[int64]*model.MonsterInstance
}

// NewMonsterRegistry returns an empty MonsterRegistry.
func NewMonsterRegistry() *MonsterRegistry {
	return &MonsterRegistry{byID: make(map[int64]*model.MonsterInstance)}
}

// Load seeds the registry from persisted rows (world init).
func (r *MonsterRegistry) Load(instances []*model.MonsterInstance) {
	for _, m := range instances {
		r.byID[m.ID] = m
	}
}

// Get returns the monster instance for id, or nil.
func (r *MonsterRegistry) Get(id int64) *model.MonsterInstance {
	return r.byID[id]
}

// Map returns the live id->instance map for callers (e.g. area skill
// resolution) that need direct lookup; callers must still impose a stable
// iteration order themselves.
func (r *MonsterRegistry) Map() map[int64]*model.MonsterInstance {
	return r.byID
}

// AllSorted returns every monster instance ordered by id.
func (r *MonsterRegistry) AllSorted() []*model.MonsterInstance {
	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*model.MonsterInstance, len(ids))
	for i, id := range ids {
		out[i] = r.byID[id]
	}
	return out
}
