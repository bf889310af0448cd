package world

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aethermoor/worldserver/internal/ai"
	"github.com/aethermoor/worldserver/internal/combat"
	"github.com/aethermoor/worldserver/internal/config"
	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/db"
	"github.com/aethermoor/worldserver/internal/inventory"
	"github.com/aethermoor/worldserver/internal/model"
	"github.com/aethermoor/worldserver/internal/skill"
)

// Broadcaster is the subset of the session gateway the runtime needs to fan
// out periodic snapshots and discrete events, injected to avoid an import
// cycle between internal/world and internal/session.
type Broadcaster interface {
	Broadcast(v any)
	Send(sessionID string, v any)
}

// Runtime is the single logical tick loop driving the world. It owns the
// PlayerRegistry and MonsterRegistry and serializes every gameplay mutation
// behind its world lock.
type Runtime struct {
	cfg     config.World
	catalog *data.Catalog
	store   *storeHandles
	log     *slog.Logger

	combat    *combat.Engine
	inventory *inventory.Engine
	skill     *skill.Engine
	ai        *ai.Controller
	movement  *MovementGuard

	broadcaster Broadcaster

	mu       sync.Mutex // the world lock
	players  *PlayerRegistry
	monsters *MonsterRegistry

	lootLocks   sync.Map // map[int64]*sync.Mutex, per-monster
	tickCount   int64
}

type storeHandles struct {
	accounts    *db.Accounts
	characters  *db.Characters
	inventories *db.Inventories
	skills      *db.Skills
	monsters    *db.Monsters
	combatLogs  *db.CombatLogs
	allocator   *db.ItemInstanceAllocator
}

// NewRuntime constructs a Runtime wired to the given store and catalog. Call
// LoadMonsters before Run to seed the MonsterRegistry.
func NewRuntime(cfg config.World, catalog *data.Catalog, store *db.Store, allocator *db.ItemInstanceAllocator, broadcaster Broadcaster, log *slog.Logger) *Runtime {
	combatEngine := combat.New(catalog, log)
	return &Runtime{
		cfg:     cfg,
		catalog: catalog,
		store: &storeHandles{
			accounts:    db.NewAccounts(store),
			characters:  db.NewCharacters(store),
			inventories: db.NewInventories(store),
			skills:      db.NewSkills(store),
			monsters:    db.NewMonsters(store),
			combatLogs:  db.NewCombatLogs(store),
			allocator:   allocator,
		},
		log:         log,
		combat:      combatEngine,
		inventory:   inventory.New(catalog, log),
		skill:       skill.New(catalog, combatEngine, log),
		ai:          ai.New(catalog, combatEngine, log),
		movement:    NewMovementGuard(),
		broadcaster: broadcaster,
		players:     NewPlayerRegistry(),
		monsters:    NewMonsterRegistry(),
	}
}

// LoadMonsters seeds the MonsterRegistry from the persisted rows.
func (r *Runtime) LoadMonsters(ctx context.Context) error {
	instances, err := r.store.monsters.LoadMonsterInstances(ctx)
	if err != nil {
		return err
	}
	r.monsters.Load(instances)
	return nil
}

// WithLock runs fn while holding the world lock, for session handlers that
// need brief, serialized access to the registries.
func (r *Runtime) WithLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Players exposes the registry for handlers operating WithLock.
func (r *Runtime) Players() *PlayerRegistry { return r.players }

// Monsters exposes the registry for handlers operating WithLock.
func (r *Runtime) Monsters() *MonsterRegistry { return r.monsters }

// Movement exposes the MovementGuard for handlers validating moveRequest.
func (r *Runtime) Movement() *MovementGuard { return r.movement }

// Combat exposes the combat engine for handlers resolving attackMonster.
func (r *Runtime) Combat() *combat.Engine { return r.combat }

// Inventory exposes the inventory engine for handlers resolving item ops.
func (r *Runtime) Inventory() *inventory.Engine { return r.inventory }

// Skill exposes the skill engine for handlers resolving useSkill.
func (r *Runtime) Skill() *skill.Engine { return r.skill }

// Catalog exposes the content catalog for handlers needing template lookups
// outside the tick loop (e.g. character creation).
func (r *Runtime) Catalog() *data.Catalog { return r.catalog }

// ClassTable looks up a class's catalog row by name, or nil if unknown.
func (r *Runtime) ClassTable(name string) *model.ClassTable { return r.catalog.Class(name) }

// Store exposes persistence handles (login/character/inventory/skill
// operations invoked from session handlers, outside the tick loop).
func (r *Runtime) Accounts() *db.Accounts       { return r.store.accounts }
func (r *Runtime) Characters() *db.Characters   { return r.store.characters }
func (r *Runtime) Inventories() *db.Inventories { return r.store.inventories }
func (r *Runtime) Skills() *db.Skills           { return r.store.skills }
func (r *Runtime) Allocator() *db.ItemInstanceAllocator { return r.store.allocator }

// LootLock returns the per-monster mutex used to serialize the death/loot
// critical section.
func (r *Runtime) LootLock(monsterID int64) *sync.Mutex {
	actual, _ := r.lootLocks.LoadOrStore(monsterID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Run drives the fixed-rate tick loop until ctx is cancelled.
// It never performs blocking persistence I/O itself — phase 6's save is
// dispatched to a background goroutine every SaveEveryMs.
func (r *Runtime) Run(ctx context.Context) {
	period := r.cfg.TickPeriod()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	var ticksSinceBroadcast int
	broadcastEvery := r.cfg.BroadcastPeriod()
	lastSave := time.Now()
	savePeriod := r.cfg.SavePeriod()

	ticksPerBroadcast := int(broadcastEvery / period)
	if ticksPerBroadcast < 1 {
		ticksPerBroadcast = 1
	}

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			r.tickCount++

			r.runTick(ctx, dt, now)

			ticksSinceBroadcast++
			if ticksSinceBroadcast >= ticksPerBroadcast {
				ticksSinceBroadcast = 0
				r.broadcastWorldState()
			}

			if now.Sub(lastSave) >= savePeriod {
				lastSave = now
				r.asyncSave(ctx)
			}
		}
	}
}

// runTick executes the four in-lock tick phases (movement, player combat,
// monster AI, effect expiry) in order under the world lock; Run handles the
// broadcast and save phases. A panic in a phase is caught and logged so the
// tick continues.
func (r *Runtime) runTick(ctx context.Context, dt float64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nowMillis := now.UnixMilli()

	r.safely("movement integration", func() { r.tickMovement(dt) })
	r.safely("player combat", func() { r.tickPlayerCombat(nowMillis) })
	r.safely("monster ai", func() { r.tickMonsterAI(dt, nowMillis) })
	r.safely("effect expiry", func() { r.tickEffectExpiry(nowMillis) })
}

func (r *Runtime) safely(phase string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("tick phase panicked", "phase", phase, "recover", rec)
		}
	}()
	fn()
}

// playerMovementSpeed is world units per second for target-position travel.
// The catalog does not carry a per-class movement speed (only monsters have
// one); all player characters move at the same pace.
const playerMovementSpeed = 5.0

func (r *Runtime) tickMovement(dt float64) {
	for _, p := range r.players.AllSorted() {
		if p.TargetPosition == nil {
			continue
		}
		step := playerMovementSpeed * dt
		dist := p.Character.Position.Distance2D(*p.TargetPosition)
		if dist <= step || dist == 0 {
			p.Character.Position = *p.TargetPosition
			p.TargetPosition = nil
			p.IsMoving = false
			continue
		}
		ratio := step / dist
		p.Character.Position.X += (p.TargetPosition.X - p.Character.Position.X) * ratio
		p.Character.Position.Y += (p.TargetPosition.Y - p.Character.Position.Y) * ratio
		p.Character.Position = r.catalog.Terrain.Clamp(p.Character.Position)
	}
}

func (r *Runtime) tickPlayerCombat(nowMillis int64) {
	for _, p := range r.players.AllSorted() {
		if !p.InCombat() || p.Character.IsDead() {
			continue
		}
		monster := r.monsters.Get(p.TargetMonsterID)
		if monster == nil || !monster.IsAlive {
			p.ClearTarget()
			continue
		}

		if !r.combat.CanAttack(p, monster, nowMillis) {
			p.TargetPosition = &monster.Position
			p.IsMoving = true
			continue
		}

		lock := r.LootLock(monster.ID)
		lock.Lock()
		_, died, leveledUp := r.combat.ResolvePlayerAttack(p, monster, nowMillis)
		if leveledUp {
			r.inventory.RecalculateStats(p.Character, p.Inventory)
		}
		if died {
			r.resolveLoot(p, monster)
		}
		lock.Unlock()

		if died {
			p.ClearTarget()
		}
	}
}

// ResolveLoot rolls and applies loot for monster's death, serialized under
// its per-monster LootLock. Callers outside the tick loop (e.g. a
// kill-credit skill resolved from a session handler) must already be
// running inside WithLock.
func (r *Runtime) ResolveLoot(p *model.Player, monster *model.MonsterInstance) {
	lock := r.LootLock(monster.ID)
	lock.Lock()
	defer lock.Unlock()
	r.resolveLoot(p, monster)
}

func (r *Runtime) resolveLoot(p *model.Player, monster *model.MonsterInstance) {
	tmpl := r.catalog.Monster(monster.TemplateID)
	if tmpl == nil {
		return
	}
	table := r.catalog.Loot(tmpl.LootTableID)
	gold, drops := inventory.RollLoot(table)
	result, err := r.inventory.ApplyLoot(p.Inventory, gold, drops, func() (int64, error) {
		return r.store.allocator.Next(context.Background())
	})
	if err != nil {
		r.log.Error("applying loot", "player", p.SessionID, "monster", monster.ID, "error", err)
		return
	}
	if r.broadcaster != nil {
		r.broadcaster.Send(p.SessionID, map[string]any{
			"type":   "lootReceived",
			"gold":   result.Gold,
			"items":  result.Items,
		})
	}
}

func (r *Runtime) tickMonsterAI(dt float64, nowMillis int64) {
	players := r.players.AllSorted()
	for _, m := range r.monsters.AllSorted() {
		r.ai.Tick(m, players, dt, nowMillis)
	}
}

func (r *Runtime) tickEffectExpiry(nowMillis int64) {
	for _, p := range r.players.AllSorted() {
		kept := p.ActiveEffects[:0]
		for _, eff := range p.ActiveEffects {
			if !eff.Expired(nowMillis) {
				kept = append(kept, eff)
			}
		}
		p.ActiveEffects = kept
	}
}

func (r *Runtime) broadcastWorldState() {
	r.mu.Lock()
	players := r.players.AllSorted()
	monsters := r.monsters.AllSorted()
	r.mu.Unlock()

	if r.broadcaster == nil {
		return
	}
	r.broadcaster.Broadcast(map[string]any{
		"type":     "worldState",
		"players":  players,
		"monsters": monsters,
	})
}

// asyncSave persists every active character and all monster instances on a
// background task so the tick loop never blocks on I/O.
func (r *Runtime) asyncSave(ctx context.Context) {
	r.mu.Lock()
	players := r.players.AllSorted()
	monsters := r.monsters.AllSorted()
	r.mu.Unlock()

	go func() {
		g, gctx := errgroup.WithContext(ctx)
		for _, p := range players {
			p := p
			g.Go(func() error {
				if err := r.Characters().UpdateCharacter(gctx, p.Character); err != nil {
					r.log.Error("periodic character save failed", "character", p.Character.ID, "error", err)
				}
				if err := r.Inventories().SaveInventory(gctx, p.Inventory); err != nil {
					r.log.Error("periodic inventory save failed", "character", p.Character.ID, "error", err)
				}
				return nil
			})
		}
		for _, m := range monsters {
			m := m
			g.Go(func() error {
				if err := r.store.monsters.UpdateMonsterInstance(gctx, m); err != nil {
					r.log.Error("periodic monster save failed", "monster", m.ID, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Shutdown synchronously persists every active character and monster
// instance.
func (r *Runtime) Shutdown(ctx context.Context) {
	r.mu.Lock()
	players := r.players.AllSorted()
	monsters := r.monsters.AllSorted()
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range players {
		p := p
		g.Go(func() error {
			if err := r.Characters().UpdateCharacter(gctx, p.Character); err != nil {
				return err
			}
			return r.Inventories().SaveInventory(gctx, p.Inventory)
		})
	}
	for _, m := range monsters {
		m := m
		g.Go(func() error {
			return r.store.monsters.UpdateMonsterInstance(gctx, m)
		})
	}
	if err := g.Wait(); err != nil {
		r.log.Error("shutdown persistence failed", "error", err)
	}
}
