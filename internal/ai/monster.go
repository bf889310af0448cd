// Package ai drives the per-tick monster AI state machine: aggro
// acquisition, chase, attack, death, and respawn.
package ai

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/aethermoor/worldserver/internal/combat"
	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/model"
)

// Controller advances every monster instance by one tick's worth of AI.
// Stateless between calls beyond the catalog and combat engine it's bound
// to — all live state lives on the model.MonsterInstance passed in.
type Controller struct {
	catalog *data.Catalog
	combat  *combat.Engine
	log     *slog.Logger
}

// New returns an ai Controller bound to catalog and the combat engine used
// to resolve monster attacks.
func New(catalog *data.Catalog, combatEngine *combat.Engine, log *slog.Logger) *Controller {
	return &Controller{catalog: catalog, combat: combatEngine, log: log}
}

// Tick advances one monster instance: respawn check, aggro acquisition,
// chase, attack.
func (c *Controller) Tick(monster *model.MonsterInstance, players []*model.Player, dtSeconds float64, nowMillis int64) {
	tmpl := c.catalog.Monster(monster.TemplateID)
	if tmpl == nil {
		c.log.Warn("monster instance with unknown template", "monster", monster.ID, "template", monster.TemplateID)
		return
	}

	if !monster.IsAlive {
		c.tickRespawn(monster, tmpl, nowMillis)
		return
	}

	switch monster.State {
	case model.MonsterIdle:
		c.acquireTarget(monster, tmpl, players)
	case model.MonsterAggro:
		c.tickAggro(monster, tmpl, players, dtSeconds, nowMillis)
	}
}

func (c *Controller) tickRespawn(monster *model.MonsterInstance, tmpl *model.MonsterTemplate, nowMillis int64) {
	respawnAtMillis := monster.LastRespawn + int64(tmpl.RespawnTime*1000)
	if nowMillis < respawnAtMillis {
		return
	}

	monster.CurrentHealth = tmpl.MaxHealth
	monster.IsAlive = true
	monster.State = model.MonsterIdle
	monster.Position = randomPointInRadius(tmpl.SpawnCenter, tmpl.SpawnRadius)
	monster.Position = c.catalog.Terrain.Clamp(monster.Position)
}

func (c *Controller) acquireTarget(monster *model.MonsterInstance, tmpl *model.MonsterTemplate, players []*model.Player) {
	aggroRangeSq := tmpl.AggroRange * tmpl.AggroRange
	for _, p := range players {
		if p.Character.IsDead() {
			continue
		}
		if monster.Position.DistanceSquared2D(p.Character.Position) <= aggroRangeSq {
			monster.CurrentTarget = p.SessionID
			monster.State = model.MonsterAggro
			return
		}
	}
}

func (c *Controller) tickAggro(monster *model.MonsterInstance, tmpl *model.MonsterTemplate, players []*model.Player, dtSeconds float64, nowMillis int64) {
	target := findPlayer(players, monster.CurrentTarget)
	if target == nil || target.Character.IsDead() {
		monster.State = model.MonsterIdle
		monster.CurrentTarget = ""
		return
	}

	distSq := monster.Position.DistanceSquared2D(target.Character.Position)
	attackRangeSq := tmpl.AttackRange * tmpl.AttackRange

	if distSq > attackRangeSq {
		c.chase(monster, tmpl, target.Character.Position, dtSeconds)
		return
	}

	interval := int64(1000.0 / tmpl.AttackSpeed)
	if nowMillis-monster.LastAttackTime < interval {
		return
	}
	monster.LastAttackTime = nowMillis
	c.combat.ResolveMonsterAttack(tmpl, target.Character, nowMillis)

	if target.Character.IsDead() {
		monster.State = model.MonsterIdle
		monster.CurrentTarget = ""
	}
}

func (c *Controller) chase(monster *model.MonsterInstance, tmpl *model.MonsterTemplate, targetPos model.Position, dtSeconds float64) {
	step := tmpl.MovementSpeed * dtSeconds
	dist := monster.Position.Distance2D(targetPos)
	if dist <= step || dist == 0 {
		monster.Position = targetPos
		return
	}
	ratio := step / dist
	monster.Position.X += (targetPos.X - monster.Position.X) * ratio
	monster.Position.Y += (targetPos.Y - monster.Position.Y) * ratio
	monster.Position = c.catalog.Terrain.Clamp(monster.Position)
}

func findPlayer(players []*model.Player, sessionID string) *model.Player {
	for _, p := range players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

func randomPointInRadius(center model.Position, radius float64) model.Position {
	if radius <= 0 {
		return center
	}
	angle := rand.Float64() * 2 * math.Pi
	r := rand.Float64() * radius
	return model.Position{
		X: center.X + r*math.Cos(angle),
		Y: center.Y + r*math.Sin(angle),
		Z: center.Z,
	}
}
