package combat

import (
	"log/slog"

	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/model"
)

// Engine resolves player/monster auto-combat. It holds no mutable state of
// its own; every mutation happens on the Player/Character/MonsterInstance
// passed in, under the caller's world lock.
type Engine struct {
	catalog *data.Catalog
	log     *slog.Logger
}

// New returns a combat Engine bound to catalog.
func New(catalog *data.Catalog, log *slog.Logger) *Engine {
	return &Engine{catalog: catalog, log: log}
}

// CanAttack reports whether player may strike its current target this tick:
// both alive, attack-speed cooldown elapsed, and in range.
func (e *Engine) CanAttack(player *model.Player, monster *model.MonsterInstance, nowMillis int64) bool {
	if player.Character.IsDead() || !monster.IsAlive {
		return false
	}
	interval := int64(1000.0 / player.Character.Derived.AttackSpeed)
	if nowMillis-player.LastAttackTime < interval {
		return false
	}
	rangeSq := player.Character.Derived.AttackRange * player.Character.Derived.AttackRange
	return player.Character.Position.DistanceSquared2D(monster.Position) <= rangeSq
}

// ResolvePlayerAttack applies one auto-attack from player against monster,
// updating LastAttackTime and (on kill) awarding XP and marking death. It
// returns the damage result, whether the monster died, and whether the
// player leveled up as a result (the caller must then call
// internal/inventory.RecalculateStats).
func (e *Engine) ResolvePlayerAttack(player *model.Player, monster *model.MonsterInstance, nowMillis int64) (result Result, died bool, leveledUp bool) {
	player.LastAttackTime = nowMillis

	tmpl := e.catalog.Monster(monster.TemplateID)
	defense := int32(0)
	if tmpl != nil {
		defense = tmpl.Defense
	}

	result = CalcDamage(Attacker{
		AttackPower: player.Character.Derived.Atk,
		Dex:         player.Character.Base.Dex,
	}, defense, model.DamagePhysical)

	died = monster.ApplyDamage(result.Damage, nowMillis)
	if died && tmpl != nil {
		_, leveledUp = e.AwardExperience(player.Character, tmpl.Level, tmpl.ExperienceReward)
	}
	return result, died, leveledUp
}

// ResolveMonsterAttack applies one monster auto-attack against character.
func (e *Engine) ResolveMonsterAttack(tmpl *model.MonsterTemplate, target *model.Character, nowMillis int64) Result {
	res := CalcDamage(Attacker{AttackPower: tmpl.AttackPower}, target.Derived.Def, model.DamagePhysical)
	target.ApplyDamage(res.Damage)
	return res
}

// AwardExperience grants XP scaled by the catalog's level-difference table
// and resolves any resulting level-ups. The
// caller is responsible for calling internal/inventory.RecalculateStats
// afterward when leveledUp is true, since derived combat stats are the
// canonical responsibility of that routine.
func (e *Engine) AwardExperience(ch *model.Character, monsterLevel int32, baseReward int64) (gained int64, leveledUp bool) {
	gained = e.catalog.XPReward(ch.Level, monsterLevel, baseReward)
	ch.Experience += gained
	leveledUp = e.checkLevelUp(ch)
	return gained, leveledUp
}

// LevelThreshold is the XP required to advance from level to level+1. The
// catalog does not carry a closed curve for this; the runtime uses a fixed
// quadratic curve per class level.
func LevelThreshold(level int32) int64 {
	return int64(level) * int64(level) * 100
}

func (e *Engine) checkLevelUp(ch *model.Character) bool {
	leveledUp := false
	for ch.Experience >= LevelThreshold(ch.Level) {
		ch.Level++
		leveledUp = true
		class := e.catalog.Class(ch.Class)
		if class == nil {
			e.log.Warn("level up with unknown class", "character", ch.ID, "class", ch.Class)
			break
		}
		ch.MaxHealth = class.BaseMaxHealth + class.HealthPerLevel*ch.Level
		ch.MaxMana = class.BaseMaxMana + class.ManaPerLevel*ch.Level
		ch.StatusPoints += class.StatusPointsPerLevel
		ch.Health = ch.MaxHealth
		ch.Mana = ch.MaxMana
	}
	return leveledUp
}
