// Package skill implements skill use validation, learn/level-up, and the
// buff/effect lifecycle.
package skill

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/aethermoor/worldserver/internal/combat"
	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/model"
)

// FailureCode is the machine-readable reason a skill use was rejected.
type FailureCode string

const (
	FailPlayerDead      FailureCode = "PLAYER_DEAD"
	FailSkillNotLearned FailureCode = "SKILL_NOT_LEARNED"
	FailSkillNotFound   FailureCode = "SKILL_NOT_FOUND"
	FailCooldown        FailureCode = "COOLDOWN"
	FailInvalidLevel    FailureCode = "INVALID_LEVEL"
	FailNoMana          FailureCode = "NO_MANA"
	FailNoHealth        FailureCode = "NO_HEALTH"
	FailOutOfRange      FailureCode = "OUT_OF_RANGE"
	FailExecutionError  FailureCode = "EXECUTION_ERROR"
)

// Request is one inbound useSkill intent.
type Request struct {
	SkillID        int64
	TargetMonster  *model.MonsterInstance
	TargetPosition *model.Position
}

// TargetResult is one resolved hit within a skill's effect resolution
// (single enemy, or one of several in an area skill).
type TargetResult struct {
	MonsterID int64
	Damage    int32
	Critical  bool
	Died      bool
}

// UseResult is the full outcome of a successful UseSkill call.
type UseResult struct {
	Targets     []TargetResult
	HealedSelf  int32
	LeveledUp   bool
	Effects     []*model.ActiveEffect
}

// Engine validates and resolves skill use, learn, and level-up, following a
// fixed ordered validation chain.
type Engine struct {
	catalog *data.Catalog
	combat  *combat.Engine
	log     *slog.Logger
}

// New returns a skill Engine bound to catalog and the combat engine used for
// damage resolution.
func New(catalog *data.Catalog, combatEngine *combat.Engine, log *slog.Logger) *Engine {
	return &Engine{catalog: catalog, combat: combatEngine, log: log}
}

// UseSkill runs the 7-step validation chain and, on success, resolves the
// skill by its targetType.
func (e *Engine) UseSkill(ch *model.Character, req Request, monsters map[int64]*model.MonsterInstance, nowMillis int64) (UseResult, FailureCode) {
	if ch.IsDead() {
		return UseResult{}, FailPlayerDead
	}

	learned := ch.LearnedSkillByID(req.SkillID)
	if learned == nil {
		return UseResult{}, FailSkillNotLearned
	}

	tmpl := e.catalog.Skill(req.SkillID)
	if tmpl == nil {
		return UseResult{}, FailSkillNotFound
	}

	if float64(nowMillis-learned.LastUsedTime) < tmpl.Cooldown*1000 {
		return UseResult{}, FailCooldown
	}

	row := tmpl.LevelRow(learned.CurrentLevel)
	if row == nil {
		return UseResult{}, FailInvalidLevel
	}

	if ch.Mana < tmpl.ManaCost {
		return UseResult{}, FailNoMana
	}
	if ch.Health <= tmpl.HealthCost {
		return UseResult{}, FailNoHealth
	}

	if tmpl.TargetType == model.TargetEnemy {
		if req.TargetMonster == nil || !req.TargetMonster.IsAlive {
			return UseResult{}, FailOutOfRange
		}
		rangeSq := tmpl.Range * tmpl.Range
		if ch.Position.DistanceSquared2D(req.TargetMonster.Position) > rangeSq {
			return UseResult{}, FailOutOfRange
		}
	}

	ch.Mana -= tmpl.ManaCost
	ch.Health -= tmpl.HealthCost
	learned.LastUsedTime = nowMillis

	result, err := e.resolve(ch, tmpl, row, req, monsters, nowMillis)
	if err != nil {
		e.log.Error("skill resolution failed", "skill", req.SkillID, "character", ch.ID, "error", err)
		return UseResult{}, FailExecutionError
	}
	return result, ""
}

func (e *Engine) resolve(ch *model.Character, tmpl *model.SkillTemplate, row *model.SkillLevelRow, req Request, monsters map[int64]*model.MonsterInstance, nowMillis int64) (UseResult, error) {
	switch tmpl.TargetType {
	case model.TargetEnemy:
		return e.resolveEnemy(ch, tmpl, row, req.TargetMonster, nowMillis), nil

	case model.TargetArea:
		center := ch.Position
		if req.TargetPosition != nil {
			center = *req.TargetPosition
		}
		return e.resolveArea(ch, tmpl, row, center, monsters, nowMillis), nil

	case model.TargetSelf, model.TargetAlly:
		// Ally-targeted skills fall back to self-cast.
		return e.resolveSelf(ch, tmpl, row, nowMillis), nil
	}
	return UseResult{}, nil
}

func (e *Engine) resolveEnemy(ch *model.Character, tmpl *model.SkillTemplate, row *model.SkillLevelRow, monster *model.MonsterInstance, nowMillis int64) UseResult {
	power := ch.Derived.Atk
	if tmpl.DamageType == model.DamageMagical {
		power = ch.Derived.MAtk
	}
	raw := float64(power)*row.DamageMultiplier + float64(row.BaseDamage)

	monsterTmpl := e.catalog.Monster(monster.TemplateID)
	defense := int32(0)
	if monsterTmpl != nil {
		defense = monsterTmpl.Defense
	}

	res := combat.CalcDamage(combat.Attacker{
		AttackPower:     int32(raw),
		MagicPower:      int32(raw),
		Dex:             ch.Base.Dex,
		Int:             ch.Base.Int,
		CritChanceBonus: row.CritChanceBonus,
	}, defense, tmpl.DamageType)

	died := monster.ApplyDamage(res.Damage, nowMillis)
	leveledUp := false
	if died && monsterTmpl != nil {
		_, leveledUp = e.combat.AwardExperience(ch, monsterTmpl.Level, monsterTmpl.ExperienceReward)
	}

	return UseResult{
		Targets:   []TargetResult{{MonsterID: monster.ID, Damage: res.Damage, Critical: res.Critical, Died: died}},
		LeveledUp: leveledUp,
	}
}

func (e *Engine) resolveArea(ch *model.Character, tmpl *model.SkillTemplate, row *model.SkillLevelRow, center model.Position, monsters map[int64]*model.MonsterInstance, nowMillis int64) UseResult {
	power := ch.Derived.Atk
	if tmpl.DamageType == model.DamageMagical {
		power = ch.Derived.MAtk
	}
	raw := float64(power)*row.DamageMultiplier + float64(row.BaseDamage)
	radiusSq := tmpl.AreaRadius * tmpl.AreaRadius

	ids := make([]int64, 0, len(monsters))
	for id := range monsters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out UseResult
	for _, id := range ids {
		monster := monsters[id]
		if !monster.IsAlive {
			continue
		}
		if center.DistanceSquared2D(monster.Position) > radiusSq {
			continue
		}
		monsterTmpl := e.catalog.Monster(monster.TemplateID)
		defense := int32(0)
		if monsterTmpl != nil {
			defense = monsterTmpl.Defense
		}
		res := combat.CalcDamage(combat.Attacker{
			AttackPower:     int32(raw),
			MagicPower:      int32(raw),
			Dex:             ch.Base.Dex,
			Int:             ch.Base.Int,
			CritChanceBonus: row.CritChanceBonus,
		}, defense, tmpl.DamageType)
		died := monster.ApplyDamage(res.Damage, nowMillis)
		if died && monsterTmpl != nil {
			_, leveledUp := e.combat.AwardExperience(ch, monsterTmpl.Level, monsterTmpl.ExperienceReward)
			out.LeveledUp = out.LeveledUp || leveledUp
		}
		out.Targets = append(out.Targets, TargetResult{MonsterID: monster.ID, Damage: res.Damage, Critical: res.Critical, Died: died})
	}
	return out
}

func (e *Engine) resolveSelf(ch *model.Character, tmpl *model.SkillTemplate, row *model.SkillLevelRow, nowMillis int64) UseResult {
	healing := int32(float64(row.BaseHealing) + float64(ch.Derived.MAtk)*row.DamageMultiplier)
	ch.Heal(healing)

	var effects []*model.ActiveEffect
	for i, def := range tmpl.Effects {
		effects = append(effects, &model.ActiveEffect{
			ID:         tmpl.ID*1000 + int64(i),
			SkillID:    tmpl.ID,
			EffectType: def.EffectType,
			TargetStat: def.TargetStat,
			Value:      def.Value,
			StartTime:  nowMillis,
			Duration:   def.Duration,
			SourceID:   strconv.FormatInt(ch.ID, 10),
		})
	}

	return UseResult{HealedSelf: healing, Effects: effects}
}
