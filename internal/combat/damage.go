// Package combat implements the symmetric damage formula, attack-eligibility
// gating, and XP/level-up resolution used against both monsters and
// players.
package combat

import (
	"math"
	"math/rand"

	"github.com/aethermoor/worldserver/internal/model"
)

const (
	maxCritChance = 0.75

	physicalCritBase    = 0.01
	physicalCritDexCoef = 0.003

	magicalCritBase    = 0.05
	magicalCritIntCoef = 0.002

	critMultiplier = 1.5

	minDefenseReduction = 0.1
)

// DamageType selects which attacker stat and crit formula apply.
type DamageType = model.DamageType

// Damage types re-exported for callers of CalcDamage.
const (
	DamagePhysical = model.DamagePhysical
	DamageMagical  = model.DamageMagical
)

// Attacker is the minimal read surface CalcDamage needs from whoever is
// dealing damage, satisfied by both model.Character (players) and
// model.MonsterTemplate-derived values.
type Attacker struct {
	AttackPower int32
	MagicPower  int32
	Dex         int32
	Int         int32
	// CritChanceBonus comes from a skill's level row; zero for
	// plain auto-attacks.
	CritChanceBonus float64
}

// Result is the outcome of one damage calculation.
type Result struct {
	Damage     int32
	Critical   bool
}

// CalcDamage applies the symmetric damage formula: raw attack power,
// clamped crit chance roll, defense reduction, floor of 1.
func CalcDamage(attacker Attacker, defense int32, damageType DamageType) Result {
	var raw float64
	var critChance float64

	switch damageType {
	case model.DamageMagical:
		raw = float64(attacker.MagicPower)
		critChance = magicalCritBase + magicalCritIntCoef*float64(attacker.Int)
	default:
		raw = float64(attacker.AttackPower)
		critChance = physicalCritBase + physicalCritDexCoef*float64(attacker.Dex)
	}

	critChance += attacker.CritChanceBonus
	critChance = clamp(critChance, 0, maxCritChance)

	critical := rand.Float64() < critChance
	if critical {
		raw *= critMultiplier
	}

	r := math.Max(minDefenseReduction, 1-float64(defense)/(float64(defense)+100))
	damage := math.Round(raw * r)
	if damage < 1 {
		damage = 1
	}

	return Result{Damage: int32(damage), Critical: critical}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
