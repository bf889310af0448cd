package combat

import (
	"io"
	"log/slog"
	"testing"

	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *data.Catalog {
	return &data.Catalog{
		Monsters: map[int64]*model.MonsterTemplate{
			1: {ID: 1, Level: 3, MaxHealth: 80, AttackPower: 10, Defense: 4, ExperienceReward: 25},
		},
		Classes: map[string]*model.ClassTable{
			"warrior": {
				Class:                "warrior",
				BaseMaxHealth:        120,
				HealthPerLevel:       18,
				BaseMaxMana:          20,
				ManaPerLevel:         2,
				StatusPointsPerLevel: 3,
			},
		},
	}
}

func testPlayer() *model.Player {
	ch := &model.Character{
		ID:        1,
		Class:     "warrior",
		Level:     1,
		Health:    100,
		MaxHealth: 100,
		Derived:   model.DerivedStats{Atk: 20, AttackSpeed: 1.0, AttackRange: 1.5},
		Base:      model.BaseStats{Dex: 8},
	}
	return &model.Player{SessionID: "s1", Character: ch}
}

func testMonster() *model.MonsterInstance {
	return &model.MonsterInstance{ID: 1, TemplateID: 1, CurrentHealth: 80, IsAlive: true}
}

func TestEngine_CanAttack(t *testing.T) {
	e := New(testCatalog(), testLogger())
	player := testPlayer()
	monster := testMonster()

	if !e.CanAttack(player, monster, 1000) {
		t.Fatal("CanAttack() = false, want true for fresh in-range attacker")
	}

	player.LastAttackTime = 1000
	if e.CanAttack(player, monster, 1100) {
		t.Error("CanAttack() = true, want false before attack-speed cooldown elapses")
	}

	player.Character.Dead = true
	if e.CanAttack(player, monster, 5000) {
		t.Error("CanAttack() = true, want false for a dead player")
	}
}

func TestEngine_CanAttack_OutOfRange(t *testing.T) {
	e := New(testCatalog(), testLogger())
	player := testPlayer()
	monster := testMonster()
	monster.Position = model.Position{X: 100, Y: 100}

	if e.CanAttack(player, monster, 1000) {
		t.Error("CanAttack() = true, want false when monster is far outside attack range")
	}
}

func TestEngine_ResolvePlayerAttack_KillsAndAwardsXP(t *testing.T) {
	e := New(testCatalog(), testLogger())
	player := testPlayer()
	monster := testMonster()
	monster.CurrentHealth = 1 // guaranteed kill on any positive damage roll

	_, died, _ := e.ResolvePlayerAttack(player, monster, 2000)

	if !died {
		t.Fatal("ResolvePlayerAttack() died = false, want true")
	}
	if monster.IsAlive {
		t.Error("monster.IsAlive = true after lethal hit, want false")
	}
	if player.Character.Experience != 25 {
		t.Errorf("character experience = %d, want 25", player.Character.Experience)
	}
	if player.LastAttackTime != 2000 {
		t.Errorf("LastAttackTime = %d, want 2000", player.LastAttackTime)
	}
}

func TestEngine_ResolvePlayerAttack_SurvivesWithoutXP(t *testing.T) {
	e := New(testCatalog(), testLogger())
	player := testPlayer()
	monster := testMonster()
	monster.CurrentHealth = 1_000_000

	_, died, leveledUp := e.ResolvePlayerAttack(player, monster, 2000)

	if died {
		t.Error("ResolvePlayerAttack() died = true, want false")
	}
	if leveledUp {
		t.Error("ResolvePlayerAttack() leveledUp = true, want false when monster survives")
	}
	if player.Character.Experience != 0 {
		t.Errorf("character experience = %d, want 0 when the monster did not die", player.Character.Experience)
	}
}

func TestEngine_AwardExperience_LevelsUp(t *testing.T) {
	e := New(testCatalog(), testLogger())
	ch := &model.Character{Class: "warrior", Level: 1, Experience: 0}

	gained, leveledUp := e.AwardExperience(ch, 1, LevelThreshold(1))

	if gained <= 0 {
		t.Fatalf("AwardExperience() gained = %d, want > 0", gained)
	}
	if !leveledUp {
		t.Fatal("AwardExperience() leveledUp = false, want true")
	}
	if ch.Level != 2 {
		t.Errorf("character level = %d, want 2", ch.Level)
	}
	if ch.MaxHealth != 120+18*2 {
		t.Errorf("character MaxHealth = %d, want %d", ch.MaxHealth, 120+18*2)
	}
	if ch.Health != ch.MaxHealth {
		t.Errorf("character Health = %d, want fully healed to %d on level up", ch.Health, ch.MaxHealth)
	}
}

func TestEngine_AwardExperience_UnknownClassStopsLevelUpLoop(t *testing.T) {
	e := New(testCatalog(), testLogger())
	ch := &model.Character{Class: "ghost", Level: 1, Experience: LevelThreshold(1) * 10}

	_, leveledUp := e.AwardExperience(ch, 1, 0)

	if !leveledUp {
		t.Fatal("AwardExperience() leveledUp = false, want true for at least the first level-up")
	}
	if ch.Level != 2 {
		t.Errorf("character level = %d, want exactly 2: the unknown class must halt further level-ups", ch.Level)
	}
}

func TestLevelThreshold_Monotonic(t *testing.T) {
	prev := LevelThreshold(1)
	for lvl := int32(2); lvl <= 50; lvl++ {
		next := LevelThreshold(lvl)
		if next <= prev {
			t.Fatalf("LevelThreshold(%d) = %d, want > LevelThreshold(%d) = %d", lvl, next, lvl-1, prev)
		}
		prev = next
	}
}
