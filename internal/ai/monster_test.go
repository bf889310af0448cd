package ai

import (
	"io"
	"log/slog"
	"testing"

	"github.com/aethermoor/worldserver/internal/combat"
	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *data.Catalog {
	return &data.Catalog{
		Monsters: map[int64]*model.MonsterTemplate{
			1: {
				ID: 1, Level: 3, MaxHealth: 80, AttackPower: 10, Defense: 0,
				AttackSpeed: 1.0, MovementSpeed: 5.0, AggroRange: 10.0, AttackRange: 2.0,
				SpawnCenter: model.Position{X: 0, Y: 0}, SpawnRadius: 0, RespawnTime: 10,
			},
		},
	}
}

func testController() *Controller {
	cat := testCatalog()
	return New(cat, combat.New(cat, testLogger()), testLogger())
}

func testPlayer(sessionID string, pos model.Position) *model.Player {
	return &model.Player{
		SessionID: sessionID,
		Character: &model.Character{Health: 100, MaxHealth: 100, Position: pos, Derived: model.DerivedStats{Def: 0}},
	}
}

func TestController_Tick_UnknownTemplateNoop(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 999, IsAlive: true}

	c.Tick(monster, nil, 0.1, 1000)

	if monster.State != model.MonsterIdle {
		t.Errorf("State = %v, want unchanged (MonsterIdle) for an unknown template", monster.State)
	}
}

func TestController_Tick_RespawnsAfterTimer(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: false, LastRespawn: 1000, State: model.MonsterDead}

	c.Tick(monster, nil, 0.1, 1000) // respawn timer is 10s, hasn't elapsed
	if monster.IsAlive {
		t.Fatal("monster respawned before its RespawnTime elapsed")
	}

	c.Tick(monster, nil, 0.1, 11_001) // now it has
	if !monster.IsAlive {
		t.Fatal("monster did not respawn after RespawnTime elapsed")
	}
	if monster.CurrentHealth != 80 {
		t.Errorf("CurrentHealth = %d, want 80 (full heal on respawn)", monster.CurrentHealth)
	}
	if monster.State != model.MonsterIdle {
		t.Errorf("State = %v, want MonsterIdle after respawn", monster.State)
	}
}

func TestController_Tick_AcquiresTargetInAggroRange(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterIdle}
	players := []*model.Player{testPlayer("s1", model.Position{X: 5})}

	c.Tick(monster, players, 0.1, 1000)

	if monster.State != model.MonsterAggro {
		t.Errorf("State = %v, want MonsterAggro", monster.State)
	}
	if monster.CurrentTarget != "s1" {
		t.Errorf("CurrentTarget = %q, want %q", monster.CurrentTarget, "s1")
	}
}

func TestController_Tick_IgnoresOutOfRangePlayers(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterIdle}
	players := []*model.Player{testPlayer("s1", model.Position{X: 500})}

	c.Tick(monster, players, 0.1, 1000)

	if monster.State != model.MonsterIdle {
		t.Errorf("State = %v, want unchanged MonsterIdle for a player outside aggro range", monster.State)
	}
}

func TestController_Tick_IgnoresDeadPlayers(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterIdle}
	p := testPlayer("s1", model.Position{X: 1})
	p.Character.Dead = true
	players := []*model.Player{p}

	c.Tick(monster, players, 0.1, 1000)

	if monster.State != model.MonsterIdle {
		t.Errorf("State = %v, want unchanged MonsterIdle: a dead player must never draw aggro", monster.State)
	}
}

func TestController_Tick_ChasesOutOfAttackRangeTarget(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterAggro, CurrentTarget: "s1"}
	players := []*model.Player{testPlayer("s1", model.Position{X: 100})}

	c.Tick(monster, players, 1.0, 1000) // 1 second at movement speed 5 => step 5

	if monster.Position.X != 5 {
		t.Errorf("Position.X = %v, want 5 (one tick's worth of chase movement)", monster.Position.X)
	}
}

func TestController_Tick_AttacksInRangeTarget(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterAggro, CurrentTarget: "s1"}
	players := []*model.Player{testPlayer("s1", model.Position{X: 1})}

	c.Tick(monster, players, 0.1, 1000)

	target := players[0].Character
	if target.Health >= 100 {
		t.Errorf("target health = %d, want damaged by the monster's attack", target.Health)
	}
	if monster.LastAttackTime != 1000 {
		t.Errorf("LastAttackTime = %d, want 1000", monster.LastAttackTime)
	}
}

func TestController_Tick_AttackRespectsAttackSpeedCooldown(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterAggro, CurrentTarget: "s1", LastAttackTime: 1000}
	players := []*model.Player{testPlayer("s1", model.Position{X: 1})}

	c.Tick(monster, players, 0.1, 1100) // attack speed 1.0 => 1000ms interval, hasn't elapsed

	if monster.LastAttackTime != 1000 {
		t.Errorf("LastAttackTime = %d, want unchanged 1000 (still on cooldown)", monster.LastAttackTime)
	}
}

func TestController_Tick_LosesTargetWhenPlayerDisappears(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterAggro, CurrentTarget: "gone"}

	c.Tick(monster, nil, 0.1, 1000)

	if monster.State != model.MonsterIdle {
		t.Errorf("State = %v, want MonsterIdle after losing its target", monster.State)
	}
	if monster.CurrentTarget != "" {
		t.Errorf("CurrentTarget = %q, want cleared", monster.CurrentTarget)
	}
}

func TestController_Tick_ReturnsToIdleWhenTargetDies(t *testing.T) {
	c := testController()
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, State: model.MonsterAggro, CurrentTarget: "s1"}
	p := testPlayer("s1", model.Position{X: 1})
	p.Character.Health = 1
	players := []*model.Player{p}

	c.Tick(monster, players, 0.1, 1000)

	if !p.Character.IsDead() {
		t.Fatal("target did not die from the monster's attack despite 1 HP")
	}
	if monster.State != model.MonsterIdle {
		t.Errorf("State = %v, want MonsterIdle after the target died", monster.State)
	}
	if monster.CurrentTarget != "" {
		t.Errorf("CurrentTarget = %q, want cleared after the target died", monster.CurrentTarget)
	}
}

func TestRandomPointInRadius_ZeroRadiusReturnsCenter(t *testing.T) {
	center := model.Position{X: 10, Y: 20, Z: 5}
	got := randomPointInRadius(center, 0)
	if got != center {
		t.Errorf("randomPointInRadius(center, 0) = %+v, want %+v", got, center)
	}
}

func TestRandomPointInRadius_WithinBounds(t *testing.T) {
	center := model.Position{X: 0, Y: 0}
	for i := 0; i < 50; i++ {
		p := randomPointInRadius(center, 10)
		if p.Distance2D(center) > 10.0001 {
			t.Fatalf("randomPointInRadius() = %+v, distance %v exceeds radius 10", p, p.Distance2D(center))
		}
	}
}
