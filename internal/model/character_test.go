package model

import "testing"

func TestCharacter_ApplyDamage(t *testing.T) {
	tests := []struct {
		name       string
		health     int32
		damage     int32
		wantHealth int32
		wantDead   bool
	}{
		{"survives", 100, 30, 70, false},
		{"exact kill", 30, 30, 0, true},
		{"overkill clamps at zero", 30, 999, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Character{Health: tt.health, MaxHealth: 100}
			c.ApplyDamage(tt.damage)
			if c.Health != tt.wantHealth {
				t.Errorf("Health = %d, want %d", c.Health, tt.wantHealth)
			}
			if c.IsDead() != tt.wantDead {
				t.Errorf("IsDead() = %v, want %v", c.IsDead(), tt.wantDead)
			}
		})
	}
}

func TestCharacter_Heal(t *testing.T) {
	tests := []struct {
		name       string
		health     int32
		maxHealth  int32
		amount     int32
		wantHealth int32
	}{
		{"partial heal", 50, 100, 20, 70},
		{"heal clamps at max", 90, 100, 50, 100},
		{"heal exactly to max", 50, 100, 50, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Character{Health: tt.health, MaxHealth: tt.maxHealth}
			c.Heal(tt.amount)
			if c.Health != tt.wantHealth {
				t.Errorf("Health = %d, want %d", c.Health, tt.wantHealth)
			}
		})
	}
}

func TestMonsterInstance_ApplyDamage(t *testing.T) {
	m := &MonsterInstance{CurrentHealth: 10, IsAlive: true, CurrentTarget: "s1"}

	died := m.ApplyDamage(5, 1000)
	if died {
		t.Fatal("ApplyDamage() died = true for non-lethal damage")
	}
	if m.CurrentHealth != 5 {
		t.Errorf("CurrentHealth = %d, want 5", m.CurrentHealth)
	}

	died = m.ApplyDamage(5, 2000)
	if !died {
		t.Fatal("ApplyDamage() died = false for lethal damage")
	}
	if m.IsAlive {
		t.Error("IsAlive = true after lethal damage")
	}
	if m.State != MonsterDead {
		t.Errorf("State = %v, want MonsterDead", m.State)
	}
	if m.LastRespawn != 2000 {
		t.Errorf("LastRespawn = %d, want 2000", m.LastRespawn)
	}
	if m.CurrentTarget != "" {
		t.Errorf("CurrentTarget = %q, want cleared on death", m.CurrentTarget)
	}
}

func TestMonsterInstance_ApplyDamage_AlreadyDeadNoop(t *testing.T) {
	m := &MonsterInstance{CurrentHealth: 0, IsAlive: false}

	died := m.ApplyDamage(10, 1000)

	if died {
		t.Error("ApplyDamage() on an already-dead monster reported died = true")
	}
	if m.CurrentHealth != 0 {
		t.Errorf("CurrentHealth = %d, want unchanged 0", m.CurrentHealth)
	}
}

func TestMonsterInstance_IsAliveConsistent(t *testing.T) {
	if !(&MonsterInstance{IsAlive: true, CurrentHealth: 1}).IsAliveConsistent() {
		t.Error("alive with positive health should be consistent")
	}
	if !(&MonsterInstance{IsAlive: false, CurrentHealth: 0}).IsAliveConsistent() {
		t.Error("dead with zero health should be consistent")
	}
	if (&MonsterInstance{IsAlive: true, CurrentHealth: 0}).IsAliveConsistent() {
		t.Error("alive with zero health should be inconsistent")
	}
}
