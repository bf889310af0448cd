package model

import "testing"

func testTerrain() *Terrain {
	return &Terrain{
		CellSize: 10,
		OriginX:  0,
		OriginY:  0,
		Heights: [][]float64{
			{0, 1, 2},
			{3, 4, 5},
		},
	}
}

func TestTerrain_Clamp_NilTerrainPassesThrough(t *testing.T) {
	var terrain *Terrain
	p := Position{X: 5, Y: 5, Z: 99}

	if got := terrain.Clamp(p); got != p {
		t.Errorf("Clamp() on nil terrain = %+v, want unchanged %+v", got, p)
	}
}

func TestTerrain_Clamp_EmptyHeightsPassesThrough(t *testing.T) {
	terrain := &Terrain{CellSize: 10}
	p := Position{X: 5, Y: 5, Z: 99}

	if got := terrain.Clamp(p); got != p {
		t.Errorf("Clamp() with no heights = %+v, want unchanged %+v", got, p)
	}
}

func TestTerrain_Clamp_SnapsZToCell(t *testing.T) {
	terrain := testTerrain()

	got := terrain.Clamp(Position{X: 15, Y: 5})

	if got.Z != 1 {
		t.Errorf("Clamp().Z = %v, want 1 (row 0, col 1)", got.Z)
	}
	if got.X != 15 || got.Y != 5 {
		t.Errorf("Clamp() changed X/Y: got %+v", got)
	}
}

func TestTerrain_Clamp_OutOfBoundsClampsToNearestCell(t *testing.T) {
	terrain := testTerrain()

	got := terrain.Clamp(Position{X: -100, Y: -100})
	if got.Z != 0 {
		t.Errorf("Clamp() below origin Z = %v, want 0 (clamped to row 0, col 0)", got.Z)
	}

	got = terrain.Clamp(Position{X: 1000, Y: 1000})
	if got.Z != 5 {
		t.Errorf("Clamp() beyond grid Z = %v, want 5 (clamped to last row, last col)", got.Z)
	}
}

func TestSkillTemplate_LevelRow(t *testing.T) {
	tmpl := &SkillTemplate{Levels: []SkillLevelRow{
		{Level: 1, BaseDamage: 10},
		{Level: 2, BaseDamage: 20},
	}}

	if row := tmpl.LevelRow(2); row == nil || row.BaseDamage != 20 {
		t.Errorf("LevelRow(2) = %+v, want BaseDamage 20", row)
	}
	if row := tmpl.LevelRow(99); row != nil {
		t.Errorf("LevelRow(99) = %+v, want nil for a missing level", row)
	}
}

func TestActiveEffect_Expired(t *testing.T) {
	eff := &ActiveEffect{StartTime: 1000, Duration: 5} // expires at 6000ms

	if eff.Expired(5999) {
		t.Error("Expired(5999) = true, want false before the duration elapses")
	}
	if !eff.Expired(6000) {
		t.Error("Expired(6000) = false, want true exactly at expiry")
	}
	if !eff.Expired(7000) {
		t.Error("Expired(7000) = false, want true after expiry")
	}
}
