package skill

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
		Skills: map[int64]*model.SkillTemplate{
			1: {
				ID: 1, Name: "Power Strike", TargetType: model.TargetEnemy, DamageType: model.DamagePhysical,
				RequiredLevel: 1, MaxLevel: 3, ManaCost: 10, HealthCost: 0, Cooldown: 3, Range: 2,
				Levels: []model.SkillLevelRow{
					{Level: 1, BaseDamage: 15, DamageMultiplier: 1.0, StatusPointCost: 1},
					{Level: 2, BaseDamage: 20, DamageMultiplier: 1.1, StatusPointCost: 1},
				},
			},
			2: {
				ID: 2, Name: "Heal", TargetType: model.TargetSelf, DamageType: model.DamageNone,
				RequiredLevel: 1, MaxLevel: 2, ManaCost: 20, Cooldown: 5,
				Levels: []model.SkillLevelRow{
					{Level: 1, BaseHealing: 30, StatusPointCost: 1},
				},
			},
			3: {
				ID: 3, Name: "Fireball", TargetType: model.TargetArea, DamageType: model.DamageMagical,
				RequiredLevel: 1, MaxLevel: 2, ManaCost: 25, Cooldown: 5, AreaRadius: 5,
				Levels: []model.SkillLevelRow{
					{Level: 1, BaseDamage: 20, DamageMultiplier: 1.0, StatusPointCost: 1},
				},
			},
			10: {ID: 10, Name: "Class Locked", RequiredClass: "mage", RequiredLevel: 1, MaxLevel: 1},
		},
		Monsters: map[int64]*model.MonsterTemplate{
			1: {ID: 1, Level: 3, Defense: 0, ExperienceReward: 25},
		},
		Classes: map[string]*model.ClassTable{
			"warrior": {Class: "warrior"},
		},
	}
}

func testEngine() *Engine {
	cat := testCatalog()
	combatEngine := combat.New(cat, testLogger())
	return New(cat, combatEngine, testLogger())
}

func learnedCharacter(skillID int64, level int32) *model.Character {
	return &model.Character{
		ID: 1, Class: "warrior", Level: 5, Health: 100, MaxHealth: 100, Mana: 50, MaxMana: 50,
		Derived:       model.DerivedStats{Atk: 30, MAtk: 20},
		LearnedSkills: map[int64]*model.LearnedSkill{skillID: {SkillID: skillID, CurrentLevel: level}},
	}
}

func TestEngine_UseSkill_PlayerDead(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	ch.Dead = true

	_, fail := e.UseSkill(ch, Request{SkillID: 1}, nil, 1000)
	if fail != FailPlayerDead {
		t.Errorf("UseSkill() failure = %q, want %q", fail, FailPlayerDead)
	}
}

func TestEngine_UseSkill_NotLearned(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	delete(ch.LearnedSkills, 1)

	_, fail := e.UseSkill(ch, Request{SkillID: 1}, nil, 1000)
	if fail != FailSkillNotLearned {
		t.Errorf("UseSkill() failure = %q, want %q", fail, FailSkillNotLearned)
	}
}

func TestEngine_UseSkill_Cooldown(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	ch.LearnedSkills[1].LastUsedTime = 1000
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, CurrentHealth: 80}

	_, fail := e.UseSkill(ch, Request{SkillID: 1, TargetMonster: monster}, nil, 2000)
	if fail != FailCooldown {
		t.Errorf("UseSkill() failure = %q, want %q (cooldown is 3s)", fail, FailCooldown)
	}
}

func TestEngine_UseSkill_NoMana(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	ch.Mana = 0
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, CurrentHealth: 80}

	_, fail := e.UseSkill(ch, Request{SkillID: 1, TargetMonster: monster}, nil, 5000)
	if fail != FailNoMana {
		t.Errorf("UseSkill() failure = %q, want %q", fail, FailNoMana)
	}
}

func TestEngine_UseSkill_NoHealth(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(2, 1) // Heal skill learned; skill 1 is added and used below
	ch.LearnedSkills[1] = &model.LearnedSkill{SkillID: 1, CurrentLevel: 1}
	ch.Health = 0
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, CurrentHealth: 80}

	// skill 1's HealthCost is 0, so ch.Health(0) <= HealthCost(0) triggers FailNoHealth.
	_, fail := e.UseSkill(ch, Request{SkillID: 1, TargetMonster: monster}, nil, 5000)
	if fail != FailNoHealth {
		t.Errorf("UseSkill() failure = %q, want %q", fail, FailNoHealth)
	}
}

func TestEngine_UseSkill_OutOfRange(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, CurrentHealth: 80, Position: model.Position{X: 100}}

	_, fail := e.UseSkill(ch, Request{SkillID: 1, TargetMonster: monster}, nil, 5000)
	if fail != FailOutOfRange {
		t.Errorf("UseSkill() failure = %q, want %q", fail, FailOutOfRange)
	}
}

func TestEngine_UseSkill_EnemyTarget_DeadMonsterRejected(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: false}

	_, fail := e.UseSkill(ch, Request{SkillID: 1, TargetMonster: monster}, nil, 5000)
	if fail != FailOutOfRange {
		t.Errorf("UseSkill() failure = %q, want %q for a dead target", fail, FailOutOfRange)
	}
}

func TestEngine_UseSkill_EnemyTarget_DealsDamageAndDeductsCosts(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	startMana := ch.Mana
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, CurrentHealth: 1000}

	result, fail := e.UseSkill(ch, Request{SkillID: 1, TargetMonster: monster}, nil, 5000)

	if fail != "" {
		t.Fatalf("UseSkill() failure = %q, want none", fail)
	}
	if len(result.Targets) != 1 {
		t.Fatalf("Targets = %+v, want exactly one", result.Targets)
	}
	if result.Targets[0].MonsterID != 1 {
		t.Errorf("Targets[0].MonsterID = %d, want 1", result.Targets[0].MonsterID)
	}
	if ch.Mana != startMana-10 {
		t.Errorf("Mana = %d, want %d (cost 10 deducted)", ch.Mana, startMana-10)
	}
	if ch.LearnedSkills[1].LastUsedTime != 5000 {
		t.Errorf("LastUsedTime = %d, want 5000", ch.LearnedSkills[1].LastUsedTime)
	}
}

func TestEngine_UseSkill_EnemyTarget_KillAwardsXP(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(1, 1)
	monster := &model.MonsterInstance{ID: 1, TemplateID: 1, IsAlive: true, CurrentHealth: 1}

	result, fail := e.UseSkill(ch, Request{SkillID: 1, TargetMonster: monster}, nil, 5000)

	if fail != "" {
		t.Fatalf("UseSkill() failure = %q", fail)
	}
	if !result.Targets[0].Died {
		t.Fatal("Targets[0].Died = false, want true")
	}
	if ch.Experience == 0 {
		t.Error("character experience = 0, want XP awarded for the kill")
	}
}

func TestEngine_UseSkill_SelfTarget_Heals(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(2, 1)
	ch.Health = 50
	ch.MaxHealth = 100

	result, fail := e.UseSkill(ch, Request{SkillID: 2}, nil, 5000)

	if fail != "" {
		t.Fatalf("UseSkill() failure = %q, want none", fail)
	}
	if result.HealedSelf <= 0 {
		t.Errorf("HealedSelf = %d, want > 0", result.HealedSelf)
	}
	if ch.Health <= 50 {
		t.Errorf("character health = %d, want healed above 50", ch.Health)
	}
}

func TestEngine_UseSkill_AreaTarget_HitsMultipleMonstersInRadius(t *testing.T) {
	e := testEngine()
	ch := learnedCharacter(3, 1)
	monsters := map[int64]*model.MonsterInstance{
		1: {ID: 1, TemplateID: 1, IsAlive: true, CurrentHealth: 1000, Position: model.Position{X: 1}},
		2: {ID: 2, TemplateID: 1, IsAlive: true, CurrentHealth: 1000, Position: model.Position{X: 100}}, // out of radius
	}
	pos := model.Position{X: 0}

	result, fail := e.UseSkill(ch, Request{SkillID: 3, TargetPosition: &pos}, monsters, 5000)

	if fail != "" {
		t.Fatalf("UseSkill() failure = %q, want none", fail)
	}
	if len(result.Targets) != 1 {
		t.Fatalf("Targets = %+v, want exactly the one monster inside the radius", result.Targets)
	}
	if result.Targets[0].MonsterID != 1 {
		t.Errorf("Targets[0].MonsterID = %d, want 1", result.Targets[0].MonsterID)
	}
}

func TestLearnSkill_Success(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, Class: "warrior", Level: 1, LearnedSkills: map[int64]*model.LearnedSkill{}}

	ls, fail := e.LearnSkill(ch, 1, 1)

	if fail != "" {
		t.Fatalf("LearnSkill() failure = %q, want none", fail)
	}
	if ls.CurrentLevel != 1 {
		t.Errorf("CurrentLevel = %d, want 1", ls.CurrentLevel)
	}
	if ls.SlotNumber != 1 {
		t.Errorf("SlotNumber = %d, want 1", ls.SlotNumber)
	}
	if ch.LearnedSkills[1] != ls {
		t.Error("learned skill not recorded on the character")
	}
}

func TestLearnSkill_LevelTooLow(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, Class: "mage", Level: 0, LearnedSkills: map[int64]*model.LearnedSkill{}}

	_, fail := e.LearnSkill(ch, 10, 1)
	if fail != LearnFailLevelTooLow {
		t.Errorf("LearnSkill() failure = %q, want %q", fail, LearnFailLevelTooLow)
	}
}

func TestLearnSkill_WrongClass(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, Class: "warrior", Level: 5, LearnedSkills: map[int64]*model.LearnedSkill{}}

	_, fail := e.LearnSkill(ch, 10, 1)
	if fail != LearnFailWrongClass {
		t.Errorf("LearnSkill() failure = %q, want %q", fail, LearnFailWrongClass)
	}
}

func TestLearnSkill_AlreadyLearned(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, Class: "warrior", Level: 5, LearnedSkills: map[int64]*model.LearnedSkill{
		1: {SkillID: 1, CurrentLevel: 1},
	}}

	_, fail := e.LearnSkill(ch, 1, 2)
	if fail != LearnFailAlreadyLearned {
		t.Errorf("LearnSkill() failure = %q, want %q", fail, LearnFailAlreadyLearned)
	}
}

func TestLearnSkill_InvalidSlot(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, Class: "warrior", Level: 5, LearnedSkills: map[int64]*model.LearnedSkill{}}

	_, fail := e.LearnSkill(ch, 1, 10)
	if fail != LearnFailInvalidSlot {
		t.Errorf("LearnSkill() failure = %q, want %q", fail, LearnFailInvalidSlot)
	}
}

func TestLearnSkill_BumpsPreviousSlotOccupant(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, Class: "warrior", Level: 5, LearnedSkills: map[int64]*model.LearnedSkill{
		2: {SkillID: 2, CurrentLevel: 1, SlotNumber: 3},
	}}

	_, fail := e.LearnSkill(ch, 1, 3)
	if fail != "" {
		t.Fatalf("LearnSkill() failure = %q, want none", fail)
	}
	if ch.LearnedSkills[2].SlotNumber != 0 {
		t.Errorf("previous occupant's SlotNumber = %d, want 0 (bumped to unslotted)", ch.LearnedSkills[2].SlotNumber)
	}
	if ch.LearnedSkills[1].SlotNumber != 3 {
		t.Errorf("new skill's SlotNumber = %d, want 3", ch.LearnedSkills[1].SlotNumber)
	}
}

func TestLevelUpSkill_Success(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, Class: "warrior", StatusPoints: 5, LearnedSkills: map[int64]*model.LearnedSkill{
		1: {SkillID: 1, CurrentLevel: 1},
	}}

	ls, fail := e.LevelUpSkill(ch, 1)

	if fail != "" {
		t.Fatalf("LevelUpSkill() failure = %q, want none", fail)
	}
	if ls.CurrentLevel != 2 {
		t.Errorf("CurrentLevel = %d, want 2", ls.CurrentLevel)
	}
	if ch.StatusPoints != 4 {
		t.Errorf("StatusPoints = %d, want 4 (1 spent)", ch.StatusPoints)
	}
}

func TestLevelUpSkill_NotLearned(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, LearnedSkills: map[int64]*model.LearnedSkill{}}

	_, fail := e.LevelUpSkill(ch, 1)
	if fail != LearnFailNotLearned {
		t.Errorf("LevelUpSkill() failure = %q, want %q", fail, LearnFailNotLearned)
	}
}

func TestLevelUpSkill_MaxLevel(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, StatusPoints: 5, LearnedSkills: map[int64]*model.LearnedSkill{
		1: {SkillID: 1, CurrentLevel: 3}, // skill 1's MaxLevel is 3
	}}

	_, fail := e.LevelUpSkill(ch, 1)
	if fail != LearnFailMaxLevel {
		t.Errorf("LevelUpSkill() failure = %q, want %q", fail, LearnFailMaxLevel)
	}
}

func TestLevelUpSkill_NoStatusPoints(t *testing.T) {
	e := testEngine()
	ch := &model.Character{ID: 1, StatusPoints: 0, LearnedSkills: map[int64]*model.LearnedSkill{
		1: {SkillID: 1, CurrentLevel: 1},
	}}

	_, fail := e.LevelUpSkill(ch, 1)
	if fail != LearnFailNoStatusPoints {
		t.Errorf("LevelUpSkill() failure = %q, want %q", fail, LearnFailNoStatusPoints)
	}
}
