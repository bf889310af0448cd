package skill

import (
	"github.com/aethermoor/worldserver/internal/model"
)

// LearnFailureCode is a machine-readable reason LearnSkill/LevelUpSkill was
// rejected.
type LearnFailureCode string

const (
	LearnFailLevelTooLow    LearnFailureCode = "LEVEL_TOO_LOW"
	LearnFailWrongClass     LearnFailureCode = "WRONG_CLASS"
	LearnFailAlreadyLearned LearnFailureCode = "ALREADY_LEARNED"
	LearnFailInvalidSlot    LearnFailureCode = "INVALID_SLOT"
	LearnFailSkillNotFound  LearnFailureCode = "SKILL_NOT_FOUND"
	LearnFailMaxLevel       LearnFailureCode = "MAX_LEVEL"
	LearnFailNotLearned     LearnFailureCode = "SKILL_NOT_LEARNED"
	LearnFailNoStatusPoints LearnFailureCode = "NO_STATUS_POINTS"
	LearnFailInvalidLevel   LearnFailureCode = "INVALID_LEVEL"
)

// LearnSkill adds a new LearnedSkill to ch for skillID at slotNumber,
// bumping any skill previously occupying that slot to unslotted.
func (e *Engine) LearnSkill(ch *model.Character, skillID int64, slotNumber int) (*model.LearnedSkill, LearnFailureCode) {
	tmpl := e.catalog.Skill(skillID)
	if tmpl == nil {
		return nil, LearnFailSkillNotFound
	}
	if ch.Level < tmpl.RequiredLevel {
		return nil, LearnFailLevelTooLow
	}
	if tmpl.RequiredClass != "" && tmpl.RequiredClass != ch.Class {
		return nil, LearnFailWrongClass
	}
	if ch.LearnedSkillByID(skillID) != nil {
		return nil, LearnFailAlreadyLearned
	}
	if slotNumber < 1 || slotNumber > 9 {
		return nil, LearnFailInvalidSlot
	}

	if occupant := ch.LearnedSkillBySlot(slotNumber); occupant != nil {
		occupant.SlotNumber = 0
	}

	ls := &model.LearnedSkill{
		CharacterID:  ch.ID,
		SkillID:      skillID,
		CurrentLevel: 1,
		SlotNumber:   slotNumber,
	}
	ch.LearnedSkills[skillID] = ls
	return ls, ""
}

// LevelUpSkill raises a learned skill by one level, spending the status
// point cost of the next level row. The caller is responsible for rolling
// back both changes if persistence fails.
func (e *Engine) LevelUpSkill(ch *model.Character, skillID int64) (*model.LearnedSkill, LearnFailureCode) {
	ls := ch.LearnedSkillByID(skillID)
	if ls == nil {
		return nil, LearnFailNotLearned
	}
	tmpl := e.catalog.Skill(skillID)
	if tmpl == nil {
		return nil, LearnFailSkillNotFound
	}
	if ls.CurrentLevel >= tmpl.MaxLevel {
		return nil, LearnFailMaxLevel
	}
	nextRow := tmpl.LevelRow(ls.CurrentLevel + 1)
	if nextRow == nil {
		return nil, LearnFailInvalidLevel
	}
	if ch.StatusPoints < nextRow.StatusPointCost {
		return nil, LearnFailNoStatusPoints
	}

	ch.StatusPoints -= nextRow.StatusPointCost
	ls.CurrentLevel++
	return ls, ""
}
