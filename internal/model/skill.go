package model

// LearnedSkill binds a character to a skill template it has learned, with
// its own level progression and hotbar slot.
//
// Invariant: at most one LearnedSkill per skillID per character;
// at most one LearnedSkill per non-zero SlotNumber per character. Both are
// enforced by internal/skill.LearnSkill, never by this type directly.
type LearnedSkill struct {
	CharacterID  int64
	SkillID      int64
	CurrentLevel int32
	SlotNumber   int // 0 = unslotted, 1..9 = hotbar slot
	LastUsedTime int64
}
