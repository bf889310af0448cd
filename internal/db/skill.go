package db

import (
	"context"
	"fmt"

	"github.com/aethermoor/worldserver/internal/model"
)

// Skills wraps learned-skill persistence.
type Skills struct {
	store *Store
}

// NewSkills returns a Skills handle bound to store.
func NewSkills(store *Store) *Skills {
	return &Skills{store: store}
}

// LoadSkills loads every learned skill for characterID.
func (s *Skills) LoadSkills(ctx context.Context, characterID int64) (map[int64]*model.LearnedSkill, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT skill_id, current_level, slot_number, last_used_time
		FROM learned_skills WHERE character_id = $1`, characterID)
	if err != nil {
		return nil, fmt.Errorf("loading skills for character %d: %w", characterID, err)
	}
	defer rows.Close()

	out := make(map[int64]*model.LearnedSkill)
	for rows.Next() {
		ls := &model.LearnedSkill{CharacterID: characterID}
		if err := rows.Scan(&ls.SkillID, &ls.CurrentLevel, &ls.SlotNumber, &ls.LastUsedTime); err != nil {
			return nil, fmt.Errorf("scanning learned skill for character %d: %w", characterID, err)
		}
		out[ls.SkillID] = ls
	}
	return out, rows.Err()
}

// SaveSkills upserts every learned skill by (characterID, skillID).
func (s *Skills) SaveSkills(ctx context.Context, characterID int64, skills map[int64]*model.LearnedSkill) error {
	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for skills of character %d: %w", characterID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, ls := range skills {
		if _, err := tx.Exec(ctx, `
			INSERT INTO learned_skills (character_id, skill_id, current_level, slot_number, last_used_time)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (character_id, skill_id) DO UPDATE SET
				current_level = EXCLUDED.current_level,
				slot_number = EXCLUDED.slot_number,
				last_used_time = EXCLUDED.last_used_time`,
			characterID, ls.SkillID, ls.CurrentLevel, ls.SlotNumber, ls.LastUsedTime,
		); err != nil {
			return fmt.Errorf("upserting skill %d for character %d: %w", ls.SkillID, characterID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing skills for character %d: %w", characterID, err)
	}
	return nil
}
