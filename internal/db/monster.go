package db

import (
	"context"
	"fmt"

	"github.com/aethermoor/worldserver/internal/model"
)

// Monsters wraps monster-instance persistence.
type Monsters struct {
	store *Store
}

// NewMonsters returns a Monsters handle bound to store.
func NewMonsters(store *Store) *Monsters {
	return &Monsters{store: store}
}

// LoadMonsterInstances loads every persisted monster instance, used to seed
// the MonsterRegistry at world init.
func (m *Monsters) LoadMonsterInstances(ctx context.Context) ([]*model.MonsterInstance, error) {
	rows, err := m.store.pool.Query(ctx, `
		SELECT id, template_id, current_health, pos_x, pos_y, pos_z, is_alive, last_respawn
		FROM monster_instances`)
	if err != nil {
		return nil, fmt.Errorf("loading monster instances: %w", err)
	}
	defer rows.Close()

	var out []*model.MonsterInstance
	for rows.Next() {
		mi := &model.MonsterInstance{}
		if err := rows.Scan(&mi.ID, &mi.TemplateID, &mi.CurrentHealth,
			&mi.Position.X, &mi.Position.Y, &mi.Position.Z, &mi.IsAlive, &mi.LastRespawn); err != nil {
			return nil, fmt.Errorf("scanning monster instance: %w", err)
		}
		out = append(out, mi)
	}
	return out, rows.Err()
}

// UpdateMonsterInstance upserts a single monster instance's live state.
func (m *Monsters) UpdateMonsterInstance(ctx context.Context, mi *model.MonsterInstance) error {
	_, err := m.store.pool.Exec(ctx, `
		INSERT INTO monster_instances (id, template_id, current_health, pos_x, pos_y, pos_z, is_alive, last_respawn)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
			current_health = EXCLUDED.current_health,
			pos_x = EXCLUDED.pos_x, pos_y = EXCLUDED.pos_y, pos_z = EXCLUDED.pos_z,
			is_alive = EXCLUDED.is_alive, last_respawn = EXCLUDED.last_respawn`,
		mi.ID, mi.TemplateID, mi.CurrentHealth, mi.Position.X, mi.Position.Y, mi.Position.Z, mi.IsAlive, mi.LastRespawn,
	)
	if err != nil {
		return fmt.Errorf("updating monster instance %d: %w", mi.ID, err)
	}
	return nil
}

// CombatLogs wraps combat-log persistence.
type CombatLogs struct {
	store *Store
}

// NewCombatLogs returns a CombatLogs handle bound to store.
func NewCombatLogs(store *Store) *CombatLogs {
	return &CombatLogs{store: store}
}

// LogCombat records one damage event.
func (c *CombatLogs) LogCombat(ctx context.Context, attackerID, targetID string, damage int32, isCritical bool) error {
	_, err := c.store.pool.Exec(ctx, `
		INSERT INTO combat_logs (attacker_id, target_id, damage, is_critical) VALUES ($1,$2,$3,$4)`,
		attackerID, targetID, damage, isCritical,
	)
	if err != nil {
		return fmt.Errorf("logging combat %s -> %s: %w", attackerID, targetID, err)
	}
	return nil
}

// CleanOldCombatLogs deletes combat logs older than the given number of
// days.
func (c *CombatLogs) CleanOldCombatLogs(ctx context.Context, days int) error {
	_, err := c.store.pool.Exec(ctx, `
		DELETE FROM combat_logs WHERE occurred_at < now() - ($1 || ' days')::interval`, days,
	)
	if err != nil {
		return fmt.Errorf("cleaning combat logs older than %d days: %w", days, err)
	}
	return nil
}
