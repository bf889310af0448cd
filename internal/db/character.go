package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aethermoor/worldserver/internal/model"
)

// Characters wraps character-related persistence operations using the same
// begin/defer-rollback/commit transactional shape as the rest of the store.
type Characters struct {
	store *Store
}

// NewCharacters returns a Characters handle bound to store.
func NewCharacters(store *Store) *Characters {
	return &Characters{store: store}
}

// ListCharacters returns every character owned by accountID.
func (c *Characters) ListCharacters(ctx context.Context, accountID int64) ([]*model.Character, error) {
	rows, err := c.store.pool.Query(ctx, characterSelectColumns+` FROM characters WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing characters for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var out []*model.Character
	for rows.Next() {
		ch, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// CreateCharacter inserts a new character plus an empty inventory plus
// starter items, all in a single transaction. Rejects
// duplicate names and more than model.MaxCharactersPerAccount per account.
func (c *Characters) CreateCharacter(ctx context.Context, ch *model.Character, starterItems []*model.ItemInstance, allocator *ItemInstanceAllocator) (int64, error) {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction for new character %q: %w", ch.Name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM characters WHERE account_id = $1`, ch.AccountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting characters for account %d: %w", ch.AccountID, err)
	}
	if count >= model.MaxCharactersPerAccount {
		return 0, nil
	}

	var existing int64
	err = tx.QueryRow(ctx, `SELECT id FROM characters WHERE name = $1`, ch.Name).Scan(&existing)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("checking name uniqueness for %q: %w", ch.Name, err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO characters
			(account_id, name, race, class, level, experience, status_points,
			 health, max_health, mana, max_mana, str, int, dex, vit,
			 pos_x, pos_y, pos_z, is_dead)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id`,
		ch.AccountID, ch.Name, ch.Race, ch.Class, ch.Level, ch.Experience, ch.StatusPoints,
		ch.Health, ch.MaxHealth, ch.Mana, ch.MaxMana,
		ch.AllocatedStats.Str, ch.AllocatedStats.Int, ch.AllocatedStats.Dex, ch.AllocatedStats.Vit,
		ch.Position.X, ch.Position.Y, ch.Position.Z, ch.Dead,
	).Scan(&ch.ID)
	if err != nil {
		return 0, fmt.Errorf("inserting character %q: %w", ch.Name, err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO inventories (character_id) VALUES ($1)`, ch.ID); err != nil {
		return 0, fmt.Errorf("creating inventory for character %d: %w", ch.ID, err)
	}

	for _, item := range starterItems {
		id, err := allocator.nextLocked(ctx, tx)
		if err != nil {
			return 0, fmt.Errorf("allocating starter item instance id: %w", err)
		}
		item.InstanceID = id
		if _, err := tx.Exec(ctx, `
			INSERT INTO item_instances (instance_id, character_id, template_id, quantity, slot, is_equipped)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.InstanceID, ch.ID, item.TemplateID, item.Quantity, item.Slot, item.IsEquipped,
		); err != nil {
			return 0, fmt.Errorf("inserting starter item for character %d: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing new character %q: %w", ch.Name, err)
	}
	return ch.ID, nil
}

// LoadCharacter loads a single character by ID.
func (c *Characters) LoadCharacter(ctx context.Context, id int64) (*model.Character, error) {
	row := c.store.pool.QueryRow(ctx, characterSelectColumns+` FROM characters WHERE id = $1`, id)
	ch, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading character %d: %w", id, err)
	}
	return ch, nil
}

// UpdateCharacter persists every mutable field of ch transactionally.
func (c *Characters) UpdateCharacter(ctx context.Context, ch *model.Character) error {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for character %d: %w", ch.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := c.updateTx(ctx, tx, ch); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing character %d: %w", ch.ID, err)
	}
	return nil
}

func (c *Characters) updateTx(ctx context.Context, tx pgx.Tx, ch *model.Character) error {
	_, err := tx.Exec(ctx, `
		UPDATE characters SET
			level=$2, experience=$3, status_points=$4,
			health=$5, max_health=$6, mana=$7, max_mana=$8,
			str=$9, int=$10, dex=$11, vit=$12,
			pos_x=$13, pos_y=$14, pos_z=$15, is_dead=$16
		WHERE id=$1`,
		ch.ID, ch.Level, ch.Experience, ch.StatusPoints,
		ch.Health, ch.MaxHealth, ch.Mana, ch.MaxMana,
		ch.AllocatedStats.Str, ch.AllocatedStats.Int, ch.AllocatedStats.Dex, ch.AllocatedStats.Vit,
		ch.Position.X, ch.Position.Y, ch.Position.Z, ch.Dead,
	)
	if err != nil {
		return fmt.Errorf("updating character %d: %w", ch.ID, err)
	}
	return nil
}

const characterSelectColumns = `
	SELECT id, account_id, name, race, class, level, experience, status_points,
	       health, max_health, mana, max_mana, str, int, dex, vit,
	       pos_x, pos_y, pos_z, is_dead, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (*model.Character, error) {
	ch := &model.Character{LearnedSkills: make(map[int64]*model.LearnedSkill)}
	err := row.Scan(
		&ch.ID, &ch.AccountID, &ch.Name, &ch.Race, &ch.Class, &ch.Level, &ch.Experience, &ch.StatusPoints,
		&ch.Health, &ch.MaxHealth, &ch.Mana, &ch.MaxMana,
		&ch.AllocatedStats.Str, &ch.AllocatedStats.Int, &ch.AllocatedStats.Dex, &ch.AllocatedStats.Vit,
		&ch.Position.X, &ch.Position.Y, &ch.Position.Z, &ch.Dead, &ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}
