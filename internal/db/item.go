package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/aethermoor/worldserver/internal/model"
)

// ItemInstanceAllocator hands out strictly monotonic, globally unique item
// instance IDs and persists the high-water mark under the same mutex that
// guards in-memory allocation.
type ItemInstanceAllocator struct {
	mu    sync.Mutex
	store *Store
	next  int64
}

// NewItemInstanceAllocator loads the current high-water mark from the
// database.
func NewItemInstanceAllocator(ctx context.Context, store *Store) (*ItemInstanceAllocator, error) {
	a := &ItemInstanceAllocator{store: store}
	var next int64
	err := store.pool.QueryRow(ctx, `SELECT next_id FROM item_instance_sequence WHERE id = 1`).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("loading item instance sequence: %w", err)
	}
	a.next = next
	return a, nil
}

// Next allocates and persists the next ID outside of any caller transaction.
func (a *ItemInstanceAllocator) Next(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.next
	a.next++
	if _, err := a.store.pool.Exec(ctx, `UPDATE item_instance_sequence SET next_id = $1 WHERE id = 1`, a.next); err != nil {
		a.next = id
		return 0, fmt.Errorf("persisting item instance sequence: %w", err)
	}
	return id, nil
}

// nextLocked allocates the next ID and persists it within tx, for callers
// (CreateCharacter) that need the allocation to roll back with the rest of
// the transaction.
func (a *ItemInstanceAllocator) nextLocked(ctx context.Context, tx pgx.Tx) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.next
	a.next++
	if _, err := tx.Exec(ctx, `UPDATE item_instance_sequence SET next_id = $1 WHERE id = 1`, a.next); err != nil {
		a.next = id
		return 0, err
	}
	return id, nil
}

// Inventories wraps inventory-related PersistenceStore operations.
type Inventories struct {
	store *Store
}

// NewInventories returns an Inventories handle bound to store.
func NewInventories(store *Store) *Inventories {
	return &Inventories{store: store}
}

// LoadInventory loads a character's inventory and every item instance it
// owns.
func (iv *Inventories) LoadInventory(ctx context.Context, characterID int64) (*model.Inventory, error) {
	inv := model.NewInventory(characterID)

	var weapon, armor, helmet, boots, gloves, ring, necklace *int64
	err := iv.store.pool.QueryRow(ctx, `
		SELECT max_slots, gold, weapon_id, armor_id, helmet_id, boots_id, gloves_id, ring_id, necklace_id
		FROM inventories WHERE character_id = $1`, characterID,
	).Scan(&inv.MaxSlots, &inv.Gold, &weapon, &armor, &helmet, &boots, &gloves, &ring, &necklace)
	if err != nil {
		return nil, fmt.Errorf("loading inventory for character %d: %w", characterID, err)
	}
	setSlotRef(inv, model.SlotWeapon, weapon)
	setSlotRef(inv, model.SlotArmor, armor)
	setSlotRef(inv, model.SlotHelmet, helmet)
	setSlotRef(inv, model.SlotBoots, boots)
	setSlotRef(inv, model.SlotGloves, gloves)
	setSlotRef(inv, model.SlotRing, ring)
	setSlotRef(inv, model.SlotNecklace, necklace)

	rows, err := iv.store.pool.Query(ctx, `
		SELECT instance_id, template_id, quantity, slot, is_equipped
		FROM item_instances WHERE character_id = $1`, characterID)
	if err != nil {
		return nil, fmt.Errorf("loading item instances for character %d: %w", characterID, err)
	}
	defer rows.Close()
	for rows.Next() {
		it := &model.ItemInstance{}
		if err := rows.Scan(&it.InstanceID, &it.TemplateID, &it.Quantity, &it.Slot, &it.IsEquipped); err != nil {
			return nil, fmt.Errorf("scanning item instance for character %d: %w", characterID, err)
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, rows.Err()
}

func setSlotRef(inv *model.Inventory, slot model.EquipSlot, id *int64) {
	if id != nil {
		inv.Equipment[slot] = *id
	}
}

// SaveInventory transactionally deletes and reinserts every item instance
// plus the equipment slot references.
func (iv *Inventories) SaveInventory(ctx context.Context, inv *model.Inventory) error {
	tx, err := iv.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for inventory %d: %w", inv.CharacterID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	weapon := slotRef(inv, model.SlotWeapon)
	armor := slotRef(inv, model.SlotArmor)
	helmet := slotRef(inv, model.SlotHelmet)
	boots := slotRef(inv, model.SlotBoots)
	gloves := slotRef(inv, model.SlotGloves)
	ring := slotRef(inv, model.SlotRing)
	necklace := slotRef(inv, model.SlotNecklace)

	_, err = tx.Exec(ctx, `
		UPDATE inventories SET max_slots=$2, gold=$3,
			weapon_id=$4, armor_id=$5, helmet_id=$6, boots_id=$7, gloves_id=$8, ring_id=$9, necklace_id=$10
		WHERE character_id = $1`,
		inv.CharacterID, inv.MaxSlots, inv.Gold, weapon, armor, helmet, boots, gloves, ring, necklace,
	)
	if err != nil {
		return fmt.Errorf("updating inventory %d: %w", inv.CharacterID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM item_instances WHERE character_id = $1`, inv.CharacterID); err != nil {
		return fmt.Errorf("clearing item instances for character %d: %w", inv.CharacterID, err)
	}

	for _, it := range inv.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO item_instances (instance_id, character_id, template_id, quantity, slot, is_equipped)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			it.InstanceID, inv.CharacterID, it.TemplateID, it.Quantity, it.Slot, it.IsEquipped,
		); err != nil {
			return fmt.Errorf("inserting item instance %d: %w", it.InstanceID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing inventory %d: %w", inv.CharacterID, err)
	}
	return nil
}

func slotRef(inv *model.Inventory, slot model.EquipSlot) *int64 {
	id, ok := inv.Equipment[slot]
	if !ok || id == 0 {
		return nil
	}
	return &id
}
