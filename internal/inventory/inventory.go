// Package inventory implements item use, equip/unequip, drop, loot intake,
// and the canonical stat recomputation routine.
package inventory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/model"
)

// FailureCode is a machine-readable reason returned to the client instead of
// a raw error.
type FailureCode string

const (
	FailNotConsumable  FailureCode = "NOT_CONSUMABLE"
	FailHPFull         FailureCode = "HP_FULL"
	FailMPFull         FailureCode = "MP_FULL"
	FailOnCooldown     FailureCode = "ON_COOLDOWN"
	FailNotFound       FailureCode = "NOT_FOUND"
	FailNotEquipment   FailureCode = "NOT_EQUIPMENT"
	FailLevelTooLow    FailureCode = "LEVEL_TOO_LOW"
	FailWrongClass     FailureCode = "WRONG_CLASS"
	FailAlreadyEquipped FailureCode = "ALREADY_EQUIPPED"
	FailInventoryFull  FailureCode = "INVENTORY_FULL"
	FailNotEquipped    FailureCode = "NOT_EQUIPPED"
	FailEquippedItem   FailureCode = "EQUIPPED_ITEM"
	FailInsufficientQty FailureCode = "INSUFFICIENT_QUANTITY"
)

// potionCooldownWindow is the minimum elapsed time between uses of the same
// effect-target category (e.g. two health potions back to back).
const potionCooldownWindow = time.Second

// Engine applies inventory mutations against the catalog. Cooldown state is
// a concurrent map keyed by (sessionID, effectTarget), held outside the
// world lock since it never touches shared world state.
type Engine struct {
	catalog *data.Catalog
	log     *slog.Logger

	cooldownMu sync.Mutex
	cooldowns  map[string]int64 // sessionID+"|"+effectTarget -> unix millis of last use
}

// New returns an inventory Engine bound to catalog.
func New(catalog *data.Catalog, log *slog.Logger) *Engine {
	return &Engine{catalog: catalog, log: log, cooldowns: make(map[string]int64)}
}

// UseItemResult describes a successful consumable use.
type UseItemResult struct {
	RemainingQuantity int32
}

// UseItem consumes one instance of a consumable item, applying its effect to
// ch and enforcing the per-(session, effectTarget) cooldown.
func (e *Engine) UseItem(sessionID string, ch *model.Character, inv *model.Inventory, instanceID int64, nowMillis int64) (UseItemResult, FailureCode) {
	item := inv.FindInstance(instanceID)
	if item == nil {
		return UseItemResult{}, FailNotFound
	}
	tmpl := e.catalog.Item(item.TemplateID)
	if tmpl == nil || tmpl.Type != model.ItemConsumable {
		return UseItemResult{}, FailNotConsumable
	}

	key := sessionID + "|" + tmpl.EffectTarget
	if !e.tryCooldown(key, nowMillis) {
		return UseItemResult{}, FailOnCooldown
	}

	switch tmpl.EffectTarget {
	case "health":
		if ch.Health >= ch.MaxHealth {
			return UseItemResult{}, FailHPFull
		}
		ch.Heal(tmpl.EffectValue)
	case "mana":
		if ch.Mana >= ch.MaxMana {
			return UseItemResult{}, FailMPFull
		}
		ch.RestoreMana(tmpl.EffectValue)
	}

	item.Quantity--
	if item.Quantity <= 0 {
		inv.RemoveInstance(instanceID)
		return UseItemResult{RemainingQuantity: 0}, ""
	}
	return UseItemResult{RemainingQuantity: item.Quantity}, ""
}

func (e *Engine) tryCooldown(key string, nowMillis int64) bool {
	e.cooldownMu.Lock()
	defer e.cooldownMu.Unlock()
	last, ok := e.cooldowns[key]
	if ok && nowMillis-last < potionCooldownWindow.Milliseconds() {
		return false
	}
	e.cooldowns[key] = nowMillis
	return true
}

// Equip assigns an equipment item instance to its template's slot, unequipping
// whatever previously occupied that slot.
func (e *Engine) Equip(ch *model.Character, inv *model.Inventory, instanceID int64) FailureCode {
	item := inv.FindInstance(instanceID)
	if item == nil {
		return FailNotFound
	}
	tmpl := e.catalog.Item(item.TemplateID)
	if tmpl == nil || tmpl.Type != model.ItemEquipment {
		return FailNotEquipment
	}
	if item.IsEquipped {
		return FailAlreadyEquipped
	}
	if ch.Level < tmpl.RequiredLevel {
		return FailLevelTooLow
	}
	if tmpl.RequiredClass != "" && tmpl.RequiredClass != ch.Class {
		return FailWrongClass
	}

	if existing := inv.EquippedInSlot(tmpl.Slot); existing != nil {
		if !inv.HasFreeSlot() {
			return FailInventoryFull
		}
		existing.IsEquipped = false
	}

	item.IsEquipped = true
	inv.Equipment[tmpl.Slot] = item.InstanceID
	e.RecalculateStats(ch, inv)
	return ""
}

// Unequip clears an equipment slot reference and returns the item to the
// general inventory. Recovers gracefully from a dangling reference.
func (e *Engine) Unequip(ch *model.Character, inv *model.Inventory, slot model.EquipSlot) FailureCode {
	id, ok := inv.Equipment[slot]
	if !ok || id == 0 {
		return FailNotEquipped
	}
	item := inv.FindInstance(id)
	if item == nil {
		e.log.Warn("dangling equipment slot reference", "character", ch.ID, "slot", slot, "instance", id)
		delete(inv.Equipment, slot)
		return FailNotFound
	}
	if !inv.HasFreeSlot() {
		return FailInventoryFull
	}
	item.IsEquipped = false
	delete(inv.Equipment, slot)
	e.RecalculateStats(ch, inv)
	return ""
}

// Drop removes quantity of an item instance from the inventory.
func (e *Engine) Drop(inv *model.Inventory, instanceID int64, quantity int32) FailureCode {
	item := inv.FindInstance(instanceID)
	if item == nil {
		return FailNotFound
	}
	if item.IsEquipped {
		return FailEquippedItem
	}
	if item.Quantity < quantity {
		return FailInsufficientQty
	}
	item.Quantity -= quantity
	if item.Quantity <= 0 {
		inv.RemoveInstance(instanceID)
	}
	return ""
}

// RecalculateStats is the canonical derivation of an inventory owner's
// derived stats from class base + per-level growth + invested status
// points (Character.AllocatedStats) + equipment bonuses. No other code is
// permitted to write Character.Base or Character.Derived directly.
func (e *Engine) RecalculateStats(ch *model.Character, inv *model.Inventory) {
	class := e.catalog.Class(ch.Class)
	if class == nil {
		e.log.Warn("recalculate stats with unknown class", "character", ch.ID, "class", ch.Class)
		return
	}

	base := model.BaseStats{
		Str: class.BaseStats.Str + class.StatsPerLevel.Str*ch.Level + ch.AllocatedStats.Str,
		Int: class.BaseStats.Int + class.StatsPerLevel.Int*ch.Level + ch.AllocatedStats.Int,
		Dex: class.BaseStats.Dex + class.StatsPerLevel.Dex*ch.Level + ch.AllocatedStats.Dex,
		Vit: class.BaseStats.Vit + class.StatsPerLevel.Vit*ch.Level + ch.AllocatedStats.Vit,
	}

	var bonus model.BaseStats
	for _, it := range inv.Items {
		if !it.IsEquipped {
			continue
		}
		tmpl := e.catalog.Item(it.TemplateID)
		if tmpl == nil {
			continue
		}
		bonus.Str += tmpl.StatBonuses.Str
		bonus.Int += tmpl.StatBonuses.Int
		bonus.Dex += tmpl.StatBonuses.Dex
		bonus.Vit += tmpl.StatBonuses.Vit
	}

	ch.Base = model.BaseStats{
		Str: base.Str + bonus.Str,
		Int: base.Int + bonus.Int,
		Dex: base.Dex + bonus.Dex,
		Vit: base.Vit + bonus.Vit,
	}

	ch.Derived = model.DerivedStats{
		Atk:         ch.Base.Str * 3,
		MAtk:        ch.Base.Int * 3,
		Def:         ch.Base.Vit * 2,
		AttackSpeed: class.BaseAttackSpeed,
		AttackRange: class.AttackRange,
	}

	if ch.Health > ch.MaxHealth {
		ch.Health = ch.MaxHealth
	}
	if ch.Mana > ch.MaxMana {
		ch.Mana = ch.MaxMana
	}
}
