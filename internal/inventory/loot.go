package inventory

import (
	"math/rand"

	"github.com/aethermoor/worldserver/internal/model"
)

// LootResult is what a single monster-death loot roll produced, for the
// lootReceived broadcast.
type LootResult struct {
	Gold       int64
	Items      []model.ItemInstance
	Discarded  int // items rolled but dropped because the inventory was full
}

// RollLoot rolls gold and item drops against table: fixed gold range
// uniform, each item drop rolled independently against its chance,
// quantity uniform in its range.
func RollLoot(table *model.LootTable) (gold int64, drops []model.LootItemDrop) {
	if table == nil {
		return 0, nil
	}
	if table.MaxGold > table.MinGold {
		gold = table.MinGold + rand.Int63n(table.MaxGold-table.MinGold+1)
	} else {
		gold = table.MinGold
	}

	for _, item := range table.Items {
		if rand.Float64() >= item.Chance {
			continue
		}
		drops = append(drops, item)
	}
	return gold, drops
}

// ApplyLoot adds rolled gold and items to inv, allocating instance IDs via
// nextInstanceID for newly created stacks. Items that don't fit (no free
// slot and no existing stack to merge into) are discarded and logged by the
// caller.
func (e *Engine) ApplyLoot(inv *model.Inventory, gold int64, drops []model.LootItemDrop, nextInstanceID func() (int64, error)) (LootResult, error) {
	result := LootResult{Gold: gold}
	inv.Gold += gold

	for _, drop := range drops {
		qty := drop.MinQuantity
		if drop.MaxQuantity > drop.MinQuantity {
			qty = drop.MinQuantity + rand.Int31n(drop.MaxQuantity-drop.MinQuantity+1)
		}
		if qty <= 0 {
			continue
		}

		tmpl := e.catalog.Item(drop.ItemTemplateID)
		stackable := tmpl != nil && tmpl.MaxStack > 1

		if stackable {
			if merged := mergeIntoExistingStack(inv, drop.ItemTemplateID, qty, tmpl.MaxStack); merged {
				result.Items = append(result.Items, model.ItemInstance{TemplateID: drop.ItemTemplateID, Quantity: qty})
				continue
			}
		}

		if !inv.HasFreeSlot() {
			result.Discarded++
			continue
		}

		id, err := nextInstanceID()
		if err != nil {
			return result, err
		}
		it := &model.ItemInstance{InstanceID: id, TemplateID: drop.ItemTemplateID, Quantity: qty}
		inv.Items = append(inv.Items, it)
		result.Items = append(result.Items, *it)
	}
	return result, nil
}

func mergeIntoExistingStack(inv *model.Inventory, templateID int64, qty, maxStack int32) bool {
	for _, it := range inv.Items {
		if it.TemplateID == templateID && !it.IsEquipped && it.Quantity+qty <= maxStack {
			it.Quantity += qty
			return true
		}
	}
	return false
}
