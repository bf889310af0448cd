package inventory

import (
	"errors"
	"testing"

	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/model"
)

func materialCatalog() *data.Catalog {
	return &data.Catalog{
		Items: map[int64]*model.ItemTemplate{
			900: {ID: 900, Name: "Wolf Pelt", Type: model.ItemMaterial, MaxStack: 99},
		},
	}
}

func TestRollLoot_NilTable(t *testing.T) {
	gold, drops := RollLoot(nil)
	if gold != 0 || drops != nil {
		t.Errorf("RollLoot(nil) = (%d, %v), want (0, nil)", gold, drops)
	}
}

func TestRollLoot_GoldWithinRange(t *testing.T) {
	table := &model.LootTable{MinGold: 5, MaxGold: 10}
	for i := 0; i < 50; i++ {
		gold, _ := RollLoot(table)
		if gold < 5 || gold > 10 {
			t.Fatalf("RollLoot() gold = %d, want within [5, 10]", gold)
		}
	}
}

func TestRollLoot_FixedGoldWhenMinEqualsMax(t *testing.T) {
	table := &model.LootTable{MinGold: 7, MaxGold: 7}
	gold, _ := RollLoot(table)
	if gold != 7 {
		t.Errorf("RollLoot() gold = %d, want 7", gold)
	}
}

func TestRollLoot_GuaranteedDropAlwaysIncluded(t *testing.T) {
	table := &model.LootTable{
		Items: []model.LootItemDrop{{ItemTemplateID: 900, Chance: 1.0, MinQuantity: 1, MaxQuantity: 1}},
	}
	_, drops := RollLoot(table)
	if len(drops) != 1 {
		t.Fatalf("RollLoot() drops = %v, want exactly one guaranteed drop", drops)
	}
}

func TestRollLoot_ImpossibleDropNeverIncluded(t *testing.T) {
	table := &model.LootTable{
		Items: []model.LootItemDrop{{ItemTemplateID: 900, Chance: 0.0, MinQuantity: 1, MaxQuantity: 1}},
	}
	for i := 0; i < 50; i++ {
		_, drops := RollLoot(table)
		if len(drops) != 0 {
			t.Fatalf("RollLoot() drops = %v, want none for a zero-chance entry", drops)
		}
	}
}

func TestEngine_ApplyLoot_CreatesNewStack(t *testing.T) {
	e := New(materialCatalog(), testLogger())
	inv := model.NewInventory(1)
	drops := []model.LootItemDrop{{ItemTemplateID: 900, MinQuantity: 2, MaxQuantity: 2}}

	nextID := counterAllocator()
	result, err := e.ApplyLoot(inv, 10, drops, nextID)

	if err != nil {
		t.Fatalf("ApplyLoot() error = %v", err)
	}
	if result.Gold != 10 {
		t.Errorf("result.Gold = %d, want 10", result.Gold)
	}
	if inv.Gold != 10 {
		t.Errorf("inv.Gold = %d, want 10", inv.Gold)
	}
	if len(inv.Items) != 1 || inv.Items[0].Quantity != 2 {
		t.Fatalf("inv.Items = %+v, want a single stack of 2", inv.Items)
	}
}

func TestEngine_ApplyLoot_MergesIntoExistingStack(t *testing.T) {
	e := New(materialCatalog(), testLogger())
	inv := model.NewInventory(1)
	inv.Items = append(inv.Items, &model.ItemInstance{InstanceID: 1, TemplateID: 900, Quantity: 3})
	drops := []model.LootItemDrop{{ItemTemplateID: 900, MinQuantity: 2, MaxQuantity: 2}}

	_, err := e.ApplyLoot(inv, 0, drops, counterAllocator())
	if err != nil {
		t.Fatalf("ApplyLoot() error = %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("inv.Items = %+v, want the drop merged into the existing stack, not a new one", inv.Items)
	}
	if inv.Items[0].Quantity != 5 {
		t.Errorf("merged stack quantity = %d, want 5", inv.Items[0].Quantity)
	}
}

func TestEngine_ApplyLoot_DiscardsWhenInventoryFull(t *testing.T) {
	e := New(materialCatalog(), testLogger())
	inv := model.NewInventory(1)
	inv.MaxSlots = 0 // no room for a new stack
	drops := []model.LootItemDrop{{ItemTemplateID: 900, MinQuantity: 200, MaxQuantity: 200}}

	// Nothing to merge into, so this falls through to the free-slot check,
	// which fails.
	result, err := e.ApplyLoot(inv, 0, drops, counterAllocator())
	if err != nil {
		t.Fatalf("ApplyLoot() error = %v", err)
	}
	if result.Discarded != 1 {
		t.Errorf("result.Discarded = %d, want 1", result.Discarded)
	}
	if len(inv.Items) != 0 {
		t.Errorf("inv.Items = %+v, want none added", inv.Items)
	}
}

func TestEngine_ApplyLoot_PropagatesAllocatorError(t *testing.T) {
	e := New(materialCatalog(), testLogger())
	inv := model.NewInventory(1)
	drops := []model.LootItemDrop{{ItemTemplateID: 900, MinQuantity: 1, MaxQuantity: 1}}
	wantErr := errors.New("allocator exhausted")

	_, err := e.ApplyLoot(inv, 0, drops, func() (int64, error) { return 0, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("ApplyLoot() error = %v, want %v", err, wantErr)
	}
}

func counterAllocator() func() (int64, error) {
	id := int64(100)
	return func() (int64, error) {
		id++
		return id, nil
	}
}
