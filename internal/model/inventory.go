package model

// DefaultMaxSlots is the default inventory capacity.
const DefaultMaxSlots = 50

// Inventory is owned 1:1 by a character. Equipment slot references are
// nullable pointers into Items by InstanceID.
type Inventory struct {
	CharacterID int64
	MaxSlots    int32
	Gold        int64

	Equipment map[EquipSlot]int64 // slot -> instanceID, 0/absent = empty

	Items []*ItemInstance
}

// NewInventory returns an empty inventory with the default capacity.
func NewInventory(characterID int64) *Inventory {
	return &Inventory{
		CharacterID: characterID,
		MaxSlots:    DefaultMaxSlots,
		Equipment:   make(map[EquipSlot]int64),
	}
}

// FindInstance returns the item instance with the given ID, or nil.
func (inv *Inventory) FindInstance(instanceID int64) *ItemInstance {
	for _, it := range inv.Items {
		if it.InstanceID == instanceID {
			return it
		}
	}
	return nil
}

// UsedSlots counts non-equipped item instances, which is what the maxSlots
// capacity invariant is measured against.
func (inv *Inventory) UsedSlots() int {
	n := 0
	for _, it := range inv.Items {
		if !it.IsEquipped {
			n++
		}
	}
	return n
}

// HasFreeSlot reports whether a non-equipped item could be added without
// exceeding MaxSlots.
func (inv *Inventory) HasFreeSlot() bool {
	return inv.UsedSlots() < int(inv.MaxSlots)
}

// RemoveInstance deletes the item instance with the given ID from Items.
func (inv *Inventory) RemoveInstance(instanceID int64) {
	for i, it := range inv.Items {
		if it.InstanceID == instanceID {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			return
		}
	}
}

// EquippedInSlot returns the item instance referenced by an equipment slot,
// or nil if the slot is empty or the reference is dangling.
func (inv *Inventory) EquippedInSlot(slot EquipSlot) *ItemInstance {
	id, ok := inv.Equipment[slot]
	if !ok || id == 0 {
		return nil
	}
	return inv.FindInstance(id)
}
