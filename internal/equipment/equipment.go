// Package equipment describes the tagged items combatants carry and the
// defense and damage values combat reads from them.
package equipment

import "fmt"

// Slot is where an item is worn or held.
type Slot string

const (
	SlotHelmet     Slot = "helmet"
	SlotChestplate Slot = "chestplate"
	SlotLeggings   Slot = "leggings"
	SlotBoots      Slot = "boots"
	SlotMainHand   Slot = "main_hand"
)

// ArmorSlots lists the four defense slots in loadout order.
var ArmorSlots = [4]Slot{SlotHelmet, SlotChestplate, SlotLeggings, SlotBoots}

func (s Slot) armorIndex() (int, bool) {
	switch s {
	case SlotHelmet:
		return 0, true
	case SlotChestplate:
		return 1, true
	case SlotLeggings:
		return 2, true
	case SlotBoots:
		return 3, true
	case SlotMainHand:
		return 0, false
	}
	return 0, false
}

func ParseSlot(raw string) (Slot, error) {
	switch s := Slot(raw); s {
	case SlotHelmet, SlotChestplate, SlotLeggings, SlotBoots, SlotMainHand:
		return s, nil
	}
	return "", fmt.Errorf("unknown slot %q", raw)
}

// Tier is the material grade of an item.
type Tier string

const (
	TierLeather   Tier = "leather"
	TierStone     Tier = "stone"
	TierIron      Tier = "iron"
	TierDiamond   Tier = "diamond"
	TierNetherite Tier = "netherite"
	TierWood      Tier = "wood"
)

func ParseTier(raw string) (Tier, error) {
	switch t := Tier(raw); t {
	case TierLeather, TierStone, TierIron, TierDiamond, TierNetherite, TierWood:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", raw)
}

// Tag names a numeric value stored on an item.
type Tag string

const (
	TagDamage           Tag = "damage"
	TagDefense          Tag = "defense"
	TagProjectileDamage Tag = "projectile_damage"
)

func ParseTag(raw string) (Tag, error) {
	switch t := Tag(raw); t {
	case TagDamage, TagDefense, TagProjectileDamage:
		return t, nil
	}
	return "", fmt.Errorf("unknown tag %q", raw)
}

// Item is one piece of equipment. Missing tags read as zero.
type Item struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Tier Tier            `json:"tier,omitempty"`
	Slot Slot            `json:"slot"`
	Tags map[Tag]float64 `json:"tags,omitempty"`
}

// Tag returns the value stored under t, or zero when the item is nil or
// untagged.
func (i *Item) Tag(t Tag) float64 {
	if i == nil {
		return 0
	}
	return i.Tags[t]
}

func (i *Item) HasTag(t Tag) bool {
	if i == nil {
		return false
	}
	_, ok := i.Tags[t]
	return ok
}

// Loadout is a combatant's equipped items. Nil entries are empty slots.
type Loadout struct {
	Armor    [4]*Item
	MainHand *Item
}

// Equip places item in the slot it declares and returns the displaced item.
func (l *Loadout) Equip(item *Item) *Item {
	if item == nil {
		return nil
	}
	if idx, ok := item.Slot.armorIndex(); ok {
		prev := l.Armor[idx]
		l.Armor[idx] = item
		return prev
	}
	prev := l.MainHand
	l.MainHand = item
	return prev
}

// Defense sums the defense tag across the four armor slots.
func (l Loadout) Defense() float64 {
	total := 0.0
	for _, piece := range l.Armor {
		total += piece.Tag(TagDefense)
	}
	return total
}

// WeaponDamage is the melee damage of the held item. An empty hand deals fist
// damage; a held item without a damage tag deals nothing.
func (l Loadout) WeaponDamage(fist float64) float64 {
	if l.MainHand == nil {
		return fist
	}
	return l.MainHand.Tag(TagDamage)
}
