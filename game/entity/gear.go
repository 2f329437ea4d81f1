package entity

import "fmt"

// Slot is an equipment slot
type Slot string

// Equipment slots
const (
	SlotMelee  Slot = "melee"
	SlotRanged Slot = "ranged"
	SlotSpell  Slot = "spell"
	SlotArmor  Slot = "armor"
)

// Slots lists every slot
var Slots = []Slot{SlotMelee, SlotRanged, SlotSpell, SlotArmor}

// Valid reports whether s is a known slot
func (s Slot) Valid() bool {
	for _, slot := range Slots {
		if slot == s {
			return true
		}
	}
	return false
}

// MaxGearTier is the highest gear tier per slot
const MaxGearTier = 3

// GearPrices are the unlock prices per tier; tier 0 is starter gear
var GearPrices = [MaxGearTier + 1]int{0, 150, 450, 1200}

// GearSellFraction is the refund share when selling gear
const GearSellFraction = 0.5

// GearItem is one catalog entry
type GearItem struct {
	ID             string  `json:"id"`
	Slot           Slot    `json:"slot"`
	Tier           int     `json:"tier"`
	Name           string  `json:"name"`
	Price          int     `json:"price"`
	DamageMult     float64 `json:"damageMult,omitempty"`
	RangeBonus     float64 `json:"rangeBonus,omitempty"`
	Accuracy       float64 `json:"accuracy,omitempty"`
	ChargeBonus    float64 `json:"chargeBonus,omitempty"`
	MaxHealthBonus float64 `json:"maxHealthBonus,omitempty"`
	// Chain lets spells arc to a second enemy
	Chain bool `json:"chain,omitempty"`
}

// Starter reports whether the item is starter gear, which can never be sold
func (g *GearItem) Starter() bool {
	return g.Tier == 0
}

// SellPrice is the refund for selling the item
func (g *GearItem) SellPrice() int {
	return int(float64(g.Price) * GearSellFraction)
}

var gearNames = map[Slot][MaxGearTier + 1]string{
	SlotMelee:  {"Rusty Blade", "Iron Sword", "Emberbrand", "Sunforged Greatsword"},
	SlotRanged: {"Training Bow", "Hunter's Bow", "Ashwood Longbow", "Cinder Recurve"},
	SlotSpell:  {"Apprentice Wand", "Oak Staff", "Storm Staff", "Glyph Scepter"},
	SlotArmor:  {"Cloth Tunic", "Leather Armor", "Chain Mail", "Obsidian Plate"},
}

var (
	gearCatalog = map[string]*GearItem{}
	gearBySlot  = map[Slot][]*GearItem{}
)

// GearID returns the catalog id of a slot and tier
func GearID(slot Slot, tier int) string {
	return fmt.Sprintf("%s-%d", slot, tier)
}

func init() {
	for _, slot := range Slots {
		for tier := 0; tier <= MaxGearTier; tier++ {
			t := float64(tier)
			g := &GearItem{
				ID:    GearID(slot, tier),
				Slot:  slot,
				Tier:  tier,
				Name:  gearNames[slot][tier],
				Price: GearPrices[tier],
			}
			switch slot {
			case SlotMelee:
				g.DamageMult = 1 + 0.2*t
				g.RangeBonus = 0.1 * t
				g.Accuracy = 0.01 * t
			case SlotRanged:
				g.DamageMult = 1 + 0.18*t
				g.RangeBonus = 0.6 * t
				g.Accuracy = 0.015 * t
			case SlotSpell:
				g.DamageMult = 1 + 0.2*t
				g.RangeBonus = 0.5 * t
				g.ChargeBonus = 0.1 * t
				g.Chain = tier >= 2
			case SlotArmor:
				g.MaxHealthBonus = []float64{0, 20, 45, 80}[tier]
			}
			gearCatalog[g.ID] = g
			gearBySlot[slot] = append(gearBySlot[slot], g)
		}
	}
}

// Gear looks up a catalog item
func Gear(id string) (*GearItem, bool) {
	g, ok := gearCatalog[id]
	return g, ok
}

// GearForSlot returns the slot's items ordered by tier
func GearForSlot(slot Slot) []*GearItem {
	return gearBySlot[slot]
}

// StarterGear returns the ids every new hero owns
func StarterGear() []string {
	ids := make([]string, 0, len(Slots))
	for _, slot := range Slots {
		ids = append(ids, GearID(slot, 0))
	}
	return ids
}
