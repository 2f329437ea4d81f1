package economy

import (
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

// GearOffer is one gear line of the shop catalog
type GearOffer struct {
	ID        string      `json:"id"`
	Slot      entity.Slot `json:"slot"`
	Tier      int         `json:"tier"`
	Name      string      `json:"name"`
	Price     int         `json:"price"`
	SellPrice int         `json:"sellPrice"`
	Owned     bool        `json:"owned"`
	Equipped  bool        `json:"equipped"`
	// Available is true for the next locked tier of a slot
	Available bool `json:"available"`
}

// OreOffer is one ore line of the shop catalog
type OreOffer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Catalog is the shop view for one hero
type Catalog struct {
	Gear []GearOffer `json:"gear"`
	Ores []OreOffer  `json:"ores"`
}

func highestOwnedTier(p *entity.Player, slot entity.Slot) int {
	best := 0
	for _, g := range entity.GearForSlot(slot) {
		if p.OwnedGear.Contains(g.ID) && g.Tier > best {
			best = g.Tier
		}
	}
	return best
}

// ShopCatalog lists gear prices by tier and ore sell prices
func ShopCatalog(p *entity.Player) Catalog {
	var c Catalog
	for _, slot := range entity.Slots {
		next := highestOwnedTier(p, slot) + 1
		for _, g := range entity.GearForSlot(slot) {
			c.Gear = append(c.Gear, GearOffer{
				ID:        g.ID,
				Slot:      g.Slot,
				Tier:      g.Tier,
				Name:      g.Name,
				Price:     g.Price,
				SellPrice: g.SellPrice(),
				Owned:     p.OwnedGear.Contains(g.ID),
				Equipped:  p.Equipment[slot] == g.ID,
				Available: g.Tier == next,
			})
		}
	}
	for _, o := range entity.Ores {
		c.Ores = append(c.Ores, OreOffer{ID: o.ID, Name: o.Name, Price: o.SellPrice})
	}
	return c
}

// BuyGear unlocks the next tier of a slot and equips it
func BuyGear(p *entity.Player, w *world.World, itemID string) (*entity.GearItem, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.Shop); rej != nil {
		return nil, rej
	}
	g, ok := entity.Gear(itemID)
	if !ok {
		return nil, proto.Reject("itemId", "Unknown item.")
	}
	if p.OwnedGear.Contains(g.ID) {
		return nil, proto.Reject("itemId", "You already own "+g.Name+".")
	}
	if g.Tier != highestOwnedTier(p, g.Slot)+1 {
		return nil, proto.Reject("itemId", "Unlock the previous tier first.")
	}
	if !p.Inventory.Remove(entity.Coins, g.Price) {
		return nil, proto.Reject("coins", "Not enough coins.")
	}
	p.OwnedGear.Add(g.ID)
	p.Equipment[g.Slot] = g.ID
	return g, nil
}

// SellItem sells owned gear for half its price, or a whole stack of one ore
func SellItem(p *entity.Player, w *world.World, itemID string) (int, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.Shop); rej != nil {
		return 0, rej
	}
	if ore, ok := entity.OreByID(itemID); ok {
		n := p.Inventory.Count(ore.ID)
		if n == 0 {
			return 0, proto.Reject("itemId", "You have no "+ore.Name+".")
		}
		p.Inventory.Add(ore.ID, -n)
		earned := n * ore.SellPrice
		p.Inventory.Add(entity.Coins, earned)
		return earned, nil
	}

	g, ok := entity.Gear(itemID)
	if !ok {
		return 0, proto.Reject("itemId", "Unknown item.")
	}
	if g.Starter() {
		return 0, proto.Reject("itemId", "Starter gear cannot be sold.")
	}
	if !p.OwnedGear.Contains(g.ID) {
		return 0, proto.Reject("itemId", "You do not own "+g.Name+".")
	}
	p.OwnedGear.Remove(g.ID)
	refund := g.SellPrice()
	p.Inventory.Add(entity.Coins, refund)
	if p.Equipment[g.Slot] == g.ID {
		p.Equipment[g.Slot] = bestOwned(p, g.Slot)
	}
	return refund, nil
}

func bestOwned(p *entity.Player, slot entity.Slot) string {
	best := entity.GearID(slot, 0)
	bestTier := -1
	for _, g := range entity.GearForSlot(slot) {
		if p.OwnedGear.Contains(g.ID) && g.Tier > bestTier {
			best, bestTier = g.ID, g.Tier
		}
	}
	return best
}

// Equip puts an owned item into its slot
func Equip(p *entity.Player, slot entity.Slot, itemID string) *proto.Rejection {
	if !slot.Valid() {
		return proto.Reject("slot", "Unknown slot.")
	}
	g, ok := entity.Gear(itemID)
	if !ok || g.Slot != slot {
		return proto.Reject("itemId", "That item does not fit this slot.")
	}
	if !p.OwnedGear.Contains(g.ID) {
		return proto.Reject("itemId", "You do not own "+g.Name+".")
	}
	p.Equipment[slot] = g.ID
	return nil
}
