package combat

import (
	"math"

	"github.com/emberwild/emberwild/game/entity"
)

// Loot roll constants
const (
	OreDropChance     = 0.28
	GearDropBaseRate  = 0.02
	lootCoinFloor     = 30
	lootCoinPerHealth = 0.18
	lootCoinFlat      = 4
)

// LootCoins is the currency an enemy of maxHealth drops
func LootCoins(maxHealth float64) int {
	return int(math.Round(math.Max(maxHealth, lootCoinFloor)*lootCoinPerHealth + lootCoinFlat))
}

// RollLoot fills a drop for a kill; nextLocked maps each unfinished slot to its next locked gear id
func RollLoot(maxHealth float64, tier int, scale float64, nextLocked map[entity.Slot]string, rng Rand) entity.Inventory {
	items := entity.Inventory{}
	items.Add(entity.Coins, LootCoins(maxHealth))
	if Roll(rng, OreDropChance) {
		items.Add(entity.RollOre(tier, rng).ID, 1)
	}
	for _, slot := range entity.Slots {
		id, ok := nextLocked[slot]
		if !ok {
			continue
		}
		if Roll(rng, GearDropBaseRate*scale) {
			items.Add(id, 1)
		}
	}
	return items
}

// NextLockedGear returns, per slot, the lowest tier the hero does not own yet
func NextLockedGear(owns func(id string) bool) map[entity.Slot]string {
	next := map[entity.Slot]string{}
	for _, slot := range entity.Slots {
		for _, g := range entity.GearForSlot(slot) {
			if g.Starter() || owns(g.ID) {
				continue
			}
			next[slot] = g.ID
			break
		}
	}
	return next
}
