package economy

import (
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

// Deposit moves the whole inventory, coins included, into the bank
func Deposit(p *entity.Player, w *world.World) (entity.Inventory, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.Bank); rej != nil {
		return nil, rej
	}
	if p.Inventory.IsEmpty() {
		return nil, proto.Reject("bank", "You have nothing to deposit.")
	}
	moved := p.Inventory.Clone()
	p.Bank.Merge(moved)
	p.Inventory.Clear()
	return moved, nil
}

// Withdraw moves the whole bank back into the inventory
func Withdraw(p *entity.Player, w *world.World) (entity.Inventory, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.Bank); rej != nil {
		return nil, rej
	}
	if p.Bank.IsEmpty() {
		return nil, proto.Reject("bank", "Your bank is empty.")
	}
	moved := p.Bank.Clone()
	p.Inventory.Merge(moved)
	p.Bank.Clear()
	return moved, nil
}

// SellOres sells every carried ore at catalog price and returns the coins earned
func SellOres(p *entity.Player, w *world.World) (int, *proto.Rejection) {
	if rej := RequireFacility(p, w, world.Bank); rej != nil {
		return 0, rej
	}
	earned := 0
	for _, ore := range entity.Ores {
		n := p.Inventory.Count(ore.ID)
		if n == 0 {
			continue
		}
		p.Inventory.Add(ore.ID, -n)
		earned += n * ore.SellPrice
	}
	if earned == 0 {
		return 0, proto.Reject("bank", "You have no ore to sell.")
	}
	p.Inventory.Add(entity.Coins, earned)
	return earned, nil
}
