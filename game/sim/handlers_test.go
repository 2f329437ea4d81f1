package sim

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/emberwild/emberwild/game/economy"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/world"
)

func (te *testEngine) moveTo(p *entity.Player, kind world.FacilityKind) {
	z := te.world.DefaultZone()
	f, _ := z.Safe.Facility(kind)
	te.relocate(p, entity.Overworld{ZoneID: z.ID}, f.X+0.5, f.Y)
}

func (c *fakeConn) lastAction(t, action string) map[string]interface{} {
	msgs := c.messages(t)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i]["action"] == action {
			return msgs[i]
		}
	}
	return nil
}

func TestBankMovesEverythingAtOnce(t *testing.T) {
	te := newTestEngine(t)
	conn, p := te.join(t, "a")
	te.moveTo(p, world.Bank)

	te.send("a", `{"type":"bank","action":"withdraw"}`)
	res := conn.last("bank-result")
	assert.Equal(t, false, res["ok"])
	assert.T(t, strings.Contains(res["message"].(string), "empty"), "empty bank reported")

	p.Inventory.Add(entity.Coins, 30)
	p.Inventory.Add("iron", 4)
	te.send("a", `{"type":"bank","action":"deposit"}`)
	assert.Equal(t, true, conn.last("bank-result")["ok"])
	assert.T(t, p.Inventory.IsEmpty(), "inventory emptied")
	assert.Equal(t, 30, p.Bank.Count(entity.Coins))
	assert.Equal(t, 4, p.Bank.Count("iron"))
	assert.Equal(t, 30, p.Profile.Bank.Count(entity.Coins))

	te.moveTo(p, world.Shop)
	te.send("a", `{"type":"bank","action":"withdraw"}`)
	assert.Equal(t, false, conn.last("bank-result")["ok"])
	assert.Equal(t, 4, p.Bank.Count("iron"))
}

func TestTradingThroughMessages(t *testing.T) {
	te := newTestEngine(t)
	sellerConn, seller := te.join(t, "s")
	buyerConn, buyer := te.join(t, "b")
	te.moveTo(seller, world.TradingPost)
	te.moveTo(buyer, world.TradingPost)
	seller.Inventory.Add("iron", 10)
	buyer.Inventory.Add(entity.Coins, 500)

	te.send("s", `{"type":"trading","action":"create","item":"iron","quantity":4,"price":200}`)
	created := sellerConn.lastAction("trading", "create")
	assert.Equal(t, true, created["ok"])
	assert.Equal(t, 6, seller.Inventory.Count("iron"))
	listing := created["listing"].(map[string]interface{})
	id := listing["id"].(string)
	assert.T(t, buyerConn.last("trading")["action"] == "event", "listing broadcast")

	te.send("b", fmt.Sprintf(`{"type":"trading","action":"buy","listingId":%q}`, id))
	assert.Equal(t, true, buyerConn.lastAction("trading", "buy")["ok"])
	assert.Equal(t, 300, buyer.Inventory.Count(entity.Coins))
	assert.Equal(t, 4, buyer.Inventory.Count("iron"))
	assert.Equal(t, 200-economy.Fee(200), seller.Bank.Count(entity.Coins))
	assert.T(t, sellerConn.lastAction("trading", "sold") != nil, "seller notified")

	te.send("s", `{"type":"trading","action":"create","item":"iron","quantity":2,"price":50}`)
	id = sellerConn.lastAction("trading", "create")["listing"].(map[string]interface{})["id"].(string)
	te.Disconnect("s")
	saved := te.Shutdown()
	assert.T(t, saved >= 2, "shutdown saves every profile")
	assert.Equal(t, 6, te.profiles[seller.Profile.ID].Inventory.Count("iron"))
	assert.T(t, te.trading.Get(id) == nil, "listing refunded at shutdown")
	assert.Equal(t, 6, te.store.saved[string(seller.Profile.ID)].Inventory.Count("iron"))
}

func TestChatLength(t *testing.T) {
	te := newTestEngine(t)
	conn, _ := te.join(t, "a")
	other, _ := te.join(t, "b")

	te.send("a", `{"type":"chat","message":"   "}`)
	assert.Equal(t, false, conn.last("chat")["ok"])
	te.send("a", fmt.Sprintf(`{"type":"chat","message":%q}`, strings.Repeat("é", entity.MaxChatLength+1)))
	assert.Equal(t, 0, len(other.messages("chat")))

	te.send("a", fmt.Sprintf(`{"type":"chat","message":%q}`, strings.Repeat("é", entity.MaxChatLength)))
	assert.Equal(t, 1, len(other.messages("chat")))
	assert.Equal(t, 1, len(te.chats))
}

func TestGatherDepletesNode(t *testing.T) {
	te := newTestEngine(t)
	conn, p := te.join(t, "a")
	var node *entity.OreNode
	for _, o := range te.ores {
		if entity.SameLocation(o.Loc, p.Loc) {
			node = o
			break
		}
	}
	assert.T(t, node != nil, "default zone has ore")
	te.relocate(p, node.Loc, node.X, node.Y)

	for i := 0; i < oreNodeAmount; i++ {
		te.send("a", fmt.Sprintf(`{"type":"gather","id":%q}`, node.ID))
	}
	assert.T(t, node.Depleted(), "node depleted")
	assert.Equal(t, oreNodeAmount, p.Inventory.Count(node.OreID))
	assert.Equal(t, oreNodeAmount, len(conn.messages("gathered")))

	te.send("a", fmt.Sprintf(`{"type":"gather","id":%q}`, node.ID))
	assert.Equal(t, oreNodeAmount, p.Inventory.Count(node.OreID))

	te.clock.Advance(entity.OreRespawnDelay)
	te.runOres(te.clock.Now())
	assert.Equal(t, node.MaxAmount, node.Amount)
}

func TestMalformedAndUnknownMessagesAreIgnored(t *testing.T) {
	te := newTestEngine(t)
	conn, _ := te.join(t, "a")
	before := len(conn.raw)
	te.send("a", `{"type":"teleport-me"}`)
	te.send("a", `not json`)
	te.send("a", `{"type":"chat","message":12}`)
	assert.Equal(t, before, len(conn.raw))
}
