package sim

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/emberwild/emberwild/game/account"
	"github.com/emberwild/emberwild/game/economy"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

// interaction reach for ore nodes and loot piles
const pickupRadius = 2.0

type chatMsg struct {
	Type    proto.MsgType `json:"type"`
	ID      string        `json:"id"`
	Alias   string        `json:"alias"`
	Name    string        `json:"name"`
	Message string        `json:"message"`
	locView
	At int64 `json:"at"`
}

func (e *Engine) handleChat(s *session, msg *proto.Chat) {
	p := s.player
	text := strings.TrimSpace(msg.Message)
	if n := utf8.RuneCountInString(text); n == 0 || n > entity.MaxChatLength {
		e.reply(s, proto.MT_CHAT, "", proto.Reject("message", fmt.Sprintf("Chat messages are 1 to %d characters.", entity.MaxChatLength)))
		return
	}
	now := e.clock.Now()
	c := &entity.Chat{
		ID:        e.genID("chat-"),
		Alias:     string(p.Alias),
		Name:      p.Name,
		Message:   text,
		Loc:       p.Loc,
		At:        now,
		ExpiresAt: now.Add(entity.ChatLifetime),
	}
	e.chats = append(e.chats, c)
	e.broadcast(chatMsg{Type: proto.MT_CHAT, ID: c.ID, Alias: c.Alias, Name: c.Name, Message: c.Message, locView: viewLoc(c.Loc), At: entity.Millis(now)}, "")
}

type gatheredMsg struct {
	Type   proto.MsgType `json:"type"`
	OreID  string        `json:"oreId"`
	NodeID string        `json:"nodeId"`
	Count  int           `json:"count"`
	Left   int           `json:"left"`
}

func (e *Engine) handleGather(s *session, msg *proto.Gather) {
	p := s.player
	if p.IsGhost() {
		e.blocked(s, "Ghosts cannot gather.")
		return
	}
	var node *entity.OreNode
	if msg.ID != "" {
		if o := e.ores[msg.ID]; o != nil && e.reachable(p, o.Loc, o.X, o.Y) && !o.Depleted() {
			node = o
		}
	} else {
		best := math.Inf(1)
		for _, o := range e.ores {
			if o.Depleted() || !e.reachable(p, o.Loc, o.X, o.Y) {
				continue
			}
			if d := math.Hypot(o.X-p.X, o.Y-p.Y); d < best {
				node, best = o, d
			}
		}
	}
	if node == nil {
		e.reply(s, proto.MT_GATHERED, "", proto.Reject("ore", "There is no ore within reach."))
		return
	}

	node.Amount--
	if node.Depleted() {
		node.RespawnAt = e.clock.Now().Add(entity.OreRespawnDelay)
	}
	p.Inventory.Add(node.OreID, 1)
	e.Changed(p.Profile.ID)
	e.send(s, gatheredMsg{Type: proto.MT_GATHERED, OreID: node.OreID, NodeID: node.ID, Count: 1, Left: node.Amount})
	e.sendInventory(s, p)
	e.broadcastAt(node.Loc, oreUpdateMsg{Type: proto.MT_ORE_UPDATE, Ore: viewOre(node)})
}

func (e *Engine) reachable(p *entity.Player, loc entity.Location, x, y float64) bool {
	return entity.SameLocation(p.Loc, loc) && math.Hypot(x-p.X, y-p.Y) <= pickupRadius
}

type lootCollectedMsg struct {
	Type     proto.MsgType    `json:"type"`
	ID       string           `json:"id"`
	Items    entity.Inventory `json:"items"`
	Unlocked []string         `json:"unlocked,omitempty"`
}

func (e *Engine) handleLoot(s *session, msg *proto.Loot) {
	p := s.player
	if p.IsGhost() {
		e.blocked(s, "Ghosts cannot pick up loot.")
		return
	}
	var drop *entity.LootDrop
	if msg.ID != "" {
		if d := e.loot[msg.ID]; d != nil && e.reachable(p, d.Loc, d.X, d.Y) {
			drop = d
		}
	} else {
		best := math.Inf(1)
		for _, d := range e.loot {
			if !e.reachable(p, d.Loc, d.X, d.Y) {
				continue
			}
			if dist := math.Hypot(d.X-p.X, d.Y-p.Y); dist < best {
				drop, best = d, dist
			}
		}
	}
	if drop == nil {
		e.reply(s, proto.MT_LOOT_COLLECTED, "", proto.Reject("loot", "There is no loot within reach."))
		return
	}

	delete(e.loot, drop.ID)
	var unlocked []string
	for item, n := range drop.Items {
		if _, isGear := entity.Gear(item); isGear {
			if !p.OwnedGear.Contains(item) {
				p.OwnedGear.Add(item)
				unlocked = append(unlocked, item)
			}
			continue
		}
		p.Inventory.Add(item, n)
	}
	e.Changed(p.Profile.ID)
	e.send(s, lootCollectedMsg{Type: proto.MT_LOOT_COLLECTED, ID: drop.ID, Items: drop.Items, Unlocked: unlocked})
	e.sendInventory(s, p)
	e.broadcastAt(drop.Loc, lootUpdateMsg{Type: proto.MT_LOOT_UPDATE, ID: drop.ID, Removed: true})
}

func (e *Engine) handleBank(s *session, msg *proto.Bank) {
	p := s.player
	var rej *proto.Rejection
	var message string
	var data interface{}
	switch msg.Action {
	case "deposit":
		var moved entity.Inventory
		if moved, rej = economy.Deposit(p, e.world); rej == nil {
			message, data = "Everything you carried is now in the bank.", moved
		}
	case "withdraw":
		var moved entity.Inventory
		if moved, rej = economy.Withdraw(p, e.world); rej == nil {
			message, data = "You withdrew everything from the bank.", moved
		}
	case "sell":
		var earned int
		if earned, rej = economy.SellOres(p, e.world); rej == nil {
			message, data = fmt.Sprintf("You sold your ore for %d coins.", earned), earned
		}
	default:
		rej = proto.Reject("action", "Unknown bank action.")
	}
	if rej != nil {
		e.reply(s, proto.MT_BANK_RESULT, msg.Action, rej)
		return
	}
	e.Changed(p.Profile.ID)
	e.send(s, proto.Success(proto.MT_BANK_RESULT, msg.Action, message, data))
	e.sendInventory(s, p)
}

func (e *Engine) handleShop(s *session, msg *proto.Shop) {
	p := s.player
	now := e.clock.Now()
	switch msg.Action {
	case "catalog":
		e.send(s, proto.Success(proto.MT_SHOP_RESULT, msg.Action, "", economy.ShopCatalog(p)))
		return
	case "buy":
		g, rej := economy.BuyGear(p, e.world, msg.ItemID)
		if rej != nil {
			e.reply(s, proto.MT_SHOP_RESULT, msg.Action, rej)
			return
		}
		p.RecomputeBonuses(now)
		e.send(s, proto.Success(proto.MT_SHOP_RESULT, msg.Action, "You bought "+g.Name+".", economy.ShopCatalog(p)))
	case "sell":
		refund, rej := economy.SellItem(p, e.world, msg.ItemID)
		if rej != nil {
			e.reply(s, proto.MT_SHOP_RESULT, msg.Action, rej)
			return
		}
		p.RecomputeBonuses(now)
		e.send(s, proto.Success(proto.MT_SHOP_RESULT, msg.Action, fmt.Sprintf("Sold for %d coins.", refund), economy.ShopCatalog(p)))
	default:
		e.reply(s, proto.MT_SHOP_RESULT, msg.Action, proto.Reject("action", "Unknown shop action."))
		return
	}
	e.Changed(p.Profile.ID)
	e.sendInventory(s, p)
}

func (e *Engine) handleTrading(s *session, msg *proto.Trading) {
	p := s.player
	var l *economy.Listing
	var rej *proto.Rejection
	var message string
	switch msg.Action {
	case "listings":
		e.send(s, tradingMsg{Type: proto.MT_TRADING, Action: msg.Action, OK: true, Listings: e.trading.Listings(), FeePct: economy.FeePercent})
		return
	case "create":
		if l, rej = e.trading.Create(p, e.world, msg.Item, msg.Quantity, msg.Price, e.clock.Now()); rej == nil {
			e.Changed(p.Profile.ID)
			message = fmt.Sprintf("Listed %d %s for %d coins.", l.Quantity, l.Item, l.Price)
		}
	case "cancel":
		if l, rej = e.trading.Cancel(p, e.world, msg.ListingID, e); rej == nil {
			message = "Listing cancelled and items returned."
		}
	case "buy":
		if l, rej = e.trading.Buy(p, e.world, msg.ListingID, e); rej == nil {
			message = fmt.Sprintf("Bought %d %s for %d coins.", l.Quantity, l.Item, l.Price)
			e.notifySeller(l)
		}
	default:
		rej = proto.Reject("action", "Unknown trading action.")
	}
	if rej != nil {
		e.send(s, tradingMsg{Type: proto.MT_TRADING, Action: msg.Action, Message: rej.Message, Field: rej.Field})
		return
	}
	e.send(s, tradingMsg{Type: proto.MT_TRADING, Action: msg.Action, OK: true, Message: message, Listing: l})
	e.sendInventory(s, p)
	e.broadcast(tradingMsg{Type: proto.MT_TRADING, Action: "event", OK: true, Listings: e.trading.Listings(), FeePct: economy.FeePercent}, "")
}

func (e *Engine) notifySeller(l *economy.Listing) {
	seller := e.playerByProfile(l.Seller)
	if seller == nil {
		return
	}
	ss := e.sessions[seller.Alias]
	net := l.Price - economy.Fee(l.Price)
	e.send(ss, tradingMsg{Type: proto.MT_TRADING, Action: "sold", OK: true, Listing: l,
		Message: fmt.Sprintf("Your %d %s sold. %d coins were sent to your bank.", l.Quantity, l.Item, net)})
	e.sendInventory(ss, seller)
}

type portalEvent struct {
	Type     proto.MsgType `json:"type"`
	Action   string        `json:"action"`
	PortalID string        `json:"portalId,omitempty"`
	locView
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type zoneEvent struct {
	Type    proto.MsgType `json:"type"`
	Action  string        `json:"action"`
	ZoneID  string        `json:"zoneId"`
	Name    string        `json:"name"`
	Message string        `json:"message,omitempty"`
}

func (e *Engine) handlePortal(s *session, msg *proto.Portal) {
	p := s.player
	if p.IsGhost() {
		e.blocked(s, "Ghosts cannot use portals.")
		return
	}
	switch msg.Action {
	case "enter":
		portal := e.portalInReach(p, msg.PortalID)
		if portal == nil {
			e.reply(s, proto.MT_PORTAL_EVENT, msg.Action, proto.Reject("portalId", "There is no portal within reach."))
			return
		}
		e.travel(s, p, portal)
	case "exit":
		levelID, ok := entity.LevelOf(p.Loc)
		if !ok {
			e.reply(s, proto.MT_PORTAL_EVENT, msg.Action, proto.Reject("portal", "You are not inside a dungeon."))
			return
		}
		for _, portal := range e.world.LevelPortals(levelID) {
			if portal.Kind == world.PortalZoneReturn {
				e.travel(s, p, portal)
				return
			}
		}
	default:
		e.reply(s, proto.MT_PORTAL_EVENT, msg.Action, proto.Reject("action", "Unknown portal action."))
	}
}

// portalInReach finds the named portal, or the closest one, at the hero's location
func (e *Engine) portalInReach(p *entity.Player, id string) *world.Portal {
	var candidates []*world.Portal
	switch loc := p.Loc.(type) {
	case entity.Overworld:
		candidates = e.world.ZonePortals(loc.ZoneID)
	case entity.Dungeon:
		candidates = e.world.LevelPortals(loc.LevelID)
	}
	var best *world.Portal
	bestDist := math.Inf(1)
	for _, portal := range candidates {
		if id != "" && portal.ID != id {
			continue
		}
		if !portal.InRange(p.X, p.Y) {
			continue
		}
		if d := portal.Position().DistanceTo(p.X, p.Y); d < bestDist {
			best, bestDist = portal, d
		}
	}
	return best
}

// travel moves a hero through a portal
func (e *Engine) travel(s *session, p *entity.Player, portal *world.Portal) {
	var loc entity.Location
	var dest world.Point
	switch portal.Kind {
	case world.PortalLevel:
		lv := e.world.Level(portal.TargetLevel)
		if lv == nil {
			return
		}
		loc, dest = entity.Dungeon{LevelID: lv.ID}, lv.Entry
	case world.PortalZone:
		z := e.world.Zone(portal.TargetZone)
		if z == nil {
			return
		}
		loc, dest = entity.Overworld{ZoneID: z.ID}, e.world.SafeSpawn(z, e.rng)
	case world.PortalZoneReturn:
		z := e.world.Zone(portal.TargetZone)
		if z == nil {
			return
		}
		loc, dest = entity.Overworld{ZoneID: z.ID}, e.arrivalNear(z, e.world.PortalTo(portal.LevelID))
	}
	p.Action = entity.Idle{}
	e.relocate(p, loc, dest.X, dest.Y)
	p.SyncProfile(e.clock.Now())
	e.Changed(p.Profile.ID)
	e.send(s, portalEvent{Type: proto.MT_PORTAL_EVENT, Action: "arrived", PortalID: portal.ID, locView: viewLoc(loc), X: dest.X, Y: dest.Y})
	if zoneID, ok := entity.ZoneOf(loc); ok {
		z := e.world.Zone(zoneID)
		e.send(s, zoneEvent{Type: proto.MT_ZONE_EVENT, Action: "entered", ZoneID: z.ID, Name: z.Name})
	}
}

// arrivalNear picks a walkable tile next to the portal that leads back into the level
func (e *Engine) arrivalNear(z *world.Zone, portal *world.Portal) world.Point {
	if portal != nil {
		r := world.Rect{X: int(portal.X) - 3, Y: int(portal.Y) - 3, W: 7, H: 7}
		pt, ok := e.world.RandomWalkable(r, e.rng, 30, func(x, y float64) bool {
			d := portal.Position().DistanceTo(x, y)
			return z.Rect.Contains(x, y) && d > world.PortalRadius && d <= 3.5
		})
		if ok {
			return pt
		}
	}
	return e.world.SafeSpawn(z, e.rng)
}

func (e *Engine) handleEquip(s *session, msg *proto.Equip) {
	p := s.player
	if rej := economy.Equip(p, entity.Slot(msg.Slot), msg.ItemID); rej != nil {
		e.reply(s, proto.MT_EQUIP_RESULT, msg.Slot, rej)
		return
	}
	p.RecomputeBonuses(e.clock.Now())
	e.Changed(p.Profile.ID)
	e.send(s, proto.Success(proto.MT_EQUIP_RESULT, msg.Slot, "", p.Bonuses))
	e.sendInventory(s, p)
}

type profileMsg struct {
	Type             proto.MsgType `json:"type"`
	Action           string        `json:"action"`
	OK               bool          `json:"ok"`
	Message          string        `json:"message,omitempty"`
	Field            string        `json:"field,omitempty"`
	Name             string        `json:"name"`
	TutorialDone     bool          `json:"tutorialDone"`
	PvPOptIn         bool          `json:"pvpOptIn"`
	PvPCooldownUntil int64         `json:"pvpCooldownUntil"`
}

func (e *Engine) handleProfile(s *session, msg *proto.Profile) {
	p := s.player
	now := e.clock.Now()
	var rej *proto.Rejection
	switch msg.Action {
	case "set-name":
		var name string
		if name, rej = account.ValidateHeroName(msg.Name); rej == nil {
			p.Name = name
		}
	case "tutorial-complete":
		p.TutorialDone = true
	case "reset-tutorial":
		p.TutorialDone = false
	case "toggle-pvp":
		if p.PvPOptIn && !p.CanDisablePvP(now) {
			left := int(math.Ceil(p.PvPCooldownUntil.Sub(now).Seconds()))
			rej = proto.Reject("pvp", fmt.Sprintf("You were in a fight recently. PvP can be disabled in %ds.", left))
		} else {
			p.PvPOptIn = !p.PvPOptIn
		}
	default:
		rej = proto.Reject("action", "Unknown profile action.")
	}
	reply := profileMsg{
		Type:             proto.MT_PROFILE,
		Action:           msg.Action,
		OK:               rej == nil,
		Name:             p.Name,
		TutorialDone:     p.TutorialDone,
		PvPOptIn:         p.PvPOptIn,
		PvPCooldownUntil: entity.Millis(p.PvPCooldownUntil),
	}
	if rej != nil {
		reply.Message, reply.Field = rej.Message, rej.Field
	} else {
		p.SyncProfile(now)
		e.Changed(p.Profile.ID)
	}
	e.send(s, reply)
}
