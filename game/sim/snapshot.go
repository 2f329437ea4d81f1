package sim

import (
	"sort"
	"time"

	"github.com/emberwild/emberwild/game/economy"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

type locView struct {
	ZoneID  string `json:"zoneId,omitempty"`
	LevelID string `json:"levelId,omitempty"`
}

func viewLoc(loc entity.Location) locView {
	zoneID, _ := entity.ZoneOf(loc)
	levelID, _ := entity.LevelOf(loc)
	return locView{ZoneID: zoneID, LevelID: levelID}
}

type chargeView struct {
	Kind      entity.ActionKind `json:"kind"`
	StartedAt int64             `json:"startedAt"`
	Charge    float64           `json:"charge"`
	AimX      float64           `json:"aimX"`
	AimY      float64           `json:"aimY"`
}

type playerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	locView
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Health    float64      `json:"health"`
	MaxHealth float64      `json:"maxHealth"`
	AimX      float64      `json:"aimX"`
	AimY      float64      `json:"aimY"`
	Ghost     bool         `json:"ghost"`
	Action    *chargeView  `json:"action,omitempty"`
	Momentum  int          `json:"momentum"`
	PvP       bool         `json:"pvp"`
	Stats     entity.Stats `json:"stats"`
}

func (e *Engine) playerView(p *entity.Player) playerView {
	now := e.clock.Now()
	v := playerView{
		ID:        string(p.Alias),
		Name:      p.Name,
		locView:   viewLoc(p.Loc),
		X:         p.X,
		Y:         p.Y,
		Health:    p.Health,
		MaxHealth: p.MaxHealth,
		AimX:      p.AimX,
		AimY:      p.AimY,
		Ghost:     p.IsGhost(),
		Momentum:  p.Momentum.Current(now),
		PvP:       p.PvPOptIn,
		Stats:     p.Stats,
	}
	if c, ok := p.Action.(entity.Charging); ok {
		v.Action = &chargeView{
			Kind:      c.Kind,
			StartedAt: entity.Millis(c.StartedAt),
			Charge:    now.Sub(c.StartedAt).Seconds(),
			AimX:      c.AimX,
			AimY:      c.AimY,
		}
	}
	return v
}

// selfView is the private state of the receiving hero
type selfView struct {
	playerView
	ProfileID        string                 `json:"profileId"`
	XP               entity.Skills          `json:"xp"`
	Bonuses          entity.Bonuses         `json:"bonuses"`
	Inventory        entity.Inventory       `json:"inventory"`
	Bank             entity.Inventory       `json:"bank"`
	Equipment        map[entity.Slot]string `json:"equipment"`
	OwnedGear        []string               `json:"ownedGear"`
	TutorialDone     bool                   `json:"tutorialDone"`
	Admin            bool                   `json:"admin"`
	PvPCooldownUntil int64                  `json:"pvpCooldownUntil"`
	Objective        *entity.Objective      `json:"objective,omitempty"`
	Account          string                 `json:"account,omitempty"`
}

func (e *Engine) selfView(p *entity.Player) selfView {
	v := selfView{
		playerView:       e.playerView(p),
		ProfileID:        string(p.Profile.ID),
		XP:               p.XP,
		Bonuses:          p.Bonuses,
		Inventory:        p.Inventory,
		Bank:             p.Bank,
		Equipment:        p.Equipment,
		OwnedGear:        p.OwnedGear.ToList(),
		TutorialDone:     p.TutorialDone,
		Admin:            p.Admin,
		PvPCooldownUntil: entity.Millis(p.PvPCooldownUntil),
	}
	if g, ok := p.Life.(entity.Ghost); ok {
		obj := g.Objective
		v.Objective = &obj
	}
	if p.Profile.Account != nil {
		v.Account = p.Profile.Account.Name
	}
	return v
}

type enemyView struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	locView
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Radius    float64 `json:"radius"`
	Target    string  `json:"target,omitempty"`
}

type effectView struct {
	ID     string            `json:"id"`
	Kind   entity.EffectKind `json:"kind"`
	Action entity.ActionKind `json:"action"`
	Owner  string            `json:"owner"`
	locView
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	AimX      float64 `json:"aimX"`
	AimY      float64 `json:"aimY"`
	Range     float64 `json:"range"`
	Width     float64 `json:"width,omitempty"`
	Angle     float64 `json:"angle,omitempty"`
	ExpiresAt int64   `json:"expiresAt"`
}

type chatView struct {
	ID      string `json:"id"`
	Alias   string `json:"alias"`
	Name    string `json:"name"`
	Message string `json:"message"`
	locView
	At int64 `json:"at"`
}

type oreView struct {
	ID string `json:"id"`
	locView
	OreID     string  `json:"oreId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Amount    int     `json:"amount"`
	MaxAmount int     `json:"maxAmount"`
}

func viewOre(o *entity.OreNode) oreView {
	return oreView{ID: o.ID, locView: viewLoc(o.Loc), OreID: o.OreID, X: o.X, Y: o.Y, Amount: o.Amount, MaxAmount: o.MaxAmount}
}

type lootViewT struct {
	ID string `json:"id"`
	locView
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Items     entity.Inventory `json:"items"`
	ExpiresAt int64            `json:"expiresAt"`
}

func lootView(d *entity.LootDrop) lootViewT {
	return lootViewT{ID: d.ID, locView: viewLoc(d.Loc), X: d.X, Y: d.Y, Items: d.Items, ExpiresAt: entity.Millis(d.ExpiresAt)}
}

type safeZoneView struct {
	ZoneID string `json:"zoneId"`
	world.SafeZone
}

type stateMsg struct {
	Type      proto.MsgType   `json:"type"`
	Time      int64           `json:"t"`
	Tick      uint64          `json:"tick"`
	Players   []playerView    `json:"players"`
	Enemies   []enemyView     `json:"enemies"`
	Effects   []effectView    `json:"effects"`
	Chats     []chatView      `json:"chats"`
	Ores      []oreView       `json:"ores"`
	Loot      []lootViewT     `json:"loot"`
	SafeZones []safeZoneView  `json:"safeZones"`
	Portals   []*world.Portal `json:"portals"`
}

type initMsg struct {
	Type   proto.MsgType `json:"type"`
	Time   int64         `json:"t"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Tiles  string        `json:"tiles"`
	You    selfView      `json:"you"`
	stateMsg
	Zones  []*world.Zone  `json:"zones"`
	Levels []*world.Level `json:"levels"`
}

type joinMsg struct {
	Type   proto.MsgType `json:"type"`
	Player playerView    `json:"player"`
}

type disconnectMsg struct {
	Type proto.MsgType `json:"type"`
	ID   string        `json:"id"`
}

type inventoryMsg struct {
	Type      proto.MsgType          `json:"type"`
	Inventory entity.Inventory       `json:"inventory"`
	Bank      entity.Inventory       `json:"bank"`
	Equipment map[entity.Slot]string `json:"equipment"`
	OwnedGear []string               `json:"ownedGear"`
	MaxHealth float64                `json:"maxHealth"`
}

type oreUpdateMsg struct {
	Type proto.MsgType `json:"type"`
	Ore  oreView       `json:"ore"`
}

type lootSpawnMsg struct {
	Type proto.MsgType `json:"type"`
	Loot lootViewT     `json:"loot"`
}

type lootUpdateMsg struct {
	Type    proto.MsgType `json:"type"`
	ID      string        `json:"id"`
	Removed bool          `json:"removed"`
}

type tradingMsg struct {
	Type     proto.MsgType      `json:"type"`
	Action   string             `json:"action"`
	OK       bool               `json:"ok"`
	Message  string             `json:"message,omitempty"`
	Field    string             `json:"field,omitempty"`
	Listing  *economy.Listing   `json:"listing,omitempty"`
	Listings []*economy.Listing `json:"listings,omitempty"`
	FeePct   int                `json:"feePercent,omitempty"`
}

// snapshot builds the per-tick view of the whole world
func (e *Engine) snapshot(now time.Time) stateMsg {
	st := stateMsg{
		Type:      proto.MT_STATE,
		Time:      entity.Millis(now),
		Tick:      e.ticks,
		Players:   []playerView{},
		Enemies:   make([]enemyView, 0, len(e.enemies)),
		Effects:   make([]effectView, 0, len(e.effects)),
		Chats:     make([]chatView, 0, len(e.chats)),
		Ores:      make([]oreView, 0, len(e.ores)),
		Loot:      make([]lootViewT, 0, len(e.loot)),
		SafeZones: make([]safeZoneView, 0, len(e.world.Zones)),
		Portals:   e.world.Portals,
	}
	e.eachPlayer(func(_ *session, p *entity.Player) {
		st.Players = append(st.Players, e.playerView(p))
	})
	sort.Slice(st.Players, func(i, j int) bool { return st.Players[i].ID < st.Players[j].ID })
	for _, en := range e.enemies {
		st.Enemies = append(st.Enemies, enemyView{
			ID:        en.ID,
			Kind:      en.Type.ID,
			Name:      en.Type.Name,
			locView:   viewLoc(en.Loc),
			X:         en.X,
			Y:         en.Y,
			Health:    en.Health,
			MaxHealth: en.MaxHealth,
			Radius:    en.Type.Radius,
			Target:    en.Target,
		})
	}
	sort.Slice(st.Enemies, func(i, j int) bool { return st.Enemies[i].ID < st.Enemies[j].ID })
	for _, fx := range e.effects {
		st.Effects = append(st.Effects, effectView{
			ID:        fx.ID,
			Kind:      fx.Kind,
			Action:    fx.Action,
			Owner:     fx.Owner,
			locView:   viewLoc(fx.Loc),
			X:         fx.X,
			Y:         fx.Y,
			AimX:      fx.AimX,
			AimY:      fx.AimY,
			Range:     fx.Range,
			Width:     fx.Width,
			Angle:     fx.Angle,
			ExpiresAt: entity.Millis(fx.ExpiresAt),
		})
	}
	for _, c := range e.chats {
		st.Chats = append(st.Chats, chatView{ID: c.ID, Alias: c.Alias, Name: c.Name, Message: c.Message, locView: viewLoc(c.Loc), At: entity.Millis(c.At)})
	}
	for _, o := range e.ores {
		st.Ores = append(st.Ores, viewOre(o))
	}
	sort.Slice(st.Ores, func(i, j int) bool { return st.Ores[i].ID < st.Ores[j].ID })
	for _, d := range e.loot {
		st.Loot = append(st.Loot, lootView(d))
	}
	sort.Slice(st.Loot, func(i, j int) bool { return st.Loot[i].ID < st.Loot[j].ID })
	for _, z := range e.world.Zones {
		st.SafeZones = append(st.SafeZones, safeZoneView{ZoneID: z.ID, SafeZone: z.Safe})
	}
	return st
}

func (e *Engine) broadcastState(now time.Time) {
	if e.PlayerCount() == 0 {
		return
	}
	e.broadcast(e.snapshot(now), "")
}

func (e *Engine) initMessage(p *entity.Player) initMsg {
	now := e.clock.Now()
	st := e.snapshot(now)
	return initMsg{
		Type:     proto.MT_INIT,
		Time:     entity.Millis(now),
		Width:    e.world.Grid.Width,
		Height:   e.world.Grid.Height,
		Tiles:    e.world.Grid.Encode(),
		You:      e.selfView(p),
		stateMsg: st,
		Zones:    e.world.Zones,
		Levels:   e.world.Levels,
	}
}
