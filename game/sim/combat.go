package sim

import (
	"math"
	"time"

	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/game/combat"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (e *Engine) handleAction(s *session, msg *proto.Action) {
	p := s.player
	now := e.clock.Now()
	aimX, aimY := p.AimX, p.AimY
	if msg.AimX != nil && msg.AimY != nil && finite(*msg.AimX, *msg.AimY) {
		aimX, aimY = *msg.AimX, *msg.AimY
		p.AimX, p.AimY = aimX, aimY
	}

	switch msg.Phase {
	case proto.PhaseStart:
		if p.IsGhost() {
			e.blocked(s, "Ghosts cannot fight. Return to a shrine.")
			return
		}
		kind := entity.ActionKind(msg.Action)
		if !kind.Valid() {
			e.reply(s, proto.MT_ACTION_RESULT, msg.Action, proto.Reject("action", "Unknown action."))
			return
		}
		if _, charging := p.Action.(entity.Charging); charging {
			return
		}
		p.Action = entity.Charging{
			Kind:      kind,
			StartedAt: now,
			AimX:      aimX,
			AimY:      aimY,
			OriginX:   p.X,
			OriginY:   p.Y,
			Slow:      combat.Spec(kind).ChargeSlow,
		}
	case proto.PhaseRelease:
		c, ok := p.Action.(entity.Charging)
		if !ok {
			return
		}
		c.AimX, c.AimY = aimX, aimY
		e.resolveCharge(p, c, now)
	case proto.PhaseCancel:
		p.Action = entity.Idle{}
	default:
		e.reply(s, proto.MT_ACTION_RESULT, msg.Action, proto.Reject("phase", "Unknown action phase."))
	}
}

// forceResolve releases a charge held past its window; it reports whether it fired
func (e *Engine) forceResolve(p *entity.Player, now time.Time) bool {
	c, ok := p.Action.(entity.Charging)
	if !ok {
		return false
	}
	if now.Sub(c.StartedAt) < combat.MaxChargeDuration(p.Bonuses) {
		return false
	}
	e.resolveCharge(p, c, now)
	return true
}

type actionResult struct {
	Type     proto.MsgType     `json:"type"`
	Action   entity.ActionKind `json:"action"`
	Potency  float64           `json:"potency"`
	Hit      bool              `json:"hit"`
	Target   string            `json:"target,omitempty"`
	Damage   float64           `json:"damage,omitempty"`
	Killed   bool              `json:"killed,omitempty"`
	XP       float64           `json:"xp,omitempty"`
	Chained  string            `json:"chained,omitempty"`
	Momentum int               `json:"momentum"`
}

// resolveCharge turns a charge into an effect and at most one enemy and one hero hit
func (e *Engine) resolveCharge(p *entity.Player, c entity.Charging, now time.Time) {
	p.Action = entity.Idle{}
	s := e.sessions[p.Alias]
	if p.IsGhost() {
		e.blocked(s, "Ghosts cannot fight. Return to a shrine.")
		return
	}

	potency := combat.ChargeSeconds(now.Sub(c.StartedAt), p.Bonuses.MaxChargeTime())
	out := combat.Resolve(c.Kind, p.Stats, p.Bonuses, potency, p.Momentum.DamageMult(now), p.Momentum.XPMult(now))
	shape := combat.NewShape(c.Kind, p.X, p.Y, c.AimX, c.AimY, out.Range)
	spec := combat.Spec(c.Kind)
	e.effects = append(e.effects, &entity.Effect{
		ID:        e.genID("fx-"),
		Kind:      shape.Kind,
		Action:    c.Kind,
		Owner:     string(p.Alias),
		Loc:       p.Loc,
		X:         p.X,
		Y:         p.Y,
		AimX:      shape.DX,
		AimY:      shape.DY,
		Range:     shape.Range,
		Width:     shape.HalfWidth * 2,
		Angle:     shape.HalfAngle * 2,
		ExpiresAt: now.Add(spec.EffectLife),
	})
	res := actionResult{Type: proto.MT_ACTION_RESULT, Action: c.Kind, Potency: potency}

	enemies := e.enemiesAt(p.Loc)
	targets := make([]combat.Target, len(enemies))
	for i, en := range enemies {
		targets[i] = combat.Target{X: en.X, Y: en.Y, Radius: en.Type.Radius}
	}
	if i := shape.Nearest(targets); i >= 0 && combat.Roll(e.rng, p.Bonuses.HitChance) {
		en := enemies[i]
		res.Hit, res.Target, res.Damage = true, en.ID, out.Damage
		res.XP += out.XP
		p.XP.Add(c.Kind, out.XP)
		p.Momentum.Bump(now)
		res.Killed = e.damageEnemy(p, en, out.Damage, c.Kind, now, &res)
		if c.Kind == entity.Spell && p.Bonuses.Chain {
			if next := e.chainTarget(en, enemies); next != nil && combat.Roll(e.rng, p.Bonuses.HitChance) {
				res.Chained = next.ID
				e.damageEnemy(p, next, out.Damage*combat.ChainDamage, c.Kind, now, &res)
			}
		}
	}

	others := e.playersAt(p.Loc, p)
	ptargets := make([]combat.Target, len(others))
	for i, o := range others {
		ptargets[i] = combat.Target{X: o.X, Y: o.Y}
	}
	if i := shape.Nearest(ptargets); i >= 0 {
		e.pvpHit(p, others[i], out.Damage, now)
	}

	p.ExtendLock(now.Add(spec.Lock))
	p.ExtendSlow(now.Add(spec.Lock+spec.SlowWindow), spec.SlowFactor)
	p.RecomputeBonuses(now)
	res.Momentum = p.Momentum.Current(now)
	e.Changed(p.Profile.ID)
	e.send(s, res)
}

func (e *Engine) chainTarget(primary *entity.Enemy, enemies []*entity.Enemy) *entity.Enemy {
	var best *entity.Enemy
	bestDist := combat.ChainRadius
	for _, en := range enemies {
		if en == primary || !en.Alive() {
			continue
		}
		if d := math.Hypot(en.X-primary.X, en.Y-primary.Y); d <= bestDist {
			best, bestDist = en, d
		}
	}
	return best
}

// damageEnemy applies a hero's blow; a kill grants the type's xp reward and drops loot
func (e *Engine) damageEnemy(p *entity.Player, en *entity.Enemy, amount float64, kind entity.ActionKind, now time.Time, res *actionResult) bool {
	if !en.TakeDamage(amount) {
		if en.Alive() && en.Target == "" {
			en.Target = string(p.Alias)
		}
		return false
	}
	xp := en.Type.XPReward[kind] * p.Momentum.XPMult(now)
	p.XP.Add(kind, xp)
	res.XP += xp
	e.removeEnemy(en)

	items := combat.RollLoot(en.MaxHealth, e.tierOf(en.Loc), e.scaleOf(en.Loc), combat.NextLockedGear(p.OwnedGear.Contains), e.rng)
	e.dropLoot(en.Loc, en.X, en.Y, items, now)
	return true
}

func (e *Engine) removeEnemy(en *entity.Enemy) {
	if en.Node.InSpace() {
		e.space(en.Loc).Leave(&en.Node)
	}
	delete(e.enemies, en.ID)
}

func (e *Engine) dropLoot(loc entity.Location, x, y float64, items entity.Inventory, now time.Time) *entity.LootDrop {
	if items.IsEmpty() {
		return nil
	}
	d := &entity.LootDrop{
		ID:        e.genID("loot-"),
		Loc:       loc,
		X:         x,
		Y:         y,
		Items:     items,
		ExpiresAt: now.Add(entity.LootLifetime),
	}
	e.loot[d.ID] = d
	e.broadcastAt(loc, lootSpawnMsg{Type: proto.MT_LOOT_SPAWN, Loot: lootView(d)})
	return d
}

// pvpHit lands a hero-on-hero blow only when both heroes opted in
func (e *Engine) pvpHit(attacker, target *entity.Player, amount float64, now time.Time) {
	if !attacker.PvPOptIn || !target.PvPOptIn {
		return
	}
	if !combat.Roll(e.rng, attacker.Bonuses.HitChance) {
		return
	}
	if !e.damagePlayer(target, amount, now) {
		return
	}
	until := now.Add(entity.PvPCooldown)
	attacker.PvPCooldownUntil = until
	target.PvPCooldownUntil = until
	e.Changed(attacker.Profile.ID)
}

// damagePlayer applies damage unless the hero is a ghost or inside a sanctuary; it reports whether health changed
func (e *Engine) damagePlayer(p *entity.Player, amount float64, now time.Time) bool {
	if p.IsGhost() || e.inSafeZone(p.Loc, p.X, p.Y) {
		return false
	}
	before := p.Health
	killed := p.ApplyDamage(amount)
	if p.Health == before {
		return false
	}
	e.Changed(p.Profile.ID)
	if killed {
		e.killPlayer(p, now)
	}
	return true
}

type ghostEvent struct {
	Type      proto.MsgType     `json:"type"`
	Action    string            `json:"action"`
	Message   string            `json:"message"`
	Objective *entity.Objective `json:"objective,omitempty"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	ZoneID    string            `json:"zoneId"`
}

// killPlayer turns a hero into a ghost at its zone's sanctuary
func (e *Engine) killPlayer(p *entity.Player, now time.Time) {
	loc, x, y := p.Loc, p.X, p.Y
	if !p.Inventory.IsEmpty() {
		e.dropLoot(loc, x, y, p.Inventory.Clone(), now)
		p.Inventory.Clear()
	}
	z := e.zoneOf(loc)
	shrine, ok := z.Safe.Facility(world.Shrine)
	if !ok {
		shrine = world.Facility{Kind: world.Shrine, X: z.Safe.X, Y: z.Safe.Y, Radius: world.FacilityRadius}
	}
	obj := entity.Objective{ZoneID: z.ID, Kind: string(world.Shrine), X: shrine.X, Y: shrine.Y, Radius: shrine.Radius}

	p.Action = entity.Idle{}
	p.Momentum.Reset()
	p.Life = entity.Ghost{Objective: obj, Since: now}
	p.Health = 0
	spawn := e.ghostSpawn(z)
	e.relocate(p, entity.Overworld{ZoneID: z.ID}, spawn.X, spawn.Y)
	p.RecomputeBonuses(now)
	p.SyncProfile(now)
	e.Changed(p.Profile.ID)
	gwlog.Infof("%s (%s) died at %s (%.1f, %.1f)", p.Name, p.Profile.ID, loc.Key(), x, y)

	s := e.sessions[p.Alias]
	e.send(s, ghostEvent{
		Type:      proto.MT_GHOST_EVENT,
		Action:    "died",
		Message:   "You have fallen. Walk to the shrine to return to life.",
		Objective: &obj,
		X:         p.X,
		Y:         p.Y,
		ZoneID:    z.ID,
	})
	e.sendInventory(s, p)
}

// ghostSpawn is a random point on the sanctuary's rim so the walk to the shrine is short
func (e *Engine) ghostSpawn(z *world.Zone) world.Point {
	for i := 0; i < 30; i++ {
		angle := e.rng.Float64() * 2 * math.Pi
		dist := z.Safe.Radius + 2 + e.rng.Float64()*3
		x := z.Safe.X + math.Cos(angle)*dist
		y := z.Safe.Y + math.Sin(angle)*dist
		if z.Rect.Contains(x, y) && e.world.Grid.IsWalkable(x, y) {
			return world.Point{X: x, Y: y}
		}
	}
	return e.world.SafeSpawn(z, e.rng)
}

// reviveCheck brings a ghost back once it reaches its shrine
func (e *Engine) reviveCheck(p *entity.Player, now time.Time) bool {
	g, ok := p.Life.(entity.Ghost)
	if !ok || !g.Objective.Reached(p.ZoneID(), p.X, p.Y) {
		return false
	}
	p.Life = entity.Alive{}
	p.RecomputeBonuses(now)
	p.Health = p.MaxHealth
	p.SyncProfile(now)
	e.Changed(p.Profile.ID)
	e.send(e.sessions[p.Alias], ghostEvent{
		Type:    proto.MT_GHOST_EVENT,
		Action:  "revived",
		Message: "The shrine restores you to life.",
		X:       p.X,
		Y:       p.Y,
		ZoneID:  p.ZoneID(),
	})
	return true
}

// relocate moves a hero to another location, keeping its AOI membership right
func (e *Engine) relocate(p *entity.Player, loc entity.Location, x, y float64) {
	if p.Node.InSpace() {
		e.space(p.Loc).Leave(&p.Node)
	}
	p.Loc = loc
	p.X, p.Y = x, y
	p.MoveX, p.MoveY = 0, 0
	if _, online := e.sessions[p.Alias]; online {
		e.space(loc).Enter(&p.Node, x, y)
	}
}

func (e *Engine) enemiesAt(loc entity.Location) []*entity.Enemy {
	var out []*entity.Enemy
	for _, en := range e.enemies {
		if en.Alive() && entity.SameLocation(en.Loc, loc) {
			out = append(out, en)
		}
	}
	return out
}

func (e *Engine) playersAt(loc entity.Location, skip *entity.Player) []*entity.Player {
	var out []*entity.Player
	e.eachPlayer(func(_ *session, p *entity.Player) {
		if p != skip && !p.IsGhost() && entity.SameLocation(p.Loc, loc) {
			out = append(out, p)
		}
	})
	return out
}

func (e *Engine) tierOf(loc entity.Location) int {
	if id, ok := entity.LevelOf(loc); ok {
		if lv := e.world.Level(id); lv != nil {
			return lv.Tier
		}
	}
	return e.zoneOf(loc).Tier
}

func (e *Engine) scaleOf(loc entity.Location) float64 {
	if id, ok := entity.LevelOf(loc); ok {
		if lv := e.world.Level(id); lv != nil {
			return lv.Scale
		}
	}
	return e.zoneOf(loc).Scale
}
