package sim

import (
	"time"

	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/gwutils"
	"github.com/emberwild/emberwild/engine/opmon"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
)

// a stalled loop must not teleport everything on its next tick
const maxTickStep = 250 * time.Millisecond

// Tick advances the simulation to now and broadcasts the resulting snapshot
func (e *Engine) Tick(now time.Time) {
	op := opmon.StartOperation("sim.tick")
	dt := now.Sub(e.lastTick)
	if dt < 0 {
		dt = 0
	} else if dt > maxTickStep {
		dt = maxTickStep
	}
	e.lastTick = now

	e.runEnemies(dt, now)
	e.runSpawners(dt, now)

	e.runOres(now)
	e.expireLoot(now)

	e.eachPlayer(func(s *session, p *entity.Player) {
		gwutils.RunPanicless(func() { e.tickPlayer(p, dt, now) }, "tick of %s (%s)", p.Alias, p.Profile.ID)
	})

	e.pruneEffects(now)
	e.pruneChats(now)

	if now.Sub(e.lastSweep) >= e.opts.TradingSweepInterval {
		e.lastSweep = now
		e.sweepTrading(now)
	}

	e.broadcastState(now)
	e.ticks++
	op.Finish(consts.SIM_TICK_WARN_THRESHOLD)
}

func (e *Engine) tickPlayer(p *entity.Player, dt time.Duration, now time.Time) {
	if p.Momentum.Decay(now) {
		p.RecomputeBonuses(now)
	}
	moved := e.movePlayer(p, dt, now)
	e.regen(p, dt)
	e.forceResolve(p, now)
	e.reviveCheck(p, now)
	p.SyncProfile(now)
	if moved {
		e.Changed(p.Profile.ID)
	}
}

func (e *Engine) runOres(now time.Time) {
	for _, o := range e.ores {
		if o.Depleted() && !now.Before(o.RespawnAt) {
			o.Amount = o.MaxAmount
			e.broadcastAt(o.Loc, oreUpdateMsg{Type: proto.MT_ORE_UPDATE, Ore: viewOre(o)})
		}
	}
}

func (e *Engine) expireLoot(now time.Time) {
	for id, d := range e.loot {
		if now.Before(d.ExpiresAt) {
			continue
		}
		delete(e.loot, id)
		e.broadcastAt(d.Loc, lootUpdateMsg{Type: proto.MT_LOOT_UPDATE, ID: id, Removed: true})
	}
}

func (e *Engine) pruneEffects(now time.Time) {
	kept := e.effects[:0]
	for _, fx := range e.effects {
		if now.Before(fx.ExpiresAt) {
			kept = append(kept, fx)
		}
	}
	for i := len(kept); i < len(e.effects); i++ {
		e.effects[i] = nil
	}
	e.effects = kept
}

func (e *Engine) pruneChats(now time.Time) {
	kept := e.chats[:0]
	for _, c := range e.chats {
		if now.Before(c.ExpiresAt) {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(e.chats); i++ {
		e.chats[i] = nil
	}
	e.chats = kept
}

func (e *Engine) sweepTrading(now time.Time) {
	for _, l := range e.trading.Sweep(now, e) {
		gwlog.Infof("Listing %s of %s expired, %d %s refunded", l.ID, l.Seller, l.Quantity, l.Item)
		if p := e.playerByProfile(l.Seller); p != nil {
			s := e.sessions[p.Alias]
			e.send(s, tradingMsg{Type: proto.MT_TRADING, Action: "expired", Listing: l, Message: "Your listing expired and the items were returned."})
			e.sendInventory(s, p)
		}
	}
}
