package sim

import (
	"math"
	"time"

	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

// Regeneration per second as a fraction of max health
const (
	safeRegenRate = 0.06
	wildRegenRate = 0.004
)

func (e *Engine) handleInput(s *session, msg *proto.Input) {
	p := s.player
	if finite(msg.MoveX, msg.MoveY) {
		p.MoveX, p.MoveY = msg.MoveX, msg.MoveY
	}
	if finite(msg.AimX, msg.AimY) {
		p.AimX, p.AimY = msg.AimX, msg.AimY
	}
}

// bounds returns the rectangle a hero may walk in
func (e *Engine) bounds(loc entity.Location) world.Rect {
	switch l := loc.(type) {
	case entity.Dungeon:
		if lv := e.world.Level(l.LevelID); lv != nil {
			return lv.Rect
		}
	case entity.Overworld:
		if z := e.world.Zone(l.ZoneID); z != nil {
			return z.Rect
		}
	}
	return e.world.DefaultZone().Rect
}

// movePlayer integrates the move vector; each axis is blocked independently so heroes slide along walls
func (e *Engine) movePlayer(p *entity.Player, dt time.Duration, now time.Time) bool {
	mx, my := p.MoveX, p.MoveY
	l := math.Hypot(mx, my)
	if l < 1e-6 {
		return false
	}
	mx, my = mx/l, my/l
	step := p.Bonuses.MoveSpeed * p.SpeedMultiplier(now) * dt.Seconds()
	if step <= 0 {
		return false
	}
	r := e.bounds(p.Loc)
	canStand := func(x, y float64) bool {
		return r.Contains(x, y) && e.world.Grid.IsWalkable(x, y)
	}
	x, y := p.X, p.Y
	if nx := x + mx*step; canStand(nx, y) {
		x = nx
	}
	if ny := y + my*step; canStand(x, ny) {
		y = ny
	}
	if x == p.X && y == p.Y {
		return false
	}
	p.X, p.Y = x, y
	if p.Node.InSpace() {
		e.space(p.Loc).Move(&p.Node, x, y)
	}
	return true
}

func (e *Engine) regen(p *entity.Player, dt time.Duration) {
	if p.IsGhost() || p.Health >= p.MaxHealth {
		return
	}
	rate := wildRegenRate
	if e.inSafeZone(p.Loc, p.X, p.Y) {
		rate = safeRegenRate
	}
	p.Heal(p.MaxHealth * rate * dt.Seconds())
}
