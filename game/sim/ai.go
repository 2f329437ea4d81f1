package sim

import (
	"math"
	"time"

	"github.com/emberwild/emberwild/engine/aoi"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/game/combat"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/world"
)

// Spawn pacing
const (
	zoneSpawnCap       = 16
	zoneSpawnInterval  = 2500 * time.Millisecond
	levelSpawnCap      = 10
	levelSpawnInterval = 3 * time.Second
	spawnPlayerClear   = 6.0
	spawnSafeMargin    = 3.0
	spawnAttempts      = 40
	wanderSpeedFactor  = 0.5
	wanderMinPause     = 3 * time.Second
	leashRadius        = 14.0
)

// spawner refills one zone or level up to its cap on a fixed cadence
type spawner struct {
	loc      entity.Location
	rect     world.Rect
	tier     int
	scale    float64
	cap      int
	interval time.Duration
	acc      time.Duration
	// level entry, kept clear of spawns
	guard *world.Point
}

func newSpawners(w *world.World) []*spawner {
	var out []*spawner
	for _, z := range w.Zones {
		out = append(out, &spawner{
			loc:      entity.Overworld{ZoneID: z.ID},
			rect:     z.Rect,
			tier:     z.Tier,
			scale:    z.Scale,
			cap:      zoneSpawnCap,
			interval: zoneSpawnInterval,
		})
	}
	for _, lv := range w.Levels {
		entry := lv.Entry
		out = append(out, &spawner{
			loc:      entity.Dungeon{LevelID: lv.ID},
			rect:     lv.Rect,
			tier:     lv.Tier,
			scale:    lv.Scale,
			cap:      levelSpawnCap,
			interval: levelSpawnInterval,
			guard:    &entry,
		})
	}
	return out
}

// runSpawners advances every accumulator by dt
func (e *Engine) runSpawners(dt time.Duration, now time.Time) {
	counts := map[string]int{}
	for _, en := range e.enemies {
		counts[en.Loc.Key()]++
	}
	for _, sp := range e.spawners {
		sp.acc += dt
		for sp.acc >= sp.interval {
			sp.acc -= sp.interval
			if counts[sp.loc.Key()] >= sp.cap {
				sp.acc = 0
				break
			}
			if e.spawnEnemy(sp, "", now) != nil {
				counts[sp.loc.Key()]++
			}
		}
	}
}

// spawnEnemy places one enemy of typeID, or of a random tier type when typeID is empty
func (e *Engine) spawnEnemy(sp *spawner, typeID string, now time.Time) *entity.Enemy {
	if typeID == "" {
		table := entity.SpawnTable(sp.tier)
		typeID = table[e.rng.Intn(len(table))]
	}
	t := entity.EnemyTypes[typeID]
	if t == nil {
		return nil
	}
	pt, ok := e.world.RandomWalkable(sp.rect, e.rng, spawnAttempts, func(x, y float64) bool {
		if e.inSafeZone(sp.loc, x, y) || e.nearSafeZone(sp.loc, x, y, spawnSafeMargin) {
			return false
		}
		if sp.guard != nil && sp.guard.DistanceTo(x, y) < spawnPlayerClear {
			return false
		}
		clear := true
		e.eachPlayer(func(_ *session, p *entity.Player) {
			if entity.SameLocation(p.Loc, sp.loc) && math.Hypot(p.X-x, p.Y-y) < spawnPlayerClear {
				clear = false
			}
		})
		return clear
	})
	if !ok {
		return nil
	}
	en := entity.NewEnemy(e.genID("enemy-"), t, sp.loc, pt.X, pt.Y, sp.scale)
	en.NextWander = now
	e.enemies[en.ID] = en
	e.space(sp.loc).Enter(&en.Node, en.X, en.Y)
	if consts.DEBUG_AI {
		gwlog.Debugf("spawned %s %s at %s (%.1f, %.1f)", t.ID, en.ID, sp.loc.Key(), en.X, en.Y)
	}
	return en
}

func (e *Engine) nearSafeZone(loc entity.Location, x, y, margin float64) bool {
	zoneID, ok := entity.ZoneOf(loc)
	if !ok {
		return false
	}
	z := e.world.Zone(zoneID)
	return z != nil && z.Safe.Center().DistanceTo(x, y) <= z.Safe.Radius+margin
}

func (e *Engine) spawnerFor(loc entity.Location) *spawner {
	for _, sp := range e.spawners {
		if sp.loc.Key() == loc.Key() {
			return sp
		}
	}
	return nil
}

// runEnemies advances every enemy: chase and attack a visible hero, otherwise wander
func (e *Engine) runEnemies(dt time.Duration, now time.Time) {
	secs := dt.Seconds()
	for _, en := range e.enemies {
		if !en.Alive() {
			continue
		}
		target := e.acquireTarget(en)
		if target == nil {
			en.Target = ""
			e.wander(en, secs, now)
			continue
		}
		en.Target = string(target.Alias)
		dist := math.Hypot(target.X-en.X, target.Y-en.Y)
		reach := en.Type.Attack.Range
		if dist > reach*0.85 {
			e.stepEnemy(en, target.X, target.Y, en.Speed*secs)
			dist = math.Hypot(target.X-en.X, target.Y-en.Y)
		}
		if dist <= reach && !now.Before(en.NextAttack) {
			e.enemyAttack(en, target, now)
		}
	}
}

// acquireTarget finds the nearest living hero outside any sanctuary within aggro range
func (e *Engine) acquireTarget(en *entity.Enemy) *entity.Player {
	if math.Hypot(en.X-en.SpawnX, en.Y-en.SpawnY) > leashRadius {
		return nil
	}
	n := e.space(en.Loc).Nearest(&en.Node, entity.EnemyAggroRadius, func(other *aoi.Node) bool {
		p, ok := other.Data.(*entity.Player)
		return ok && !p.IsGhost() && !e.inSafeZone(p.Loc, p.X, p.Y)
	})
	if n == nil {
		return nil
	}
	return n.Data.(*entity.Player)
}

func (e *Engine) wander(en *entity.Enemy, secs float64, now time.Time) {
	if !now.Before(en.NextWander) {
		en.PickWander(e.rng)
		en.NextWander = now.Add(wanderMinPause + time.Duration(e.rng.Float64()*float64(wanderMinPause)))
	}
	if math.Hypot(en.WanderX-en.X, en.WanderY-en.Y) > 0.2 {
		e.stepEnemy(en, en.WanderX, en.WanderY, en.Speed*wanderSpeedFactor*secs)
	}
}

// stepEnemy moves toward (tx, ty) one axis at a time, never onto unwalkable tiles or into a sanctuary
func (e *Engine) stepEnemy(en *entity.Enemy, tx, ty, step float64) {
	dx, dy := tx-en.X, ty-en.Y
	l := math.Hypot(dx, dy)
	if l < 1e-9 || step <= 0 {
		return
	}
	if step > l {
		step = l
	}
	nx := en.X + dx/l*step
	ny := en.Y + dy/l*step
	x, y := en.X, en.Y
	if e.enemyCanStand(en, nx, y) {
		x = nx
	}
	if e.enemyCanStand(en, x, ny) {
		y = ny
	}
	if x == en.X && y == en.Y {
		return
	}
	en.X, en.Y = x, y
	e.space(en.Loc).Move(&en.Node, x, y)
}

func (e *Engine) enemyCanStand(en *entity.Enemy, x, y float64) bool {
	if !e.world.Grid.IsWalkable(x, y) || e.inSafeZone(en.Loc, x, y) {
		return false
	}
	if sp := e.spawnerFor(en.Loc); sp != nil && !sp.rect.Contains(x, y) {
		return false
	}
	return true
}

func (e *Engine) enemyAttack(en *entity.Enemy, p *entity.Player, now time.Time) {
	atk := en.Type.Attack
	en.NextAttack = now.Add(atk.Cooldown)
	fx := &entity.Effect{
		ID:        e.genID("fx-"),
		Action:    atk.Kind,
		Owner:     en.ID,
		Loc:       en.Loc,
		X:         en.X,
		Y:         en.Y,
		Range:     math.Hypot(p.X-en.X, p.Y-en.Y),
		ExpiresAt: now.Add(combat.Spec(atk.Kind).EffectLife),
	}
	fx.AimX, fx.AimY = combat.NormalizeAim(p.X-en.X, p.Y-en.Y)
	if atk.Kind == entity.Melee {
		fx.Kind, fx.Angle = entity.EffectCone, combat.ConeHalfAngle*2
	} else {
		fx.Kind, fx.Width = entity.EffectBeam, combat.Spec(atk.Kind).BeamHalfWidth*2
	}
	e.effects = append(e.effects, fx)

	if !combat.Roll(e.rng, atk.HitChance) {
		return
	}
	if e.damagePlayer(p, en.Damage, now) && atk.SlowFactor > 0 && !p.IsGhost() {
		p.ApplyStatusSlow(now.Add(atk.SlowDuration), atk.SlowFactor)
	}
}

// cullZone removes every overworld enemy of a zone, used before regeneration
func (e *Engine) cullZone(zoneID string) int {
	n := 0
	for _, en := range e.enemies {
		if id, ok := entity.ZoneOf(en.Loc); ok && id == zoneID {
			e.removeEnemy(en)
			n++
		}
	}
	return n
}
