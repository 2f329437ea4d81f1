// Package sim is the authoritative simulation: one Engine owns the world and
// every live entity, and all of its methods run on a single goroutine.
package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/emberwild/emberwild/engine/aoi"
	"github.com/emberwild/emberwild/engine/async"
	"github.com/emberwild/emberwild/engine/clock"
	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/netutil"
	"github.com/emberwild/emberwild/engine/post"
	"github.com/emberwild/emberwild/game/account"
	"github.com/emberwild/emberwild/game/economy"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/world"
	"github.com/pkg/errors"
)

const (
	aoiDistance        = entity.EnemyAggroRadius
	oreNodesPerZone    = 14
	oreNodeAmount      = 3
	defaultSweepPeriod = 30 * time.Second
	authGroup          = "auth"
)

// Rand is the random source of the simulation
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Store receives profile snapshots for persistence
type Store interface {
	Save(id string, data interface{})
}

// Conn is the engine's view of a client connection
type Conn interface {
	Packer() netutil.MsgPacker
	// Write queues an already packed message
	Write(data []byte)
	// Close delivers a final packed message, if any, then closes
	Close(final []byte)
	RemoteAddr() string
}

// Options configures an Engine
type Options struct {
	Seed                 int64
	Clock                clock.Clock
	Rand                 Rand
	Store                Store
	Post                 *post.Queue
	Async                *async.Workers
	Iterations           int
	AdminProfiles        common.StringSet
	AdminAccounts        common.StringSet
	TradingSweepInterval time.Duration
}

// Engine owns the world and all live state
type Engine struct {
	opts  Options
	world *world.World
	clock clock.Clock
	rng   Rand
	store Store
	post  *post.Queue
	async *async.Workers

	sessions  map[common.ClientID]*session
	byProfile map[common.ProfileID]common.ClientID
	profiles  map[common.ProfileID]*entity.Profile
	registry  *account.Registry
	trading   *economy.TradingPost
	dirty     common.ProfileIDSet

	enemies  map[string]*entity.Enemy
	ores     map[string]*entity.OreNode
	loot     map[string]*entity.LootDrop
	effects  []*entity.Effect
	chats    []*entity.Chat
	spaces   map[string]*aoi.Space
	spawners []*spawner

	nextID    uint64
	lastTick  time.Time
	lastSweep time.Time
	ticks     uint64
}

// New generates the world and builds an engine around it
func New(opts Options) (*Engine, error) {
	w, err := world.New(opts.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "generate world")
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(opts.Seed ^ time.Now().UnixNano()))
	}
	if opts.Post == nil {
		opts.Post = post.NewQueue()
	}
	if opts.Async == nil {
		opts.Async = async.NewWorkers()
	}
	if opts.Iterations <= 0 {
		opts.Iterations = account.DefaultIterations
	}
	if opts.TradingSweepInterval <= 0 {
		opts.TradingSweepInterval = defaultSweepPeriod
	}
	if opts.AdminProfiles == nil {
		opts.AdminProfiles = common.StringSet{}
	}
	if opts.AdminAccounts == nil {
		opts.AdminAccounts = common.StringSet{}
	}

	e := &Engine{
		opts:      opts,
		world:     w,
		clock:     opts.Clock,
		rng:       opts.Rand,
		store:     opts.Store,
		post:      opts.Post,
		async:     opts.Async,
		sessions:  map[common.ClientID]*session{},
		byProfile: map[common.ProfileID]common.ClientID{},
		profiles:  map[common.ProfileID]*entity.Profile{},
		registry:  account.NewRegistry(),
		trading:   economy.NewTradingPost(),
		dirty:     common.ProfileIDSet{},
		enemies:   map[string]*entity.Enemy{},
		ores:      map[string]*entity.OreNode{},
		loot:      map[string]*entity.LootDrop{},
		spaces:    map[string]*aoi.Space{},
	}
	now := e.clock.Now()
	e.lastTick = now
	e.lastSweep = now
	for _, z := range w.Zones {
		e.placeOres(z)
	}
	e.spawners = newSpawners(w)
	gwlog.Infof("World generated: seed=%d zones=%d levels=%d portals=%d ores=%d", w.Seed, len(w.Zones), len(w.Levels), len(w.Portals), len(e.ores))
	return e, nil
}

// World returns the generated world
func (e *Engine) World() *world.World {
	return e.world
}

// Now returns the engine clock
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Post returns the queue callbacks must be posted to
func (e *Engine) Post() *post.Queue {
	return e.post
}

func (e *Engine) genID(prefix string) string {
	e.nextID++
	return fmt.Sprintf("%s%d", prefix, e.nextID)
}

// LoadProfile adds a persisted record; used before the first connection
func (e *Engine) LoadProfile(p *entity.Profile) {
	if p == nil || p.ID.IsNil() {
		return
	}
	p.Normalize()
	if e.opts.AdminProfiles.Contains(string(p.ID)) {
		p.Admin = true
	}
	e.profiles[p.ID] = p
	e.registry.Index(p)
}

// Profile implements economy.Ledger over every known record, online or not
func (e *Engine) Profile(id common.ProfileID) *entity.Profile {
	return e.profiles[id]
}

// Changed marks a profile for the next save pass
func (e *Engine) Changed(id common.ProfileID) {
	if _, ok := e.profiles[id]; ok {
		e.dirty.Add(id)
	}
}

// Profiles returns the number of known records
func (e *Engine) Profiles() int {
	return len(e.profiles)
}

// PlayerCount returns the number of heroes in the world
func (e *Engine) PlayerCount() int {
	n := 0
	for _, s := range e.sessions {
		if s.player != nil {
			n++
		}
	}
	return n
}

func (e *Engine) player(alias common.ClientID) *entity.Player {
	if s := e.sessions[alias]; s != nil {
		return s.player
	}
	return nil
}

func (e *Engine) playerByProfile(id common.ProfileID) *entity.Player {
	if alias, ok := e.byProfile[id]; ok {
		return e.player(alias)
	}
	return nil
}

// eachPlayer visits every attached hero
func (e *Engine) eachPlayer(fn func(s *session, p *entity.Player)) {
	for _, s := range e.sessions {
		if s.player != nil {
			fn(s, s.player)
		}
	}
}

func (e *Engine) space(loc entity.Location) *aoi.Space {
	key := loc.Key()
	sp := e.spaces[key]
	if sp == nil {
		sp = aoi.NewSpace(aoiDistance)
		e.spaces[key] = sp
	}
	return sp
}

// zoneOf returns the zone a hero belongs to, or the zone a level hangs off
func (e *Engine) zoneOf(loc entity.Location) *world.Zone {
	switch l := loc.(type) {
	case entity.Overworld:
		if z := e.world.Zone(l.ZoneID); z != nil {
			return z
		}
	case entity.Dungeon:
		if lv := e.world.Level(l.LevelID); lv != nil {
			if z := e.world.Zone(lv.ZoneID); z != nil {
				return z
			}
		}
	}
	return e.world.DefaultZone()
}

// inSafeZone reports whether (x, y) at loc is inside a sanctuary; dungeons have none
func (e *Engine) inSafeZone(loc entity.Location, x, y float64) bool {
	zoneID, ok := entity.ZoneOf(loc)
	if !ok {
		return false
	}
	z := e.world.Zone(zoneID)
	return z != nil && z.Safe.Contains(x, y)
}

func (e *Engine) placeOres(z *world.Zone) {
	loc := entity.Overworld{ZoneID: z.ID}
	for _, site := range e.world.OreSites(z, oreNodesPerZone, e.rng) {
		ore := entity.RollOre(z.Tier, e.rng)
		id := e.genID("ore-")
		e.ores[id] = &entity.OreNode{
			ID:        id,
			OreID:     ore.ID,
			Loc:       loc,
			X:         site.X,
			Y:         site.Y,
			Amount:    oreNodeAmount,
			MaxAmount: oreNodeAmount,
		}
	}
}
