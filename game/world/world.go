package world

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// PortalKind is what a portal links to
type PortalKind string

// Portal kinds
const (
	PortalLevel      PortalKind = "level"
	PortalZone       PortalKind = "zone"
	PortalZoneReturn PortalKind = "zone-return"
)

// Portal is a point linking two locations
type Portal struct {
	ID         string     `json:"id"`
	Kind       PortalKind `json:"kind"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Color      string     `json:"color"`
	Name       string     `json:"name"`
	Difficulty int        `json:"difficulty"`
	// where the portal stands: exactly one of ZoneID and LevelID is set
	ZoneID  string `json:"zoneId,omitempty"`
	LevelID string `json:"levelId,omitempty"`
	// where it leads
	TargetZone  string `json:"targetZone,omitempty"`
	TargetLevel string `json:"targetLevel,omitempty"`
}

// InRange reports whether (x, y) is within the interaction radius
func (p *Portal) InRange(x, y float64) bool {
	return p.Position().DistanceTo(x, y) <= PortalRadius
}

// Position returns where the portal stands
func (p *Portal) Position() Point {
	return Point{X: p.X, Y: p.Y}
}

// World is the generated map with its zones, levels and portals
type World struct {
	Seed    int64
	Grid    *Grid
	Zones   []*Zone
	Levels  []*Level
	Portals []*Portal
}

// New generates the complete world for a seed
func New(seed int64) (*World, error) {
	w := &World{
		Seed: seed,
		Grid: NewGrid(Width, Height, Void),
	}

	for i, def := range zoneDefs {
		r := zoneRect(i)
		z := &Zone{
			ID:      def.id,
			Name:    def.name,
			Tier:    def.tier,
			Scale:   def.scale,
			Rect:    r,
			Safe:    newSafeZone(r),
			Seed:    seed + int64(i)*7919,
			Default: i == 0,
			Index:   i,
		}
		fillTerrain(w.Grid, r, z.Seed)
		CarveSanctuary(w.Grid, z)
		w.Zones = append(w.Zones, z)
	}

	rng := rand.New(rand.NewSource(seed))
	for i, def := range zoneDefs {
		r := levelRect(i)
		lv := &Level{
			ID:     fmt.Sprintf("level-%d", i+1),
			Name:   levelNames[i],
			Tier:   def.tier,
			Scale:  def.scale,
			Rect:   r,
			ZoneID: def.id,
			Index:  i,
		}
		CarveLevel(w.Grid, lv, rng)
		w.Levels = append(w.Levels, lv)
	}

	for _, z := range w.Zones {
		w.Portals = append(w.Portals, w.newZonePortals(z)...)
	}
	for _, lv := range w.Levels {
		home := w.Zones[lv.Index]
		w.Portals = append(w.Portals, &Portal{
			ID:         "return-" + lv.ID,
			Kind:       PortalZoneReturn,
			X:          lv.Exit.X,
			Y:          lv.Exit.Y,
			Color:      zoneDefs[lv.Index].color,
			Name:       "Return to " + home.Name,
			Difficulty: home.Tier,
			LevelID:    lv.ID,
			TargetZone: lv.ZoneID,
		})
	}
	for _, z := range w.Zones {
		PlacePortals(w, z, z.Seed)
	}

	if err := w.validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) newZonePortals(z *Zone) []*Portal {
	next := zoneDefs[(z.Index+1)%len(zoneDefs)]
	return []*Portal{
		{
			ID:          "portal-" + z.ID + "-level",
			Kind:        PortalLevel,
			Color:       "#9b59ff",
			Name:        levelNames[z.Index],
			Difficulty:  z.Tier,
			ZoneID:      z.ID,
			TargetLevel: fmt.Sprintf("level-%d", z.Index+1),
		},
		{
			ID:         "portal-" + z.ID + "-zone",
			Kind:       PortalZone,
			Color:      next.color,
			Name:       next.name,
			Difficulty: next.tier,
			ZoneID:     z.ID,
			TargetZone: next.id,
		},
	}
}

// Rand is the random source used for sampling points
type Rand interface {
	Float64() float64
	Intn(n int) int
}

func (w *World) validate() error {
	for _, lv := range w.Levels {
		if !w.Grid.IsWalkable(lv.Entry.X, lv.Entry.Y) || !w.Grid.IsWalkable(lv.Exit.X, lv.Exit.Y) {
			return errors.Errorf("level %s: entry or exit not walkable", lv.ID)
		}
	}
	for _, p := range w.Portals {
		if !w.Grid.IsWalkable(p.X, p.Y) {
			return errors.Errorf("portal %s at (%.1f, %.1f) not walkable", p.ID, p.X, p.Y)
		}
	}
	for _, z := range w.Zones {
		if !w.Grid.IsWalkable(z.Safe.X, z.Safe.Y) {
			return errors.Errorf("zone %s: safe zone centre not walkable", z.ID)
		}
	}
	return nil
}

// Zone returns the zone with the given id, or nil
func (w *World) Zone(id string) *Zone {
	for _, z := range w.Zones {
		if z.ID == id {
			return z
		}
	}
	return nil
}

// DefaultZone is where new heroes start
func (w *World) DefaultZone() *Zone {
	for _, z := range w.Zones {
		if z.Default {
			return z
		}
	}
	return w.Zones[0]
}

// Level returns the level with the given id, or nil
func (w *World) Level(id string) *Level {
	for _, lv := range w.Levels {
		if lv.ID == id {
			return lv
		}
	}
	return nil
}

// Portal returns the portal with the given id, or nil
func (w *World) Portal(id string) *Portal {
	for _, p := range w.Portals {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ZonePortals returns the portals standing in a zone
func (w *World) ZonePortals(zoneID string) []*Portal {
	var ps []*Portal
	for _, p := range w.Portals {
		if p.ZoneID == zoneID {
			ps = append(ps, p)
		}
	}
	return ps
}

// LevelPortals returns the portals standing in a level
func (w *World) LevelPortals(levelID string) []*Portal {
	var ps []*Portal
	for _, p := range w.Portals {
		if p.LevelID == levelID {
			ps = append(ps, p)
		}
	}
	return ps
}

// PortalTo returns the zone portal leading into levelID
func (w *World) PortalTo(levelID string) *Portal {
	for _, p := range w.Portals {
		if p.Kind == PortalLevel && p.TargetLevel == levelID {
			return p
		}
	}
	return nil
}

// InAnyLevel reports whether (x, y) is inside a level room
func (w *World) InAnyLevel(x, y float64) bool {
	for _, lv := range w.Levels {
		if lv.Rect.Contains(x, y) {
			return true
		}
	}
	return false
}

// RandomWalkable samples a walkable tile centre inside r that accept approves
func (w *World) RandomWalkable(r Rect, rng Rand, attempts int, accept func(x, y float64) bool) (Point, bool) {
	for i := 0; i < attempts; i++ {
		x := float64(r.X+rng.Intn(r.W)) + 0.5
		y := float64(r.Y+rng.Intn(r.H)) + 0.5
		if !w.Grid.IsWalkable(x, y) {
			continue
		}
		if accept != nil && !accept(x, y) {
			continue
		}
		return Point{X: x, Y: y}, true
	}
	return Point{}, false
}

// SafeSpawn returns a random walkable point inside the zone's sanctuary
func (w *World) SafeSpawn(z *Zone, rng Rand) Point {
	for i := 0; i < 50; i++ {
		angle := rng.Float64() * 2 * math.Pi
		dist := rng.Float64() * (z.Safe.Radius - 2)
		x := z.Safe.X + math.Cos(angle)*dist
		y := z.Safe.Y + math.Sin(angle)*dist
		if w.Grid.IsWalkable(x, y) {
			return Point{X: x, Y: y}
		}
	}
	return Point{X: z.Safe.X, Y: z.Safe.Y}
}

// OreSites picks count ore positions in the zone away from its sanctuary and portals
func (w *World) OreSites(z *Zone, count int, rng Rand) []Point {
	var sites []Point
	for len(sites) < count {
		p, ok := w.RandomWalkable(z.Rect, rng, 200, func(x, y float64) bool {
			if z.Safe.Center().DistanceTo(x, y) < z.Safe.Radius+2 {
				return false
			}
			for _, portal := range w.ZonePortals(z.ID) {
				if portal.Position().DistanceTo(x, y) < 3 {
					return false
				}
			}
			for _, s := range sites {
				if s.DistanceTo(x, y) < 2 {
					return false
				}
			}
			return true
		})
		if !ok {
			break
		}
		sites = append(sites, p)
	}
	return sites
}

// RegenerateZone rerolls a non-default zone's terrain, then re-carves its sanctuary and portals
func (w *World) RegenerateZone(id string, seed int64) error {
	z := w.Zone(id)
	if z == nil {
		return errors.Errorf("unknown zone %q", id)
	}
	if z.Default {
		return errors.Errorf("zone %s is the default zone", id)
	}
	z.Seed = seed
	fillTerrain(w.Grid, z.Rect, seed)
	CarveSanctuary(w.Grid, z)
	PlacePortals(w, z, seed)
	return nil
}
