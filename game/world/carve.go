package world

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// CarveLevel stamps a bordered room with entry and exit corridors and hazards into the grid
func CarveLevel(g *Grid, lv *Level, rng Rand) {
	r := lv.Rect
	cx := r.X + r.W/2
	cy := r.Y + r.H/2
	half := float64(r.W) / 2

	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if x == r.X || y == r.Y || x == r.X+r.W-1 || y == r.Y+r.H-1 {
				g.Set(x, y, Rock)
				continue
			}
			tile := Obsidian
			if x == cx || y == cy {
				tile = Ember
			} else {
				d := math.Hypot(float64(x-cx), float64(y-cy)) / half
				if rng.Float64() < 0.18*(1-d) {
					tile = Ember
				}
			}
			g.Set(x, y, tile)
		}
	}

	// corridors through the west and east walls
	for dy := -1; dy <= 1; dy++ {
		for dx := 0; dx < 3; dx++ {
			g.Set(r.X+dx, cy+dy, Obsidian)
			g.Set(r.X+r.W-1-dx, cy+dy, Obsidian)
		}
	}
	lv.Entry = Point{X: float64(r.X) + 1.5, Y: float64(cy) + 0.5}
	lv.Exit = Point{X: float64(r.X+r.W) - 1.5, Y: float64(cy) + 0.5}

	want := int(float64((r.W-2)*(r.H-2)) * levelHazardFraction)
	for placed, attempt := 0, 0; placed < want && attempt < want*4; attempt++ {
		x := r.X + 1 + rng.Intn(r.W-2)
		y := r.Y + 1 + rng.Intn(r.H-2)
		// the centre row stays clear so entry and exit always connect
		if y == cy || x == cx {
			continue
		}
		px, py := float64(x)+0.5, float64(y)+0.5
		if lv.Entry.DistanceTo(px, py) < levelHazardGuard || lv.Exit.DistanceTo(px, py) < levelHazardGuard {
			continue
		}
		g.Set(x, y, Lava)
		placed++
	}
}

func fillDisc(g *Grid, cx, cy, radius float64, t Tile) {
	for y := int(cy - radius - 1); y <= int(cy+radius+1); y++ {
		for x := int(cx - radius - 1); x <= int(cx+radius+1); x++ {
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= radius {
				g.Set(x, y, t)
			}
		}
	}
}

// CarveSanctuary paints the safe zone disc and a marker disc under each facility
func CarveSanctuary(g *Grid, z *Zone) {
	fillDisc(g, z.Safe.X, z.Safe.Y, z.Safe.Radius, Glyph)
	for _, f := range z.Safe.Facilities {
		fillDisc(g, f.X, f.Y, facilityDiscRadius, facilityMarkers[f.Kind])
	}
}

func portalSeed(zoneID string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(zoneID))
	return seed ^ int64(h.Sum64())
}

// PlacePortals positions the zone's portals by rejection sampling; the result depends only on zone and seed
func PlacePortals(w *World, z *Zone, seed int64) {
	rng := rand.New(rand.NewSource(portalSeed(z.ID, seed)))
	var placed []Point
	for i, p := range w.ZonePortals(z.ID) {
		pt, ok := samplePortalPoint(w, z, rng, placed)
		if !ok {
			pt = Point{X: z.Safe.X + z.Safe.Radius + 1.5, Y: z.Safe.Y + 0.5 + float64(3*i)}
			w.Grid.Set(int(pt.X), int(pt.Y), Grass)
		}
		p.X, p.Y = pt.X, pt.Y
		placed = append(placed, pt)
	}
}

func samplePortalPoint(w *World, z *Zone, rng *rand.Rand, placed []Point) (Point, bool) {
	const margin = 3
	for attempt := 0; attempt < portalMaxAttempts; attempt++ {
		x := float64(z.Rect.X+margin+rng.Intn(z.Rect.W-2*margin)) + 0.5
		y := float64(z.Rect.Y+margin+rng.Intn(z.Rect.H-2*margin)) + 0.5
		if !w.Grid.IsWalkable(x, y) {
			continue
		}
		if z.Safe.Center().DistanceTo(x, y) <= z.Safe.Radius+portalSafeMargin {
			continue
		}
		if w.InAnyLevel(x, y) {
			continue
		}
		ok := true
		for _, other := range placed {
			if other.DistanceTo(x, y) < portalSeparation {
				ok = false
				break
			}
		}
		if ok {
			return Point{X: x, Y: y}, true
		}
	}
	return Point{}, false
}
