package world

import "math"

const (
	noiseSpacing = 12

	waterBand  = 0.30
	sandBand   = 0.42
	grassBand  = 0.68
	forestBand = 0.85
)

// controlValue hashes a control point and seed into [0, 1)
func controlValue(cx, cy int, seed int64) float64 {
	h := uint64(seed)*0x9E3779B97F4A7C15 ^ uint64(int64(cx))*0xBF58476D1CE4E5B9 ^ uint64(int64(cy))*0x94D049BB133111EB
	h ^= h >> 30
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31
	return float64(h>>11) / float64(1<<53)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// noiseAt samples value noise at a tile coordinate
func noiseAt(x, y int, seed int64) float64 {
	fx := float64(x) / noiseSpacing
	fy := float64(y) / noiseSpacing
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := smoothstep(fx - float64(x0))
	ty := smoothstep(fy - float64(y0))

	top := lerp(controlValue(x0, y0, seed), controlValue(x0+1, y0, seed), tx)
	bottom := lerp(controlValue(x0, y0+1, seed), controlValue(x0+1, y0+1, seed), tx)
	return lerp(top, bottom, ty)
}

func bandTile(v float64) Tile {
	switch {
	case v < waterBand:
		return Water
	case v < sandBand:
		return Sand
	case v < grassBand:
		return Grass
	case v < forestBand:
		return Forest
	default:
		return Rock
	}
}

// GenerateTerrain builds a grid from seeded value noise; equal seeds give equal grids
func GenerateTerrain(width, height int, seed int64) *Grid {
	g := NewGrid(width, height, Water)
	fillTerrain(g, Rect{0, 0, width, height}, seed)
	return g
}

// fillTerrain writes noise terrain into r using absolute tile coordinates
func fillTerrain(g *Grid, r Rect, seed int64) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			g.Set(x, y, bandTile(noiseAt(x, y, seed)))
		}
	}
}
