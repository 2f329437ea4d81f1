package world

import "math"

// Tile is one cell of the world grid
type Tile uint8

// Tile kinds
const (
	Water Tile = iota
	Sand
	Grass
	Forest
	Rock
	Ember
	Glyph
	Obsidian
	Lava
	Void
)

var tileNames = [...]string{"water", "sand", "grass", "forest", "rock", "ember", "glyph", "obsidian", "lava", "void"}

func (t Tile) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return "unknown"
}

// Walkable reports whether players and enemies may stand on the tile
func (t Tile) Walkable() bool {
	switch t {
	case Sand, Grass, Forest, Ember, Glyph, Obsidian:
		return true
	}
	return false
}

// Grid is a row-major tile map
type Grid struct {
	Width  int
	Height int
	Tiles  []Tile
}

// NewGrid allocates a grid filled with fill
func NewGrid(width, height int, fill Tile) *Grid {
	g := &Grid{Width: width, Height: height, Tiles: make([]Tile, width*height)}
	if fill != 0 {
		for i := range g.Tiles {
			g.Tiles[i] = fill
		}
	}
	return g
}

// InBounds reports whether the tile coordinate lies on the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the tile at (x, y); outside the grid everything is Void
func (g *Grid) At(x, y int) Tile {
	if !g.InBounds(x, y) {
		return Void
	}
	return g.Tiles[y*g.Width+x]
}

// Set writes a tile; out of bounds writes are dropped
func (g *Grid) Set(x, y int, t Tile) {
	if g.InBounds(x, y) {
		g.Tiles[y*g.Width+x] = t
	}
}

// TileAt returns the tile under a continuous position
func (g *Grid) TileAt(x, y float64) Tile {
	return g.At(int(math.Floor(x)), int(math.Floor(y)))
}

// IsWalkable reports whether a continuous position stands on a walkable tile
func (g *Grid) IsWalkable(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	return g.TileAt(x, y).Walkable()
}

// Equal reports whether two grids hold identical tiles
func (g *Grid) Equal(o *Grid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	for i, t := range g.Tiles {
		if o.Tiles[i] != t {
			return false
		}
	}
	return true
}

// Encode returns the tiles as a string of digits for the init message
func (g *Grid) Encode() string {
	b := make([]byte, len(g.Tiles))
	for i, t := range g.Tiles {
		b[i] = '0' + byte(t)
	}
	return string(b)
}

// EncodeRect encodes the tiles of r row by row, like Encode
func (g *Grid) EncodeRect(r Rect) string {
	b := make([]byte, 0, r.W*r.H)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			b = append(b, '0'+byte(g.At(x, y)))
		}
	}
	return string(b)
}

// Rect is an integer tile rectangle
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether a continuous position lies inside the rectangle
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && y >= float64(r.Y) && x < float64(r.X+r.W) && y < float64(r.Y+r.H)
}

// Center returns the middle of the rectangle
func (r Rect) Center() Point {
	return Point{X: float64(r.X) + float64(r.W)/2, Y: float64(r.Y) + float64(r.H)/2}
}

// Point is a continuous world position
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the euclidean distance between two points
func (p Point) DistanceTo(x, y float64) float64 {
	return math.Hypot(p.X-x, p.Y-y)
}
