package world

// World dimensions in tiles
const (
	Width  = 288
	Height = 216

	ZoneWidth  = 96
	ZoneHeight = 180

	LevelStripY = 180
	LevelSize   = 28
	LevelGap    = 4

	SafeZoneRadius      = 9.0
	FacilityRadius      = 2.5
	facilityDiscRadius  = 1.0
	PortalRadius        = 1.5
	portalSeparation    = 10.0
	portalSafeMargin    = 4.0
	portalMaxAttempts   = 400
	levelHazardGuard    = 4.0
	levelHazardFraction = 0.04
)

// FacilityKind names an interactable point inside a safe zone
type FacilityKind string

// Facility kinds
const (
	Shrine      FacilityKind = "shrine"
	Bank        FacilityKind = "bank"
	Shop        FacilityKind = "shop"
	TradingPost FacilityKind = "trading-post"
)

var facilityMarkers = map[FacilityKind]Tile{
	Shrine:      Ember,
	Bank:        Sand,
	Shop:        Grass,
	TradingPost: Obsidian,
}

// Facility is a point with an interaction radius
type Facility struct {
	Kind   FacilityKind `json:"kind"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Radius float64      `json:"radius"`
}

// InRange reports whether (x, y) is close enough to interact
func (f Facility) InRange(x, y float64) bool {
	return Point{X: f.X, Y: f.Y}.DistanceTo(x, y) <= f.Radius
}

// SafeZone is the circular sanctuary of a zone
type SafeZone struct {
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Radius     float64    `json:"radius"`
	Facilities []Facility `json:"facilities"`
}

// Contains reports whether (x, y) is inside the sanctuary
func (s *SafeZone) Contains(x, y float64) bool {
	return s.Center().DistanceTo(x, y) <= s.Radius
}

// Center returns the middle of the sanctuary
func (s *SafeZone) Center() Point {
	return Point{X: s.X, Y: s.Y}
}

// Facility returns the facility of the given kind
func (s *SafeZone) Facility(kind FacilityKind) (Facility, bool) {
	for _, f := range s.Facilities {
		if f.Kind == kind {
			return f, true
		}
	}
	return Facility{}, false
}

// Zone is an overworld region
type Zone struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Tier    int      `json:"tier"`
	Scale   float64  `json:"scale"`
	Rect    Rect     `json:"rect"`
	Safe    SafeZone `json:"safeZone"`
	Seed    int64    `json:"-"`
	Default bool     `json:"default"`
	Index   int      `json:"-"`
}

// Level is an instanced dungeon room in the level strip
type Level struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tier   int     `json:"tier"`
	Scale  float64 `json:"scale"`
	Rect   Rect    `json:"rect"`
	Entry  Point   `json:"entry"`
	Exit   Point   `json:"exit"`
	ZoneID string  `json:"zoneId"`
	Index  int     `json:"-"`
}

type zoneDef struct {
	id    string
	name  string
	tier  int
	scale float64
	color string
}

var zoneDefs = []zoneDef{
	{"verdant", "Verdant Reach", 1, 1.0, "#6fcf6a"},
	{"ashen", "Ashen Expanse", 2, 1.5, "#c9a26b"},
	{"cinder", "Cinder Wastes", 3, 2.2, "#e2553a"},
}

var levelNames = []string{"Mossy Hollow", "Bone Crypt", "Molten Sanctum"}

func zoneRect(index int) Rect {
	return Rect{X: index * ZoneWidth, Y: 0, W: ZoneWidth, H: ZoneHeight}
}

func levelRect(index int) Rect {
	return Rect{X: LevelGap + index*(LevelSize+LevelGap), Y: LevelStripY + LevelGap, W: LevelSize, H: LevelSize}
}

func newSafeZone(r Rect) SafeZone {
	c := r.Center()
	cx, cy := float64(int(c.X))+0.5, float64(int(c.Y))+0.5
	return SafeZone{
		X:      cx,
		Y:      cy,
		Radius: SafeZoneRadius,
		Facilities: []Facility{
			{Kind: Shrine, X: cx, Y: cy - 5, Radius: FacilityRadius},
			{Kind: Bank, X: cx - 5, Y: cy, Radius: FacilityRadius},
			{Kind: Shop, X: cx + 5, Y: cy, Radius: FacilityRadius},
			{Kind: TradingPost, X: cx, Y: cy + 5, Radius: FacilityRadius},
		},
	}
}
