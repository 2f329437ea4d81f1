// Package entity holds the mutable game state: heroes, enemies, world objects and durable profiles
package entity

// Location is where an entity lives: exactly one of Overworld or Dungeon
type Location interface {
	isLocation()
	// Key identifies the coordinate space, e.g. "zone:verdant" or "level:level-1"
	Key() string
}

// Overworld places an entity in a zone
type Overworld struct {
	ZoneID string
}

// Dungeon places an entity in a level
type Dungeon struct {
	LevelID string
}

func (Overworld) isLocation() {}
func (Dungeon) isLocation()   {}

// Key implements Location
func (o Overworld) Key() string { return "zone:" + o.ZoneID }

// Key implements Location
func (d Dungeon) Key() string { return "level:" + d.LevelID }

// ZoneOf returns the zone id for overworld locations
func ZoneOf(loc Location) (string, bool) {
	if o, ok := loc.(Overworld); ok {
		return o.ZoneID, true
	}
	return "", false
}

// LevelOf returns the level id for dungeon locations
func LevelOf(loc Location) (string, bool) {
	if d, ok := loc.(Dungeon); ok {
		return d.LevelID, true
	}
	return "", false
}

// SameLocation reports whether two locations are the same coordinate space
func SameLocation(a, b Location) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Key() == b.Key()
}
