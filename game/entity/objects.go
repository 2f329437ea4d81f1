package entity

import (
	"math"
	"time"

	"github.com/emberwild/emberwild/engine/aoi"
)

// World object lifetimes
const (
	LootLifetime     = 120 * time.Second
	OreRespawnDelay  = 45 * time.Second
	ChatLifetime     = 8 * time.Second
	MaxChatLength    = 140
	wanderRadius     = 5.0
	EnemyAggroRadius = 9.0
)

// Enemy is a live hostile
type Enemy struct {
	ID        string
	Type      *EnemyType
	Loc       Location
	X, Y      float64
	SpawnX    float64
	SpawnY    float64
	WanderX   float64
	WanderY   float64
	Health    float64
	MaxHealth float64
	Damage    float64
	Speed     float64
	// alias of the hero being chased
	Target     string
	NextAttack time.Time
	NextWander time.Time
	Node       aoi.Node
}

// NewEnemy scales a catalog type for a zone or level
func NewEnemy(id string, t *EnemyType, loc Location, x, y, scale float64) *Enemy {
	e := &Enemy{
		ID:        id,
		Type:      t,
		Loc:       loc,
		X:         x,
		Y:         y,
		SpawnX:    x,
		SpawnY:    y,
		WanderX:   x,
		WanderY:   y,
		MaxHealth: math.Round(t.MaxHealth * scale),
		Damage:    t.Attack.Damage * scale,
		Speed:     t.Speed,
	}
	e.Health = e.MaxHealth
	e.Node.Data = e
	return e
}

// Alive reports whether the enemy still has health
func (e *Enemy) Alive() bool {
	return e.Health > 0
}

// TakeDamage lowers health and reports whether this blow killed it
func (e *Enemy) TakeDamage(amount float64) bool {
	if !e.Alive() || amount <= 0 || math.IsNaN(amount) {
		return false
	}
	e.Health = math.Max(0, e.Health-amount)
	return e.Health == 0
}

// PickWander chooses a new wander target near the spawn point
func (e *Enemy) PickWander(rng interface{ Float64() float64 }) {
	angle := rng.Float64() * 2 * math.Pi
	dist := rng.Float64() * wanderRadius
	e.WanderX = e.SpawnX + math.Cos(angle)*dist
	e.WanderY = e.SpawnY + math.Sin(angle)*dist
}

// OreNode is a gatherable deposit
type OreNode struct {
	ID        string    `json:"id"`
	OreID     string    `json:"oreId"`
	Loc       Location  `json:"-"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Amount    int       `json:"amount"`
	MaxAmount int       `json:"maxAmount"`
	RespawnAt time.Time `json:"-"`
}

// Depleted reports whether the node is waiting to respawn
func (o *OreNode) Depleted() bool {
	return o.Amount <= 0
}

// LootDrop is a pile of items on the ground
type LootDrop struct {
	ID        string
	Loc       Location
	X, Y      float64
	Items     Inventory
	ExpiresAt time.Time
}

// EffectKind is the shape of an effect
type EffectKind string

// Effect shapes
const (
	EffectCone  EffectKind = "cone"
	EffectBeam  EffectKind = "beam"
	EffectBurst EffectKind = "burst"
)

// Effect is a short-lived hit or visual record
type Effect struct {
	ID        string
	Kind      EffectKind
	Action    ActionKind
	Owner     string
	Loc       Location
	X, Y      float64
	AimX      float64
	AimY      float64
	Range     float64
	Width     float64
	Angle     float64
	ExpiresAt time.Time
}

// Chat is a message shown above a hero
type Chat struct {
	ID        string
	Alias     string
	Name      string
	Message   string
	Loc       Location
	At        time.Time
	ExpiresAt time.Time
}
