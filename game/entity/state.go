package entity

import (
	"math"
	"time"
)

// LifeState is Alive or Ghost
type LifeState interface {
	isLifeState()
}

// Alive is the normal state
type Alive struct{}

// Objective is the shrine a ghost must reach to revive
type Objective struct {
	ZoneID string  `json:"zoneId"`
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Reached reports whether (x, y) in zoneID satisfies the objective
func (o Objective) Reached(zoneID string, x, y float64) bool {
	return o.ZoneID == zoneID && math.Hypot(o.X-x, o.Y-y) <= o.Radius
}

// Ghost is a dead hero walking back to a shrine
type Ghost struct {
	Objective Objective
	Since     time.Time
}

func (Alive) isLifeState() {}
func (Ghost) isLifeState() {}

// ActionKind is the combat style of an action
type ActionKind string

// Action kinds
const (
	Melee  ActionKind = "melee"
	Ranged ActionKind = "ranged"
	Spell  ActionKind = "spell"
)

// ActionKinds lists every kind in display order
var ActionKinds = []ActionKind{Melee, Ranged, Spell}

// Valid reports whether k is a known kind
func (k ActionKind) Valid() bool {
	return k == Melee || k == Ranged || k == Spell
}

// ActionState is Idle or Charging
type ActionState interface {
	isActionState()
}

// Idle means no action is in progress
type Idle struct{}

// Charging is an action being held
type Charging struct {
	Kind      ActionKind
	StartedAt time.Time
	AimX      float64
	AimY      float64
	OriginX   float64
	OriginY   float64
	// movement multiplier while charging
	Slow float64
}

func (Idle) isActionState()     {}
func (Charging) isActionState() {}

// Momentum stacking limits
const (
	MaxMomentumStacks = 5
	MomentumDuration  = 15 * time.Second
)

// Momentum is a stacking combat buff that falls off at ExpiresAt
type Momentum struct {
	Stacks    int
	ExpiresAt time.Time
}

// Current returns the live stack count; expired momentum counts as zero
func (m *Momentum) Current(now time.Time) int {
	if m.Stacks == 0 || !now.Before(m.ExpiresAt) {
		return 0
	}
	return m.Stacks
}

// Decay clears expired stacks and reports whether anything changed
func (m *Momentum) Decay(now time.Time) bool {
	if m.Stacks > 0 && !now.Before(m.ExpiresAt) {
		m.Stacks = 0
		return true
	}
	return false
}

// Bump adds a stack for an XP-granting hit and refreshes the expiry
func (m *Momentum) Bump(now time.Time) {
	if m.Current(now) == 0 {
		m.Stacks = 1
	} else if m.Stacks < MaxMomentumStacks {
		m.Stacks++
	}
	m.ExpiresAt = now.Add(MomentumDuration)
}

// Reset drops all stacks
func (m *Momentum) Reset() {
	m.Stacks = 0
	m.ExpiresAt = time.Time{}
}

// DamageMult is the outgoing damage multiplier
func (m *Momentum) DamageMult(now time.Time) float64 {
	return 1 + 0.1*float64(m.Current(now))
}

// SpeedMult is the movement speed multiplier
func (m *Momentum) SpeedMult(now time.Time) float64 {
	return 1 + 0.04*float64(m.Current(now))
}

// XPMult is the experience multiplier
func (m *Momentum) XPMult(now time.Time) float64 {
	return 1 + 0.05*float64(m.Current(now))
}
