// Package combat holds the pure rules of action resolution: shapes, hit tests, damage and loot
package combat

import (
	"math"
	"time"

	"github.com/emberwild/emberwild/game/entity"
)

// Rand is the source of every combat roll
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Roll succeeds with the given probability
func Roll(rng Rand, chance float64) bool {
	return rng.Float64() < chance
}

// Charge bounds and hit geometry
const (
	MinChargeSeconds = 0.1
	ConeHalfAngle    = math.Pi / 3
	burstRadius      = 1.5
	hitRadius        = 0.5
	// ChainRadius and ChainDamage shape the extra hit of chaining spells
	ChainRadius = 3.0
	ChainDamage = 0.5
)

// KindSpec is the per-kind action table
type KindSpec struct {
	XPPerPotency  float64
	Lock          time.Duration
	SlowWindow    time.Duration
	SlowFactor    float64
	ChargeSlow    float64
	Shape         entity.EffectKind
	BeamHalfWidth float64
	EffectLife    time.Duration
}

var kindSpecs = map[entity.ActionKind]KindSpec{
	entity.Melee: {
		XPPerPotency: 12,
		Lock:         150 * time.Millisecond,
		SlowWindow:   350 * time.Millisecond,
		SlowFactor:   0.6,
		ChargeSlow:   0.7,
		Shape:        entity.EffectCone,
		EffectLife:   350 * time.Millisecond,
	},
	entity.Ranged: {
		XPPerPotency:  10,
		Lock:          200 * time.Millisecond,
		SlowWindow:    400 * time.Millisecond,
		SlowFactor:    0.5,
		ChargeSlow:    0.45,
		Shape:         entity.EffectBeam,
		BeamHalfWidth: 0.6,
		EffectLife:    450 * time.Millisecond,
	},
	entity.Spell: {
		XPPerPotency:  11,
		Lock:          250 * time.Millisecond,
		SlowWindow:    500 * time.Millisecond,
		SlowFactor:    0.5,
		ChargeSlow:    0.5,
		Shape:         entity.EffectBeam,
		BeamHalfWidth: 0.9,
		EffectLife:    600 * time.Millisecond,
	},
}

// Spec returns the table of an action kind
func Spec(kind entity.ActionKind) KindSpec {
	return kindSpecs[kind]
}

// ChargeSeconds clamps the held time into [0.1, maxChargeTime]
func ChargeSeconds(elapsed time.Duration, maxChargeTime float64) float64 {
	s := elapsed.Seconds()
	if s < MinChargeSeconds {
		return MinChargeSeconds
	}
	if s > maxChargeTime {
		return maxChargeTime
	}
	return s
}

// MaxChargeDuration is the force-resolution deadline of a charge
func MaxChargeDuration(b entity.Bonuses) time.Duration {
	return time.Duration(b.MaxChargeTime() * float64(time.Second))
}

// BaseDamage is the stat-scaled damage before potency and multipliers
func BaseDamage(kind entity.ActionKind, st entity.Stats) float64 {
	switch kind {
	case entity.Ranged:
		return 5 + 1.0*float64(st.Dexterity)
	case entity.Spell:
		return 5 + 1.1*float64(st.Intellect)
	}
	return 6 + 1.2*float64(st.Strength)
}

// RangedRangeScale lengthens bow shots with charge
func RangedRangeScale(potency float64) float64 {
	return math.Min(0.75+0.25*potency, 1.5)
}

// Outcome is everything an action resolves to before targets are tested
type Outcome struct {
	Kind    entity.ActionKind
	Potency float64
	Damage  float64
	XP      float64
	Range   float64
}

// Resolve computes damage, xp and range of a released action
func Resolve(kind entity.ActionKind, st entity.Stats, b entity.Bonuses, potency, momentumDamage, momentumXP float64) Outcome {
	spec := Spec(kind)
	o := Outcome{
		Kind:    kind,
		Potency: potency,
		Damage:  BaseDamage(kind, st) * b.DamageMult(kind) * momentumDamage * potency,
		XP:      spec.XPPerPotency * potency * momentumXP,
		Range:   b.Range(kind),
	}
	if kind == entity.Ranged {
		o.Range *= RangedRangeScale(potency)
	}
	return o
}
