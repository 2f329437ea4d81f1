package combat

import (
	"math"

	"github.com/emberwild/emberwild/game/entity"
)

// Shape is the hit volume of an action, anchored at the attacker
type Shape struct {
	Kind      entity.EffectKind
	OX, OY    float64
	DX, DY    float64
	Range     float64
	HalfWidth float64
	HalfAngle float64
}

// NormalizeAim turns an aim vector into a unit direction; a zero vector aims east
func NormalizeAim(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l < 1e-9 || math.IsNaN(l) || math.IsInf(l, 0) {
		return 1, 0
	}
	return x / l, y / l
}

// NewShape builds the hit volume for an action kind
func NewShape(kind entity.ActionKind, ox, oy, aimX, aimY, rng float64) Shape {
	dx, dy := NormalizeAim(aimX, aimY)
	spec := Spec(kind)
	s := Shape{Kind: spec.Shape, OX: ox, OY: oy, DX: dx, DY: dy, Range: rng}
	switch spec.Shape {
	case entity.EffectCone:
		s.HalfAngle = ConeHalfAngle
	case entity.EffectBeam:
		s.HalfWidth = spec.BeamHalfWidth
	default:
		s.Kind = entity.EffectBurst
		s.Range = burstRadius
	}
	return s
}

// Test reports whether a target of radius r at (x, y) is inside, with its forward distance
func (s Shape) Test(x, y, r float64) (float64, bool) {
	vx, vy := x-s.OX, y-s.OY
	forward := vx*s.DX + vy*s.DY
	switch s.Kind {
	case entity.EffectCone:
		dist := math.Hypot(vx, vy)
		if dist > s.Range+r {
			return 0, false
		}
		if dist < 1e-9 {
			return 0, true
		}
		if forward/dist < math.Cos(s.HalfAngle) {
			return 0, false
		}
		return forward, true
	case entity.EffectBeam:
		lateral := math.Abs(vx*s.DY - vy*s.DX)
		if forward < -r || forward > s.Range+r || lateral > s.HalfWidth+r {
			return 0, false
		}
		return forward, true
	default:
		dist := math.Hypot(vx, vy)
		return dist, dist <= s.Range+r
	}
}

// Target is a candidate for a hit test
type Target struct {
	X, Y   float64
	Radius float64
}

// Nearest returns the index of the candidate with the smallest forward distance inside the shape, or -1
func (s Shape) Nearest(targets []Target) int {
	best := -1
	bestForward := math.Inf(1)
	for i, t := range targets {
		r := t.Radius
		if r <= 0 {
			r = hitRadius
		}
		if f, ok := s.Test(t.X, t.Y, r); ok && f < bestForward {
			best, bestForward = i, f
		}
	}
	return best
}
