package entity

import "math"

// MaxSkillLevel caps every stat
const MaxSkillLevel = 99

// Skills is the experience triple
type Skills struct {
	Melee  float64 `json:"melee" bson:"melee"`
	Ranged float64 `json:"ranged" bson:"ranged"`
	Magic  float64 `json:"magic" bson:"magic"`
}

// Add grants xp to the skill trained by kind
func (s *Skills) Add(kind ActionKind, xp float64) {
	if xp <= 0 || math.IsNaN(xp) {
		return
	}
	switch kind {
	case Melee:
		s.Melee += xp
	case Ranged:
		s.Ranged += xp
	case Spell:
		s.Magic += xp
	}
}

// Of returns the xp of the skill trained by kind
func (s Skills) Of(kind ActionKind) float64 {
	switch kind {
	case Ranged:
		return s.Ranged
	case Spell:
		return s.Magic
	}
	return s.Melee
}

// SkillLevel converts experience to a level: 1 + floor(sqrt(xp / 20)), capped
func SkillLevel(xp float64) int {
	if xp <= 0 || math.IsNaN(xp) {
		return 1
	}
	lv := 1 + int(math.Floor(math.Sqrt(xp/20)))
	if lv > MaxSkillLevel {
		return MaxSkillLevel
	}
	return lv
}

// Stats are the levels derived from Skills
type Stats struct {
	Strength  int `json:"strength"`
	Dexterity int `json:"dexterity"`
	Intellect int `json:"intellect"`
}

// StatsFor derives stats from experience
func StatsFor(xp Skills) Stats {
	return Stats{
		Strength:  SkillLevel(xp.Melee),
		Dexterity: SkillLevel(xp.Ranged),
		Intellect: SkillLevel(xp.Magic),
	}
}

// Bonuses are the combat numbers derived from stats and equipment
type Bonuses struct {
	HitChance   float64 `json:"hitChance"`
	MaxCharge   float64 `json:"maxCharge"`
	MeleeRange  float64 `json:"meleeRange"`
	RangedRange float64 `json:"rangedRange"`
	SpellRange  float64 `json:"spellRange"`
	MoveSpeed   float64 `json:"moveSpeed"`
	// per-kind equipment damage multiplier
	MeleeDamage  float64 `json:"meleeDamage"`
	RangedDamage float64 `json:"rangedDamage"`
	SpellDamage  float64 `json:"spellDamage"`
	Chain        bool    `json:"chain"`
	Momentum     int     `json:"momentum"`
}

// Range returns the reach of an action kind
func (b Bonuses) Range(kind ActionKind) float64 {
	switch kind {
	case Ranged:
		return b.RangedRange
	case Spell:
		return b.SpellRange
	}
	return b.MeleeRange
}

// DamageMult returns the equipment damage multiplier of an action kind
func (b Bonuses) DamageMult(kind ActionKind) float64 {
	switch kind {
	case Ranged:
		return b.RangedDamage
	case Spell:
		return b.SpellDamage
	}
	return b.MeleeDamage
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ComputeBonuses derives the bonus set from stats, equipped gear and momentum stacks
func ComputeBonuses(st Stats, gear []*GearItem, momentum int) Bonuses {
	var accuracy, charge, meleeRange, rangedRange, spellRange float64
	b := Bonuses{MeleeDamage: 1, RangedDamage: 1, SpellDamage: 1, Momentum: momentum}
	for _, g := range gear {
		if g == nil {
			continue
		}
		accuracy += g.Accuracy
		charge += g.ChargeBonus
		switch g.Slot {
		case SlotMelee:
			meleeRange += g.RangeBonus
			b.MeleeDamage = g.DamageMult
		case SlotRanged:
			rangedRange += g.RangeBonus
			b.RangedDamage = g.DamageMult
		case SlotSpell:
			spellRange += g.RangeBonus
			b.SpellDamage = g.DamageMult
			b.Chain = b.Chain || g.Chain
		}
	}

	str, dex, intl := float64(st.Strength), float64(st.Dexterity), float64(st.Intellect)
	b.HitChance = clamp(0.70+0.003*(str+dex+intl-3)+accuracy, 0.05, 0.97)
	avg := (str + dex + intl) / 3
	b.MaxCharge = 1.5 + 0.02*(avg-1) + charge
	b.MeleeRange = 1.8 + 0.01*str + meleeRange
	b.RangedRange = 7 + 0.04*dex + rangedRange
	b.SpellRange = 6 + 0.04*intl + spellRange
	b.MoveSpeed = 4.5 * (1 + 0.005*dex)
	return b
}

// MaxChargeTime is how long a charge may be held before it resolves on its own
func (b Bonuses) MaxChargeTime() float64 {
	return clamp(b.MaxCharge, 0.5, 5) + 0.75
}
