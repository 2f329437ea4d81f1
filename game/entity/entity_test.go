package entity

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/emberwild/emberwild/engine/common"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestInventoryKeepsPositiveCounts(t *testing.T) {
	inv := Inventory{}
	inv.Add(Coins, 10)
	inv.Add("copper", 2)
	inv.Add("copper", -2)
	assert.Equal(t, 0, inv.Count("copper"))
	_, present := inv["copper"]
	assert.T(t, !present, "zero counts must be deleted")

	assert.T(t, !inv.Remove(Coins, 11), "cannot remove more than held")
	assert.Equal(t, 10, inv.Count(Coins))
	assert.T(t, inv.Remove(Coins, 10), "remove all")
	assert.T(t, inv.IsEmpty(), "inventory should be empty")

	dirty := Inventory{"a": 3, "b": 0, "c": -4}
	assert.Equal(t, Inventory{"a": 3}, dirty.Clone())
}

func TestMomentum(t *testing.T) {
	var m Momentum
	assert.Equal(t, 0, m.Current(t0))
	for i := 0; i < 8; i++ {
		m.Bump(t0.Add(time.Duration(i) * time.Second))
	}
	now := t0.Add(7 * time.Second)
	assert.Equal(t, MaxMomentumStacks, m.Current(now))
	assert.Equal(t, now.Add(MomentumDuration), m.ExpiresAt)
	assert.T(t, math.Abs(m.DamageMult(now)-1.5) < 1e-9, "damage multiplier")
	assert.T(t, math.Abs(m.SpeedMult(now)-1.2) < 1e-9, "speed multiplier")
	assert.T(t, math.Abs(m.XPMult(now)-1.25) < 1e-9, "xp multiplier")

	expiry := m.ExpiresAt
	assert.Equal(t, MaxMomentumStacks, m.Current(expiry.Add(-time.Millisecond)))
	assert.Equal(t, 0, m.Current(expiry))

	// an expired buff restarts at one stack
	m.Bump(expiry.Add(time.Second))
	assert.Equal(t, 1, m.Current(expiry.Add(time.Second)))

	m.Bump(t0)
	assert.T(t, m.Decay(t0.Add(time.Hour)), "decay should clear stacks")
	assert.Equal(t, 0, m.Stacks)
}

func TestSkillLevels(t *testing.T) {
	assert.Equal(t, 1, SkillLevel(0))
	assert.Equal(t, 1, SkillLevel(19))
	assert.Equal(t, 2, SkillLevel(20))
	assert.Equal(t, 3, SkillLevel(80))
	assert.Equal(t, MaxSkillLevel, SkillLevel(1e9))
}

func TestComputeBonuses(t *testing.T) {
	b := ComputeBonuses(Stats{1, 1, 1}, nil, 0)
	assert.T(t, math.Abs(b.HitChance-0.70) < 1e-9, "base hit chance")
	assert.T(t, math.Abs(b.MaxCharge-1.5) < 1e-9, "base charge")
	assert.T(t, math.Abs(b.MeleeRange-1.81) < 1e-9, "melee range")
	assert.T(t, math.Abs(b.RangedRange-7.04) < 1e-9, "ranged range")
	assert.T(t, math.Abs(b.SpellRange-6.04) < 1e-9, "spell range")
	assert.T(t, math.Abs(b.MaxChargeTime()-2.25) < 1e-9, "max charge time")

	high := ComputeBonuses(Stats{99, 99, 99}, nil, 0)
	assert.Equal(t, 0.97, high.HitChance)

	staff, _ := Gear(GearID(SlotSpell, 2))
	withGear := ComputeBonuses(Stats{1, 1, 1}, []*GearItem{staff}, 2)
	assert.T(t, withGear.Chain, "storm staff chains")
	assert.T(t, withGear.SpellDamage > 1, "spell damage bonus")
	assert.T(t, withGear.SpellRange > b.SpellRange, "spell range bonus")
	assert.Equal(t, 2, withGear.Momentum)
}

func newTestPlayer() *Player {
	pr := NewProfile(common.GenProfileID(), t0)
	pr.ZoneID = "verdant"
	return NewPlayer(common.GenClientID(), pr, t0)
}

func TestHealthStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for round := 0; round < 200; round++ {
		p := newTestPlayer()
		deaths := 0
		for op := 0; op < 50; op++ {
			amount := rng.Float64()*60 - 10
			if rng.Intn(2) == 0 {
				if p.ApplyDamage(amount) {
					deaths++
				}
			} else {
				p.Heal(amount)
			}
			assert.T(t, p.Health >= 0 && p.Health <= p.MaxHealth, "health out of range")
			if p.Health == 0 {
				p.Life = Ghost{Since: t0}
			}
		}
		assert.T(t, deaths <= 1, "death reported more than once")
	}
}

func TestArmorRaisesMaxHealth(t *testing.T) {
	p := newTestPlayer()
	assert.Equal(t, BaseMaxHealth, p.MaxHealth)
	plate := GearID(SlotArmor, 3)
	p.OwnedGear.Add(plate)
	p.Equipment[SlotArmor] = plate
	p.RecomputeBonuses(t0)
	assert.Equal(t, BaseMaxHealth+80, p.MaxHealth)

	p.Health = p.MaxHealth
	p.Equipment[SlotArmor] = GearID(SlotArmor, 0)
	p.RecomputeBonuses(t0)
	assert.Equal(t, BaseMaxHealth, p.Health)
}

func TestMovementWindowsAreMonotonic(t *testing.T) {
	p := newTestPlayer()
	p.ExtendLock(t0.Add(300 * time.Millisecond))
	p.ExtendLock(t0.Add(100 * time.Millisecond))
	assert.Equal(t, t0.Add(300*time.Millisecond), p.LockedUntil)

	p.ExtendSlow(t0.Add(time.Second), 0.5)
	p.ExtendSlow(t0.Add(500*time.Millisecond), 0.9)
	assert.Equal(t, t0.Add(time.Second), p.SlowUntil)
	assert.Equal(t, 0.5, p.SlowFactor)

	assert.Equal(t, 0.0, p.SpeedMultiplier(t0.Add(200*time.Millisecond)))
	assert.Equal(t, 0.5, p.SpeedMultiplier(t0.Add(400*time.Millisecond)))
	assert.Equal(t, 1.0, p.SpeedMultiplier(t0.Add(2*time.Second)))

	p.Action = Charging{Kind: Melee, StartedAt: t0, Slow: 0.7}
	assert.Equal(t, 0.7, p.SpeedMultiplier(t0.Add(2*time.Second)))
}

func TestProfileRoundTrip(t *testing.T) {
	p := newTestPlayer()
	p.X, p.Y = 40.5, 60.5
	p.XP.Add(Ranged, 85)
	p.Inventory.Add(Coins, 12)
	p.Loc = Dungeon{LevelID: "level-2"}
	p.Life = Ghost{Objective: Objective{ZoneID: "ashen", Kind: "shrine", X: 1, Y: 2, Radius: 2.5}, Since: t0}
	p.Health = 0
	p.SyncProfile(t0)

	clone := p.Profile.Clone()
	clone.Inventory.Add(Coins, 5)
	assert.Equal(t, 12, p.Inventory.Count(Coins))

	back := NewPlayer(common.GenClientID(), clone, t0)
	assert.Equal(t, "level-2", back.LevelID())
	assert.Equal(t, 85.0, back.XP.Ranged)
	assert.Equal(t, 3, back.Stats.Dexterity)
	assert.T(t, back.IsGhost(), "ghost state persists")
	assert.Equal(t, 0.0, back.Health)
}

func TestNormalizeRepairsProfile(t *testing.T) {
	pr := &Profile{
		ID:        "abc",
		OwnedGear: []string{"melee-2", "bogus"},
		Equipment: map[Slot]string{SlotMelee: "melee-2", SlotRanged: "ranged-3", "hat": "x"},
		Inventory: Inventory{"iron": 0},
	}
	pr.Normalize()
	assert.T(t, pr.Owns("melee-2"), "owned gear kept")
	assert.T(t, !pr.Owns("bogus"), "unknown gear dropped")
	assert.Equal(t, "melee-2", pr.Equipment[SlotMelee])
	assert.Equal(t, "ranged-0", pr.Equipment[SlotRanged])
	assert.Equal(t, "armor-0", pr.Equipment[SlotArmor])
	_, hat := pr.Equipment["hat"]
	assert.T(t, !hat, "unknown slot dropped")
	assert.T(t, pr.Inventory.IsEmpty(), "zero count dropped")
	assert.Equal(t, BaseMaxHealth, pr.MaxHealth)
}

func TestRollOreRespectsTier(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		assert.T(t, RollOre(1, rng).ID != "glyph-shard", "tier 1 never rolls glyph shards")
	}
}

func TestLocations(t *testing.T) {
	var loc Location = Overworld{ZoneID: "ashen"}
	zone, ok := ZoneOf(loc)
	assert.T(t, ok, "overworld")
	assert.Equal(t, "ashen", zone)
	_, ok = LevelOf(loc)
	assert.T(t, !ok, "not a dungeon")
	assert.T(t, SameLocation(loc, Overworld{ZoneID: "ashen"}), "same zone")
	assert.T(t, !SameLocation(loc, Dungeon{LevelID: "ashen"}), "zone and level never match")
}
