package entity

import "time"

// Ore is a gatherable resource type
type Ore struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SellPrice int    `json:"sellPrice"`
}

// Ores in ascending value
var Ores = []*Ore{
	{ID: "copper", Name: "Copper Ore", SellPrice: 4},
	{ID: "iron", Name: "Iron Ore", SellPrice: 9},
	{ID: "ember", Name: "Ember Crystal", SellPrice: 18},
	{ID: "glyph-shard", Name: "Glyph Shard", SellPrice: 32},
}

// ore weights per zone tier, indexed like Ores
var oreWeights = map[int][]int{
	1: {6, 3, 1, 0},
	2: {3, 4, 2, 1},
	3: {1, 3, 4, 2},
}

// OreByID looks up an ore
func OreByID(id string) (*Ore, bool) {
	for _, o := range Ores {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// IsOre reports whether an inventory key is an ore
func IsOre(item string) bool {
	_, ok := OreByID(item)
	return ok
}

// RollOre picks an ore weighted by zone tier
func RollOre(tier int, rng interface{ Intn(int) int }) *Ore {
	weights, ok := oreWeights[tier]
	if !ok {
		weights = oreWeights[1]
	}
	total := 0
	for _, w := range weights {
		total += w
	}
	r := rng.Intn(total)
	for i, w := range weights {
		if r < w {
			return Ores[i]
		}
		r -= w
	}
	return Ores[0]
}

// EnemyAttack describes how an enemy type hurts heroes
type EnemyAttack struct {
	Kind      ActionKind
	Damage    float64
	Range     float64
	Cooldown  time.Duration
	HitChance float64
	// optional status applied on hit
	SlowFactor   float64
	SlowDuration time.Duration
}

// EnemyType is one enemy catalog entry
type EnemyType struct {
	ID        string
	Name      string
	Tier      int
	MaxHealth float64
	Speed     float64
	Radius    float64
	Attack    EnemyAttack
	// XP granted on kill, per action kind that landed the blow
	XPReward map[ActionKind]float64
}

func xpTable(base float64) map[ActionKind]float64 {
	return map[ActionKind]float64{Melee: base, Ranged: base * 0.9, Spell: base * 0.95}
}

// EnemyTypes is the enemy catalog
var EnemyTypes = map[string]*EnemyType{
	"slime": {
		ID: "slime", Name: "Slime", Tier: 1, MaxHealth: 30, Speed: 1.6, Radius: 0.45,
		Attack:   EnemyAttack{Kind: Melee, Damage: 4, Range: 1.2, Cooldown: 1200 * time.Millisecond, HitChance: 0.75},
		XPReward: xpTable(15),
	},
	"wolf": {
		ID: "wolf", Name: "Wolf", Tier: 1, MaxHealth: 45, Speed: 3.2, Radius: 0.5,
		Attack:   EnemyAttack{Kind: Melee, Damage: 6, Range: 1.3, Cooldown: time.Second, HitChance: 0.7},
		XPReward: xpTable(22),
	},
	"skeleton-archer": {
		ID: "skeleton-archer", Name: "Skeleton Archer", Tier: 2, MaxHealth: 55, Speed: 2.0, Radius: 0.5,
		Attack:   EnemyAttack{Kind: Ranged, Damage: 7, Range: 6, Cooldown: 1800 * time.Millisecond, HitChance: 0.65},
		XPReward: xpTable(30),
	},
	"wisp": {
		ID: "wisp", Name: "Wisp", Tier: 2, MaxHealth: 40, Speed: 2.6, Radius: 0.4,
		Attack: EnemyAttack{Kind: Spell, Damage: 5, Range: 5, Cooldown: 2 * time.Second, HitChance: 0.7,
			SlowFactor: 0.6, SlowDuration: 2 * time.Second},
		XPReward: xpTable(28),
	},
	"golem": {
		ID: "golem", Name: "Ember Golem", Tier: 3, MaxHealth: 140, Speed: 1.2, Radius: 0.8,
		Attack:   EnemyAttack{Kind: Melee, Damage: 14, Range: 1.6, Cooldown: 2200 * time.Millisecond, HitChance: 0.7},
		XPReward: xpTable(60),
	},
}

var spawnTables = map[int][]string{
	1: {"slime", "slime", "wolf"},
	2: {"wolf", "skeleton-archer", "wisp"},
	3: {"skeleton-archer", "wisp", "golem", "golem"},
}

// SpawnTable returns the enemy type ids a tier spawns
func SpawnTable(tier int) []string {
	if t, ok := spawnTables[tier]; ok {
		return t
	}
	return spawnTables[1]
}
