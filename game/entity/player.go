package entity

import (
	"math"
	"time"

	"github.com/emberwild/emberwild/engine/aoi"
	"github.com/emberwild/emberwild/engine/common"
)

// PvPCooldown blocks opting out of PvP after a hit
const PvPCooldown = 60 * time.Second

// Player is a connected hero
type Player struct {
	Alias   common.ClientID
	Profile *Profile
	Name    string
	Loc     Location
	X, Y    float64
	Health  float64
	// MaxHealth is derived: BaseMaxHealth plus the armor bonus
	MaxHealth float64
	MoveX     float64
	MoveY     float64
	AimX      float64
	AimY      float64

	XP        Skills
	Stats     Stats
	Bonuses   Bonuses
	Equipment map[Slot]string
	OwnedGear common.StringSet
	Inventory Inventory
	Bank      Inventory

	Action   ActionState
	Momentum Momentum
	Life     LifeState

	LockedUntil      time.Time
	SlowUntil        time.Time
	SlowFactor       float64
	StatusSlowUntil  time.Time
	StatusSlowFactor float64

	PvPOptIn         bool
	PvPCooldownUntil time.Time
	Admin            bool
	TutorialDone     bool

	Node aoi.Node
}

// NewPlayer builds a live hero from its durable record; position and location are left for the caller to validate
func NewPlayer(alias common.ClientID, profile *Profile, now time.Time) *Player {
	profile.Normalize()
	p := &Player{
		Alias:            alias,
		Profile:          profile,
		Name:             profile.Name,
		X:                profile.X,
		Y:                profile.Y,
		Health:           profile.Health,
		XP:               profile.XP,
		Equipment:        map[Slot]string{},
		OwnedGear:        common.StringSet{},
		Inventory:        profile.Inventory,
		Bank:             profile.Bank,
		Action:           Idle{},
		Life:             Alive{},
		PvPOptIn:         profile.PvPOptIn,
		PvPCooldownUntil: FromMillis(profile.PvPCooldownUntil),
		Admin:            profile.Admin,
		TutorialDone:     profile.TutorialDone,
	}
	for slot, id := range profile.Equipment {
		p.Equipment[slot] = id
	}
	for _, id := range profile.OwnedGear {
		p.OwnedGear.Add(id)
	}
	if profile.LevelID != "" {
		p.Loc = Dungeon{LevelID: profile.LevelID}
	} else {
		p.Loc = Overworld{ZoneID: profile.ZoneID}
	}
	if profile.Ghost != nil {
		p.Life = Ghost{Objective: profile.Ghost.Objective, Since: FromMillis(profile.Ghost.Since)}
		p.Health = 0
	}
	p.Node.Data = p
	p.RecomputeBonuses(now)
	return p
}

// IsGhost reports whether the hero is dead
func (p *Player) IsGhost() bool {
	_, ok := p.Life.(Ghost)
	return ok
}

// ZoneID returns the zone for overworld heroes
func (p *Player) ZoneID() string {
	id, _ := ZoneOf(p.Loc)
	return id
}

// LevelID returns the level for heroes inside a dungeon
func (p *Player) LevelID() string {
	id, _ := LevelOf(p.Loc)
	return id
}

// Equipped returns the gear in a slot
func (p *Player) Equipped(slot Slot) *GearItem {
	g, _ := Gear(p.Equipment[slot])
	return g
}

// EquippedGear returns every equipped item
func (p *Player) EquippedGear() []*GearItem {
	gear := make([]*GearItem, 0, len(Slots))
	for _, slot := range Slots {
		if g := p.Equipped(slot); g != nil {
			gear = append(gear, g)
		}
	}
	return gear
}

// RecomputeBonuses refreshes stats, bonuses and max health after xp, gear or momentum change
func (p *Player) RecomputeBonuses(now time.Time) {
	p.Stats = StatsFor(p.XP)
	p.Bonuses = ComputeBonuses(p.Stats, p.EquippedGear(), p.Momentum.Current(now))
	p.MaxHealth = BaseMaxHealth
	if armor := p.Equipped(SlotArmor); armor != nil {
		p.MaxHealth += armor.MaxHealthBonus
	}
	p.clampHealth()
}

func (p *Player) clampHealth() {
	if p.IsGhost() {
		p.Health = 0
		return
	}
	if math.IsNaN(p.Health) || p.Health < 0 {
		p.Health = 0
	}
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// ApplyDamage lowers health; it reports true only for the blow that reaches zero
func (p *Player) ApplyDamage(amount float64) bool {
	if p.IsGhost() || p.Health <= 0 || amount <= 0 || math.IsNaN(amount) {
		return false
	}
	p.Health = math.Max(0, p.Health-amount)
	return p.Health == 0
}

// Heal raises health up to the maximum; ghosts cannot heal
func (p *Player) Heal(amount float64) {
	if p.IsGhost() || amount <= 0 || math.IsNaN(amount) {
		return
	}
	p.Health = math.Min(p.MaxHealth, p.Health+amount)
}

// ExtendLock stops movement until t; a lock is never shortened
func (p *Player) ExtendLock(t time.Time) {
	if t.After(p.LockedUntil) {
		p.LockedUntil = t
	}
}

// ExtendSlow slows movement by factor until t; a slow is never shortened
func (p *Player) ExtendSlow(t time.Time, factor float64) {
	if t.After(p.SlowUntil) {
		p.SlowUntil = t
		p.SlowFactor = factor
	}
}

// ApplyStatusSlow is an enemy-inflicted slow with the same monotonic rule
func (p *Player) ApplyStatusSlow(t time.Time, factor float64) {
	if t.After(p.StatusSlowUntil) {
		p.StatusSlowUntil = t
		p.StatusSlowFactor = factor
	}
}

// SpeedMultiplier combines charge, post-action and status slows; zero while locked
func (p *Player) SpeedMultiplier(now time.Time) float64 {
	if now.Before(p.LockedUntil) {
		return 0
	}
	mult := p.Momentum.SpeedMult(now)
	if c, ok := p.Action.(Charging); ok {
		mult *= c.Slow
	}
	if now.Before(p.SlowUntil) {
		mult *= p.SlowFactor
	}
	if now.Before(p.StatusSlowUntil) {
		mult *= p.StatusSlowFactor
	}
	return mult
}

// CanDisablePvP reports whether the PvP cooldown has elapsed
func (p *Player) CanDisablePvP(now time.Time) bool {
	return !now.Before(p.PvPCooldownUntil)
}

// SyncProfile mirrors transient state into the durable record
func (p *Player) SyncProfile(now time.Time) {
	pr := p.Profile
	pr.Name = p.Name
	pr.XP = p.XP
	pr.MaxHealth = p.MaxHealth
	pr.Health = p.Health
	pr.X, pr.Y = p.X, p.Y
	switch loc := p.Loc.(type) {
	case Overworld:
		pr.ZoneID = loc.ZoneID
		pr.LevelID = ""
	case Dungeon:
		pr.LevelID = loc.LevelID
	}
	pr.Inventory = p.Inventory
	pr.Bank = p.Bank
	pr.OwnedGear = p.OwnedGear.ToList()
	pr.Equipment = make(map[Slot]string, len(p.Equipment))
	for slot, id := range p.Equipment {
		pr.Equipment[slot] = id
	}
	pr.Admin = p.Admin
	pr.TutorialDone = p.TutorialDone
	pr.PvPOptIn = p.PvPOptIn
	pr.PvPCooldownUntil = Millis(p.PvPCooldownUntil)
	if g, ok := p.Life.(Ghost); ok {
		pr.Ghost = &GhostRecord{Since: Millis(g.Since), Objective: g.Objective}
	} else {
		pr.Ghost = nil
	}
	pr.UpdatedAt = Millis(now)
}
