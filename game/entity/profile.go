package entity

import (
	"time"

	"github.com/emberwild/emberwild/engine/common"
)

// BaseMaxHealth is a hero's health before armor
const BaseMaxHealth = 100.0

// Account links a login to a profile
type Account struct {
	Name         string `json:"name" bson:"name"`
	NameKey      string `json:"nameKey" bson:"nameKey"`
	PasswordHash string `json:"passwordHash" bson:"passwordHash"`
	Salt         string `json:"salt" bson:"salt"`
	Iterations   int    `json:"iterations" bson:"iterations"`
	SessionHash  string `json:"sessionHash,omitempty" bson:"sessionHash,omitempty"`
}

// GhostRecord is the persisted form of a ghost state
type GhostRecord struct {
	Since     int64     `json:"since" bson:"since"`
	Objective Objective `json:"objective" bson:"objective"`
}

// Profile is the durable record of a hero
type Profile struct {
	ID               common.ProfileID `json:"id" bson:"_id"`
	Name             string           `json:"name" bson:"name"`
	XP               Skills           `json:"xp" bson:"xp"`
	MaxHealth        float64          `json:"maxHealth" bson:"maxHealth"`
	Health           float64          `json:"health" bson:"health"`
	X                float64          `json:"x" bson:"x"`
	Y                float64          `json:"y" bson:"y"`
	ZoneID           string           `json:"zoneId" bson:"zoneId"`
	LevelID          string           `json:"levelId,omitempty" bson:"levelId,omitempty"`
	Inventory        Inventory        `json:"inventory" bson:"inventory"`
	Bank             Inventory        `json:"bank" bson:"bank"`
	OwnedGear        []string         `json:"ownedGear" bson:"ownedGear"`
	Equipment        map[Slot]string  `json:"equipment" bson:"equipment"`
	Admin            bool             `json:"admin" bson:"admin"`
	Banned           bool             `json:"banned" bson:"banned"`
	TutorialDone     bool             `json:"tutorialDone" bson:"tutorialDone"`
	PvPOptIn         bool             `json:"pvpOptIn" bson:"pvpOptIn"`
	PvPCooldownUntil int64            `json:"pvpCooldownUntil" bson:"pvpCooldownUntil"`
	Ghost            *GhostRecord     `json:"ghost,omitempty" bson:"ghost,omitempty"`
	Account          *Account         `json:"account,omitempty" bson:"account,omitempty"`
	CreatedAt        int64            `json:"createdAt" bson:"createdAt"`
	UpdatedAt        int64            `json:"updatedAt" bson:"updatedAt"`
}

// Millis converts a time to unix milliseconds; the zero time is 0
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano() / int64(time.Millisecond)
}

// FromMillis converts unix milliseconds back; 0 is the zero time
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.Unix(0, ms*int64(time.Millisecond))
}

// NewProfile creates the record of a fresh hero
func NewProfile(id common.ProfileID, now time.Time) *Profile {
	p := &Profile{
		ID:        id,
		Name:      "Wanderer",
		MaxHealth: BaseMaxHealth,
		Health:    BaseMaxHealth,
		Inventory: Inventory{},
		Bank:      Inventory{},
		OwnedGear: StarterGear(),
		Equipment: map[Slot]string{},
		CreatedAt: Millis(now),
		UpdatedAt: Millis(now),
	}
	for _, slot := range Slots {
		p.Equipment[slot] = GearID(slot, 0)
	}
	return p
}

// Normalize repairs a loaded record so every invariant holds
func (p *Profile) Normalize() {
	p.Inventory = p.Inventory.Clone()
	p.Bank = p.Bank.Clone()
	if p.Equipment == nil {
		p.Equipment = map[Slot]string{}
	}

	owned := common.StringSet{}
	for _, id := range p.OwnedGear {
		if _, ok := Gear(id); ok {
			owned.Add(id)
		}
	}
	for _, id := range StarterGear() {
		owned.Add(id)
	}
	p.OwnedGear = owned.ToList()

	for _, slot := range Slots {
		id := p.Equipment[slot]
		g, ok := Gear(id)
		if !ok || g.Slot != slot || !owned.Contains(id) {
			p.Equipment[slot] = GearID(slot, 0)
		}
	}
	for slot := range p.Equipment {
		if !slot.Valid() {
			delete(p.Equipment, slot)
		}
	}
	if p.MaxHealth <= 0 {
		p.MaxHealth = BaseMaxHealth
	}
	if p.Name == "" {
		p.Name = "Wanderer"
	}
}

// Owns reports whether the hero owns a gear item
func (p *Profile) Owns(gearID string) bool {
	for _, id := range p.OwnedGear {
		if id == gearID {
			return true
		}
	}
	return false
}

// Clone deep-copies the record so it can leave the simulation goroutine
func (p *Profile) Clone() *Profile {
	c := *p
	c.Inventory = p.Inventory.Clone()
	c.Bank = p.Bank.Clone()
	c.OwnedGear = append([]string(nil), p.OwnedGear...)
	c.Equipment = make(map[Slot]string, len(p.Equipment))
	for k, v := range p.Equipment {
		c.Equipment[k] = v
	}
	if p.Ghost != nil {
		g := *p.Ghost
		c.Ghost = &g
	}
	if p.Account != nil {
		a := *p.Account
		c.Account = &a
	}
	return &c
}
