package sim

import (
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
	"github.com/pkg/errors"
)

type zoneRegenMsg struct {
	zoneEvent
	Rect    world.Rect      `json:"rect"`
	Tiles   string          `json:"tiles"`
	Portals []*world.Portal `json:"portals"`
}

func (e *Engine) zoneOccupied(zoneID string) bool {
	occupied := false
	e.eachPlayer(func(_ *session, p *entity.Player) {
		if p.ZoneID() == zoneID {
			occupied = true
		}
	})
	return occupied
}

// RegenerateZone rerolls an unoccupied non-default zone with a new seed
func (e *Engine) RegenerateZone(zoneID string) error {
	z := e.world.Zone(zoneID)
	if z == nil {
		return errors.Errorf("unknown zone %q", zoneID)
	}
	if e.zoneOccupied(zoneID) {
		return errors.Errorf("zone %s is occupied", zoneID)
	}
	seed := z.Seed + int64(e.rng.Intn(1<<30)) + 1
	if err := e.world.RegenerateZone(zoneID, seed); err != nil {
		return err
	}

	culled := e.cullZone(zoneID)
	for id, o := range e.ores {
		if zid, ok := entity.ZoneOf(o.Loc); ok && zid == zoneID {
			delete(e.ores, id)
		}
	}
	for id, d := range e.loot {
		if zid, ok := entity.ZoneOf(d.Loc); ok && zid == zoneID {
			delete(e.loot, id)
		}
	}
	e.placeOres(z)
	if sp := e.spawnerFor(entity.Overworld{ZoneID: zoneID}); sp != nil {
		sp.acc = 0
	}

	gwlog.Infof("Zone %s regenerated with seed %d, %d enemies culled", zoneID, seed, culled)
	e.broadcast(zoneRegenMsg{
		zoneEvent: zoneEvent{Type: proto.MT_ZONE_EVENT, Action: "regenerated", ZoneID: z.ID, Name: z.Name, Message: z.Name + " has shifted."},
		Rect:      z.Rect,
		Tiles:     e.world.Grid.EncodeRect(z.Rect),
		Portals:   e.world.ZonePortals(zoneID),
	}, "")
	return nil
}

// RegenerateIdleZones rerolls every unoccupied non-default zone
func (e *Engine) RegenerateIdleZones() {
	for _, z := range e.world.Zones {
		if z.Default || e.zoneOccupied(z.ID) {
			continue
		}
		if err := e.RegenerateZone(z.ID); err != nil {
			gwlog.Warnf("regenerate zone %s: %s", z.ID, err)
		}
	}
}
