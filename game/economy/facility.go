// Package economy implements the bank, the shop, equipment changes and the trading post
package economy

import (
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

var facilityLabels = map[world.FacilityKind]string{
	world.Shrine:      "a shrine",
	world.Bank:        "the bank",
	world.Shop:        "the shop",
	world.TradingPost: "the trading post",
}

// RequireFacility rejects ghosts and heroes outside the interaction radius of kind in their zone
func RequireFacility(p *entity.Player, w *world.World, kind world.FacilityKind) *proto.Rejection {
	if p.IsGhost() {
		return proto.Reject(string(kind), "Ghosts cannot do that. Return to a shrine first.")
	}
	zoneID, ok := entity.ZoneOf(p.Loc)
	if !ok {
		return proto.Reject(string(kind), "You must stand at "+facilityLabels[kind]+".")
	}
	z := w.Zone(zoneID)
	if z == nil {
		return proto.Reject(string(kind), "You must stand at "+facilityLabels[kind]+".")
	}
	f, ok := z.Safe.Facility(kind)
	if !ok || !f.InRange(p.X, p.Y) {
		return proto.Reject(string(kind), "You must stand at "+facilityLabels[kind]+".")
	}
	return nil
}
