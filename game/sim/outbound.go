package sim

import (
	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/netutil"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
)

func pack(packer netutil.MsgPacker, msg interface{}) []byte {
	data, err := packer.PackMsg(msg, nil)
	if err != nil {
		gwlog.Errorf("pack %T failed: %s", msg, err)
		return nil
	}
	return data
}

// send delivers msg to one connection
func (e *Engine) send(s *session, msg interface{}) {
	if s == nil || s.closed {
		return
	}
	if data := pack(s.conn.Packer(), msg); data != nil {
		s.conn.Write(data)
	}
}

func (e *Engine) reply(s *session, t proto.MsgType, action string, rej *proto.Rejection) {
	e.send(s, proto.Failure(t, action, rej))
}

func (e *Engine) control(s *session, action, message string) {
	e.send(s, proto.Control{Type: proto.MT_CONTROL, Action: action, Message: message})
}

// blocked tells a hero an action is not allowed right now
func (e *Engine) blocked(s *session, message string) {
	e.control(s, proto.ControlBlocked, message)
}

// broadcast packs msg once per codec and sends it to every attached hero except skip
func (e *Engine) broadcast(msg interface{}, skip common.ClientID) {
	packed := map[netutil.MsgPacker][]byte{}
	for alias, s := range e.sessions {
		if alias == skip || s.player == nil || s.closed {
			continue
		}
		packer := s.conn.Packer()
		data, ok := packed[packer]
		if !ok {
			data = pack(packer, msg)
			packed[packer] = data
		}
		if data != nil {
			s.conn.Write(data)
		}
	}
}

// broadcastAt sends msg to the heroes sharing a location
func (e *Engine) broadcastAt(loc entity.Location, msg interface{}) {
	packed := map[netutil.MsgPacker][]byte{}
	e.eachPlayer(func(s *session, p *entity.Player) {
		if s.closed || !entity.SameLocation(p.Loc, loc) {
			return
		}
		packer := s.conn.Packer()
		data, ok := packed[packer]
		if !ok {
			data = pack(packer, msg)
			packed[packer] = data
		}
		if data != nil {
			s.conn.Write(data)
		}
	})
}

func (e *Engine) sendInventory(s *session, p *entity.Player) {
	e.send(s, inventoryMsg{
		Type:      proto.MT_INVENTORY,
		Inventory: p.Inventory,
		Bank:      p.Bank,
		Equipment: p.Equipment,
		OwnedGear: p.OwnedGear.ToList(),
		MaxHealth: p.MaxHealth,
	})
}
