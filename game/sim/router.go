package sim

import (
	"encoding/json"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/gwutils"
	"github.com/emberwild/emberwild/game/proto"
)

// handler runs one decoded client message
type handler struct {
	// attached handlers need a hero on the connection
	attached bool
	run      func(e *Engine, s *session, raw []byte)
}

// withPayload decodes raw into T before calling fn; malformed payloads are dropped
func withPayload[T any](attached bool, fn func(e *Engine, s *session, msg *T)) handler {
	return handler{
		attached: attached,
		run: func(e *Engine, s *session, raw []byte) {
			msg := new(T)
			if err := json.Unmarshal(raw, msg); err != nil {
				gwlog.Debugf("client %s: malformed %T: %s", s.alias, msg, err)
				return
			}
			fn(e, s, msg)
		},
	}
}

var routes = map[proto.MsgType]handler{
	proto.MT_INPUT:   withPayload(true, (*Engine).handleInput),
	proto.MT_ACTION:  withPayload(true, (*Engine).handleAction),
	proto.MT_CHAT:    withPayload(true, (*Engine).handleChat),
	proto.MT_GATHER:  withPayload(true, (*Engine).handleGather),
	proto.MT_LOOT:    withPayload(true, (*Engine).handleLoot),
	proto.MT_BANK:    withPayload(true, (*Engine).handleBank),
	proto.MT_SHOP:    withPayload(true, (*Engine).handleShop),
	proto.MT_TRADING: withPayload(true, (*Engine).handleTrading),
	proto.MT_PORTAL:  withPayload(true, (*Engine).handlePortal),
	proto.MT_EQUIP:   withPayload(true, (*Engine).handleEquip),
	proto.MT_AUTH:    withPayload(false, (*Engine).handleAuth),
	proto.MT_PROFILE: withPayload(true, (*Engine).handleProfile),
	proto.MT_ADMIN:   withPayload(true, (*Engine).handleAdmin),
}

// HandleMessage dispatches one raw client message; a panicking handler only loses that message
func (e *Engine) HandleMessage(alias common.ClientID, raw []byte) {
	s := e.sessions[alias]
	if s == nil || s.closed {
		return
	}
	t, err := proto.DecodeEnvelope(raw)
	if err != nil {
		gwlog.Debugf("client %s: malformed message: %s", alias, err)
		return
	}
	h, ok := routes[t]
	if !ok {
		gwlog.Debugf("client %s: unknown message type %q", alias, t)
		return
	}
	if consts.DEBUG_PACKETS {
		gwlog.Debugf("client %s >>> %s", alias, raw)
	}
	if h.attached && s.player == nil {
		e.control(s, proto.ControlAuthRequired, "Log in or choose a hero first.")
		return
	}
	gwutils.RunPanicless(func() { h.run(e, s, raw) }, "client %s: handler of %s", alias, t)
}
