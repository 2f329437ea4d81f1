package sim

import (
	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/pkg/errors"
)

// Loader reads every stored record, as storage.Storage does
type Loader interface {
	LoadAll(newRecord func() interface{}, each func(id string, record interface{})) error
}

// LoadProfiles restores all stored heroes before any client connects
func (e *Engine) LoadProfiles(l Loader) (int, error) {
	n := 0
	err := l.LoadAll(func() interface{} {
		return &entity.Profile{}
	}, func(id string, record interface{}) {
		pr := record.(*entity.Profile)
		if pr.ID == "" {
			pr.ID = common.ProfileID(id)
		}
		e.LoadProfile(pr)
		n++
	})
	if err != nil {
		return n, errors.Wrap(err, "load profiles")
	}
	gwlog.Infof("Loaded %d profiles", n)
	return n, nil
}

// SaveDirty queues every changed profile for saving and returns how many were queued
func (e *Engine) SaveDirty() int {
	if len(e.dirty) == 0 {
		return 0
	}
	now := e.clock.Now()
	e.eachPlayer(func(s *session, p *entity.Player) {
		if e.dirty.Contains(p.Profile.ID) {
			p.SyncProfile(now)
		}
	})
	n := 0
	for id := range e.dirty {
		pr := e.profiles[id]
		if pr == nil {
			continue
		}
		if e.store != nil {
			e.store.Save(string(id), pr.Clone())
		}
		n++
	}
	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("queued %d profiles for saving", n)
	}
	e.dirty = common.ProfileIDSet{}
	return n
}

// SaveAll marks every profile changed and saves them
func (e *Engine) SaveAll() int {
	for id := range e.profiles {
		e.dirty.Add(id)
	}
	return e.SaveDirty()
}

// Shutdown closes every connection, returns listed items to their sellers and saves everything
func (e *Engine) Shutdown() int {
	for _, s := range e.sessions {
		e.closeSession(s, proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlForcedLogout, Message: "The server is shutting down."})
	}
	refunded := e.trading.RefundAll(e)
	if len(refunded) > 0 {
		gwlog.Infof("Refunded %d trading post listings", len(refunded))
	}
	return e.SaveAll()
}
