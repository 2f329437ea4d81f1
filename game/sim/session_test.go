package sim

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/game/entity"
)

// settle runs posted callbacks until the auth job of alias has answered
func (te *testEngine) settle(t *testing.T, alias string) {
	deadline := time.Now().Add(5 * time.Second)
	for {
		te.post.Tick()
		s := te.sessions[common.ClientID(alias)]
		if s == nil || !s.authPending {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("auth job did not finish")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestGuestGetsFreshHero(t *testing.T) {
	te := newTestEngine(t)
	conn, p := te.join(t, "a")
	assert.T(t, p.Profile.ID.IsValid(), "guest profile id")
	assert.Equal(t, te.world.DefaultZone().ID, p.ZoneID())
	assert.T(t, te.inSafeZone(p.Loc, p.X, p.Y), "guest spawns safe")
	init := conn.last("init")
	assert.T(t, init != nil, "init sent")
	you := init["you"].(map[string]interface{})
	assert.Equal(t, string(p.Profile.ID), you["profileId"])
}

func TestReconnectRestoresPositionAndHealth(t *testing.T) {
	te := newTestEngine(t)
	spot := te.wildSpot(t)
	pr := entity.NewProfile(common.GenProfileID(), t0)
	pr.ZoneID = te.world.DefaultZone().ID
	pr.X, pr.Y = spot.X, spot.Y
	pr.Health = 42
	te.LoadProfile(pr)

	te.Connect("a", &fakeConn{}, ConnectParams{ProfileID: string(pr.ID)})
	p := te.player("a")
	assert.Equal(t, spot.X, p.X)
	assert.Equal(t, spot.Y, p.Y)
	assert.Equal(t, 42.0, p.Health)

	te.Disconnect("a")
	pr.Health = 0
	pr.X, pr.Y = -50, -50
	te.Connect("b", &fakeConn{}, ConnectParams{ProfileID: string(pr.ID)})
	p = te.player("b")
	assert.Equal(t, 1.0, p.Health)
	assert.T(t, te.inSafeZone(p.Loc, p.X, p.Y), "unwalkable position falls back to a safe spawn")
}

func TestOneLiveSessionPerProfile(t *testing.T) {
	te := newTestEngine(t)
	first, p := te.join(t, "a")
	id := string(p.Profile.ID)
	watcher, _ := te.join(t, "w")

	second := &fakeConn{}
	te.Connect("b", second, ConnectParams{ProfileID: id})
	assert.T(t, first.closed, "previous connection closed")
	assert.Equal(t, "forced-logout", first.last("control")["action"])
	assert.T(t, te.player("a") == nil, "old alias detached")
	assert.Equal(t, 2, te.PlayerCount())
	assert.Equal(t, id, string(te.player("b").Profile.ID))

	left := watcher.messages("disconnect")
	assert.Equal(t, 1, len(left))
	assert.Equal(t, "a", left[0]["id"])

	te.Disconnect("a")
	assert.Equal(t, 2, te.PlayerCount())
}

func TestBannedProfileIsRejected(t *testing.T) {
	te := newTestEngine(t)
	pr := entity.NewProfile(common.GenProfileID(), t0)
	pr.Banned = true
	te.LoadProfile(pr)
	conn := &fakeConn{}
	te.Connect("a", conn, ConnectParams{ProfileID: string(pr.ID)})
	assert.T(t, conn.closed, "banned connection closed")
	assert.Equal(t, "connection-rejected", conn.last("control")["action"])
	assert.Equal(t, 0, te.PlayerCount())
}

func TestUnattachedConnectionNeedsAuth(t *testing.T) {
	te := newTestEngine(t)
	conn := &fakeConn{}
	te.Connect("a", conn, ConnectParams{Session: "bogus"})
	assert.Equal(t, "auth-required", conn.last("control")["action"])
	assert.T(t, te.player("a") == nil, "no hero for an unknown session")

	before := len(conn.messages("control"))
	te.send("a", `{"type":"chat","message":"hi"}`)
	assert.Equal(t, before+1, len(conn.messages("control")))
	assert.Equal(t, "auth-required", conn.last("control")["action"])
}

func TestRegisterThenLogInWithSession(t *testing.T) {
	te := newTestEngine(t)
	conn, p := te.join(t, "a")
	id := p.Profile.ID

	te.send("a", `{"type":"auth","action":"register","name":"Ember_One","password":"hunter2hunter2"}`)
	te.settle(t, "a")
	ctl := conn.messages("control")
	var token string
	for _, c := range ctl {
		if c["action"] == "session" {
			token = c["token"].(string)
		}
	}
	assert.T(t, token != "", "session token issued")
	assert.T(t, p.Profile.Account != nil, "guest hero now has an account")
	assert.Equal(t, "ember_one", p.Profile.Account.NameKey)

	te.Disconnect("a")
	locked := &fakeConn{}
	te.Connect("b", locked, ConnectParams{ProfileID: string(id)})
	assert.Equal(t, "auth-required", locked.last("control")["action"])
	assert.T(t, te.player("b") == nil, "protected hero needs a login")

	resumed := &fakeConn{}
	te.Connect("c", resumed, ConnectParams{Session: token})
	assert.Equal(t, id, te.player("c").Profile.ID)

	te.send("b", `{"type":"auth","action":"login","name":"EMBER_ONE","password":"wrong-password"}`)
	te.settle(t, "b")
	assert.Equal(t, "auth-error", locked.last("control")["action"])
	te.send("b", `{"type":"auth","action":"login","name":"EMBER_ONE","password":"hunter2hunter2"}`)
	te.settle(t, "b")
	assert.Equal(t, id, te.player("b").Profile.ID)
	assert.T(t, resumed.closed, "login elsewhere evicts the resumed session")
}

func TestSaveDirtyClonesChangedProfiles(t *testing.T) {
	te := newTestEngine(t)
	_, p := te.join(t, "a")
	p.Inventory.Add(entity.Coins, 7)
	te.Changed(p.Profile.ID)
	assert.T(t, te.SaveDirty() >= 1, "dirty profile saved")
	saved := te.store.saved[string(p.Profile.ID)]
	assert.Equal(t, 7, saved.Inventory.Count(entity.Coins))

	p.Inventory.Add(entity.Coins, 1)
	assert.Equal(t, 7, saved.Inventory.Count(entity.Coins))
	assert.Equal(t, 0, te.SaveDirty())
}

func TestRegisterReservesNameUntilAnswered(t *testing.T) {
	te := newTestEngine(t)
	te.join(t, "a")
	other, _ := te.join(t, "b")

	te.send("a", `{"type":"auth","action":"register","name":"Cinder","password":"hunter2hunter2"}`)
	te.send("b", `{"type":"auth","action":"register","name":"cinder","password":"hunter2hunter2"}`)
	rej := other.last("control")
	assert.Equal(t, "auth-error", rej["action"])
	assert.Equal(t, "name", rej["field"])

	// the first connection goes away before its key is derived
	te.Disconnect("a")
	deadline := time.Now().Add(5 * time.Second)
	for {
		te.post.Tick()
		if _, held := te.registry.ProfileByName("cinder"); !held {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("name was never released")
		}
		time.Sleep(time.Millisecond)
	}

	te.send("b", `{"type":"auth","action":"register","name":"cinder","password":"hunter2hunter2"}`)
	te.settle(t, "b")
	assert.Equal(t, "session", other.last("control")["action"])
	id, _ := te.registry.ProfileByName("cinder")
	assert.Equal(t, te.player("b").Profile.ID, id)
}
