package sim

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/emberwild/emberwild/engine/clock"
	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/netutil"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/emberwild/emberwild/game/world"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testRand is seeded; forcing a roll pins Float64 so hit checks are predictable
type testRand struct {
	*rand.Rand
	forced bool
	roll   float64
}

func (r *testRand) Float64() float64 {
	if r.forced {
		return r.roll
	}
	return r.Rand.Float64()
}

func (r *testRand) force(v float64) {
	r.forced, r.roll = true, v
}

type fakeConn struct {
	lock   sync.Mutex
	raw    [][]byte
	closed bool
	final  []byte
}

func (c *fakeConn) Packer() netutil.MsgPacker { return netutil.JSONMsgPacker{} }
func (c *fakeConn) RemoteAddr() string        { return "127.0.0.1:1" }

func (c *fakeConn) Write(data []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.raw = append(c.raw, data)
}

func (c *fakeConn) Close(final []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed, c.final = true, final
}

// messages returns every decoded message of type t, the final message included
func (c *fakeConn) messages(t string) []map[string]interface{} {
	c.lock.Lock()
	defer c.lock.Unlock()
	all := c.raw
	if c.final != nil {
		all = append(all[:len(all):len(all)], c.final)
	}
	var out []map[string]interface{}
	for _, data := range all {
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		if m["type"] == t {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) last(t string) map[string]interface{} {
	msgs := c.messages(t)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

type memStore struct {
	saved map[string]*entity.Profile
}

func (m *memStore) Save(id string, data interface{}) {
	m.saved[id] = data.(*entity.Profile)
}

type testEngine struct {
	*Engine
	clock *clock.Mock
	rng   *testRand
	store *memStore
}

const testSeed = 7

func newTestEngine(t *testing.T, admins ...string) *testEngine {
	mock := clock.NewMock(t0)
	rng := &testRand{Rand: rand.New(rand.NewSource(1))}
	store := &memStore{saved: map[string]*entity.Profile{}}
	adminSet := common.StringSet{}
	for _, id := range admins {
		adminSet.Add(id)
	}
	e, err := New(Options{
		Seed:          testSeed,
		Clock:         mock,
		Rand:          rng,
		Store:         store,
		Iterations:    1000,
		AdminProfiles: adminSet,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &testEngine{Engine: e, clock: mock, rng: rng, store: store}
}

// join connects a guest and returns its connection and hero
func (te *testEngine) join(t *testing.T, alias string) (*fakeConn, *entity.Player) {
	conn := &fakeConn{}
	te.Connect(common.ClientID(alias), conn, ConnectParams{})
	p := te.player(common.ClientID(alias))
	if p == nil {
		t.Fatalf("%s did not attach", alias)
	}
	return conn, p
}

func (te *testEngine) send(alias string, msg string) {
	te.HandleMessage(common.ClientID(alias), []byte(msg))
}

// wildSpot is a walkable point of the default zone far from its sanctuary with open ground to the east
func (te *testEngine) wildSpot(t *testing.T) world.Point {
	z := te.world.DefaultZone()
	pt, ok := te.world.RandomWalkable(z.Rect, rand.New(rand.NewSource(3)), 5000, func(x, y float64) bool {
		return z.Safe.Center().DistanceTo(x, y) > z.Safe.Radius+6 && z.Rect.Contains(x+2, y) &&
			te.world.Grid.IsWalkable(x+1, y) && te.world.Grid.IsWalkable(x+2, y)
	})
	if !ok {
		t.Fatal("no walkable spot outside the sanctuary")
	}
	return pt
}

func (te *testEngine) addEnemy(typeID string, loc entity.Location, x, y float64) *entity.Enemy {
	en := entity.NewEnemy(te.genID("enemy-"), entity.EnemyTypes[typeID], loc, x, y, 1)
	te.enemies[en.ID] = en
	te.space(loc).Enter(&en.Node, x, y)
	return en
}

func TestEveryClientTypeHasOneHandler(t *testing.T) {
	for _, mt := range proto.ClientMsgTypes {
		_, ok := routes[mt]
		if !ok {
			t.Errorf("no handler for %q", mt)
		}
	}
	if len(routes) != len(proto.ClientMsgTypes) {
		t.Errorf("%d handlers for %d client message types", len(routes), len(proto.ClientMsgTypes))
	}
}
