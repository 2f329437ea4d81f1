package sim

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func (c *fakeConn) isClosed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

func waitFor(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestRunnerDrivesEngineAndShutsDown(t *testing.T) {
	te := newTestEngine(t)
	r := NewRunner(te.Engine, RunnerConfig{TickInterval: 5 * time.Millisecond, SaveInterval: time.Hour})
	go r.Run()

	conn := &fakeConn{}
	r.Connected("a", conn, ConnectParams{})
	waitFor(t, "a snapshot", func() bool { return len(conn.messages("state")) > 0 })
	r.Message("a", []byte(`{"type":"chat","message":"hello"}`))
	waitFor(t, "the chat echo", func() bool { return len(conn.messages("chat")) > 0 })

	r.Stop()
	assert.T(t, conn.isClosed(), "connections closed at shutdown")
	assert.Equal(t, "forced-logout", conn.last("control")["action"])
	assert.Equal(t, 1, len(te.store.saved))

	late := &fakeConn{}
	r.Connected("b", late, ConnectParams{})
	assert.T(t, late.isClosed(), "connections after shutdown are refused")
	r.Stop()
}

func TestPushDoesNotBlockOnceStopped(t *testing.T) {
	te := newTestEngine(t)
	r := NewRunner(te.Engine, RunnerConfig{})
	// a full queue and a loop that has already returned
	r.inbound = make(chan event)
	r.runState.Store(rsRunning)
	close(r.stop)

	conn := &fakeConn{}
	done := make(chan struct{})
	go func() {
		r.Connected("a", conn, ConnectParams{})
		r.Message("a", []byte(`{"type":"chat","message":"late"}`))
		r.Closed("a")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("push blocked after the loop stopped")
	}
	assert.T(t, conn.isClosed(), "refused connection is closed")
}
