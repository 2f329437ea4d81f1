package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/netutil"
	"github.com/emberwild/emberwild/game/sim"
)

type fakeSocket struct {
	lock   sync.Mutex
	text   [][]byte
	binary [][]byte
	closed chan struct{}
	// when set, the first Send signals entered and waits for hold to close
	hold    chan struct{}
	entered chan struct{}
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{closed: make(chan struct{})}
}

func (s *fakeSocket) Send(text []byte) error {
	if s.hold != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
		<-s.hold
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.text = append(s.text, text)
	return nil
}

func (s *fakeSocket) SendBinary(b []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.binary = append(s.binary, b)
	return nil
}

func (s *fakeSocket) CloseWithMessage(text []byte, timeout time.Duration) {
	close(s.closed)
}

func (s *fakeSocket) RemoteAddr() string { return "127.0.0.1:9" }

func (s *fakeSocket) waitClosed(t *testing.T) {
	select {
	case <-s.closed:
	case <-time.After(time.Second):
		t.Fatal("socket was not closed")
	}
}

type recordingSink struct {
	lock     sync.Mutex
	messages []string
	closed   []common.ClientID
}

func (s *recordingSink) Connected(alias common.ClientID, conn sim.Conn, params sim.ConnectParams) {}

func (s *recordingSink) Message(alias common.ClientID, data []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.messages = append(s.messages, string(data))
}

func (s *recordingSink) Closed(alias common.ClientID) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = append(s.closed, alias)
}

func TestCloseDeliversFinalMessageLast(t *testing.T) {
	ws := newFakeSocket()
	cp := newClientProxy(ws, netutil.JSONMsgPacker{}, &recordingSink{})
	cp.Write([]byte(`{"type":"state"}`))
	cp.Close([]byte(`{"type":"control"}`))
	cp.Write([]byte(`{"type":"late"}`))
	ws.waitClosed(t)

	assert.Equal(t, 2, len(ws.text))
	assert.Equal(t, `{"type":"control"}`, string(ws.text[1]))
	assert.Equal(t, 0, len(ws.binary))
}

func TestBinaryCodecUsesBinaryFrames(t *testing.T) {
	ws := newFakeSocket()
	cp := newClientProxy(ws, netutil.MessagePackMsgPacker{}, &recordingSink{})
	cp.Write([]byte{0x81, 0xa1, 0x61, 0x01})
	cp.Close(nil)
	ws.waitClosed(t)

	assert.Equal(t, 1, len(ws.binary))
	assert.Equal(t, 0, len(ws.text))
}

func TestOnCloseNotifiesSink(t *testing.T) {
	ws := newFakeSocket()
	sink := &recordingSink{}
	cp := newClientProxy(ws, netutil.JSONMsgPacker{}, sink)
	cp.OnMessage([]byte(`{"type":"input"}`))
	cp.OnClose()
	ws.waitClosed(t)

	assert.Equal(t, []string{`{"type":"input"}`}, sink.messages)
	assert.Equal(t, []common.ClientID{cp.clientid}, sink.closed)
}

func TestCloseKeepsFinalMessageWhenQueueIsFull(t *testing.T) {
	ws := newFakeSocket()
	ws.hold = make(chan struct{})
	ws.entered = make(chan struct{}, 1)
	cp := newClientProxy(ws, netutil.JSONMsgPacker{}, &recordingSink{})
	cp.Write([]byte(`{"type":"first"}`))
	<-ws.entered
	for i := 0; i < consts.CLIENT_SEND_QUEUE_SIZE; i++ {
		cp.Write([]byte(`{"type":"state"}`))
	}
	cp.Close([]byte(`{"type":"control"}`))
	close(ws.hold)
	ws.waitClosed(t)

	assert.Equal(t, consts.CLIENT_SEND_QUEUE_SIZE+1, len(ws.text))
	assert.Equal(t, `{"type":"first"}`, string(ws.text[0]))
	assert.Equal(t, `{"type":"control"}`, string(ws.text[len(ws.text)-1]))
}
