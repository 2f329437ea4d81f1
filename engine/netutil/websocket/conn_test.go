package websocket

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	xwebsocket "golang.org/x/net/websocket"
)

type echoHandler struct {
	conn   *Conn
	closes int32
	closed chan struct{}
}

func (h *echoHandler) OnMessage(text []byte) {
	h.conn.Send([]byte("echo:" + string(text)))
}

func (h *echoHandler) OnClose() {
	if atomic.AddInt32(&h.closes, 1) == 1 {
		close(h.closed)
	}
}

func newEchoServer(t *testing.T) (*httptest.Server, chan *echoHandler) {
	handlers := make(chan *echoHandler, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Upgrade(w, r, 1024)
		if err != nil {
			return
		}
		h := &echoHandler{conn: c, closed: make(chan struct{})}
		handlers <- h
		c.Serve(h)
	}))
	t.Cleanup(srv.Close)
	return srv, handlers
}

func TestEchoWithStandardClient(t *testing.T) {
	srv, handlers := newEchoServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, err := xwebsocket.Dial(url, "", "http://localhost/")
	if err != nil {
		t.Fatal(err)
	}

	for _, msg := range []string{"hi", strings.Repeat("a", 500)} {
		if err := xwebsocket.Message.Send(ws, msg); err != nil {
			t.Fatal(err)
		}
		var reply string
		if err := xwebsocket.Message.Receive(ws, &reply); err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, "echo:"+msg, reply)
	}

	h := <-handlers
	ws.Close()
	select {
	case <-h.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose not called")
	}
	h.conn.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.closes))
}

func rawHandshake(t *testing.T, srv *httptest.Server) (net.Conn, *bufio.Reader) {
	conn, err := net.Dial("tcp", strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprintf(conn, "GET /ws HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nConnection: keep-alive, Upgrade\r\n"+
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version: 13\r\n\r\n")
	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", resp.Header.Get("Sec-WebSocket-Accept"))
	return conn, br
}

func readFrame(t *testing.T, br *bufio.Reader) Frame {
	d := NewDecoder(1<<20, false)
	buf := make([]byte, 1)
	for {
		if _, err := io.ReadFull(br, buf); err != nil {
			t.Fatal(err)
		}
		frames, err := d.Feed(buf)
		if err != nil {
			t.Fatal(err)
		}
		if len(frames) > 0 {
			return frames[0]
		}
	}
}

func TestPingPongAndClose(t *testing.T) {
	srv, handlers := newEchoServer(t)
	conn, br := rawHandshake(t, srv)
	defer conn.Close()
	key := [4]byte{0xA, 0xB, 0xC, 0xD}

	conn.Write(EncodeFrame(OpPing, []byte("tick"), &key))
	pong := readFrame(t, br)
	assert.Equal(t, OpPong, pong.Opcode)
	assert.Equal(t, "tick", string(pong.Payload))

	conn.Write(EncodeFrame(OpClose, ClosePayload(CloseGoingAway, ""), &key))
	closeFrame := readFrame(t, br)
	assert.Equal(t, OpClose, closeFrame.Opcode)
	assert.Equal(t, []byte{0x03, 0xE9}, closeFrame.Payload)

	h := <-handlers
	select {
	case <-h.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose not called")
	}
}

func TestProtocolErrorClosesConnection(t *testing.T) {
	srv, handlers := newEchoServer(t)
	conn, br := rawHandshake(t, srv)
	defer conn.Close()

	// unmasked frame from a client
	conn.Write(EncodeFrame(OpText, []byte("bad"), nil))
	closeFrame := readFrame(t, br)
	assert.Equal(t, OpClose, closeFrame.Opcode)

	h := <-handlers
	select {
	case <-h.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose not called")
	}
	assert.T(t, h.conn.IsClosed(), "connection should be closed")
}

func TestFramesSentWithHandshake(t *testing.T) {
	srv, _ := newEchoServer(t)
	conn, err := net.Dial("tcp", strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	key := [4]byte{1, 1, 1, 1}
	req := "GET /ws HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version: 13\r\n\r\n"
	conn.Write(append([]byte(req), EncodeFrame(OpText, []byte("early"), &key)...))

	br := bufio.NewReader(conn)
	if _, err := http.ReadResponse(br, nil); err != nil {
		t.Fatal(err)
	}
	reply := readFrame(t, br)
	assert.Equal(t, "echo:early", string(reply.Payload))
}

func TestRejectBadHandshake(t *testing.T) {
	srv, _ := newEchoServer(t)
	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, _ := http.NewRequest("GET", srv.URL+"/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Key", "abc")
	req.Header.Set("Sec-WebSocket-Version", "8")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	assert.Equal(t, "13", resp.Header.Get("Sec-WebSocket-Version"))
}
