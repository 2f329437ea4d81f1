package websocket

import (
	"encoding/binary"
	"net"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/netutil"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// ErrClosed is returned when sending on a closed connection
var ErrClosed = errors.New("websocket connection closed")

// Handler receives the events of one connection on its read goroutine
type Handler interface {
	OnMessage(text []byte)
	OnClose()
}

// Conn is a server-side websocket connection
type Conn struct {
	conn      net.Conn
	early     []byte
	decoder   *Decoder
	writeLock sync.Mutex
	closed    xnsyncutil.AtomicBool
	closeOnce sync.Once
}

func newConn(conn net.Conn, early []byte, maxPayload int) *Conn {
	if maxPayload <= 0 {
		maxPayload = consts.WS_MAX_PAYLOAD
	}
	return &Conn{
		conn:    conn,
		early:   early,
		decoder: NewDecoder(maxPayload, true),
	}
}

// RemoteAddr returns the peer address
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// IsClosed reports whether Close has been called
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Serve reads frames until the connection ends; h.OnClose is called exactly once when it does
func (c *Conn) Serve(h Handler) {
	defer func() {
		if err := recover(); err != nil {
			gwlog.TraceError("websocket %s: handler paniced: %v", c.RemoteAddr(), err)
		}
		c.Close()
		c.closeOnce.Do(h.OnClose)
	}()

	if len(c.early) > 0 {
		early := c.early
		c.early = nil
		if !c.handleChunk(h, early) {
			return
		}
	}

	buf := make([]byte, consts.WS_READ_BUFFSIZE)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 && !c.handleChunk(h, buf[:n]) {
			return
		}
		if err != nil {
			if !netutil.IsConnectionError(err) {
				gwlog.Warnf("websocket %s: read failed: %s", c.RemoteAddr(), err)
			}
			return
		}
	}
}

// handleChunk returns false once the connection should stop reading
func (c *Conn) handleChunk(h Handler, chunk []byte) bool {
	frames, err := c.decoder.Feed(chunk)
	for _, frame := range frames {
		if !c.handleFrame(h, frame) {
			return false
		}
	}
	if err != nil {
		code := CloseProtocolError
		if perr, ok := err.(*ProtocolError); ok {
			code = perr.Code
		}
		gwlog.Warnf("websocket %s: %s", c.RemoteAddr(), err)
		c.writeFrame(OpClose, ClosePayload(code, ""), consts.WS_WRITE_TIMEOUT)
		return false
	}
	return true
}

func (c *Conn) handleFrame(h Handler, frame Frame) bool {
	switch frame.Opcode {
	case OpText:
		if !utf8.Valid(frame.Payload) {
			c.writeFrame(OpClose, ClosePayload(CloseInvalidPayload, "invalid utf-8"), consts.WS_WRITE_TIMEOUT)
			return false
		}
		h.OnMessage(frame.Payload)
	case OpBinary:
		// the game protocol is text only
	case OpPing:
		c.writeFrame(OpPong, frame.Payload, consts.WS_WRITE_TIMEOUT)
	case OpPong:
	case OpClose:
		code := CloseNormal
		if len(frame.Payload) >= 2 {
			code = int(binary.BigEndian.Uint16(frame.Payload[:2]))
		}
		c.writeFrame(OpClose, ClosePayload(code, ""), consts.WS_WRITE_TIMEOUT)
		return false
	}
	return true
}

func (c *Conn) writeFrame(op Opcode, payload []byte, timeout time.Duration) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := c.conn.Write(EncodeFrame(op, payload, nil)); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// Send writes a text frame
func (c *Conn) Send(text []byte) error {
	return c.writeFrame(OpText, text, consts.WS_WRITE_TIMEOUT)
}

// SendBinary writes a binary frame
func (c *Conn) SendBinary(b []byte) error {
	return c.writeFrame(OpBinary, b, consts.WS_WRITE_TIMEOUT)
}

// Close closes the socket; calling it more than once is harmless
func (c *Conn) Close() {
	if c.closed.Load() {
		return
	}
	c.writeLock.Lock()
	if !c.closed.Load() {
		c.closed.Store(true)
		c.conn.Close()
	}
	c.writeLock.Unlock()
}

// CloseWithMessage delivers text and a close frame, then closes; the socket is closed after timeout regardless
func (c *Conn) CloseWithMessage(text []byte, timeout time.Duration) {
	force := time.AfterFunc(timeout, func() {
		c.conn.Close()
		c.Close()
	})
	go func() {
		if text != nil {
			c.writeFrame(OpText, text, timeout)
		}
		c.writeFrame(OpClose, ClosePayload(CloseNormal, ""), timeout)
		force.Stop()
		c.Close()
	}()
}
