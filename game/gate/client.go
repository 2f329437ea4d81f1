// Package gate accepts websocket clients and feeds their messages to the simulation.
package gate

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/netutil"
	"github.com/emberwild/emberwild/engine/netutil/websocket"
	"github.com/emberwild/emberwild/game/sim"
)

// Sink receives connection events, as sim.Runner does
type Sink interface {
	Connected(alias common.ClientID, conn sim.Conn, params sim.ConnectParams)
	Message(alias common.ClientID, data []byte)
	Closed(alias common.ClientID)
}

// socket is the part of a websocket connection a ClientProxy writes to
type socket interface {
	Send(text []byte) error
	SendBinary(b []byte) error
	CloseWithMessage(text []byte, timeout time.Duration)
	RemoteAddr() string
}

// ClientProxy is one websocket client; writes go through a bounded queue drained by its own goroutine
type ClientProxy struct {
	clientid common.ClientID
	ws       socket
	packer   netutil.MsgPacker
	sink     Sink

	lock    sync.Mutex
	queue   chan []byte
	closing bool
}

func newClientProxy(ws socket, packer netutil.MsgPacker, sink Sink) *ClientProxy {
	cp := &ClientProxy{
		clientid: common.GenClientID(),
		ws:       ws,
		packer:   packer,
		sink:     sink,
		queue:    make(chan []byte, consts.CLIENT_SEND_QUEUE_SIZE),
	}
	go cp.sendRoutine()
	return cp
}

func (cp *ClientProxy) String() string {
	return fmt.Sprintf("ClientProxy<%s@%s>", cp.clientid, cp.ws.RemoteAddr())
}

// Packer returns the outbound codec chosen by the client
func (cp *ClientProxy) Packer() netutil.MsgPacker {
	return cp.packer
}

// RemoteAddr returns the peer address
func (cp *ClientProxy) RemoteAddr() string {
	return cp.ws.RemoteAddr()
}

// Write queues a packed message; a client that cannot keep up is disconnected
func (cp *ClientProxy) Write(data []byte) {
	cp.lock.Lock()
	defer cp.lock.Unlock()
	if cp.closing {
		return
	}
	select {
	case cp.queue <- data:
	default:
		gwlog.Warnf("%s send queue is full, dropping connection", cp)
		cp.closing = true
		close(cp.queue)
	}
}

// Close queues final, if any, and closes the socket once the queue has been sent
func (cp *ClientProxy) Close(final []byte) {
	cp.lock.Lock()
	defer cp.lock.Unlock()
	if cp.closing {
		return
	}
	cp.closing = true
	// a full queue loses its oldest messages, never the final one
	for final != nil {
		select {
		case cp.queue <- final:
			final = nil
		default:
			select {
			case <-cp.queue:
			default:
			}
		}
	}
	close(cp.queue)
}

func (cp *ClientProxy) sendRoutine() {
	for data := range cp.queue {
		var err error
		if cp.packer.Binary() {
			err = cp.ws.SendBinary(data)
		} else {
			err = cp.ws.Send(data)
		}
		if err != nil {
			gwlog.Debugf("%s send failed: %s", cp, err)
			break
		}
	}
	cp.ws.CloseWithMessage(nil, consts.CONNECTION_CLOSE_TIMEOUT)
}

// OnMessage forwards one inbound frame to the simulation
func (cp *ClientProxy) OnMessage(text []byte) {
	cp.sink.Message(cp.clientid, text)
}

// OnClose tells the simulation the client is gone
func (cp *ClientProxy) OnClose() {
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s disconnected", cp)
	}
	cp.Close(nil)
	cp.sink.Closed(cp.clientid)
}

// Handler upgrades /ws requests; the query selects the codec and the hero to resume
func Handler(sink Sink) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Upgrade(w, r, consts.WS_MAX_PAYLOAD)
		if err != nil {
			gwlog.Debugf("websocket upgrade from %s failed: %s", r.RemoteAddr, err)
			return
		}
		q := r.URL.Query()
		cp := newClientProxy(conn, netutil.PackerByName(q.Get("codec")), sink)
		sink.Connected(cp.clientid, cp, sim.ConnectParams{
			ProfileID: q.Get("profile"),
			Session:   q.Get("session"),
		})
		go conn.Serve(cp)
	})
}
