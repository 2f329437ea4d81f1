package websocket

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes Sec-WebSocket-Accept for a client key
func AcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(acceptGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func headerHasToken(h http.Header, name string, token string) bool {
	for _, v := range h[http.CanonicalHeaderKey(name)] {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

// CheckHandshake validates an upgrade request and returns the client key
func CheckHandshake(r *http.Request) (string, int, error) {
	if r.Method != http.MethodGet {
		return "", http.StatusMethodNotAllowed, errors.New("websocket upgrade requires GET")
	}
	if !headerHasToken(r.Header, "Connection", "upgrade") || !headerHasToken(r.Header, "Upgrade", "websocket") {
		return "", http.StatusBadRequest, errors.New("not a websocket upgrade request")
	}
	if r.Header.Get("Sec-WebSocket-Version") != "13" {
		return "", http.StatusUpgradeRequired, errors.New("unsupported websocket version")
	}
	key := strings.TrimSpace(r.Header.Get("Sec-WebSocket-Key"))
	if key == "" {
		return "", http.StatusBadRequest, errors.New("missing Sec-WebSocket-Key")
	}
	return key, 0, nil
}

// Upgrade answers the handshake and takes over the underlying connection
//
// On failure an HTTP error has already been written to w.
func Upgrade(w http.ResponseWriter, r *http.Request, maxPayload int) (*Conn, error) {
	key, status, err := CheckHandshake(r)
	if err != nil {
		if status == http.StatusUpgradeRequired {
			w.Header().Set("Sec-WebSocket-Version", "13")
		}
		http.Error(w, err.Error(), status)
		return nil, err
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "websocket not supported", http.StatusInternalServerError)
		return nil, errors.New("response writer cannot hijack")
	}
	netConn, brw, err := hj.Hijack()
	if err != nil {
		return nil, errors.Wrap(err, "hijack")
	}

	// bytes the client sent right after the request belong to the first frames
	var early []byte
	if n := brw.Reader.Buffered(); n > 0 {
		early = make([]byte, n)
		if _, err := brw.Reader.Read(early); err != nil {
			netConn.Close()
			return nil, errors.Wrap(err, "read buffered handshake bytes")
		}
	}

	resp := fmt.Sprintf("HTTP/1.1 101 Switching Protocols\r\n"+
		"Upgrade: websocket\r\n"+
		"Connection: Upgrade\r\n"+
		"Sec-WebSocket-Accept: %s\r\n\r\n", AcceptKey(key))
	if _, err := netConn.Write([]byte(resp)); err != nil {
		netConn.Close()
		return nil, errors.Wrap(err, "write handshake response")
	}

	return newConn(netConn, early, maxPayload), nil
}
