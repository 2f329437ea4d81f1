package netutil

import (
	"io"
	"net"
	"strings"

	"github.com/pkg/errors"
	xnetutil "golang.org/x/net/netutil"
)

// IsConnectionError check if the error is a connection error (close)
func IsConnectionError(_err interface{}) bool {
	err, ok := _err.(error)
	if !ok {
		return false
	}

	err = errors.Cause(err)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}
	if strings.Contains(err.Error(), "use of closed network connection") {
		return true
	}

	neterr, ok := err.(net.Error)
	if !ok {
		return false
	}
	if neterr.Timeout() {
		return false
	}

	return true
}

// ListenTCP listens on addr and refuses to hold more than maxConns accepted connections at once
func ListenTCP(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	if maxConns > 0 {
		ln = xnetutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}
