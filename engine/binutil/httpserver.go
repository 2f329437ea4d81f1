package binutil

import (
	"context"
	"encoding/json"
	"expvar"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/gwutils"
	"github.com/emberwild/emberwild/engine/netutil"
	"github.com/pkg/errors"
)

const statusTimeout = 2 * time.Second

// HTTPOptions configures the routes served beside the websocket endpoint
type HTTPOptions struct {
	PublicDir string
	// StorageStatus feeds /status/persistence
	StorageStatus func() interface{}
	WebSocket     http.Handler
}

// NewHTTPHandler builds the mux for static files, /status/persistence, /debug/vars and /ws
func NewHTTPHandler(opts HTTPOptions) http.Handler {
	mux := http.NewServeMux()
	if opts.WebSocket != nil {
		mux.Handle("/ws", opts.WebSocket)
	}
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/status/persistence", func(w http.ResponseWriter, r *http.Request) {
		servePersistenceStatus(w, r, opts.StorageStatus)
	})
	mux.Handle("/", NewStaticHandler(opts.PublicDir))
	return mux
}

func servePersistenceStatus(w http.ResponseWriter, r *http.Request, status func() interface{}) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]interface{}{
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	if status != nil {
		resp["storage"] = status()
	}
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()
	if stats, err := gwutils.GetProcessStats(ctx, runtime.NumGoroutine()); err == nil {
		resp["process"] = stats
	} else {
		gwlog.Debugf("process stats unavailable: %s", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(resp)
}

type staticHandler struct {
	root string
	// real is root with symlinks resolved
	real string
}

// NewStaticHandler serves GET and HEAD requests from root; paths escaping root are refused
func NewStaticHandler(root string) http.Handler {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		real = abs
	}
	return &staticHandler{root: abs, real: real}
}

func within(root, full string) bool {
	rel, err := filepath.Rel(root, full)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolve maps a URL path onto the public directory, or returns false when it would escape
func (h *staticHandler) resolve(urlPath string) (string, bool) {
	for _, segment := range strings.Split(urlPath, "/") {
		if segment == ".." {
			return "", false
		}
	}
	if strings.ContainsRune(urlPath, 0) || strings.Contains(urlPath, "\\") {
		return "", false
	}
	clean := path.Clean("/" + urlPath)
	full := filepath.Join(h.root, filepath.FromSlash(clean))
	if !within(h.root, full) {
		return "", false
	}
	return full, true
}

// contained reports whether full, with symlinks followed, still lies under the public directory
func (h *staticHandler) contained(full string) bool {
	target, err := filepath.EvalSymlinks(full)
	return err == nil && within(h.real, target)
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	full, ok := h.resolve(r.URL.Path)
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	if !h.contained(full) {
		gwlog.Warnf("static: %s links outside %s", r.URL.Path, h.root)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// HTTPServer is a running listener; stop it with Shutdown
type HTTPServer struct {
	server   *http.Server
	listener net.Listener
}

// StartHTTPServer listens on addr and serves handler in the background
func StartHTTPServer(addr string, maxConns int, handler http.Handler) (*HTTPServer, error) {
	ln, err := netutil.ListenTCP(addr, maxConns)
	if err != nil {
		return nil, err
	}
	srv := &HTTPServer{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
	}
	gwlog.Infof("http server listening on %s", ln.Addr())
	go func() {
		if err := srv.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			gwlog.Errorf("http server stopped: %s", err)
		}
	}()
	return srv, nil
}

// Addr returns the bound listener address
func (s *HTTPServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Shutdown stops accepting; hijacked websocket connections are not affected
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return errors.Wrap(s.server.Shutdown(ctx), "http shutdown")
}
