package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/emberwild/emberwild/engine/config"
	"github.com/emberwild/emberwild/engine/storage/storage_common"
	"github.com/pkg/errors"
)

type record struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

// memoryBackend counts writes and can be told to fail
type memoryBackend struct {
	sync.Mutex
	data     map[string]interface{}
	writes   map[string]int
	failures int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: map[string]interface{}{}, writes: map[string]int{}}
}

func (m *memoryBackend) Name() string { return "memory" }
func (m *memoryBackend) List() ([]string, error) {
	m.Lock()
	defer m.Unlock()
	var ids []string
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}
func (m *memoryBackend) Write(id string, data interface{}) error {
	m.Lock()
	defer m.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("injected failure")
	}
	m.data[id] = data
	m.writes[id]++
	return nil
}
func (m *memoryBackend) Read(id string, out interface{}) error {
	m.Lock()
	defer m.Unlock()
	v, ok := m.data[id]
	if !ok {
		return storagecommon.ErrNotFound
	}
	*(out.(*record)) = v.(record)
	return nil
}
func (m *memoryBackend) Close()               {}
func (m *memoryBackend) IsEOF(err error) bool { return false }

func (m *memoryBackend) get(id string) (record, int) {
	m.Lock()
	defer m.Unlock()
	r, _ := m.data[id].(record)
	return r, m.writes[id]
}

func TestSaveCoalescesAndFlushes(t *testing.T) {
	backend := newMemoryBackend()
	s := New(backend, nil)
	// queue several snapshots before the routine runs, only the newest is written
	for v := 1; v <= 5; v++ {
		s.Save("p1", record{ID: "p1", Version: v})
	}
	s.Start()
	s.Flush()

	r, writes := backend.get("p1")
	assert.Equal(t, 5, r.Version)
	assert.Equal(t, 1, writes)
	assert.Equal(t, 0, s.Status().Pending)
	assert.Equal(t, uint64(1), s.Status().Writes)
	s.Shutdown()
}

func TestFailedSaveIsRetried(t *testing.T) {
	backend := newMemoryBackend()
	backend.failures = 4 // more than one round of retries
	s := New(backend, nil)
	s.retryInterval = time.Millisecond
	s.Start()
	s.Save("p1", record{ID: "p1", Version: 1})
	s.Flush()
	s.Flush()

	r, _ := backend.get("p1")
	assert.Equal(t, 1, r.Version)
	assert.T(t, s.Status().Failures >= 1, "failure should be counted")
	assert.T(t, s.Status().Healthy, "storage should recover")
	s.Shutdown()
}

func TestShutdownDrainsPendingWrites(t *testing.T) {
	backend := newMemoryBackend()
	s := New(backend, nil)
	s.Start()
	for i := 0; i < 50; i++ {
		s.Save(string(rune('a'+i%26))+"x", record{Version: i})
	}
	s.Shutdown()
	assert.Equal(t, 0, s.Status().Pending)
	ids, _ := backend.List()
	assert.Equal(t, 26, len(ids))
}

func TestLoadAll(t *testing.T) {
	backend := newMemoryBackend()
	backend.data["a"] = record{ID: "a", Version: 1}
	backend.data["b"] = record{ID: "b", Version: 2}
	s := New(backend, nil)
	loaded := map[string]int{}
	err := s.LoadAll(func() interface{} { return &record{} }, func(id string, rec interface{}) {
		loaded[id] = rec.(*record).Version
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, loaded)
}

func TestOpenFallsBackToFile(t *testing.T) {
	cfg := config.Default().Storage
	cfg.Type = "redis"
	cfg.Url = "127.0.0.1:1"
	cfg.DB = "0"
	cfg.File = filepath.Join(t.TempDir(), "profiles.json")

	s, err := Open(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	st := s.Status()
	assert.Equal(t, "filesystem", st.Backend)
	assert.Equal(t, "redis", st.Configured)
	assert.T(t, st.Fallback, "should report fallback")

	s.Start()
	s.Save("p1", record{ID: "p1", Version: 3})
	s.Shutdown()

	reopened, err := openFile(cfg.File)
	if err != nil {
		t.Fatal(err)
	}
	var r record
	assert.Equal(t, nil, reopened.Read("p1", &r))
	assert.Equal(t, 3, r.Version)
}
