package storage

import (
	"strconv"
	"sync"
	"time"

	"github.com/emberwild/emberwild/engine/config"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/opmon"
	"github.com/emberwild/emberwild/engine/storage/backend/filesystem"
	"github.com/emberwild/emberwild/engine/storage/backend/mongodb"
	"github.com/emberwild/emberwild/engine/storage/backend/redis"
	"github.com/emberwild/emberwild/engine/storage/storage_common"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// ErrNotFound is returned by Load when the record does not exist
var ErrNotFound = storagecommon.ErrNotFound

type saveRequest struct {
	ID string
}

type flushRequest struct {
	done chan struct{}
}

// Status describes the health of the storage for diagnostics
type Status struct {
	Backend     string    `json:"backend"`
	Configured  string    `json:"configured"`
	Fallback    bool      `json:"fallback"`
	Healthy     bool      `json:"healthy"`
	Pending     int       `json:"pendingWrites"`
	Writes      uint64    `json:"writes"`
	Failures    uint64    `json:"failures"`
	LastWriteAt time.Time `json:"lastWriteAt,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

// Storage is a write-behind queue in front of a profile backend
//
// Save only records the latest snapshot of an id; the storage routine writes
// each queued id once with whatever snapshot is newest at that moment.
type Storage struct {
	opener     func() (storagecommon.ProfileStorage, error)
	engine     storagecommon.ProfileStorage
	configured string
	fallback   bool

	operationQueue           *xnsyncutil.SyncQueue
	storageRoutineTerminated *xnsyncutil.OneTimeCond
	started                  bool
	shuttingDown             xnsyncutil.AtomicBool

	retryInterval time.Duration

	lock    sync.Mutex
	pending map[string]interface{}
	status  Status
}

// New wraps an already opened backend; opener is used to reconnect after EOF errors and may be nil
func New(engine storagecommon.ProfileStorage, opener func() (storagecommon.ProfileStorage, error)) *Storage {
	return &Storage{
		opener:                   opener,
		engine:                   engine,
		configured:               engine.Name(),
		operationQueue:           xnsyncutil.NewSyncQueue(),
		storageRoutineTerminated: xnsyncutil.NewOneTimeCond(),
		pending:                  map[string]interface{}{},
		status:                   Status{Backend: engine.Name(), Healthy: true},
		retryInterval:            consts.STORAGE_RETRY_INTERVAL,
	}
}

// Open opens the configured backend, falling back to the profile file when it is unreachable
func Open(cfg *config.StorageConfig) (*Storage, error) {
	opener := backendOpener(cfg)
	engine, err := opener()
	if err == nil {
		return New(engine, opener), nil
	}
	if cfg.Type == "filesystem" {
		return nil, err
	}

	gwlog.Errorf("storage: %s backend unreachable (%s), falling back to file %s", cfg.Type, err, cfg.File)
	fileOpener := func() (storagecommon.ProfileStorage, error) {
		return openFile(cfg.File)
	}
	engine, ferr := fileOpener()
	if ferr != nil {
		return nil, errors.Wrapf(ferr, "fallback after %s", err)
	}
	s := New(engine, fileOpener)
	s.configured = cfg.Type
	s.fallback = true
	s.status.LastError = err.Error()
	return s, nil
}

func backendOpener(cfg *config.StorageConfig) func() (storagecommon.ProfileStorage, error) {
	switch cfg.Type {
	case "mongodb":
		return func() (storagecommon.ProfileStorage, error) {
			return profilestoragemongodb.OpenMongoDB(cfg.Url, cfg.DB, cfg.Collection)
		}
	case "redis":
		return func() (storagecommon.ProfileStorage, error) {
			dbindex, err := strconv.Atoi(cfg.DB)
			if err != nil {
				return nil, errors.Wrap(err, "redis db must be integer")
			}
			return profilestorageredis.OpenRedis(cfg.Url, dbindex, cfg.Collection)
		}
	default:
		return func() (storagecommon.ProfileStorage, error) {
			return openFile(cfg.File)
		}
	}
}

func openFile(path string) (storagecommon.ProfileStorage, error) {
	es, err := profilestoragefilesystem.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return es, nil
}

// LoadAll reads every record synchronously; it must be called before Start
func (s *Storage) LoadAll(newRecord func() interface{}, each func(id string, record interface{})) error {
	if s.started {
		return errors.New("LoadAll after Start")
	}
	op := opmon.StartOperation("storage.loadall")
	defer op.Finish(time.Second)

	ids, err := s.engine.List()
	if err != nil {
		return errors.Wrap(err, "list profiles")
	}
	for _, id := range ids {
		record := newRecord()
		if err := s.engine.Read(id, record); err != nil {
			gwlog.Errorf("storage: load %s failed: %s", id, err)
			continue
		}
		each(id, record)
	}
	return nil
}

// Start runs the storage routine
func (s *Storage) Start() {
	s.started = true
	go s.storageRoutine()
}

// Save queues the snapshot of id; data must not be mutated after the call
func (s *Storage) Save(id string, data interface{}) {
	s.lock.Lock()
	_, queued := s.pending[id]
	s.pending[id] = data
	s.status.Pending = len(s.pending)
	s.lock.Unlock()

	if !queued {
		s.operationQueue.Push(saveRequest{ID: id})
		s.checkOperationQueueLen()
	}
}

// Flush blocks until every save queued before the call has been attempted
func (s *Storage) Flush() {
	if !s.started {
		return
	}
	done := make(chan struct{})
	s.operationQueue.Push(flushRequest{done: done})
	<-done
}

// Shutdown drains the queue and closes the backend
func (s *Storage) Shutdown() {
	if !s.started {
		s.engine.Close()
		return
	}
	s.shuttingDown.Store(true)
	s.Flush()
	s.operationQueue.Close()
	s.storageRoutineTerminated.Wait()
}

// Status returns a copy of the current health counters
func (s *Storage) Status() Status {
	s.lock.Lock()
	st := s.status
	st.Pending = len(s.pending)
	s.lock.Unlock()
	st.Configured = s.configured
	st.Fallback = s.fallback
	return st
}

func (s *Storage) checkOperationQueueLen() {
	qlen := s.operationQueue.Len()
	if qlen > 100 && qlen%100 == 0 {
		gwlog.Warnf("Storage operation queue length = %d", qlen)
	}
}

func (s *Storage) assureStorageEngineReady() error {
	if s.engine != nil {
		return nil
	}
	if s.opener == nil {
		return errors.New("storage engine closed and no opener")
	}
	engine, err := s.opener()
	if err != nil {
		return err
	}
	s.engine = engine
	return nil
}

func (s *Storage) storageRoutine() {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("storage routine paniced: %s, restarting ...", err)
			go s.storageRoutine() // restart the storage routine
		} else {
			if s.engine != nil {
				s.engine.Close()
			}
			s.storageRoutineTerminated.Signal()
		}
	}()

	for {
		op := s.operationQueue.Pop()
		if op == nil { // storage closed
			break
		}

		switch req := op.(type) {
		case saveRequest:
			s.handleSave(req.ID)
		case flushRequest:
			close(req.done)
		default:
			gwlog.Panicf("storage: unknown operation: %v", op)
		}
	}
}

func (s *Storage) handleSave(id string) {
	s.lock.Lock()
	data, ok := s.pending[id]
	delete(s.pending, id)
	s.lock.Unlock()
	if !ok {
		return
	}

	monop := opmon.StartOperation("storage.save")
	var err error
	for attempt := 0; attempt < consts.STORAGE_MAX_RETRIES; attempt++ {
		if consts.DEBUG_SAVE_LOAD {
			gwlog.Debugf("storage: SAVING %s (attempt %d) ...", id, attempt+1)
		}
		if err = s.assureStorageEngineReady(); err == nil {
			if err = s.engine.Write(id, data); err == nil {
				break
			}
			if s.engine.IsEOF(err) {
				s.engine.Close()
				s.engine = nil
			}
		}
		gwlog.Errorf("storage: save %s failed: %s", id, err)
		time.Sleep(s.retryInterval)
	}
	monop.Finish(consts.STORAGE_SAVE_WARN_THRESHOLD)

	s.lock.Lock()
	defer s.lock.Unlock()
	if err == nil {
		s.status.Writes++
		s.status.LastWriteAt = time.Now()
		s.status.Healthy = true
		return
	}

	s.status.Failures++
	s.status.Healthy = false
	s.status.LastError = err.Error()
	if s.shuttingDown.Load() {
		gwlog.Errorf("storage: giving up on %s during shutdown: %s", id, err)
		return
	}
	// requeue unless a newer snapshot already took its place
	if _, newer := s.pending[id]; !newer {
		s.pending[id] = data
		s.operationQueue.Push(saveRequest{ID: id})
	}
}
