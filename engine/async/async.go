package async

import (
	"sync"

	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwutils"
	"github.com/emberwild/emberwild/engine/post"
)

// AsyncCallback receives the result of an AsyncRoutine on the posting goroutine
type AsyncCallback func(res interface{}, err error)

func (ac AsyncCallback) callback(q *post.Queue, res interface{}, err error) {
	if ac != nil {
		q.Post(func() {
			ac(res, err)
		})
	}
}

// AsyncRoutine is the job executed on a worker goroutine
type AsyncRoutine func() (res interface{}, err error)

type asyncJobWorker struct {
	jobQueue chan asyncJobItem
}

type asyncJobItem struct {
	routine  AsyncRoutine
	callback AsyncCallback
	post     *post.Queue
}

// Workers is a set of named job groups, each group served by one worker goroutine
type Workers struct {
	lock    sync.RWMutex
	workers map[string]*asyncJobWorker
	running sync.WaitGroup
	closed  bool
}

// NewWorkers creates an empty worker set
func NewWorkers() *Workers {
	return &Workers{workers: map[string]*asyncJobWorker{}}
}

func (ws *Workers) newAsyncJobWorker() *asyncJobWorker {
	ajw := &asyncJobWorker{
		jobQueue: make(chan asyncJobItem, consts.ASYNC_JOB_QUEUE_MAXLEN),
	}
	ws.running.Add(1)
	go func() {
		defer ws.running.Done()
		for gwutils.RunPanicless(ajw.loop, "async job worker") {
		}
	}()
	return ajw
}

func (ajw *asyncJobWorker) loop() {
	for item := range ajw.jobQueue {
		res, err := item.routine()
		item.callback.callback(item.post, res, err)
	}
}

func (ws *Workers) getAsyncJobWorker(group string) (ajw *asyncJobWorker) {
	ws.lock.RLock()
	ajw = ws.workers[group]
	ws.lock.RUnlock()

	if ajw == nil {
		ws.lock.Lock()
		ajw = ws.workers[group]
		if ajw == nil && !ws.closed {
			ajw = ws.newAsyncJobWorker()
			ws.workers[group] = ajw
		}
		ws.lock.Unlock()
	}
	return
}

// AppendAsyncJob runs routine on the group's worker and posts callback to q
//
// Jobs appended after Shutdown are dropped and the callback is reported with ErrShutdown
func (ws *Workers) AppendAsyncJob(q *post.Queue, group string, routine AsyncRoutine, callback AsyncCallback) {
	ajw := ws.getAsyncJobWorker(group)
	if ajw == nil {
		callback.callback(q, nil, ErrShutdown)
		return
	}
	ajw.jobQueue <- asyncJobItem{routine, callback, q}
}

// Shutdown closes all job queues and waits for the workers to quit
func (ws *Workers) Shutdown() {
	ws.lock.Lock()
	for _, ajw := range ws.workers {
		close(ajw.jobQueue)
	}
	ws.workers = map[string]*asyncJobWorker{}
	ws.closed = true
	ws.lock.Unlock()

	ws.running.Wait()
}
