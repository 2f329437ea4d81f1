package opmon

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
)

var (
	operationAllocPool = sync.Pool{
		New: func() interface{} {
			return &Operation{}
		},
	}

	monitor = newMonitor()
)

type _OpInfo struct {
	count         uint64
	totalDuration time.Duration
	maxDuration   time.Duration
}

type _Monitor struct {
	sync.Mutex
	opInfos map[string]*_OpInfo
}

func newMonitor() *_Monitor {
	return &_Monitor{
		opInfos: map[string]*_OpInfo{},
	}
}

func (monitor *_Monitor) record(opname string, duration time.Duration) {
	monitor.Lock()
	info := monitor.opInfos[opname]
	if info == nil {
		info = &_OpInfo{}
		monitor.opInfos[opname] = info
	}
	info.count += 1
	info.totalDuration += duration
	if duration > info.maxDuration {
		info.maxDuration = duration
	}
	monitor.Unlock()
}

// OpStat is the aggregated record of one operation name
type OpStat struct {
	Name  string        `json:"name"`
	Count uint64        `json:"count"`
	Avg   time.Duration `json:"avg"`
	Max   time.Duration `json:"max"`
}

// Snapshot returns the current statistics sorted by name; reset clears them afterwards
func Snapshot(reset bool) []OpStat {
	monitor.Lock()
	opInfos := monitor.opInfos
	if reset {
		monitor.opInfos = map[string]*_OpInfo{}
	}
	stats := make([]OpStat, 0, len(opInfos))
	for name, info := range opInfos {
		stats = append(stats, OpStat{
			Name:  name,
			Count: info.count,
			Avg:   info.totalDuration / time.Duration(info.count),
			Max:   info.maxDuration,
		})
	}
	monitor.Unlock()

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// Dump writes and clears the statistics
func Dump(w io.Writer) {
	fmt.Fprint(w, "=====================================================================================\n")
	for _, st := range Snapshot(true) {
		fmt.Fprintf(w, "%-30sx%-10d AVG %-10s MAX %-10s\n", st.Name, st.Count, st.Avg, st.Max)
	}
}

// StartDumping prints statistics to w every OPMON_DUMP_INTERVAL, if enabled
func StartDumping(w io.Writer) {
	if consts.OPMON_DUMP_INTERVAL <= 0 {
		return
	}
	go func() {
		for {
			time.Sleep(consts.OPMON_DUMP_INTERVAL)
			Dump(w)
		}
	}()
}

// Operation is the type of operation to be monitored
type Operation struct {
	name      string
	startTime time.Time
}

// StartOperation creates a new operation
func StartOperation(operationName string) *Operation {
	op := operationAllocPool.Get().(*Operation)
	op.name = operationName
	op.startTime = time.Now()
	return op
}

// Finish finishes the operation and records the duration of operation
func (op *Operation) Finish(warnThreshold time.Duration) time.Duration {
	takeTime := time.Since(op.startTime)
	monitor.record(op.name, takeTime)
	if takeTime >= warnThreshold {
		gwlog.Warnf("opmon: operation %s takes %s > %s", op.name, takeTime, warnThreshold)
	}
	operationAllocPool.Put(op)
	return takeTime
}
