package gwutils

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
)

// ProcessStats is a point-in-time view of the server process
type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
	Goroutines int     `json:"goroutines"`
}

var (
	selfProcess     *process.Process
	selfProcessOnce sync.Once
	selfProcessErr  error
)

// GetProcessStats collects memory and cpu usage of the current process
func GetProcessStats(ctx context.Context, goroutines int) (ProcessStats, error) {
	selfProcessOnce.Do(func() {
		selfProcess, selfProcessErr = process.NewProcess(int32(os.Getpid()))
	})
	if selfProcessErr != nil {
		return ProcessStats{}, errors.Wrap(selfProcessErr, "find process")
	}

	stats := ProcessStats{PID: selfProcess.Pid, Goroutines: goroutines}
	mem, err := selfProcess.MemoryInfoWithContext(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "memory info")
	}
	stats.RSSBytes = mem.RSS
	cpu, err := selfProcess.CPUPercentWithContext(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "cpu percent")
	}
	stats.CPUPercent = cpu
	return stats, nil
}
