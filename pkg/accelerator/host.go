package accelerator

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var _ Accelerator = (*host)(nil)

// host treats the coordinator process as the device: releasing it returns the
// Go heap to the operating system.
type host struct {
	mu       sync.Mutex
	proc     *process.Process
	held     bool
	acquired Usage
}

func NewHost() (Accelerator, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect coordinator process: %w", err)
	}

	return &host{proc: proc}, nil
}

func (h *host) Acquire(ctx context.Context) (Usage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.held {
		return Usage{}, ErrAlreadyAcquired
	}

	usage := h.sample(ctx)
	h.held = true
	h.acquired = usage

	return usage, nil
}

func (h *host) Release(ctx context.Context) (Release, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.held {
		return Release{}, ErrNotAcquired
	}

	before := h.sample(ctx)
	debug.FreeOSMemory()
	after := h.sample(ctx)
	h.held = false

	return Release{
		Before: before,
		After:  after,
		Held:   after.Timestamp.Sub(h.acquired.Timestamp),
	}, nil
}

// sample never fails; fields gopsutil cannot read stay zero.
func (h *host) sample(ctx context.Context) Usage {
	usage := Usage{Timestamp: time.Now()}

	if mem, err := h.proc.MemoryInfoWithContext(ctx); err == nil {
		usage.RSSBytes = mem.RSS
	}
	if pct, err := h.proc.MemoryPercentWithContext(ctx); err == nil {
		usage.MemoryPercent = pct
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	usage.HeapBytes = ms.HeapAlloc

	return usage
}
