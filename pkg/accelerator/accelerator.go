// Package accelerator scopes the compute device used by a training session.
// A session acquires the device before building its model and releases it on
// every exit path so the next session starts from reclaimed memory.
package accelerator

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyAcquired = errors.New("accelerator already acquired")
	ErrNotAcquired     = errors.New("accelerator not acquired")
)

// Usage is a memory sample of the coordinator process.
type Usage struct {
	RSSBytes      uint64    `json:"rss_bytes"`
	MemoryPercent float32   `json:"memory_percent"`
	HeapBytes     uint64    `json:"heap_bytes"`
	Timestamp     time.Time `json:"timestamp"`
}

// Release describes what a release reclaimed.
type Release struct {
	Before Usage         `json:"before"`
	After  Usage         `json:"after"`
	Held   time.Duration `json:"held"`
}

// Reclaimed returns the resident memory given back, or zero if usage grew.
func (r Release) Reclaimed() uint64 {
	if r.After.RSSBytes >= r.Before.RSSBytes {
		return 0
	}

	return r.Before.RSSBytes - r.After.RSSBytes
}

type Accelerator interface {
	// Acquire claims the device for one session. Only one session may hold
	// it at a time.
	Acquire(ctx context.Context) (Usage, error)
	// Release returns the device and reclaims its cached memory.
	Release(ctx context.Context) (Release, error)
}
