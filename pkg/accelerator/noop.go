package accelerator

import (
	"context"
	"sync"
	"time"
)

var _ Accelerator = (*noop)(nil)

type noop struct {
	mu   sync.Mutex
	held bool
}

// NewNoop returns an accelerator that only tracks ownership.
func NewNoop() Accelerator {
	return &noop{}
}

func (n *noop) Acquire(context.Context) (Usage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.held {
		return Usage{}, ErrAlreadyAcquired
	}
	n.held = true

	return Usage{Timestamp: time.Now()}, nil
}

func (n *noop) Release(context.Context) (Release, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.held {
		return Release{}, ErrNotAcquired
	}
	n.held = false
	now := time.Now()

	return Release{Before: Usage{Timestamp: now}, After: Usage{Timestamp: now}}, nil
}
