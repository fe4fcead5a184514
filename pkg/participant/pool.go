package participant

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/absmach/fedround/pkg/errors"
)

// Pool is the set of currently available participants. Membership can change
// at any time; a round works on a Snapshot taken at its start.
type Pool struct {
	mu      sync.RWMutex
	proxies map[string]Proxy
}

func NewPool() *Pool {
	return &Pool{proxies: make(map[string]Proxy)}
}

func (p *Pool) Add(proxy Proxy) error {
	if proxy.ID() == "" {
		return errors.ErrEmptyKey
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.proxies[proxy.ID()]; ok {
		return fmt.Errorf("participant %s: %w", proxy.ID(), errors.ErrEntityExists)
	}
	p.proxies[proxy.ID()] = proxy

	return nil
}

func (p *Pool) Remove(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.proxies[id]; !ok {
		return fmt.Errorf("participant %s: %w", id, errors.ErrNotFound)
	}
	delete(p.proxies, id)

	return nil
}

func (p *Pool) Get(id string) (Proxy, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	proxy, ok := p.proxies[id]
	if !ok {
		return nil, fmt.Errorf("participant %s: %w", id, errors.ErrNotFound)
	}

	return proxy, nil
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.proxies)
}

// Snapshot returns the current members ordered by ID.
func (p *Pool) Snapshot() []Proxy {
	p.mu.RLock()
	out := make([]Proxy, 0, len(p.proxies))
	for _, proxy := range p.proxies {
		out = append(out, proxy)
	}
	p.mu.RUnlock()

	slices.SortFunc(out, func(a, b Proxy) int {
		return cmp.Compare(a.ID(), b.ID())
	})

	return out
}

// WaitFor blocks until at least n participants are available or ctx is done.
func (p *Pool) WaitFor(ctx context.Context, n int, poll time.Duration) error {
	if p.Len() >= n {
		return nil
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d participants, have %d: %w", n, p.Len(), ctx.Err())
		case <-ticker.C:
			if p.Len() >= n {
				return nil
			}
		}
	}
}
