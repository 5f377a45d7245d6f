package diagram

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Pool bounds concurrent renders across a whole build by handing out at
// most n backends. Backends are created lazily on first acquire to avoid
// startup delay; with BrowserBackend each one owns a browser.
type Pool struct {
	size     int
	factory  func() Backend
	backends []Backend
	sem      chan Backend
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewPool creates a pool with capacity for n backends built by factory.
func NewPool(n int, factory func() Backend) *Pool {
	if n < 1 {
		n = 1
	}

	return &Pool{
		size:     n,
		factory:  factory,
		backends: make([]Backend, 0, n),
		sem:      make(chan Backend, n),
	}
}

// acquire gets a backend from the pool, creating one if needed.
// Blocks until one is free or ctx is done.
func (p *Pool) acquire(ctx context.Context) (Backend, error) {
	// Try to get an existing backend (non-blocking)
	select {
	case b, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return b, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new backend outside the lock
		b := p.factory()

		p.mu.Lock()
		p.backends = append(p.backends, b)
		p.mu.Unlock()

		return b, nil
	}
	p.mu.Unlock()

	// All backends created, wait for one to be released
	select {
	case b, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a backend to the pool.
// The lock is held while sending so Close cannot close sem underneath;
// the send never blocks because sem has room for every created backend.
func (p *Pool) release(b Backend) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- b
}

// Render renders source on the next free backend.
func (p *Pool) Render(ctx context.Context, source string) ([]byte, error) {
	b, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(b)
	return b.Render(ctx, source)
}

// Close closes every backend that implements io.Closer.
// Returns an aggregated error if several fail to close.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	backends := p.backends
	p.mu.Unlock()

	var errs []error
	for _, b := range backends {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// Compile-time interface check.
var _ Backend = (*Pool)(nil)
