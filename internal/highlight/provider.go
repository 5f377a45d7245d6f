package highlight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// BuildFunc constructs an Engine. It runs at most once per successful
// Provider lifetime.
type BuildFunc func(ctx context.Context) (*Engine, error)

// Provider lazily builds one Engine and shares it with every caller.
// Concurrent first calls wait on the same construction. A failed
// construction is reported to every waiter and retried by the next call.
type Provider struct {
	build BuildFunc
	group singleflight.Group

	mu     sync.Mutex
	engine *Engine
}

// NewProvider returns a Provider that builds an Engine from cfg.
func NewProvider(cfg Config) *Provider {
	return NewProviderFunc(func(context.Context) (*Engine, error) {
		return New(cfg)
	})
}

// NewProviderFunc returns a Provider backed by a custom constructor.
func NewProviderFunc(build BuildFunc) *Provider {
	return &Provider{build: build}
}

// Engine returns the shared Engine, building it on first use.
// The construction is detached from ctx so one caller's cancellation does not
// fail the other waiters; ctx only bounds how long this caller waits.
func (p *Provider) Engine(ctx context.Context) (*Engine, error) {
	if e := p.cached(); e != nil {
		return e, nil
	}

	ch := p.group.DoChan("engine", func() (any, error) {
		if e := p.cached(); e != nil {
			return e, nil
		}
		e, err := p.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.engine = e
		p.mu.Unlock()
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Engine), nil
	}
}

// Ready reports whether the Engine has been built.
func (p *Provider) Ready() bool {
	return p.cached() != nil
}

func (p *Provider) cached() *Engine {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine
}
