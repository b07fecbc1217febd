// Package console keeps one onboarding orchestrator and dashboard workspace
// per browser session. Each session's persisted keys live under
// "sess:<id>:" in the shared store.
package console

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ebrhq/backoffice/internal/kv"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/session"
	"github.com/ebrhq/backoffice/internal/workspace"
)

// Gauge receives the number of live consoles after every change.
type Gauge interface {
	SetActiveConsoles(n int)
}

// Deps is shared by every console of a pool. Flow is the template for each
// orchestrator; its Sessions and SessionID are filled per console.
type Deps struct {
	Store     kv.Store
	Flow      onboarding.Deps
	Workspace workspace.Services
	Gauge     Gauge
	Now       func() time.Time
	Logger    *slog.Logger
}

// Console is one browser session.
type Console struct {
	ID   string
	Flow *onboarding.Orchestrator
	Work *workspace.Workspace

	lastSeen time.Time
}

// Pool maps browser session ids to consoles.
type Pool struct {
	deps Deps

	mu      sync.Mutex
	entries map[string]*Console
	pending map[string]chan struct{}
}

func NewPool(deps Deps) *Pool {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pool{
		deps:    deps,
		entries: make(map[string]*Console),
		pending: make(map[string]chan struct{}),
	}
}

func keyPrefix(id string) string {
	return "sess:" + id + ":"
}

// Get returns the console for id, creating it on first use. A new console
// resumes whatever session its keys still hold before anyone else sees it;
// concurrent first calls for the same id wait for that and share it.
func (p *Pool) Get(ctx context.Context, id string) (*Console, error) {
	now := p.deps.Now()

	p.mu.Lock()
	for {
		if c, ok := p.entries[id]; ok {
			c.lastSeen = now
			p.mu.Unlock()
			return c, nil
		}
		wait, ok := p.pending[id]
		if !ok {
			break
		}
		p.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		p.mu.Lock()
	}
	ready := make(chan struct{})
	p.pending[id] = ready
	p.mu.Unlock()

	c := p.build(id, now)
	if err := c.Flow.Resume(ctx); err != nil {
		p.deps.Logger.Warn("resuming console session", "session", id, "error", err)
	}

	p.mu.Lock()
	p.entries[id] = c
	delete(p.pending, id)
	close(ready)
	n := len(p.entries)
	p.mu.Unlock()

	p.report(n)
	return c, nil
}

func (p *Pool) build(id string, now time.Time) *Console {
	store := kv.NewPrefixed(p.deps.Store, keyPrefix(id))

	flow := p.deps.Flow
	flow.Sessions = session.NewStore(store)
	flow.SessionID = id
	if flow.Now == nil {
		flow.Now = p.deps.Now
	}
	if flow.Logger == nil {
		flow.Logger = p.deps.Logger
	}
	o := onboarding.New(flow)

	return &Console{
		ID:       id,
		Flow:     o,
		Work:     workspace.New(o, p.deps.Workspace, store, flow.Now),
		lastSeen: now,
	}
}

// Len returns the number of live consoles.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Forget evicts the console for id, as after a logout. Its persisted keys
// stay in the store; the next Get starts from whatever they hold.
func (p *Pool) Forget(id string) {
	p.mu.Lock()
	_, ok := p.entries[id]
	delete(p.entries, id)
	n := len(p.entries)
	p.mu.Unlock()

	if ok {
		p.report(n)
	}
}

// Sweep evicts consoles unseen for longer than idle and returns how many
// went. Only the in-memory orchestrators go: a session whose token is still
// valid resumes from the store on the next Get.
func (p *Pool) Sweep(idle time.Duration) int {
	cutoff := p.deps.Now().Add(-idle)

	p.mu.Lock()
	evicted := 0
	for id, c := range p.entries {
		if c.lastSeen.Before(cutoff) {
			delete(p.entries, id)
			evicted++
		}
	}
	n := len(p.entries)
	p.mu.Unlock()

	if evicted == 0 {
		return 0
	}
	p.report(n)
	p.deps.Logger.Info("evicted idle consoles", "count", evicted, "remaining", n)
	return evicted
}

// Run sweeps every interval until ctx is cancelled.
func (p *Pool) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(idle)
		}
	}
}

func (p *Pool) report(n int) {
	if p.deps.Gauge != nil {
		p.deps.Gauge.SetActiveConsoles(n)
	}
}
