package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	scriptruntime "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/fingerprint"
)

// Programs maps fingerprints to compiled programs.
//
// Entries are created on the first successful compile and are never evicted
// by the cache itself. The first insertion for a fingerprint wins: a program
// compiled by a losing racer is discarded and every caller receives the
// winner. With single flight enabled (the default) concurrent misses for one
// fingerprint share a single compile.
type Programs struct {
	compiler     scriptruntime.Compiler
	entries      map[fingerprint.Fingerprint]scriptruntime.Program
	group        singleflight.Group
	hits         atomic.Uint64
	misses       atomic.Uint64
	compiles     atomic.Uint64
	mu           sync.RWMutex
	singleFlight bool
}

// Option configures Programs.
type Option func(*Programs)

// WithSingleFlight enables or disables compile deduplication per fingerprint.
func WithSingleFlight(enabled bool) Option {
	return func(p *Programs) {
		p.singleFlight = enabled
	}
}

// NewPrograms creates an empty cache backed by compiler.
func NewPrograms(compiler scriptruntime.Compiler, opts ...Option) *Programs {
	p := &Programs{
		compiler:     compiler,
		entries:      make(map[fingerprint.Fingerprint]scriptruntime.Program),
		singleFlight: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns the cached program for fp without compiling.
func (p *Programs) Get(fp fingerprint.Fingerprint) (scriptruntime.Program, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prog, ok := p.entries[fp]
	return prog, ok
}

// GetOrCompile returns the program cached under fp, compiling source on a miss.
// Compile errors are returned unchanged and nothing is cached. With single
// flight, a caller whose ctx ends while waiting gets ctx.Err(); the shared
// compile keeps running for the other callers and still fills the cache.
func (p *Programs) GetOrCompile(ctx context.Context, fp fingerprint.Fingerprint, source string) (scriptruntime.Program, error) {
	if prog, ok := p.Get(fp); ok {
		p.hits.Add(1)
		return prog, nil
	}
	p.misses.Add(1)

	if !p.singleFlight {
		return p.compileAndStore(ctx, fp, source)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The flight is shared, so it must not inherit any one caller's
	// cancellation. Each caller stops waiting on its own ctx only.
	flightCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(string(fp), func() (any, error) {
		// A racer may have stored the entry between our miss and the flight.
		if prog, ok := p.Get(fp); ok {
			return prog, nil
		}
		return p.compileAndStore(flightCtx, fp, source)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(scriptruntime.Program), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Programs) compileAndStore(ctx context.Context, fp fingerprint.Fingerprint, source string) (scriptruntime.Program, error) {
	p.compiles.Add(1)
	prog, err := p.compiler.Compile(ctx, source)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.entries[fp]; ok {
		return existing, nil
	}
	p.entries[fp] = prog
	return prog, nil
}

// Delete removes the entry for fp and reports whether one existed.
func (p *Programs) Delete(fp fingerprint.Fingerprint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[fp]
	delete(p.entries, fp)
	return ok
}

// Reset drops every entry. Counters are kept.
func (p *Programs) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.entries)
}

// Len returns the number of cached programs.
func (p *Programs) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries  int
	Hits     uint64
	Misses   uint64
	Compiles uint64
}

// Stats returns a snapshot of the cache counters.
func (p *Programs) Stats() Stats {
	return Stats{
		Entries:  p.Len(),
		Hits:     p.hits.Load(),
		Misses:   p.misses.Load(),
		Compiles: p.compiles.Load(),
	}
}
