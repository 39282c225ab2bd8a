package pool

import "sync"

// ------------------------------
// Thread-safe test spec pool
// ------------------------------

// TestPool holds the pending test specs of one build. Every mutation
// happens under the pool's own mutex, so any number of concurrent
// callers can race on PopNext and each spec is handed out exactly once.
//
// The seen index records every spec ever admitted, pending or already
// dispatched. Add filters through it, which makes re-registration unable
// to resurrect a spec that has already been handed out.
type TestPool struct {
	mu         sync.Mutex
	pending    []string
	seen       map[string]bool
	dispatched int
}

// New creates a pool seeded with the given specs. Duplicates in the
// seed are admitted once.
func New(seed []string) *TestPool {
	p := &TestPool{
		seen: make(map[string]bool, len(seed)),
	}
	p.Add(seed)
	return p
}

// Add admits the specs that have never been seen by this pool and
// returns how many were admitted. Safe to call concurrently with
// PopNext.
func (p *TestPool) Add(specs []string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	for _, spec := range specs {
		if p.seen[spec] {
			continue
		}
		p.seen[spec] = true
		p.pending = append(p.pending, spec)
		added++
	}
	return added
}

// PopNext removes and returns one pending spec. The second return is
// false once the pool is exhausted, and stays false forever: a spec
// that left the pool never comes back.
func (p *TestPool) PopNext() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return "", false
	}

	spec := p.pending[0]
	p.pending = p.pending[1:]
	p.dispatched++
	return spec, true
}

// Remaining returns the number of pending specs.
func (p *TestPool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Dispatched returns how many specs have been handed out so far.
func (p *TestPool) Dispatched() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dispatched
}

// Seen reports whether the spec was ever admitted to this pool.
func (p *TestPool) Seen(spec string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen[spec]
}
