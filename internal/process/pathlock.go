package process

import "sync"

// pathLocks serializes work on individual destination paths so two
// workers normalizing different source files cannot race on the same
// target name
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for path, creating it on first use. Locks
// are never removed; the map is bounded by the number of distinct
// destinations in a batch.
func (p *pathLocks) Lock(path string) {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	p.mu.Unlock()

	l.Lock()
}

// Unlock releases the mutex for path
func (p *pathLocks) Unlock(path string) {
	p.mu.Lock()
	l := p.locks[path]
	p.mu.Unlock()

	if l != nil {
		l.Unlock()
	}
}
