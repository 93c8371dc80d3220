package writer

import "sync"

// pathLocks serializes access to individual paths.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until path is free and returns the matching unlock.
func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	m, ok := p.locks[path]
	if !ok {
		m = &sync.Mutex{}
		p.locks[path] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
