package agent

import "sync"

// threadLocks serializes turns per thread. An entry lives only while a
// turn holds or waits for it, so finished calls leave nothing behind.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until threadID is free and returns its unlock function.
func (t *threadLocks) lock(threadID string) func() {
	t.mu.Lock()
	if t.locks == nil {
		t.locks = make(map[string]*threadLock)
	}
	l, ok := t.locks[threadID]
	if !ok {
		l = &threadLock{}
		t.locks[threadID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		t.mu.Lock()
		defer t.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, threadID)
		}
	}
}

// len returns the number of threads with a running or waiting turn.
func (t *threadLocks) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
