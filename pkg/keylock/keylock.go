// Package keylock serializes work per string key.
//
// The device registry and the key store perform read-modify-write cycles on
// shared storage keys. Holding the lock for a key around such a cycle makes it
// atomic with respect to other goroutines using the same Locker.
package keylock

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per key. Mutexes are released once no
// goroutine holds or waits for them, so the map does not grow unbounded.
// The zero value is ready to use.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// New creates a Locker.
func New() *Locker {
	return &Locker{}
}

// Lock acquires the mutex for key and returns its release function.
//
//	unlock := l.Lock(userID)
//	defer unlock()
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*lockEntry)
	}
	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently locked or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
