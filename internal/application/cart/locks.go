package cart

import "sync"

// ownerLocks serializes cart read-modify-save cycles per owner key.
// Entries are dropped once no caller holds or waits on them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu      sync.Mutex
	waiters int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// lock blocks until the owner's cart is free and returns the matching unlock
func (l *ownerLocks) lock(ownerKey string) func() {
	l.mu.Lock()
	ol, ok := l.locks[ownerKey]
	if !ok {
		ol = &ownerLock{}
		l.locks[ownerKey] = ol
	}
	ol.waiters++
	l.mu.Unlock()

	ol.mu.Lock()
	return func() {
		ol.mu.Unlock()
		l.mu.Lock()
		ol.waiters--
		if ol.waiters == 0 {
			delete(l.locks, ownerKey)
		}
		l.mu.Unlock()
	}
}

func (l *ownerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
