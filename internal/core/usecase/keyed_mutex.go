package usecase

import "sync"

// keyedMutex serializes work per document id without a global lock.
// Entries are reference counted and removed once the last holder
// releases, so the map does not grow with document count.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLockEntry
}

type keyedLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*keyedLockEntry)}
}

func (k *keyedMutex) Lock(id int64) {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &keyedLockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) Unlock(id int64) {
	k.mu.Lock()
	entry := k.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
