package keylock

import (
	"context"
	"sync"
)

type mutexEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex is an in-process Locker backed by a map of mutexes. Entries are
// reference counted so the map does not grow with the key space.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*mutexEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*mutexEntry)}
}

func (k *KeyedMutex) Acquire(_ context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &mutexEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
	return release, nil
}
