package storage

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// Memo is a memoized function over small integer handles (interned names,
// declaration IDs). Each key is computed at most once.
type Memo[K ~uint32, V any] struct {
	m           *Manager
	name        string
	compute     func(K) V
	onRecursion func(key K, firstTime bool) V

	mu     sync.RWMutex
	values map[K]V

	// guarded by the manager lock
	computing *bitset.BitSet
	recursive *bitset.BitSet
}

// NewMemo creates a memoized function. A nil onRecursion uses the
// manager's default handler.
func NewMemo[K ~uint32, V any](m *Manager, name string, compute func(K) V, onRecursion func(key K, firstTime bool) V) *Memo[K, V] {
	return &Memo[K, V]{
		m:           m,
		name:        name,
		compute:     compute,
		onRecursion: onRecursion,
		values:      make(map[K]V),
		computing:   bitset.New(64),
		recursive:   bitset.New(64),
	}
}

// Get returns the memoized value for key.
func (f *Memo[K, V]) Get(key K) V {
	f.mu.RLock()
	v, ok := f.values[key]
	f.mu.RUnlock()
	if ok {
		return v
	}
	var out V
	f.m.Compute(func() { out = f.getLocked(key) })
	return out
}

// IsComputed reports whether key already has a value.
func (f *Memo[K, V]) IsComputed(key K) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.values[key]
	return ok
}

// Len returns the number of computed keys.
func (f *Memo[K, V]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.values)
}

func (f *Memo[K, V]) getLocked(key K) V {
	f.mu.RLock()
	v, ok := f.values[key]
	f.mu.RUnlock()
	if ok {
		return v
	}

	bit := uint(key)
	if f.computing.Test(bit) {
		first := !f.recursive.Test(bit)
		f.recursive.Set(bit)
		f.m.traceRecursion(f.name, first)
		if f.onRecursion == nil {
			f.m.recursionDetected(f.name)
		}
		return f.onRecursion(key, first)
	}

	f.computing.Set(bit)
	defer func() {
		f.computing.Clear(bit)
		f.recursive.Clear(bit)
	}()

	v = f.compute(key)
	f.mu.Lock()
	f.values[key] = v
	f.mu.Unlock()
	return v
}
