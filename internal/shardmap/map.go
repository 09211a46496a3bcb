package shardmap

import (
	"iter"
	"sync"
)

// Op tells Compute what to do with the entry after the callback returns.
type Op int

const (
	// Keep leaves the entry untouched.
	Keep Op = iota
	// Store stores the returned value.
	Store
	// Delete deletes the entry.
	Delete
)

type bucket[K comparable, V any] struct {
	m  map[K]V
	mu sync.RWMutex
}

// Map is a thread-safe map split into buckets, each guarded by its own lock.
// Operations on keys in different buckets never contend.
type Map[K comparable, V any] struct {
	buckets []*bucket[K, V]
	hashKey func(any) int
}

// New creates a new sharded map.
func New[K comparable, V any](opts ...Option[K]) *Map[K, V] {
	options := defaultOptions[K]()
	for _, opt := range opts {
		opt.apply(&options)
	}

	hint := options.capacity / options.bucketsSize
	buckets := make([]*bucket[K, V], options.bucketsSize)
	for i := range buckets {
		buckets[i] = &bucket[K, V]{m: make(map[K]V, hint)}
	}
	return &Map[K, V]{
		buckets: buckets,
		hashKey: options.hashKey,
	}
}

// resolveBucket returns the bucket that corresponds to the given key.
func (m *Map[K, V]) resolveBucket(key K) *bucket[K, V] {
	if len(m.buckets) == 1 {
		return m.buckets[0]
	}

	index := m.hashKey(key) % len(m.buckets)
	if index < 0 {
		index *= -1
	}
	return m.buckets[index]
}

// Load returns the value stored under the key.
func (m *Map[K, V]) Load(key K) (V, bool) {
	b := m.resolveBucket(key)
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.m[key]
	return v, ok
}

// Compute atomically reads and updates the entry for the key.
// The callback receives the current value (zero value and false when absent) and
// returns the new value with the operation to apply.
// The callback runs with the key's bucket locked, so it must not call back into the same map.
func (m *Map[K, V]) Compute(key K, f func(old V, loaded bool) (V, Op)) {
	b := m.resolveBucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	old, loaded := b.m[key]
	v, op := f(old, loaded)
	switch op {
	case Store:
		b.m[key] = v
	case Delete:
		if loaded {
			delete(b.m, key)
		}
	}
}

// Range calls f for the entries of each bucket while holding that bucket's read lock.
// Range stops when f returns false. f must not modify the map.
func (m *Map[K, V]) Range(f func(K, V) bool) {
	for _, b := range m.buckets {
		if !m.rangeBucket(b, f) {
			return
		}
	}
}

func (m *Map[K, V]) rangeBucket(b *bucket[K, V], f func(K, V) bool) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for k, v := range b.m {
		if !f(k, v) {
			return false
		}
	}
	return true
}

// All returns an iterator over a bucket by bucket snapshot of the map.
// The map may be modified while iterating.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, b := range m.buckets {
			for _, e := range snapshot(b) {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

type pair[K comparable, V any] struct {
	key   K
	value V
}

func snapshot[K comparable, V any](b *bucket[K, V]) []pair[K, V] {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := make([]pair[K, V], 0, len(b.m))
	for k, v := range b.m {
		entries = append(entries, pair[K, V]{key: k, value: v})
	}
	return entries
}

// Len returns the number of entries.
// Buckets are counted one after another, so the result is not a point-in-time snapshot under concurrent writes.
func (m *Map[K, V]) Len() int {
	n := 0
	for _, b := range m.buckets {
		b.mu.RLock()
		n += len(b.m)
		b.mu.RUnlock()
	}
	return n
}
