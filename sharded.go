package probemap

import (
	"hash/maphash"
	"sync"
)

type shard[K, V any] struct {
	mu sync.RWMutex
	t  *Table[K, V]
}

// Sharded spreads keys across independently locked Tables so that
// operations on different shards do not contend. The shard for a key
// is picked from its hash, so the same capability functions route and
// store it. Each shard is an ordinary Table and grows on its own.
type Sharded[K, V any] struct {
	mask   uint64
	seed   maphash.Seed
	hash   func(maphash.Seed, K) uint64
	shards []*shard[K, V]
}

// NewSharded returns a Sharded table for comparable keys. shards is a
// hint and is rounded up to a power of two.
func NewSharded[K comparable, V any](shards int) *Sharded[K, V] {
	s, err := NewShardedFunc[K, V](shards,
		func(a, b K) bool { return a == b },
		maphash.Comparable[K])
	if err != nil {
		panic("impossible: defaults rejected")
	}
	return s
}

// NewShardedFunc returns a Sharded table hashing and comparing keys
// with the supplied functions. See NewFunc for the hash/equal contract.
func NewShardedFunc[K, V any](shards int,
	equal func(a, b K) bool, hash func(maphash.Seed, K) uint64) (*Sharded[K, V], error) {

	if equal == nil || hash == nil {
		return nil, ErrNilHasher
	}
	count := alignShardCount(shards)
	s := &Sharded[K, V]{
		mask:   count - 1,
		seed:   maphash.MakeSeed(),
		hash:   hash,
		shards: make([]*shard[K, V], count),
	}
	for i := range s.shards {
		t, err := NewFuncWith[K, V](DefaultCapacity, DefaultLoadFactor, equal, hash)
		if err != nil {
			return nil, err
		}
		s.shards[i] = &shard[K, V]{t: t}
	}
	return s, nil
}

// alignShardCount rounds n up to a power of two so the shard index can
// be masked instead of taken modulo. The floor is two shards.
func alignShardCount(n int) uint64 {
	if n < 2 {
		return 2
	}
	count := uint64(2)
	for count < uint64(n) {
		count *= 2
	}
	return count
}

func (s *Sharded[K, V]) getShard(key K) *shard[K, V] {
	return s.shards[s.hash(s.seed, key)&s.mask]
}

// Put stores value under key in the key's shard. See Table.Put.
func (s *Sharded[K, V]) Put(key K, value V) (V, bool) {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.t.Put(key, value)
}

// Get returns the value stored under key. See Table.Get.
func (s *Sharded[K, V]) Get(key K) (V, bool) {
	sh := s.getShard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.t.Get(key)
}

// Delete removes key from its shard. See Table.Delete.
func (s *Sharded[K, V]) Delete(key K) (V, bool) {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.t.Delete(key)
}

// Contains reports whether key is present. See Table.Contains.
func (s *Sharded[K, V]) Contains(key K) bool {
	sh := s.getShard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.t.Contains(key)
}

// Len returns the live entry count summed across shards. The count is
// not a point-in-time snapshot when writers are active.
func (s *Sharded[K, V]) Len() int {
	var n int
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += sh.t.Len()
		sh.mu.RUnlock()
	}
	return n
}
