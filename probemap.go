// Package probemap implements a hash table using open addressing with
// linear probing. All entries live directly in one contiguous slot
// array; collisions are resolved by scanning forward (with wraparound)
// from the hashed start position, and deletes leave tombstones behind
// so that probe chains stay traversable.
//
// The table is generic over the key and value types. Keys are hashed
// and compared through a supplied capability: a hash function working
// from a hash/maphash seed plus an equality function. For comparable
// key types a default capability is derived from maphash.Comparable
// and ==.
//
// A Table is not safe for concurrent use. See Sharded for a
// lock-guarded variant.
package probemap

import (
	"hash/maphash"
	"math"

	"github.com/pkg/errors"
)

const (
	// DefaultCapacity is the slot count used by the constructors that
	// take no capacity.
	DefaultCapacity = 10

	// DefaultLoadFactor is the occupancy ratio that triggers growth
	// when no load factor is given.
	DefaultLoadFactor = 0.5

	// maxTableSize is the ceiling on the slot array length. Growing a
	// full table past it is a fatal condition.
	maxTableSize = math.MaxInt - 5
)

// Errors reported by the package. ErrCapacity, ErrLoadFactor and
// ErrNilHasher are returned (wrapped) from the constructors.
// ErrTableFull is not returned: a Put that would need to grow past
// maxTableSize while the table is completely full panics with it.
var (
	ErrCapacity   = errors.New("probemap: capacity cannot be negative")
	ErrLoadFactor = errors.New("probemap: load factor must be in (0, 1]")
	ErrNilHasher  = errors.New("probemap: equal and hash functions must be non-nil")
	ErrTableFull  = errors.New("probemap: table is full")
)

type slotState uint8

// A slot is empty until its first occupant arrives, occupied while it
// holds a live entry, and tombstoned after that entry is deleted.
// Tombstones are what keep lookups working for entries that were
// displaced past a since-deleted occupant.
const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type slot[K, V any] struct {
	state slotState
	key   K
	value V
}

// Table is a linear probing hash table. The zero value is not usable;
// construct with New, NewWith, NewFunc or NewFuncWith.
type Table[K, V any] struct {
	slots      []slot[K, V]
	seed       maphash.Seed
	hash       func(maphash.Seed, K) uint64
	equal      func(K, K) bool
	size       int
	loadFactor float64
	threshold  int
}

// New returns a Table for comparable keys with the default capacity
// and load factor.
func New[K comparable, V any]() *Table[K, V] {
	t, err := NewWith[K, V](DefaultCapacity, DefaultLoadFactor)
	if err != nil {
		panic("impossible: defaults rejected")
	}
	return t
}

// NewWith returns a Table for comparable keys with the given capacity
// and load factor. capacity must be non-negative and loadFactor must
// be in (0, 1].
func NewWith[K comparable, V any](capacity int, loadFactor float64) (*Table[K, V], error) {
	return NewFuncWith[K, V](capacity, loadFactor,
		func(a, b K) bool { return a == b },
		maphash.Comparable[K])
}

// NewFunc returns a Table with the default capacity and load factor,
// hashing and comparing keys with the supplied functions. The caller
// must guarantee that equal(a, b) implies hash(seed, a) == hash(seed, b).
// NewFunc panics if equal or hash is nil.
func NewFunc[K, V any](equal func(a, b K) bool, hash func(maphash.Seed, K) uint64) *Table[K, V] {
	t, err := NewFuncWith[K, V](DefaultCapacity, DefaultLoadFactor, equal, hash)
	if err != nil {
		panic(err)
	}
	return t
}

// NewFuncWith returns a Table with the given capacity and load factor,
// hashing and comparing keys with the supplied functions. See NewWith
// for the argument constraints and NewFunc for the hash/equal contract.
func NewFuncWith[K, V any](capacity int, loadFactor float64,
	equal func(a, b K) bool, hash func(maphash.Seed, K) uint64) (*Table[K, V], error) {

	if capacity < 0 {
		return nil, errors.Wrapf(ErrCapacity, "got %d", capacity)
	}
	if !(loadFactor > 0) || loadFactor > 1 {
		return nil, errors.Wrapf(ErrLoadFactor, "got %v", loadFactor)
	}
	if equal == nil || hash == nil {
		return nil, ErrNilHasher
	}
	return &Table[K, V]{
		slots:      make([]slot[K, V], capacity),
		seed:       maphash.MakeSeed(),
		hash:       hash,
		equal:      equal,
		loadFactor: loadFactor,
		threshold:  int(float64(capacity) * loadFactor),
	}, nil
}

// probe resolves the slot index for key, scanning forward from the
// hashed start position and remembering the first free (empty or
// tombstoned) slot seen on the way. An occupied slot holding an equal
// key returns (index, true). A never-occupied empty slot ends the
// scan: the key cannot live past it, and the first free slot is where
// an insert belongs. Tombstones do not end the scan, so the loop is
// bounded to one full cycle to keep a fully tombstoned table from
// spinning. Returns (-1, false) when the key is absent and no free
// slot exists in the cycle.
func (t *Table[K, V]) probe(key K) (int, bool) {
	n := len(t.slots)
	if n == 0 {
		return -1, false
	}
	i := int(t.hash(t.seed, key) % uint64(n))
	free := -1
	for step := 0; step < n; step++ {
		s := &t.slots[i]
		switch s.state {
		case slotOccupied:
			if t.equal(s.key, key) {
				return i, true
			}
		case slotTombstone:
			if free < 0 {
				free = i
			}
		case slotEmpty:
			if free < 0 {
				free = i
			}
			return free, false
		}
		i++
		if i == n {
			i = 0
		}
	}
	return free, false
}

// Put stores value under key and returns the previous value if the key
// was already present. The table grows before inserting once size has
// reached the load threshold. Put panics with ErrTableFull if the
// table is at maximum capacity and completely full.
func (t *Table[K, V]) Put(key K, value V) (prev V, ok bool) {
	if t.size >= t.threshold {
		t.rehash()
	}
	i, found := t.probe(key)
	if i < 0 {
		// cannot happen: the growth check above guarantees a free
		// slot when the key is absent
		panic(ErrTableFull)
	}
	if found {
		s := &t.slots[i]
		prev = s.value
		s.key = key
		s.value = value
		return prev, true
	}
	t.slots[i] = slot[K, V]{state: slotOccupied, key: key, value: value}
	t.size++
	return prev, false
}

// Get returns the value stored under key, or the zero value and false
// if the key is absent.
func (t *Table[K, V]) Get(key K) (V, bool) {
	if i, found := t.probe(key); found {
		return t.slots[i].value, true
	}
	var zero V
	return zero, false
}

// Delete removes key and returns the value it held. The slot is left
// tombstoned so probe chains running through it stay intact. Deleting
// an absent key is a no-op and returns false.
func (t *Table[K, V]) Delete(key K) (V, bool) {
	i, found := t.probe(key)
	if !found {
		var zero V
		return zero, false
	}
	removed := t.slots[i].value
	// zero the whole cell so the key and value can be collected
	t.slots[i] = slot[K, V]{state: slotTombstone}
	t.size--
	return removed, true
}

// Contains reports whether key is present. The scan stops at the first
// never-occupied slot and is bounded by one full cycle of the table.
func (t *Table[K, V]) Contains(key K) bool {
	_, found := t.probe(key)
	return found
}

// Len returns the number of live entries. Tombstones are not counted.
func (t *Table[K, V]) Len() int {
	return t.size
}

// Cap returns the current slot array length.
func (t *Table[K, V]) Cap() int {
	return len(t.slots)
}

// Load returns the current occupancy ratio, live entries over capacity.
func (t *Table[K, V]) Load() float64 {
	if len(t.slots) == 0 {
		return 0
	}
	return float64(t.size) / float64(len(t.slots))
}

// MaxProbe returns the longest distance between any live entry's slot
// and its hashed home position. Useful as a clustering diagnostic.
func (t *Table[K, V]) MaxProbe() int {
	n := len(t.slots)
	var longest int
	for i := range t.slots {
		if t.slots[i].state != slotOccupied {
			continue
		}
		home := int(t.hash(t.seed, t.slots[i].key) % uint64(n))
		d := i - home
		if d < 0 {
			d += n
		}
		if d > longest {
			longest = d
		}
	}
	return longest
}

// rehash grows the slot array to 2*cap+1 (clamped to maxTableSize) and
// reinserts every live entry through the ordinary Put path, which
// rebuilds the probe chains and drops accumulated tombstones. At the
// ceiling, rehash is a no-op unless the table is completely full, in
// which case it panics with ErrTableFull.
func (t *Table[K, V]) rehash() {
	n := len(t.slots)
	if n == maxTableSize {
		if t.size == n {
			panic(ErrTableFull)
		}
		// the load threshold is effectively disabled at the ceiling
		return
	}
	newCap := maxTableSize
	if n < (maxTableSize-1)/2 {
		newCap = 2*n + 1
	}
	old := t.slots
	t.slots = make([]slot[K, V], newCap)
	t.size = 0
	t.threshold = int(float64(newCap) * t.loadFactor)
	for i := range old {
		if old[i].state == slotOccupied {
			t.Put(old[i].key, old[i].value)
		}
	}
}
