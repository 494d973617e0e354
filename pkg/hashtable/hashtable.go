// Package hashtable implements a two-table chaining hash map with incremental
// rehashing. Each public operation moves at most a bounded number of nodes
// from the old table into the new one, so no single call pays for a full
// table resize.
package hashtable

const (
	// LoadFactor is the maximum ratio of live entries to bucket count the
	// primary table tolerates before a rehash is triggered.
	LoadFactor = 8
	// RehashWork is the maximum number of node moves performed per public
	// operation while a rehash is in progress.
	RehashWork = 128
	// InitialCapacity is the bucket count of a freshly allocated table.
	InitialCapacity = 4
)

// Node wraps a caller-supplied value with the bookkeeping the map needs:
// a precomputed hash and a next-pointer for its bucket chain.
type Node[T any] struct {
	next  *Node[T]
	hash  uint64
	Value T
}

type table[T any] struct {
	buckets []*Node[T]
	mask    uint64
	size    int
}

func newTable[T any](capacity int) *table[T] {
	return &table[T]{
		buckets: make([]*Node[T], capacity),
		mask:    uint64(capacity - 1),
	}
}

func (t *table[T]) insert(n *Node[T]) {
	idx := n.hash & t.mask
	n.next = t.buckets[idx]
	t.buckets[idx] = n
	t.size++
}

// lookup returns the slot (the address of the pointer referencing the
// matching node) so the caller can detach it in O(1) without a separate
// predecessor search. A nil slot means no match.
func (t *table[T]) lookup(hash uint64, equal func(T) bool) **Node[T] {
	idx := hash & t.mask
	slot := &t.buckets[idx]
	for *slot != nil {
		n := *slot
		if n.hash == hash && equal(n.Value) {
			return slot
		}
		slot = &n.next
	}
	return nil
}

func detach[T any](slot **Node[T]) *Node[T] {
	n := *slot
	*slot = n.next
	n.next = nil
	return n
}

// Map is a chaining hash map over values of type T, with incremental
// rehashing performed a bounded amount per call to Insert or Remove.
type Map[T any] struct {
	primary     *table[T]
	secondary   *table[T]
	cursor      uint64
	rehashMoves int
}

// New returns an empty Map. The primary table is allocated lazily on the
// first Insert.
func New[T any]() *Map[T] {
	return &Map[T]{}
}

// Len returns the number of live entries across both tables.
func (m *Map[T]) Len() int {
	n := 0
	if m.primary != nil {
		n += m.primary.size
	}
	if m.secondary != nil {
		n += m.secondary.size
	}
	return n
}

// Lookup returns the value whose hash matches and for which equal reports
// true, consulting the primary table first and then the secondary table
// (if a rehash is in progress).
func (m *Map[T]) Lookup(hash uint64, equal func(T) bool) (T, bool) {
	if m.primary != nil {
		if slot := m.primary.lookup(hash, equal); slot != nil {
			return (*slot).Value, true
		}
	}
	if m.secondary != nil {
		if slot := m.secondary.lookup(hash, equal); slot != nil {
			return (*slot).Value, true
		}
	}
	var zero T
	return zero, false
}

// Insert adds value under hash. The caller must ensure no entry with an
// equal key is already present; Insert does not check for duplicates.
// After insertion, a bounded rehash step runs if a rehash is in progress
// or becomes triggered by this insert.
func (m *Map[T]) Insert(hash uint64, value T) {
	if m.primary == nil {
		m.primary = newTable[T](InitialCapacity)
	}
	m.primary.insert(&Node[T]{hash: hash, Value: value})
	if m.secondary == nil && m.primary.size >= int(m.primary.mask+1)*LoadFactor {
		m.triggerRehash()
	}
	m.rehashStep()
}

// Remove detaches and returns the value whose hash matches and for which
// equal reports true, or the zero value and false if absent. Performs a
// bounded rehash step before returning.
func (m *Map[T]) Remove(hash uint64, equal func(T) bool) (T, bool) {
	var removed *Node[T]
	if m.primary != nil {
		if slot := m.primary.lookup(hash, equal); slot != nil {
			removed = detach(slot)
			m.primary.size--
		}
	}
	if removed == nil && m.secondary != nil {
		if slot := m.secondary.lookup(hash, equal); slot != nil {
			removed = detach(slot)
			m.secondary.size--
		}
	}
	m.rehashStep()
	if removed == nil {
		var zero T
		return zero, false
	}
	return removed.Value, true
}

// RehashInProgress reports whether a secondary table currently exists.
func (m *Map[T]) RehashInProgress() bool {
	return m.secondary != nil
}

// RehashMoves returns the cumulative number of node moves performed by
// incremental rehashing across the lifetime of the map. Intended for
// tests that assert the per-operation work bound holds in aggregate.
func (m *Map[T]) RehashMoves() int {
	return m.rehashMoves
}

func (m *Map[T]) triggerRehash() {
	m.secondary = m.primary
	m.primary = newTable[T](int(m.secondary.mask+1) * 2)
	m.cursor = 0
}

// rehashStep moves up to RehashWork nodes from secondary into primary,
// skipping empty buckets for free (skips do not count against the work
// budget). When secondary becomes empty its storage is released.
func (m *Map[T]) rehashStep() {
	if m.secondary == nil {
		return
	}
	moved := 0
	for m.secondary.size > 0 && moved < RehashWork {
		for m.cursor <= m.secondary.mask && m.secondary.buckets[m.cursor] == nil {
			m.cursor++
		}
		if m.cursor > m.secondary.mask {
			break
		}
		slot := &m.secondary.buckets[m.cursor]
		n := detach(slot)
		m.secondary.size--
		m.primary.insert(n)
		moved++
	}
	m.rehashMoves += moved
	if m.secondary.size == 0 {
		m.secondary = nil
		m.cursor = 0
	}
}
