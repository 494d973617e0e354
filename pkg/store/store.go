// Package store adapts the generic chaining hash map in pkg/hashtable to
// the key-value domain: it owns Entry allocation, key hashing, and the
// set/get/del semantics the command dispatcher calls into.
package store

import (
	"bytes"

	"github.com/loopkv/loopkv/pkg/hash"
	"github.com/loopkv/loopkv/pkg/hashtable"
)

// Entry is the unit stored in the map: a key and a value, both byte
// strings. Mutated in place by repeated Set calls on the same key.
type Entry struct {
	Key   []byte
	Value []byte
}

// Store is the key-value map backing the server. It is not safe for
// concurrent use; the core event loop is single-threaded by design.
type Store struct {
	m *hashtable.Map[*Entry]
}

// New returns an empty Store.
func New() *Store {
	return &Store{m: hashtable.New[*Entry]()}
}

func equalKey(key []byte) func(*Entry) bool {
	return func(e *Entry) bool { return bytes.Equal(e.Key, key) }
}

// Get returns the value stored under key, or (nil, false) if absent.
func (s *Store) Get(key []byte) ([]byte, bool) {
	e, ok := s.m.Lookup(hash.Key64(key), equalKey(key))
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Set upserts key to value: if key already exists its Entry is mutated in
// place, otherwise a new Entry is allocated and inserted.
func (s *Store) Set(key, value []byte) {
	h := hash.Key64(key)
	if e, ok := s.m.Lookup(h, equalKey(key)); ok {
		e.Value = append(e.Value[:0], value...)
		return
	}
	s.m.Insert(h, &Entry{
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), value...),
	})
}

// Del removes key, returning true if it was present.
func (s *Store) Del(key []byte) bool {
	_, ok := s.m.Remove(hash.Key64(key), equalKey(key))
	return ok
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	return s.m.Len()
}

// RehashInProgress reports whether the underlying map is mid-rehash.
func (s *Store) RehashInProgress() bool {
	return s.m.RehashInProgress()
}

// RehashMoves returns the cumulative number of incremental rehash node
// moves performed over the lifetime of the store.
func (s *Store) RehashMoves() int {
	return s.m.RehashMoves()
}
