// Package hash provides the key-hashing primitive used to place entries
// into hash map buckets. The core hash map itself is agnostic to the hash
// function; this package supplies the one well-distributed 64-bit hash used
// consistently across the store.
package hash

import "github.com/cespare/xxhash/v2"

// Key64 returns a 64-bit hash of b. The same function must be used for a
// given key everywhere it is hashed, or lookups will silently miss.
func Key64(b []byte) uint64 {
	return xxhash.Sum64(b)
}
