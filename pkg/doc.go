// Package loopkv provides the core components for the loopkv key-value
// server.
//
// This package serves as the top-level anchor for godoc; the actual
// public API lives in the subpackages below.
//
// # Overview
//
// loopkv is a single-process, single-threaded, in-memory key-value
// server. It exposes three commands (set, get, del) over a
// length-prefixed binary TCP protocol, and tolerates arbitrary request
// fragmentation and pipelining.
//
// # Key Features
//
//   - Non-blocking, edge-triggered epoll event loop, single-threaded
//   - Two-table chaining hash map with incremental, bounded-work rehash
//   - Length-prefixed wire protocol with explicit back-pressure handling
//   - No locks, no atomics: correctness comes from strict single-threading
//
// # Architecture Components
//
// Event Loop (internal/server):
//   - epoll-based accept/read/write readiness demultiplexer
//   - one server context value owns the listener, epoll fd, and
//     fd-to-connection table
//
// Connection State (internal/server):
//   - fixed-capacity receive/send buffers per connection
//   - incremental parse-and-dispatch loop with back-pressure suspension
//
// Command Dispatcher (internal/dispatch):
//   - arity checking and verb dispatch against the store
//   - exact response-text formatting
//
// Hash Map (pkg/hashtable) and Store (pkg/store):
//   - generic chaining hash map with incremental rehashing
//   - a thin key-value domain layer over it (xxhash-based hashing,
//     Entry allocation)
//
// Protocol (pkg/protocol):
//   - length-prefixed request/response framing
//   - need-more / consumed / fatal parser contract
//
// Configuration (pkg/config):
//   - flags and LOOPKV_* environment variables
//   - validation before use
//
// # Usage Examples
//
// Basic client usage:
//
//	import "github.com/loopkv/loopkv/pkg/client"
//
//	c, err := client.New("localhost:3333")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	err = c.Set("user:123", "john_doe")
//	value, err := c.Get("user:123")
//	err = c.Del("user:123")
//
// Server setup:
//
//	import "github.com/loopkv/loopkv/internal/server"
//	import "github.com/loopkv/loopkv/pkg/config"
//
//	cfg := config.LoadServerConfig()
//	srv := server.New(cfg.Host, cfg.Port, cfg.MaxMessageSize)
//	log.Fatal(srv.Run())
//
// # Concurrency
//
// The event loop, connection state, command dispatcher, and hash map are
// all single-threaded by design and must not be used from more than one
// goroutine concurrently. The metrics HTTP server runs on its own
// goroutine but only touches independent atomic counters.
//
// # Non-goals
//
// Persistence, replication, authentication, transactions, TLS,
// expiration/TTL, multi-threaded dispatch, IPv6, and any command beyond
// set/get/del are explicitly out of scope.
//
// For detailed documentation of specific components, refer to their
// individual package documentation.
package loopkv
