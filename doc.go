// Command loopkv is a single-process, single-threaded, in-memory
// key-value server exposing set, get, and del over TCP using a
// length-prefixed binary framing. Clients are long-lived and may
// pipeline requests.
//
// # Architecture Overview
//
// loopkv consists of several key components:
//
//   - Event Loop (internal/server): single-threaded epoll readiness
//     demultiplexer driving accept/read/write
//   - Connection State (internal/server): per-fd receive/send buffers
//     and the parse/dispatch/compact loop
//   - Command Dispatcher (internal/dispatch): maps parsed commands to
//     store operations and formats responses
//   - Protocol (pkg/protocol): length-prefixed wire codec
//   - Store (pkg/store) and Hash Map (pkg/hashtable): the two-table
//     chaining hash map with incremental rehashing
//   - Configuration (pkg/config): flags and environment variables
//   - Client SDK (pkg/client): a single-connection client
//
// # Quick Start
//
// Server:
//
//	go run ./cmd/server --port 3333
//
// Client:
//
//	import "github.com/loopkv/loopkv/pkg/client"
//
//	c, err := client.New("localhost:3333")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	if err := c.Set("user:1", "john_doe"); err != nil {
//		log.Fatal(err)
//	}
//	value, err := c.Get("user:1")
//
// # Supported Operations
//
//   - set <key> <value>: upsert
//   - get <key>: lookup
//   - del <key>: remove
//
// There is no TTL, no multi-value types, no replication, and no
// authentication: the server is a single unreplicated process holding
// one flat key space.
//
// # Configuration
//
// Server configuration via flags or environment variables:
//
//	./loopkv-server --port 3333 --max-message-size 1048576
//	# or
//	LOOPKV_PORT=3333 LOOPKV_MAX_MESSAGE_SIZE=1048576 ./loopkv-server
//
// # Package Structure
//
//   - pkg/client: single-connection client SDK
//   - pkg/store: key-value domain glue over the hash map
//   - pkg/hashtable: generic chaining hash map with incremental rehash
//   - pkg/protocol: length-prefixed binary wire codec
//   - pkg/hash: the 64-bit key-hashing primitive
//   - pkg/config: configuration management
//   - internal/server: event loop and connection state machine
//   - internal/dispatch: command dispatch and response formatting
//   - internal/metrics: Prometheus instrumentation
//   - cmd/server: server executable
//   - cmd/client: command-line client
//
// For detailed documentation of individual packages, see their
// respective godoc pages.
package loopkv
