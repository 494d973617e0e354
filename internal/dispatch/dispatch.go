// Package dispatch maps parsed commands onto store operations and formats
// their responses. It owns no I/O: it is handed a parsed request and the
// store, and returns the exact bytes to frame and write back.
package dispatch

import (
	"fmt"

	"github.com/loopkv/loopkv/internal/metrics"
	"github.com/loopkv/loopkv/pkg/protocol"
	"github.com/loopkv/loopkv/pkg/store"
)

const (
	verbSet     = "set"
	verbGet     = "get"
	verbDel     = "del"
	verbUnknown = "unknown"
)

// Execute dispatches one parsed request against s and returns the
// response body (without the outer frame; the caller frames it). Arity
// violations and unknown verbs produce a recoverable response body, not
// an error: only a fatal protocol violation (handled upstream in
// pkg/protocol) destroys the connection.
func Execute(s *store.Store, req *protocol.Request) []byte {
	verb := string(req.Args[0])

	before := s.RehashMoves()
	var body []byte
	switch verb {
	case verbSet:
		body = dispatchSet(s, req.Args)
	case verbGet:
		body = dispatchGet(s, req.Args)
	case verbDel:
		body = dispatchDel(s, req.Args)
	default:
		metrics.CommandsTotal.WithLabelValues(verbUnknown, "bad_verb").Inc()
		body = []byte("unknown command\n")
	}
	metrics.RehashMovesTotal.Add(float64(s.RehashMoves() - before))
	return body
}

func dispatchSet(s *store.Store, args [][]byte) []byte {
	if len(args) != 3 {
		metrics.CommandsTotal.WithLabelValues(verbSet, "bad_arity").Inc()
		return []byte("invalid number of arguments, set requires two arguments\n")
	}
	key, value := args[1], args[2]
	s.Set(key, value)
	metrics.CommandsTotal.WithLabelValues(verbSet, "ok").Inc()
	return []byte(fmt.Sprintf("set %s to %s\n", key, value))
}

func dispatchGet(s *store.Store, args [][]byte) []byte {
	if len(args) != 2 {
		metrics.CommandsTotal.WithLabelValues(verbGet, "bad_arity").Inc()
		return []byte("invalid number of arguments\n")
	}
	key := args[1]
	value, ok := s.Get(key)
	if !ok {
		metrics.CommandsTotal.WithLabelValues(verbGet, "not_found").Inc()
		return []byte("key not found\n")
	}
	metrics.CommandsTotal.WithLabelValues(verbGet, "ok").Inc()
	return []byte(fmt.Sprintf("get %s = %s\n", key, value))
}

func dispatchDel(s *store.Store, args [][]byte) []byte {
	if len(args) != 2 {
		metrics.CommandsTotal.WithLabelValues(verbDel, "bad_arity").Inc()
		return []byte("invalid number of arguments, del requires one argument\n")
	}
	key := args[1]
	if !s.Del(key) {
		metrics.CommandsTotal.WithLabelValues(verbDel, "not_found").Inc()
		return []byte(fmt.Sprintf("key %s not found\n", key))
	}
	metrics.CommandsTotal.WithLabelValues(verbDel, "ok").Inc()
	return []byte(fmt.Sprintf("key %s deleted\n", key))
}
