package server

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/loopkv/loopkv/internal/dispatch"
	"github.com/loopkv/loopkv/internal/metrics"
	"github.com/loopkv/loopkv/pkg/protocol"
	"github.com/loopkv/loopkv/pkg/store"
)

// connection holds the per-fd state for one accepted socket: a fixed
// receive buffer, a fixed send buffer, and a single pending response slot
// used to implement back-pressure policy (a) from the connection-state
// design notes. When a computed response does not fit the remaining send
// buffer capacity, parsing suspends until the send buffer drains, rather
// than dropping the response or closing the connection.
//
// Every method here assumes edge-triggered readiness: OnReadable and
// OnWritable each pump the fd until the kernel reports would-block, since
// otherwise a subsequent readiness transition may never be observed.
type connection struct {
	fd             int32
	remoteAddr     string
	store          *store.Store
	maxMessageSize int

	rx    []byte
	rxLen int

	tx      []byte
	txLen   int
	sentOff int

	pending []byte
}

func newConnection(fd int32, remoteAddr string, s *store.Store, maxMessageSize int) *connection {
	capacity := protocol.FrameHeaderSize + maxMessageSize
	return &connection{
		fd:             fd,
		remoteAddr:     remoteAddr,
		store:          s,
		maxMessageSize: maxMessageSize,
		rx:             make([]byte, capacity),
		tx:             make([]byte, capacity),
	}
}

// WantWrite reports whether this connection's fd should be armed for
// write-readiness: either because unsent bytes remain in the send buffer,
// or because a computed response is waiting for send-buffer room.
func (c *connection) WantWrite() bool {
	return c.txLen > c.sentOff || c.pending != nil
}

// stage appends resp to the send buffer if it fits in the remaining
// capacity. It does not partially stage a response.
func (c *connection) stage(resp []byte) bool {
	if len(c.tx)-c.txLen < len(resp) {
		return false
	}
	copy(c.tx[c.txLen:], resp)
	c.txLen += len(resp)
	return true
}

// flushPending attempts to move a previously-blocked response into the
// send buffer. Returns true once nothing remains pending.
func (c *connection) flushPending() bool {
	if c.pending == nil {
		return true
	}
	if !c.stage(c.pending) {
		return false
	}
	c.pending = nil
	return true
}

func fatalResponseText(err error) string {
	switch {
	case errors.Is(err, protocol.ErrTooLarge):
		return "request exceeds maximum message size\n"
	case errors.Is(err, protocol.ErrBadArity):
		return "invalid number of arguments\n"
	default:
		return "protocol error\n"
	}
}

// drainParse runs the parse-and-dispatch loop against the unconsumed
// prefix of rx, staging each response (subject to back-pressure) and
// compacting rx on exit. It reports whether the connection must be
// destroyed.
func (c *connection) drainParse() (destroy bool) {
	if !c.flushPending() {
		return false
	}

	cursor := 0
	for {
		req, n, err := protocol.ParseRequest(c.rx[cursor:c.rxLen], c.maxMessageSize)
		if err != nil {
			frame := protocol.EncodeResponse([]byte(fatalResponseText(err)))
			c.stage(frame) // best-effort; flushed synchronously by destroyConn
			metrics.ProtocolErrorsTotal.Inc()
			cursor = c.rxLen
			destroy = true
			break
		}
		if req == nil {
			break
		}
		cursor += n

		body := dispatch.Execute(c.store, req)
		frame := protocol.EncodeResponse(body)
		if !c.stage(frame) {
			if len(frame) > len(c.tx) {
				// This response can never fit the send buffer no matter
				// how much it drains; there is no recovery.
				destroy = true
				break
			}
			c.pending = frame
			break
		}
	}

	remaining := c.rxLen - cursor
	copy(c.rx[0:remaining], c.rx[cursor:c.rxLen])
	c.rxLen = remaining

	return destroy
}

// OnReadable pumps the fd's read side until the kernel reports
// would-block, running the parse-and-dispatch loop after every non-empty
// read. It reports whether the connection must be destroyed.
func (c *connection) OnReadable() (destroy bool) {
	for {
		if c.rxLen == len(c.rx) {
			// No room for more bytes; back-pressure from a stalled
			// send buffer will free space via a later OnWritable.
			return false
		}
		n, err := unix.Read(int(c.fd), c.rx[c.rxLen:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return false
			}
			return true
		}
		if n == 0 {
			return true // orderly EOF
		}
		c.rxLen += n
		if c.drainParse() {
			return true
		}
	}
}

// OnWritable pumps the fd's write side until the kernel reports
// would-block or the send buffer empties, then resumes any parsing that
// was suspended by back-pressure. It reports whether the connection must
// be destroyed.
func (c *connection) OnWritable() (destroy bool) {
	for c.txLen > c.sentOff {
		n, err := unix.Write(int(c.fd), c.tx[c.sentOff:c.txLen])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			return true
		}
		if n == 0 {
			return true
		}
		c.sentOff += n
	}
	if c.sentOff == c.txLen {
		c.sentOff = 0
		c.txLen = 0
	}

	if c.pending != nil || c.rxLen > 0 {
		if c.drainParse() {
			return true
		}
	}
	return false
}

// flushBeforeClose makes a best-effort attempt to write out whatever is
// staged in the send buffer, covering the fatal-protocol-error path where
// drainParse stages one final error frame and then asks to be destroyed
// immediately, with no further readiness event to drive OnWritable.
func (c *connection) flushBeforeClose() {
	for c.txLen > c.sentOff {
		n, err := unix.Write(int(c.fd), c.tx[c.sentOff:c.txLen])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if n == 0 {
			return
		}
		c.sentOff += n
	}
}

// Close closes the underlying fd. Safe to call once; callers must not use
// the connection afterward.
func (c *connection) Close() error {
	return unix.Close(int(c.fd))
}
