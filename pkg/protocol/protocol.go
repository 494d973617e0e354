// Package protocol implements the wire codec for the key-value server: a
// length-prefixed request format that tolerates arbitrary TCP fragmentation
// and pipelining, and the matching response framing.
//
// Wire format, all integers big-endian:
//
//	request  := u32 frame_len | u32 n_args | (u32 arg_len | arg_bytes){n_args}
//	response := u32 frame_len | resp_bytes
//
// frame_len excludes the 4 header bytes it precedes. n_args must be 2 or 3.
package protocol

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// FrameHeaderSize is the width of the outer length prefix.
	FrameHeaderSize = 4
	// argHeaderSize is the width of one inner argument's length prefix.
	argHeaderSize = 4
	// MinArgs and MaxArgs bound n_args: only get/del (2) and set (3) exist.
	MinArgs = 2
	MaxArgs = 3
)

// Sentinel errors returned by ParseRequest to mark a fatal protocol
// violation. The caller should destroy the connection on any of these,
// optionally after emitting a final error frame if space allows.
var (
	// ErrTooLarge is returned when a request would exceed the configured
	// max message size.
	ErrTooLarge = errors.New("protocol: request exceeds max message size")
	// ErrBadArity is returned when n_args is outside {2, 3}, and also when
	// the payload is malformed: too short to hold n_args, an argument
	// running past the end of the frame, or trailing bytes after the last
	// argument.
	ErrBadArity = errors.New("protocol: n_args out of range")
)

// Request is a parsed command: an ordered list of byte-string arguments,
// the first of which is the verb. Not retained past the dispatch call that
// consumes it.
type Request struct {
	Args [][]byte
}

// ParseRequest attempts to consume exactly one framed request from the
// front of buf.
//
// Return contract:
//   - (nil, 0, nil): not enough bytes yet for a complete request.
//   - (req, n, nil): a complete request was parsed, occupying the first n
//     bytes of buf.
//   - (nil, 0, err): the bytes seen so far can never form a valid request
//     under maxMessageSize; the connection must be destroyed.
func ParseRequest(buf []byte, maxMessageSize int) (*Request, int, error) {
	if len(buf) < FrameHeaderSize {
		return nil, 0, nil
	}

	frameLen := binary.BigEndian.Uint32(buf[0:4])
	total := FrameHeaderSize + int(frameLen)
	if total > maxMessageSize {
		return nil, 0, ErrTooLarge
	}
	if len(buf) < total {
		return nil, 0, nil
	}

	payload := buf[FrameHeaderSize:total]
	if len(payload) < 4 {
		return nil, 0, ErrBadArity
	}
	nArgs := binary.BigEndian.Uint32(payload[0:4])
	if nArgs < MinArgs || nArgs > MaxArgs {
		return nil, 0, ErrBadArity
	}

	args := make([][]byte, 0, nArgs)
	off := 4
	for i := uint32(0); i < nArgs; i++ {
		if off+argHeaderSize > len(payload) {
			return nil, 0, ErrBadArity
		}
		argLen := binary.BigEndian.Uint32(payload[off : off+argHeaderSize])
		off += argHeaderSize
		if off+int(argLen) > len(payload) {
			return nil, 0, ErrBadArity
		}
		args = append(args, payload[off:off+int(argLen)])
		off += int(argLen)
	}
	if off != len(payload) {
		return nil, 0, ErrBadArity
	}

	return &Request{Args: args}, total, nil
}

// EncodeResponse wraps body in the outer length-prefixed response frame.
func EncodeResponse(body []byte) []byte {
	out := make([]byte, FrameHeaderSize+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(body)))
	copy(out[4:], body)
	return out
}

// EncodeRequest builds a complete framed request from args, for use by
// client code. It mirrors ParseRequest's layout exactly.
func EncodeRequest(args ...[]byte) ([]byte, error) {
	if len(args) < MinArgs || len(args) > MaxArgs {
		return nil, errors.Errorf("protocol: EncodeRequest given %d args, want %d..%d", len(args), MinArgs, MaxArgs)
	}
	payloadLen := 4
	for _, a := range args {
		payloadLen += argHeaderSize + len(a)
	}
	out := make([]byte, FrameHeaderSize+payloadLen)
	binary.BigEndian.PutUint32(out[0:4], uint32(payloadLen))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(args)))
	off := 8
	for _, a := range args {
		binary.BigEndian.PutUint32(out[off:off+argHeaderSize], uint32(len(a)))
		off += argHeaderSize
		copy(out[off:], a)
		off += len(a)
	}
	return out, nil
}

// ReadResponse reads exactly one framed response from the front of buf,
// returning its body and the number of bytes consumed, or (nil, 0) if buf
// does not yet hold a complete frame.
func ReadResponse(buf []byte) (body []byte, consumed int) {
	if len(buf) < FrameHeaderSize {
		return nil, 0
	}
	frameLen := binary.BigEndian.Uint32(buf[0:4])
	total := FrameHeaderSize + int(frameLen)
	if len(buf) < total {
		return nil, 0
	}
	return buf[FrameHeaderSize:total], total
}
