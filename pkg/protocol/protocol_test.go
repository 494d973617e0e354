package protocol

import (
	"bytes"
	"testing"
)

const testMaxMessageSize = 1 << 20

func TestEncodeParseRoundTrip(t *testing.T) {
	req, err := EncodeRequest([]byte("set"), []byte("x"), []byte("1"))
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}

	parsed, consumed, err := ParseRequest(req, testMaxMessageSize)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if consumed != len(req) {
		t.Errorf("consumed: got %d, want %d", consumed, len(req))
	}
	want := [][]byte{[]byte("set"), []byte("x"), []byte("1")}
	if len(parsed.Args) != len(want) {
		t.Fatalf("args: got %d, want %d", len(parsed.Args), len(want))
	}
	for i := range want {
		if !bytes.Equal(parsed.Args[i], want[i]) {
			t.Errorf("arg %d: got %q, want %q", i, parsed.Args[i], want[i])
		}
	}

	wantConsumed := 4 + 4 + (4+3)+(4+1)+(4+1)
	if consumed != wantConsumed {
		t.Errorf("consumed: got %d, want %d", consumed, wantConsumed)
	}
}

func TestParseRequestNeedsMore(t *testing.T) {
	req, err := EncodeRequest([]byte("get"), []byte("x"))
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}

	for cut := 0; cut < len(req); cut++ {
		parsed, consumed, err := ParseRequest(req[:cut], testMaxMessageSize)
		if err != nil {
			t.Fatalf("ParseRequest at cut=%d: unexpected error %v", cut, err)
		}
		if parsed != nil || consumed != 0 {
			t.Fatalf("ParseRequest at cut=%d: expected need-more, got %v %d", cut, parsed, consumed)
		}
	}
}

func TestParseRequestFragmentation(t *testing.T) {
	req, _ := EncodeRequest([]byte("set"), []byte("key"), []byte("value"))

	for split := 0; split <= len(req); split++ {
		buf := append([]byte(nil), req[:split]...)
		parsed, consumed, err := ParseRequest(buf, testMaxMessageSize)
		if split < len(req) {
			if err != nil || parsed != nil {
				t.Fatalf("split=%d: expected need-more, got %v %v %v", split, parsed, consumed, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("split=%d: unexpected error %v", split, err)
		}
		if consumed != len(req) {
			t.Fatalf("split=%d: consumed %d, want %d", split, consumed, len(req))
		}
	}
}

func TestParseRequestPipelining(t *testing.T) {
	req1, _ := EncodeRequest([]byte("set"), []byte("a"), []byte("1"))
	req2, _ := EncodeRequest([]byte("get"), []byte("a"))

	buf := append(append([]byte(nil), req1...), req2...)

	parsed1, n1, err := ParseRequest(buf, testMaxMessageSize)
	if err != nil || parsed1 == nil {
		t.Fatalf("first parse: %v %v", parsed1, err)
	}
	if n1 != len(req1) {
		t.Fatalf("first consumed: got %d, want %d", n1, len(req1))
	}

	parsed2, n2, err := ParseRequest(buf[n1:], testMaxMessageSize)
	if err != nil || parsed2 == nil {
		t.Fatalf("second parse: %v %v", parsed2, err)
	}
	if n2 != len(req2) {
		t.Fatalf("second consumed: got %d, want %d", n2, len(req2))
	}
	if string(parsed2.Args[0]) != "get" || string(parsed2.Args[1]) != "a" {
		t.Errorf("second request args: got %v", parsed2.Args)
	}
}

func TestParseRequestBadArity(t *testing.T) {
	// n_args = 4, which is out of {2,3}.
	payload := make([]byte, 4+4*4)
	putU32 := func(b []byte, v uint32) { b[0] = byte(v >> 24); b[1] = byte(v >> 16); b[2] = byte(v >> 8); b[3] = byte(v) }
	putU32(payload[0:4], 4)
	for i := 0; i < 4; i++ {
		putU32(payload[4+i*4:8+i*4], 0)
	}
	frame := make([]byte, 4+len(payload))
	putU32(frame[0:4], uint32(len(payload)))
	copy(frame[4:], payload)

	_, _, err := ParseRequest(frame, testMaxMessageSize)
	if err != ErrBadArity {
		t.Errorf("expected ErrBadArity, got %v", err)
	}
}

func TestParseRequestTooLarge(t *testing.T) {
	req, _ := EncodeRequest([]byte("set"), []byte("key"), []byte("value"))

	_, _, err := ParseRequest(req, len(req)-1)
	if err != ErrTooLarge {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestEncodeResponseReadResponse(t *testing.T) {
	body := []byte("get x = 1\n")
	frame := EncodeResponse(body)

	got, consumed := ReadResponse(frame)
	if consumed != len(frame) {
		t.Errorf("consumed: got %d, want %d", consumed, len(frame))
	}
	if !bytes.Equal(got, body) {
		t.Errorf("body: got %q, want %q", got, body)
	}
}

func TestReadResponseNeedsMore(t *testing.T) {
	frame := EncodeResponse([]byte("hello\n"))
	for cut := 0; cut < len(frame); cut++ {
		body, consumed := ReadResponse(frame[:cut])
		if body != nil || consumed != 0 {
			t.Errorf("cut=%d: expected need-more, got %v %d", cut, body, consumed)
		}
	}
}
