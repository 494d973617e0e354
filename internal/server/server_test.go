package server

import (
	"net"
	"testing"
	"time"

	"github.com/loopkv/loopkv/pkg/protocol"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	// The core's listener setup binds a fixed configured port; tests pick
	// an ephemeral one up front and configure the server with it.
	port, err := freePort()
	if err != nil {
		t.Fatalf("freePort: %v", err)
	}
	srv := New("127.0.0.1", port, 1<<20)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	addr := net.JoinHostPort("127.0.0.1", itoa(port))
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		srv.Stop()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
		}
	})

	return srv, addr
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func sendAndRead(t *testing.T, conn net.Conn, args ...string) string {
	t.Helper()
	bargs := make([][]byte, len(args))
	for i, a := range args {
		bargs[i] = []byte(a)
	}
	req, err := protocol.EncodeRequest(bargs...)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if _, err := conn.Write(req); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 0, 256)
	tmp := make([]byte, 256)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		body, consumed := protocol.ReadResponse(buf)
		if consumed > 0 {
			return string(body)
		}
		n, err := conn.Read(tmp)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		buf = append(buf, tmp[:n]...)
	}
}

func TestEndToEndScenarios(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if got := sendAndRead(t, conn, "get", "x"); got != "key not found\n" {
		t.Errorf("scenario 1: got %q", got)
	}
	if got := sendAndRead(t, conn, "set", "x", "1"); got != "set x to 1\n" {
		t.Errorf("scenario 2 set: got %q", got)
	}
	if got := sendAndRead(t, conn, "get", "x"); got != "get x = 1\n" {
		t.Errorf("scenario 2 get: got %q", got)
	}
	if got := sendAndRead(t, conn, "set", "x", "2"); got != "set x to 2\n" {
		t.Errorf("scenario 3 set: got %q", got)
	}
	if got := sendAndRead(t, conn, "get", "x"); got != "get x = 2\n" {
		t.Errorf("scenario 3 get: got %q", got)
	}
	if got := sendAndRead(t, conn, "del", "x"); got != "key x deleted\n" {
		t.Errorf("scenario 4 del: got %q", got)
	}
	if got := sendAndRead(t, conn, "get", "x"); got != "key not found\n" {
		t.Errorf("scenario 4 get: got %q", got)
	}
}

func TestPipeliningPreservesOrder(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req1, _ := protocol.EncodeRequest([]byte("set"), []byte("a"), []byte("1"))
	req2, _ := protocol.EncodeRequest([]byte("set"), []byte("a"), []byte("2"))
	req3, _ := protocol.EncodeRequest([]byte("get"), []byte("a"))

	batch := append(append(append([]byte{}, req1...), req2...), req3...)
	if _, err := conn.Write(batch); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 0, 512)
	tmp := make([]byte, 256)
	var bodies []string
	for len(bodies) < 3 {
		body, consumed := protocol.ReadResponse(buf)
		if consumed > 0 {
			bodies = append(bodies, string(body))
			buf = buf[consumed:]
			continue
		}
		n, err := conn.Read(tmp)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		buf = append(buf, tmp[:n]...)
	}

	want := []string{"set a to 1\n", "set a to 2\n", "get a = 2\n"}
	for i, w := range want {
		if bodies[i] != w {
			t.Errorf("response %d: got %q, want %q", i, bodies[i], w)
		}
	}
}

func TestBadArityClosesConnection(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// n_args = 4, outside {2,3}: build the frame directly since
	// EncodeRequest refuses to build an invalid request.
	payload := make([]byte, 4+4*4)
	putU32 := func(b []byte, v uint32) {
		b[0] = byte(v >> 24)
		b[1] = byte(v >> 16)
		b[2] = byte(v >> 8)
		b[3] = byte(v)
	}
	putU32(payload[0:4], 4)
	frame := make([]byte, 4+len(payload))
	putU32(frame[0:4], uint32(len(payload)))
	copy(frame[4:], payload)

	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Read until the server closes the connection; a read timeout means
	// it was left open.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got []byte
	tmp := make([]byte, 256)
	for {
		n, err := conn.Read(tmp)
		got = append(got, tmp[:n]...)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				t.Fatalf("connection not closed by server")
			}
			break
		}
	}

	body, consumed := protocol.ReadResponse(got)
	if consumed == 0 {
		t.Fatalf("no error frame received before close, got %q", got)
	}
	if string(body) != "invalid number of arguments\n" {
		t.Errorf("error frame: got %q", body)
	}
}
