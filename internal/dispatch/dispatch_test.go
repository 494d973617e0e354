package dispatch

import (
	"testing"

	"github.com/loopkv/loopkv/pkg/protocol"
	"github.com/loopkv/loopkv/pkg/store"
)

func req(args ...string) *protocol.Request {
	r := &protocol.Request{}
	for _, a := range args {
		r.Args = append(r.Args, []byte(a))
	}
	return r
}

func TestDispatchTable(t *testing.T) {
	s := store.New()

	cases := []struct {
		name string
		req  *protocol.Request
		want string
	}{
		{"get missing", req("get", "x"), "key not found\n"},
		{"set x 1", req("set", "x", "1"), "set x to 1\n"},
		{"get x", req("get", "x"), "get x = 1\n"},
		{"set x 2", req("set", "x", "2"), "set x to 2\n"},
		{"get x again", req("get", "x"), "get x = 2\n"},
		{"del x", req("del", "x"), "key x deleted\n"},
		{"get x after del", req("get", "x"), "key not found\n"},
		{"del x again", req("del", "x"), "key x not found\n"},
		{"set bad arity", req("set", "x"), "invalid number of arguments, set requires two arguments\n"},
		{"get bad arity", req("get"), "invalid number of arguments\n"},
		{"del bad arity", req("del"), "invalid number of arguments, del requires one argument\n"},
		{"unknown verb", req("frobnicate", "x"), "unknown command\n"},
	}

	for _, c := range cases {
		got := Execute(s, c.req)
		if string(got) != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}
