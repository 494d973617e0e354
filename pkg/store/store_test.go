package store

import (
	"fmt"
	"testing"
)

func TestSetGetDel(t *testing.T) {
	s := New()

	if _, ok := s.Get([]byte("x")); ok {
		t.Errorf("get on empty store: expected absent")
	}

	s.Set([]byte("x"), []byte("1"))
	if v, ok := s.Get([]byte("x")); !ok || string(v) != "1" {
		t.Errorf("get x: got %q, %v", v, ok)
	}

	s.Set([]byte("x"), []byte("2"))
	if v, ok := s.Get([]byte("x")); !ok || string(v) != "2" {
		t.Errorf("get x after overwrite: got %q, %v", v, ok)
	}

	if !s.Del([]byte("x")) {
		t.Errorf("del x: expected true")
	}
	if _, ok := s.Get([]byte("x")); ok {
		t.Errorf("get x after del: expected absent")
	}
	if s.Del([]byte("x")) {
		t.Errorf("del x twice: expected false")
	}
}

func TestSetDoesNotAliasCallerBuffer(t *testing.T) {
	s := New()
	key := []byte("k")
	val := []byte{'v'}
	s.Set(key, val)
	val[0] = 'z'

	v, ok := s.Get([]byte("k"))
	if !ok || string(v) != "v" {
		t.Errorf("Set must copy its value, got %q after caller mutated its buffer", v)
	}
}

func TestRehashSurvivesManyKeys(t *testing.T) {
	s := New()
	const n = 100
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%d", i)
		s.Set([]byte(key), []byte(fmt.Sprintf("v%d", i)))
	}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%d", i)
		v, ok := s.Get([]byte(key))
		if !ok || string(v) != fmt.Sprintf("v%d", i) {
			t.Errorf("key %s: got %q, %v", key, v, ok)
		}
	}
	if s.Len() != n {
		t.Errorf("len: got %d, want %d", s.Len(), n)
	}
}
