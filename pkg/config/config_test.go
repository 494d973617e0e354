package config

import "testing"

func TestServerConfigValidate(t *testing.T) {
	c := &ServerConfig{Port: 3333, MaxMessageSize: 1 << 20, LogLevel: "info"}
	if err := c.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	bad := &ServerConfig{Port: 0, MaxMessageSize: 1 << 20, LogLevel: "info"}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for invalid port")
	}

	bad = &ServerConfig{Port: 3333, MaxMessageSize: 0, LogLevel: "info"}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for non-positive max message size")
	}

	bad = &ServerConfig{Port: 3333, MaxMessageSize: 1 << 20, LogLevel: "verbose"}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for invalid log level")
	}
}

func TestServerConfigAddress(t *testing.T) {
	c := &ServerConfig{Host: "0.0.0.0", Port: 3333}
	if got := c.Address(); got != "0.0.0.0:3333" {
		t.Errorf("Address: got %q, want %q", got, "0.0.0.0:3333")
	}
}

func TestClientConfigValidate(t *testing.T) {
	c := &ClientConfig{Address: "localhost:3333", ConnTimeout: 5, ReadTimeout: 30, WriteTimeout: 10}
	if err := c.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	bad := &ClientConfig{Address: "", ConnTimeout: 5, ReadTimeout: 30, WriteTimeout: 10}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for empty address")
	}

	bad = &ClientConfig{Address: "no-port", ConnTimeout: 5, ReadTimeout: 30, WriteTimeout: 10}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for address without colon")
	}

	bad = &ClientConfig{Address: "localhost:3333", ConnTimeout: 0, ReadTimeout: 30, WriteTimeout: 10}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for non-positive connection timeout")
	}
}
