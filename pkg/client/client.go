// Package client provides a small SDK for talking to a loopkv server: a
// single TCP connection exercising the length-prefixed wire protocol to
// perform set, get, and del.
//
// There is no connection pooling and no multi-node routing here: the
// core server is a single unreplicated process, so a client talks to
// exactly one address.
//
// Example usage:
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
package client

import (
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/loopkv/loopkv/pkg/config"
	"github.com/loopkv/loopkv/pkg/protocol"
)

// ErrKeyNotFound is returned by Get and Del when the server reports the
// key does not exist.
var ErrKeyNotFound = errors.New("client: key not found")

// Client holds one connection to a loopkv server.
type Client struct {
	conn net.Conn
	cfg  *config.ClientConfig
	buf  []byte
}

// New dials addr with default timeouts and returns a ready Client.
func New(addr string) (*Client, error) {
	cfg := &config.ClientConfig{
		Address:      addr,
		ConnTimeout:  config.DefaultConnTimeoutSecs,
		ReadTimeout:  config.DefaultReadTimeoutSecs,
		WriteTimeout: config.DefaultWriteTimeoutSecs,
	}
	return NewWithConfig(cfg)
}

// NewWithConfig dials cfg.Address using cfg's timeouts.
func NewWithConfig(cfg *config.ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid client config")
	}
	conn, err := net.DialTimeout("tcp", cfg.Address, time.Duration(cfg.ConnTimeout)*time.Second)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", cfg.Address)
	}
	return &Client{conn: conn, cfg: cfg}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Set upserts key to value.
func (c *Client) Set(key, value string) error {
	_, err := c.roundTrip([]byte("set"), []byte(key), []byte(value))
	return err
}

// Get returns the value stored under key, or ErrKeyNotFound if absent.
func (c *Client) Get(key string) (string, error) {
	body, err := c.roundTrip([]byte("get"), []byte(key))
	if err != nil {
		return "", err
	}
	if string(body) == "key not found\n" {
		return "", ErrKeyNotFound
	}
	return parseGetResponse(body, key)
}

// Del removes key, returning ErrKeyNotFound if it was absent.
func (c *Client) Del(key string) error {
	body, err := c.roundTrip([]byte("del"), []byte(key))
	if err != nil {
		return err
	}
	if len(body) >= len(" not found\n") && string(body[len(body)-len(" not found\n"):]) == " not found\n" {
		return ErrKeyNotFound
	}
	return nil
}

// Ping verifies the connection is alive by sending a get for a key that
// very likely does not exist and checking that any response comes back.
func (c *Client) Ping() error {
	_, err := c.roundTrip([]byte("get"), []byte("__loopkv_ping__"))
	return err
}

func (c *Client) roundTrip(args ...[]byte) ([]byte, error) {
	req, err := protocol.EncodeRequest(args...)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	c.conn.SetWriteDeadline(time.Now().Add(time.Duration(c.cfg.WriteTimeout) * time.Second))
	if _, err := c.conn.Write(req); err != nil {
		return nil, errors.Wrap(err, "write request")
	}

	c.conn.SetReadDeadline(time.Now().Add(time.Duration(c.cfg.ReadTimeout) * time.Second))
	tmp := make([]byte, 4096)
	for {
		body, consumed := protocol.ReadResponse(c.buf)
		if consumed > 0 {
			c.buf = c.buf[consumed:]
			return body, nil
		}
		n, err := c.conn.Read(tmp)
		if err != nil {
			return nil, errors.Wrap(err, "read response")
		}
		c.buf = append(c.buf, tmp[:n]...)
	}
}

// parseGetResponse extracts the value from a "get <key> = <value>\n" body.
func parseGetResponse(body []byte, key string) (string, error) {
	prefix := "get " + key + " = "
	if len(body) < len(prefix) || string(body[:len(prefix)]) != prefix {
		return "", errors.Errorf("client: unexpected get response %q", body)
	}
	value := body[len(prefix):]
	if len(value) > 0 && value[len(value)-1] == '\n' {
		value = value[:len(value)-1]
	}
	return string(value), nil
}
