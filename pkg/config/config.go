// Package config provides configuration management for the loopkv server
// and client components.
//
// The package supports configuration through multiple sources with the
// following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables
//  3. Default values (lowest priority)
//
// Server Configuration:
//   - Host and port binding settings
//   - Maximum message size (wire protocol framing cap)
//   - Logging and metrics endpoint settings
//
// Client Configuration:
//   - Single server address and connection timeouts
//
// Example server usage:
//
//	config := config.LoadServerConfig()
//	if err := config.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	srv := server.New(config.Host, config.Port, config.MaxMessageSize)
//
// Environment variables are prefixed with "LOOPKV_" and use uppercase names.
// For example, the server port can be set with LOOPKV_PORT=3333.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Default server configuration constants.
const (
	DefaultServerPort       = 3333
	DefaultMaxMessageSize   = 1 << 20
	DefaultConnTimeoutSecs  = 5
	DefaultReadTimeoutSecs  = 30
	DefaultWriteTimeoutSecs = 10
)

// ServerConfig holds all configuration options for a loopkv server
// instance.
//
// Configuration sources (in order of precedence):
//  1. Command-line flags: -port, -host, -max-message-size, etc.
//  2. Environment variables: LOOPKV_PORT, LOOPKV_HOST, etc.
//  3. Default values
type ServerConfig struct {
	Host           string // Host address to bind to (default: "0.0.0.0")
	LogLevel       string // Log level: debug, info, warn, error (default: "info")
	MetricsAddr    string // Address for the Prometheus /metrics endpoint (default: "127.0.0.1:9090")
	Port           int    // TCP port to listen on (default: 3333)
	MaxMessageSize int    // Maximum bytes for one framed request, including the outer header (default: 1<<20)
}

// ClientConfig holds all configuration options for a loopkv client
// instance. The client talks to exactly one server; there is no node
// discovery or pooling, since the core server is a single unreplicated
// process.
type ClientConfig struct {
	Address      string // Server address, host:port (default: "localhost:3333")
	ConnTimeout  int    // Connection timeout in seconds (default: 5)
	ReadTimeout  int    // Read timeout in seconds (default: 30)
	WriteTimeout int    // Write timeout in seconds (default: 10)
}

// LoadServerConfig creates a ServerConfig by loading values from
// command-line flags and environment variables, with sensible defaults.
//
// Command-line flags:
//
//	-port: Server port (default: 3333)
//	-host: Server host (default: "0.0.0.0")
//	-max-message-size: Maximum request size in bytes (default: 1048576)
//	-metrics-addr: Prometheus metrics listen address (default: "127.0.0.1:9090")
//	-log-level: Log level (default: "info")
//
// Environment variables:
//
//	LOOPKV_PORT, LOOPKV_HOST, LOOPKV_MAX_MESSAGE_SIZE, LOOPKV_METRICS_ADDR, LOOPKV_LOG_LEVEL
func LoadServerConfig() *ServerConfig {
	config := &ServerConfig{
		Port:           DefaultServerPort,
		Host:           "0.0.0.0",
		MaxMessageSize: DefaultMaxMessageSize,
		MetricsAddr:    "127.0.0.1:9090",
		LogLevel:       "info",
	}

	// Environment values become the flag defaults, so an explicitly set
	// flag still wins over the environment.
	applyServerEnv(config)

	flag.IntVar(&config.Port, "port", config.Port, "Server port")
	flag.StringVar(&config.Host, "host", config.Host, "Server host")
	flag.IntVar(&config.MaxMessageSize, "max-message-size", config.MaxMessageSize, "Maximum bytes for one framed request")
	flag.StringVar(&config.MetricsAddr, "metrics-addr", config.MetricsAddr, "Prometheus metrics listen address")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	return config
}

// ServerConfigFromEnv builds a ServerConfig from defaults and LOOPKV_*
// environment variables only, without touching the standard library
// flag package's global FlagSet. Intended for callers (such as a cobra
// command) that parse their own flags and want to layer them on top.
func ServerConfigFromEnv() *ServerConfig {
	config := &ServerConfig{
		Port:           DefaultServerPort,
		Host:           "0.0.0.0",
		MaxMessageSize: DefaultMaxMessageSize,
		MetricsAddr:    "127.0.0.1:9090",
		LogLevel:       "info",
	}
	applyServerEnv(config)
	return config
}

func applyServerEnv(config *ServerConfig) {
	if port := os.Getenv("LOOPKV_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
	if host := os.Getenv("LOOPKV_HOST"); host != "" {
		config.Host = host
	}
	if size := os.Getenv("LOOPKV_MAX_MESSAGE_SIZE"); size != "" {
		if sz, err := strconv.Atoi(size); err == nil {
			config.MaxMessageSize = sz
		}
	}
	if addr := os.Getenv("LOOPKV_METRICS_ADDR"); addr != "" {
		config.MetricsAddr = addr
	}
	if level := os.Getenv("LOOPKV_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
}

// LoadClientConfig creates a ClientConfig by loading values from
// environment variables, with sensible defaults.
//
// Environment variables:
//
//	LOOPKV_ADDRESS: Server address, host:port
//	LOOPKV_CONN_TIMEOUT: Connection timeout in seconds
//	LOOPKV_READ_TIMEOUT: Read timeout in seconds
//	LOOPKV_WRITE_TIMEOUT: Write timeout in seconds
func LoadClientConfig() *ClientConfig {
	config := &ClientConfig{
		Address:      "localhost:3333",
		ConnTimeout:  DefaultConnTimeoutSecs,
		ReadTimeout:  DefaultReadTimeoutSecs,
		WriteTimeout: DefaultWriteTimeoutSecs,
	}

	if addr := os.Getenv("LOOPKV_ADDRESS"); addr != "" {
		config.Address = addr
	}
	if connTimeout := os.Getenv("LOOPKV_CONN_TIMEOUT"); connTimeout != "" {
		if ct, err := strconv.Atoi(connTimeout); err == nil {
			config.ConnTimeout = ct
		}
	}
	if readTimeout := os.Getenv("LOOPKV_READ_TIMEOUT"); readTimeout != "" {
		if rt, err := strconv.Atoi(readTimeout); err == nil {
			config.ReadTimeout = rt
		}
	}
	if writeTimeout := os.Getenv("LOOPKV_WRITE_TIMEOUT"); writeTimeout != "" {
		if wt, err := strconv.Atoi(writeTimeout); err == nil {
			config.WriteTimeout = wt
		}
	}

	return config
}

// Address returns the full address string for the server to bind to.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the ServerConfig contains valid values.
//
// Validation rules:
//   - Port must be between 1 and 65535
//   - MaxMessageSize must be positive
//   - LogLevel must be one of: debug, info, warn, error
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxMessageSize < 1 {
		return fmt.Errorf("max message size must be positive: %d", c.MaxMessageSize)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// Validate checks if the ClientConfig contains valid values.
//
// Validation rules:
//   - Address must be non-empty and contain a colon
//   - All timeout values must be positive
func (c *ClientConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address must be set")
	}
	if !containsColon(c.Address) {
		return fmt.Errorf("invalid address format: %s", c.Address)
	}
	if c.ConnTimeout < 1 {
		return fmt.Errorf("connection timeout must be positive: %d", c.ConnTimeout)
	}
	if c.ReadTimeout < 1 {
		return fmt.Errorf("read timeout must be positive: %d", c.ReadTimeout)
	}
	if c.WriteTimeout < 1 {
		return fmt.Errorf("write timeout must be positive: %d", c.WriteTimeout)
	}
	return nil
}

func containsColon(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return true
		}
	}
	return false
}
