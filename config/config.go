package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config drives the genl tool.
type Config struct {
	// Interface is the wireless interface iface describes when none is
	// given, by name or index.
	Interface string `yaml:"interface"`
	// Size of the buffer each datagram is received into.
	ReceiveBuffer int `yaml:"receive_buffer"`
	// Receive timeout; zero blocks forever.
	ReceiveTimeout_ms uint64 `yaml:"receive_timeout_ms"`
	// One of trace, debug, info, warn, error, disabled.
	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		ReceiveBuffer:     8192,
		ReceiveTimeout_ms: 5000,
		LogLevel:          "info",
	}
}

func (c *Config) ReceiveTimeout() time.Duration {
	return time.Duration(c.ReceiveTimeout_ms) * time.Millisecond
}

// Validate checks the configuration for sanity.
func (c *Config) Validate() error {
	if c.ReceiveBuffer < 4096 {
		return fmt.Errorf("receive_buffer %d too small (minimum 4096)", c.ReceiveBuffer)
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}

// Parse reads YAML over the defaults.  Unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(r, yaml.Strict())
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to parse configuration: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open configuration file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}
