// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultListenAddress is where the proxy listens when the config does
// not say otherwise. Loopback only: the proxy trusts its callers and
// must never be reachable from outside the machine.
const DefaultListenAddress = "127.0.0.1:18791"

// DefaultControlSocket is the default Unix socket path for the control
// plane (pending approvals, resolution, status).
const DefaultControlSocket = "/run/egress/control.sock"

// Config is the top-level configuration for the egress proxy daemon.
type Config struct {
	// ListenAddress is the TCP address the proxy listens on.
	// Defaults to 127.0.0.1:18791.
	ListenAddress string `yaml:"listen_address"`

	// ControlSocket is the Unix socket path for the control plane.
	// Defaults to /run/egress/control.sock.
	ControlSocket string `yaml:"control_socket"`

	// AllowedDomains is the ordered static allowlist. Each entry is a
	// pattern: an exact domain ("github.com"), a wildcard-subdomain
	// pattern ("*.golang.org", which also matches the apex), or the
	// universal wildcard ("*"). Patterns are checked in order.
	AllowedDomains []string `yaml:"allowed_domains"`

	// ApprovalTimeout is how long a connection waits for a human
	// decision before giving up. Go duration string (e.g. "60s",
	// "5m"). Defaults to 60s.
	ApprovalTimeout string `yaml:"approval_timeout"`

	// DialTimeout bounds the upstream TCP connect. Go duration
	// string. Defaults to 10s.
	DialTimeout string `yaml:"dial_timeout"`

	// MaxConnections caps concurrently handled client connections.
	// Zero (the default) means unlimited: every accepted connection
	// gets a handler goroutine immediately.
	MaxConnections int `yaml:"max_connections"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:   DefaultListenAddress,
		ControlSocket:   DefaultControlSocket,
		ApprovalTimeout: "60s",
		DialTimeout:     "10s",
	}
}

// LoadConfig loads a configuration from a YAML file, applying defaults
// for absent fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is well-formed.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddress == "" {
		errs = append(errs, fmt.Errorf("listen_address is required"))
	} else if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		errs = append(errs, fmt.Errorf("invalid listen_address %q: %w", c.ListenAddress, err))
	}

	if c.ControlSocket == "" {
		errs = append(errs, fmt.Errorf("control_socket is required"))
	}

	for i, pattern := range c.AllowedDomains {
		if pattern == "" {
			errs = append(errs, fmt.Errorf("allowed_domains[%d]: pattern cannot be empty", i))
		}
	}

	if c.ApprovalTimeout != "" {
		duration, err := time.ParseDuration(c.ApprovalTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid approval_timeout %q: %w", c.ApprovalTimeout, err))
		} else if duration <= 0 {
			errs = append(errs, fmt.Errorf("approval_timeout must be positive, got %s", c.ApprovalTimeout))
		}
	}

	if c.DialTimeout != "" {
		duration, err := time.ParseDuration(c.DialTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid dial_timeout %q: %w", c.DialTimeout, err))
		} else if duration <= 0 {
			errs = append(errs, fmt.Errorf("dial_timeout must be positive, got %s", c.DialTimeout))
		}
	}

	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max_connections must be >= 0, got %d", c.MaxConnections))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
