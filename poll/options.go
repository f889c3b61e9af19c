// File: poll/options.go
// Package poll defines functional options for Context construction.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package poll

import (
	"github.com/w1998-jq/libssh/api"
	"github.com/w1998-jq/libssh/control"
)

// Option customizes context initialization. All tunables are per-instance;
// there is no process-wide mutable state.
type Option func(*Context)

// WithChunkSize sets the unit by which the registry's capacity grows and
// shrinks. Non-positive values fall back to DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.chunk = n
		}
	}
}

// WithBackend overrides the platform-default wait backend.
func WithBackend(b api.WaitBackend) Option {
	return func(c *Context) {
		if b != nil {
			c.backend = b
		}
	}
}

// WithMetrics publishes registry gauges and dispatch counters into the
// given registry.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(c *Context) {
		c.metrics = m
	}
}
