// File: poll/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Growable registry of attached descriptors plus the dispatch loop over the
// platform wait backend. Two parallel arrays, entries and records, are kept
// in lockstep by index; removal is swap-compaction, so entry order is not
// stable and callers must not rely on it.

package poll

import (
	"github.com/w1998-jq/libssh/api"
	"github.com/w1998-jq/libssh/backend"
	"github.com/w1998-jq/libssh/control"
)

// DefaultChunkSize is the registry growth unit applied when no
// WithChunkSize option is given.
const DefaultChunkSize = 5

// Context owns a growable registry of attached Descriptors and drives the
// wait-and-dispatch iteration over them. Create one with NewContext; a
// Context must not be shared between goroutines without external
// serialization.
type Context struct {
	entries []*Descriptor
	records []api.Record
	used    int
	chunk   int

	backend api.WaitBackend
	metrics *control.MetricsRegistry
}

// NewContext allocates an empty registry. Without a WithBackend option the
// platform-default wait backend is used; construction fails on platforms
// that have none.
func NewContext(opts ...Option) (*Context, error) {
	c := &Context{chunk: DefaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	if c.backend == nil {
		b, err := backend.Default()
		if err != nil {
			return nil, err
		}
		c.backend = b
	}
	return c, nil
}

// Attach registers a descriptor with this context. It fails, mutating
// nothing, when the descriptor is already attached to any context or has no
// callback to dispatch to.
func (c *Context) Attach(d *Descriptor) error {
	if d == nil {
		return api.ErrInvalidArgument
	}
	if d.owner != nil {
		return api.ErrAlreadyAttached
	}
	if d.callback == nil {
		return api.ErrNilCallback
	}

	if c.used == len(c.records) {
		c.resize(len(c.records) + c.chunk)
	}

	slot := c.used
	c.used++
	c.entries[slot] = d
	c.records[slot] = api.Record{FD: d.fd, Events: d.events}
	d.owner = c
	d.slot = slot

	c.publishGauges()
	return nil
}

// Detach removes a descriptor from this context, restoring its raw fd from
// the record. The vacated slot is filled with the last live entry and that
// entry's stored index is updated. When the slack left behind exceeds one
// chunk, the arrays shrink by a chunk; at least chunk_size slots always stay
// allocated.
func (c *Context) Detach(d *Descriptor) error {
	if d == nil || d.owner != c {
		return api.ErrNotAttached
	}

	slot := d.slot
	d.fd = c.records[slot].FD
	d.owner = nil

	c.used--

	// fill the empty slot with the last live one
	if c.used > 0 && c.used != slot {
		c.records[slot] = c.records[c.used]
		c.entries[slot] = c.entries[c.used]
		c.entries[slot].slot = slot
	}
	c.entries[c.used] = nil

	if len(c.records)-c.used > c.chunk {
		c.resize(len(c.records) - c.chunk)
	}

	c.publishGauges()
	return nil
}

// Drive performs one wait-and-dispatch iteration: it blocks in the wait
// backend for up to timeoutMs milliseconds (api.TimeoutInfinite to block
// until readiness, api.TimeoutProbe for a non-blocking check), then invokes
// the callback of every descriptor whose returned mask is non-empty.
//
// It returns the backend's ready count, 0 when nothing is registered or the
// timeout elapsed, or an error on wait failure with every returned mask
// cleared. Callbacks may detach descriptors on this context; see Callback.
func (c *Context) Drive(timeoutMs int) (int, error) {
	if c.used == 0 {
		return 0, nil
	}

	n, err := c.backend.Wait(c.records[:c.used], timeoutMs)
	if c.metrics != nil {
		c.metrics.Inc("poll.waits", 1)
	}
	if err != nil {
		for i := 0; i < c.used; i++ {
			c.records[i].REvents = 0
		}
		return 0, err
	}

	remaining := n
	used := c.used
	for i := 0; i < used && remaining > 0; {
		if c.records[i].REvents == 0 {
			i++
			continue
		}

		d := c.entries[i]
		fd := c.records[i].FD
		revents := c.records[i].REvents

		if d.callback(d, fd, revents, d.userData) == api.OutcomeMutatedRegistry {
			// The callback detached descriptors and swap-compaction moved
			// other content into this slot. Reload the live count and
			// re-examine the slot before advancing.
			used = c.used
		} else {
			c.records[i].REvents = 0
			i++
		}

		remaining--
		if c.metrics != nil {
			c.metrics.Inc("poll.dispatched", 1)
		}
	}

	return n, nil
}

// Close tears the registry down. Every still-attached descriptor gets its
// callback invoked once with a synthetic EventError so it can release its
// resources; callbacks are expected to detach themselves in response. Any
// descriptor whose callback declines is force-detached afterward, so no
// descriptor outlives the context still pointing at it. Close never fails.
func (c *Context) Close() {
	used := c.used
	for i := 0; i < used; {
		d := c.entries[i]
		fd := c.records[i].FD

		if d.callback(d, fd, api.EventError, d.userData) == api.OutcomeMutatedRegistry {
			used = c.used
		} else {
			i++
		}
	}

	for c.used > 0 {
		_ = c.Detach(c.entries[c.used-1])
	}

	c.entries = nil
	c.records = nil
	c.publishGauges()
}

// Len returns the number of attached descriptors.
func (c *Context) Len() int {
	return c.used
}

// Stats returns a snapshot of registry state, suitable for a debug probe.
func (c *Context) Stats() map[string]any {
	return map[string]any{
		"attached": c.used,
		"capacity": len(c.records),
		"chunk":    c.chunk,
	}
}

// resize reallocates both parallel arrays to the new capacity. Both are
// fully allocated before either field is replaced, so the arrays can never
// disagree in size, whatever the outcome.
func (c *Context) resize(capacity int) {
	entries := make([]*Descriptor, capacity)
	records := make([]api.Record, capacity)
	copy(entries, c.entries[:c.used])
	copy(records, c.records[:c.used])
	c.entries = entries
	c.records = records
}

func (c *Context) publishGauges() {
	if c.metrics == nil {
		return
	}
	c.metrics.Set("poll.attached", c.used)
	c.metrics.Set("poll.capacity", len(c.records))
}
