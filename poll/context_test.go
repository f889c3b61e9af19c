// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package poll

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/w1998-jq/libssh/api"
	"github.com/w1998-jq/libssh/fake"
)

// requireRegistryIntact asserts the parallel-array bookkeeping: every
// attached descriptor's slot points back at it, masks are mirrored, and the
// live count never exceeds capacity.
func requireRegistryIntact(t *testing.T, c *Context) {
	t.Helper()
	require.LessOrEqual(t, c.used, len(c.records))
	require.Equal(t, len(c.records), len(c.entries))
	for i := 0; i < c.used; i++ {
		d := c.entries[i]
		require.NotNil(t, d)
		require.Same(t, c, d.owner)
		require.Equal(t, i, d.slot)
		require.Equal(t, d.events, c.records[i].Events)
	}
}

func noopCallback(_ *Descriptor, _ int, _ api.Events, _ any) api.DispatchOutcome {
	return api.OutcomeContinue
}

func newTestContext(t *testing.T, b api.WaitBackend, opts ...Option) *Context {
	t.Helper()
	if b != nil {
		opts = append(opts, WithBackend(b))
	}
	c, err := NewContext(opts...)
	require.NoError(t, err)
	return c
}

func TestAttach_GrowsByChunk(t *testing.T) {
	c := newTestContext(t, &fake.Backend{}, WithChunkSize(2))

	for i, fd := range []int{10, 11, 12} {
		d := NewDescriptor(fd, api.EventReadable, noopCallback, nil)
		require.NoError(t, c.Attach(d))
		require.Equal(t, i+1, c.Len())
		requireRegistryIntact(t, c)
	}
	require.Equal(t, 4, len(c.records)) // capacity grew 2 -> 4
}

func TestAttach_DoubleAttachFails(t *testing.T) {
	c := newTestContext(t, &fake.Backend{})
	other := newTestContext(t, &fake.Backend{})

	d := NewDescriptor(10, api.EventReadable, noopCallback, nil)
	require.NoError(t, c.Attach(d))

	before := make([]api.Record, c.used)
	copy(before, c.records[:c.used])

	require.ErrorIs(t, c.Attach(d), api.ErrAlreadyAttached)
	require.ErrorIs(t, other.Attach(d), api.ErrAlreadyAttached)
	require.Zero(t, other.Len())

	// Existing registrations are untouched by the failed attach.
	require.Equal(t, before, c.records[:c.used])
	requireRegistryIntact(t, c)
}

func TestAttach_RejectsNilCallbackAndNil(t *testing.T) {
	c := newTestContext(t, &fake.Backend{})
	require.ErrorIs(t, c.Attach(nil), api.ErrInvalidArgument)

	d := NewDescriptor(10, api.EventReadable, nil, nil)
	require.ErrorIs(t, c.Attach(d), api.ErrNilCallback)
	require.Zero(t, c.Len())
}

func TestDetach_SwapCompaction(t *testing.T) {
	c := newTestContext(t, &fake.Backend{}, WithChunkSize(4))

	first := NewDescriptor(10, api.EventReadable, noopCallback, nil)
	middle := NewDescriptor(11, api.EventWritable, noopCallback, nil)
	last := NewDescriptor(12, api.EventReadable|api.EventWritable, noopCallback, nil)
	for _, d := range []*Descriptor{first, middle, last} {
		require.NoError(t, c.Attach(d))
	}

	require.NoError(t, c.Detach(middle))

	// The last-attached descriptor moved into the vacated slot with its
	// registration intact.
	require.Equal(t, 1, last.slot)
	require.Equal(t, 12, c.records[1].FD)
	require.Equal(t, api.EventReadable|api.EventWritable, c.records[1].Events)
	require.Equal(t, 2, c.Len())
	requireRegistryIntact(t, c)

	// The detached descriptor got its raw fd back.
	require.Nil(t, middle.Owner())
	require.Equal(t, 11, middle.FD())
}

func TestDetach_SlackBound(t *testing.T) {
	const chunk = 2
	c := newTestContext(t, &fake.Backend{}, WithChunkSize(chunk))

	var ds []*Descriptor
	for fd := 1; fd <= 7; fd++ {
		d := NewDescriptor(fd, api.EventReadable, noopCallback, nil)
		require.NoError(t, c.Attach(d))
		ds = append(ds, d)
		require.LessOrEqual(t, len(c.records)-c.used, chunk)
	}

	for len(ds) > 0 {
		require.NoError(t, c.Detach(ds[0]))
		ds = ds[1:]
		require.LessOrEqual(t, len(c.records)-c.used, chunk)
		require.GreaterOrEqual(t, len(c.records), c.used)
		requireRegistryIntact(t, c)
	}
}

func TestDetach_NotAttached(t *testing.T) {
	c := newTestContext(t, &fake.Backend{})
	other := newTestContext(t, &fake.Backend{})

	d := NewDescriptor(10, api.EventReadable, noopCallback, nil)
	require.ErrorIs(t, c.Detach(d), api.ErrNotAttached)

	require.NoError(t, other.Attach(d))
	require.ErrorIs(t, c.Detach(d), api.ErrNotAttached)
	require.Equal(t, 1, other.Len())
}

func TestDrive_EmptyContext(t *testing.T) {
	b := &fake.Backend{}
	c := newTestContext(t, b)

	n, err := c.Drive(100)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, b.Calls) // fast path, the backend is never entered
}

func TestDrive_SingleReadyScenario(t *testing.T) {
	b := &fake.Backend{Script: []fake.WaitFunc{fake.ReadyFDs(11)}}
	c := newTestContext(t, b, WithChunkSize(2))

	var fired []int
	cb := func(d *Descriptor, fd int, revents api.Events, _ any) api.DispatchOutcome {
		fired = append(fired, fd)
		require.Equal(t, api.EventReadable, revents)
		return api.OutcomeContinue
	}

	var ds []*Descriptor
	for _, fd := range []int{10, 11, 12} {
		d := NewDescriptor(fd, api.EventReadable, cb, nil)
		require.NoError(t, c.Attach(d))
		ds = append(ds, d)
	}
	require.Equal(t, 4, len(c.records))

	n, err := c.Drive(api.TimeoutProbe)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []int{11}, fired)

	// The dispatched slot's returned mask is cleared and the other two
	// descriptors are still attached at valid indices.
	require.Zero(t, c.records[ds[1].slot].REvents)
	require.Equal(t, 3, c.Len())
	requireRegistryIntact(t, c)
}

func TestDrive_DispatchCompleteness(t *testing.T) {
	// Backend reports 2 ready; exactly 2 callbacks must run even though the
	// first one detaches itself and two unrelated descriptors mid-dispatch.
	b := &fake.Backend{Script: []fake.WaitFunc{fake.ReadyFDs(1, 4)}}
	c := newTestContext(t, b, WithChunkSize(2))

	calls := map[int]int{}
	var ds [5]*Descriptor

	detaching := func(d *Descriptor, fd int, _ api.Events, _ any) api.DispatchOutcome {
		calls[fd]++
		require.NoError(t, c.Detach(d))
		require.NoError(t, c.Detach(ds[1])) // fd 2, not ready
		require.NoError(t, c.Detach(ds[2])) // fd 3, not ready
		return api.OutcomeMutatedRegistry
	}
	counting := func(_ *Descriptor, fd int, _ api.Events, _ any) api.DispatchOutcome {
		calls[fd]++
		return api.OutcomeContinue
	}

	for i, fd := range []int{1, 2, 3, 4, 5} {
		cb := counting
		if fd == 1 {
			cb = detaching
		}
		ds[i] = NewDescriptor(fd, api.EventReadable, cb, nil)
		require.NoError(t, c.Attach(ds[i]))
	}

	n, err := c.Drive(api.TimeoutProbe)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, map[int]int{1: 1, 4: 1}, calls)
	require.Equal(t, 2, c.Len())
	requireRegistryIntact(t, c)
}

func TestDrive_SelfRemovalSafety(t *testing.T) {
	// A self-detaching callback must not skip or double-dispatch the other
	// ready descriptor, wherever compaction moves it.
	b := &fake.Backend{Script: []fake.WaitFunc{fake.ReadyFDs(1, 5)}}
	c := newTestContext(t, b)

	calls := map[int]int{}
	selfDetach := func(d *Descriptor, fd int, _ api.Events, _ any) api.DispatchOutcome {
		calls[fd]++
		require.NoError(t, c.Detach(d))
		return api.OutcomeMutatedRegistry
	}
	counting := func(_ *Descriptor, fd int, _ api.Events, _ any) api.DispatchOutcome {
		calls[fd]++
		return api.OutcomeContinue
	}

	// fd 5 sits in the last slot, so detaching fd 1 swaps the still-ready
	// record into the slot under iteration.
	for _, fd := range []int{1, 2, 3, 4} {
		cb := counting
		if fd == 1 {
			cb = selfDetach
		}
		require.NoError(t, c.Attach(NewDescriptor(fd, api.EventReadable, cb, nil)))
	}
	require.NoError(t, c.Attach(NewDescriptor(5, api.EventReadable, counting, nil)))

	n, err := c.Drive(api.TimeoutProbe)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, map[int]int{1: 1, 5: 1}, calls)
	requireRegistryIntact(t, c)
}

func TestDrive_BackendFailureClearsMasks(t *testing.T) {
	failing := func(records []api.Record) (int, error) {
		for i := range records {
			records[i].REvents = records[i].Events
		}
		return 0, errors.New("wait exploded")
	}
	b := &fake.Backend{Script: []fake.WaitFunc{failing}}
	c := newTestContext(t, b)

	require.NoError(t, c.Attach(NewDescriptor(3, api.EventReadable, noopCallback, nil)))
	require.NoError(t, c.Attach(NewDescriptor(4, api.EventReadable, noopCallback, nil)))

	_, err := c.Drive(50)
	require.Error(t, err)
	for i := 0; i < c.used; i++ {
		require.Zero(t, c.records[i].REvents)
	}
}

func TestClose_TeardownExhaustive(t *testing.T) {
	c := newTestContext(t, &fake.Backend{})

	forced := 0
	cb := func(d *Descriptor, _ int, revents api.Events, _ any) api.DispatchOutcome {
		require.Equal(t, api.EventError, revents)
		forced++
		require.NoError(t, c.Detach(d))
		return api.OutcomeMutatedRegistry
	}

	ds := make([]*Descriptor, 4)
	for i := range ds {
		ds[i] = NewDescriptor(20+i, api.EventReadable, cb, nil)
		require.NoError(t, c.Attach(ds[i]))
	}

	c.Close()
	require.Equal(t, 4, forced)
	require.Zero(t, c.Len())
	for _, d := range ds {
		require.Nil(t, d.Owner())
	}
}

func TestClose_StubbornCallbackForceDetached(t *testing.T) {
	c := newTestContext(t, &fake.Backend{})

	forced := 0
	stubborn := func(_ *Descriptor, _ int, _ api.Events, _ any) api.DispatchOutcome {
		forced++
		return api.OutcomeContinue // declines to detach
	}

	d := NewDescriptor(30, api.EventReadable, stubborn, nil)
	require.NoError(t, c.Attach(d))

	c.Close()
	require.Equal(t, 1, forced)
	require.Zero(t, c.Len())
	require.Nil(t, d.Owner())
	require.Equal(t, 30, d.FD())
}

func TestNewContext_DefaultChunk(t *testing.T) {
	c := newTestContext(t, &fake.Backend{}, WithChunkSize(0))
	require.Equal(t, DefaultChunkSize, c.chunk)
}
