// File: poll/descriptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package poll

import "github.com/w1998-jq/libssh/api"

// Callback handles one readiness event on a descriptor. It receives the
// descriptor itself, the live fd, the fired mask, and the opaque user data
// given at registration. A callback that detaches the descriptor (or any
// other descriptor on the same context) must return
// api.OutcomeMutatedRegistry so the dispatch loop re-reads the registry;
// api.OutcomeContinue means no structural mutation occurred.
type Callback func(d *Descriptor, fd int, revents api.Events, userData any) api.DispatchOutcome

// Descriptor is a single registered interest: a raw descriptor identifier,
// a requested event mask, a callback, and opaque user data. A descriptor is
// attached to at most one Context at a time; its lifetime belongs to the
// caller, the context only ever detaches it.
//
// Exactly one of fd and (owner, slot) is meaningful: while detached the
// struct's own fd field is live, while attached the fd is stored in the
// owner's record at slot and the field here is stale. owner == nil is the
// tag.
type Descriptor struct {
	fd       int
	events   api.Events
	callback Callback
	userData any

	owner *Context
	slot  int
}

// NewDescriptor creates a new, unattached descriptor. No I/O occurs.
func NewDescriptor(fd int, events api.Events, cb Callback, userData any) *Descriptor {
	return &Descriptor{
		fd:       fd,
		events:   events,
		callback: cb,
		userData: userData,
	}
}

// Events returns the requested event mask.
func (d *Descriptor) Events() api.Events {
	return d.events
}

// SetEvents replaces the requested event mask. When attached, the change is
// reflected into the owning context's record immediately, so a wait issued
// afterward observes it.
func (d *Descriptor) SetEvents(events api.Events) {
	d.events = events
	if d.owner != nil {
		d.owner.records[d.slot].Events = events
	}
}

// AddEvents unions events into the requested mask.
func (d *Descriptor) AddEvents(events api.Events) {
	d.SetEvents(d.events | events)
}

// RemoveEvents clears events from the requested mask.
func (d *Descriptor) RemoveEvents(events api.Events) {
	d.SetEvents(d.events &^ events)
}

// FD returns the live descriptor identifier: the owning context's record
// when attached, the descriptor's own field otherwise.
func (d *Descriptor) FD() int {
	if d.owner != nil {
		return d.owner.records[d.slot].FD
	}
	return d.fd
}

// SetCallback replaces the callback and user data together. A nil callback
// is rejected, so an attached descriptor can never become undispatchable.
func (d *Descriptor) SetCallback(cb Callback, userData any) error {
	if cb == nil {
		return api.ErrNilCallback
	}
	d.callback = cb
	d.userData = userData
	return nil
}

// Owner returns the attached context, or nil.
func (d *Descriptor) Owner() *Context {
	return d.owner
}

// Close releases the descriptor's registration state. Closing a descriptor
// that is still attached is a reported error; detach it first.
func (d *Descriptor) Close() error {
	if d.owner != nil {
		return api.ErrStillAttached
	}
	d.callback = nil
	d.userData = nil
	return nil
}
