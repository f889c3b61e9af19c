// File: api/events.go
// Package api defines the portable readiness event mask.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "strings"

// Events is a bitmask of readiness conditions on a descriptor. The bits are
// a platform-portable subset of poll(2) semantics; each wait backend
// translates them to and from its native representation.
type Events uint16

const (
	// EventReadable reports that a read will not block.
	EventReadable Events = 1 << iota
	// EventWritable reports that a write will not block.
	EventWritable
	// EventError reports an error condition on the descriptor. It is also
	// the synthetic event delivered during forced context teardown.
	EventError
	// EventHangup reports that the peer closed its end of the channel.
	EventHangup
	// EventInvalid reports that the descriptor is not an open handle.
	EventInvalid
)

// Has reports whether every bit of mask is set in e.
func (e Events) Has(mask Events) bool { return e&mask == mask }

func (e Events) String() string {
	if e == 0 {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		bit  Events
		name string
	}{
		{EventReadable, "readable"},
		{EventWritable, "writable"},
		{EventError, "error"},
		{EventHangup, "hangup"},
		{EventInvalid, "invalid"},
	} {
		if e&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
