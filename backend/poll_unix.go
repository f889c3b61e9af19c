//go:build unix

// File: backend/poll_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Native readiness backend for Unix-like systems, a pass-through to poll(2).

package backend

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/w1998-jq/libssh/api"
)

// pollBackend hands the whole record set to poll(2) in one call.
type pollBackend struct{}

// Default returns the native wait backend for this platform.
func Default() (api.WaitBackend, error) {
	return pollBackend{}, nil
}

func (pollBackend) Wait(records []api.Record, timeoutMs int) (int, error) {
	fds := make([]unix.PollFd, len(records))
	for i := range records {
		fds[i] = unix.PollFd{
			Fd:     int32(records[i].FD),
			Events: nativeEvents(records[i].Events),
		}
	}

	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		for i := range records {
			records[i].REvents = 0
		}
		if err == unix.EINTR {
			// interrupted by signal, normal
			return 0, nil
		}
		return 0, fmt.Errorf("poll wait: %w", err)
	}

	for i := range records {
		records[i].REvents = portableEvents(fds[i].Revents)
	}
	return n, nil
}

// nativeEvents translates the portable mask into poll(2) bits.
func nativeEvents(e api.Events) int16 {
	var n int16
	if e&api.EventReadable != 0 {
		n |= unix.POLLIN
	}
	if e&api.EventWritable != 0 {
		n |= unix.POLLOUT
	}
	if e&api.EventError != 0 {
		n |= unix.POLLERR
	}
	if e&api.EventHangup != 0 {
		n |= unix.POLLHUP
	}
	return n
}

// portableEvents translates poll(2) returned bits into the portable mask.
func portableEvents(n int16) api.Events {
	var e api.Events
	if n&(unix.POLLIN|unix.POLLPRI) != 0 {
		e |= api.EventReadable
	}
	if n&unix.POLLOUT != 0 {
		e |= api.EventWritable
	}
	if n&unix.POLLERR != 0 {
		e |= api.EventError
	}
	if n&unix.POLLHUP != 0 {
		e |= api.EventHangup
	}
	if n&unix.POLLNVAL != 0 {
		e |= api.EventInvalid
	}
	return e
}
