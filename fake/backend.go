// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides scripted stand-ins for the wait primitives, for
// tests of the dispatch engine and for consumers testing their own event
// loops without sockets.
package fake

import "github.com/w1998-jq/libssh/api"

// WaitFunc scripts one Wait call: it may set returned masks on the records
// and reports the ready count or an error.
type WaitFunc func(records []api.Record) (int, error)

// Backend is a scripted api.WaitBackend. Each Drive consumes one entry of
// Script; when the script runs out, Wait reports a timeout.
type Backend struct {
	Script []WaitFunc

	// Calls records the timeout of every observed Wait call.
	Calls []int
}

// Wait implements api.WaitBackend.
func (b *Backend) Wait(records []api.Record, timeoutMs int) (int, error) {
	b.Calls = append(b.Calls, timeoutMs)
	if len(b.Script) == 0 {
		return 0, nil
	}
	fn := b.Script[0]
	b.Script = b.Script[1:]
	return fn(records)
}

// ReadyFDs builds a WaitFunc that marks each given fd ready with its full
// requested mask, mirroring how handle-based waits report readiness.
func ReadyFDs(fds ...int) WaitFunc {
	return func(records []api.Record) (int, error) {
		ready := 0
		for i := range records {
			for _, fd := range fds {
				if records[i].FD == fd {
					records[i].REvents = records[i].Events
					ready++
				}
			}
		}
		return ready, nil
	}
}
