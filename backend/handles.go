// File: backend/handles.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Manual multi-handle wait emulation of the api.WaitBackend contract, for
// platforms whose only wait primitive takes an array of handles and reports
// a single signaled one per call. The algorithm is platform-neutral; the
// primitive itself is abstracted behind api.HandleWaiter.

package backend

import (
	"errors"

	"github.com/w1998-jq/libssh/api"
)

// DefaultMaxWaitHandles caps the number of distinct handles passed to one
// WaitAny call. The default matches MAXIMUM_WAIT_OBJECTS.
const DefaultMaxWaitHandles = 64

// minReliableTimeoutMs is the shortest bounded timeout worth issuing a
// blocking wait for on this backend; shorter waits time out right away
// anyway, so after a failed readiness probe they are skipped.
const minReliableTimeoutMs = 10

// HandleBackend emulates batch readiness waiting over a single-shot
// multi-handle wait primitive.
type HandleBackend struct {
	waiter     api.HandleWaiter
	maxHandles int
}

// HandleOption customizes a HandleBackend.
type HandleOption func(*HandleBackend)

// WithMaxHandles overrides the distinct-handle cap for one wait call.
func WithMaxHandles(n int) HandleOption {
	return func(b *HandleBackend) {
		if n > 0 {
			b.maxHandles = n
		}
	}
}

// NewHandleBackend builds the manual emulation over the given wait
// primitive.
func NewHandleBackend(w api.HandleWaiter, opts ...HandleOption) (*HandleBackend, error) {
	if w == nil {
		return nil, api.ErrInvalidArgument
	}
	b := &HandleBackend{
		waiter:     w,
		maxHandles: DefaultMaxWaitHandles,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Wait implements api.WaitBackend.
//
// Records whose FD is not positive have no waitable handle; they stay in the
// record list but contribute nothing to the handle set. Duplicate handles
// are collapsed to one, since the underlying primitive forbids passing the
// same handle twice, and a signaled handle marks every record that maps to
// it.
func (b *HandleBackend) Wait(records []api.Record, timeoutMs int) (int, error) {
	if len(records) >= b.maxHandles {
		return 0, api.ErrTooManyDescriptors
	}

	handles := b.collectHandles(records)

	var ready int
	var err error
	if len(handles) > 1 {
		// Probe without blocking first, so handles that are already
		// signaled are picked up in one pass.
		ready, err = b.waitRound(handles, records, api.TimeoutProbe)

		// Nothing ready yet. Issue the real wait, unless the timeout is a
		// bounded one too short to be reliable here.
		if err == nil && ready == 0 &&
			(timeoutMs == api.TimeoutInfinite || timeoutMs >= minReliableTimeoutMs) {
			ready, err = b.waitRound(handles, records, timeoutMs)
		}
	} else {
		// Zero or one handle, nothing to deduplicate against: a single
		// round with the caller's timeout decides the outcome.
		ready, err = b.waitRound(handles, records, timeoutMs)
	}

	if err != nil {
		for i := range records {
			records[i].REvents = 0
		}
		return 0, err
	}
	return ready, nil
}

// waitRound performs one wait over the candidate handle set and marks the
// records of the signaled handle. With a zero timeout and more than one
// candidate left, it recurses over the shrunken set to accumulate every
// handle that is already signaled; the set strictly shrinks each level, so
// the recursion bottoms out at one handle.
func (b *HandleBackend) waitRound(handles []uintptr, records []api.Record, timeoutMs int) (int, error) {
	if len(handles) == 0 {
		// No handles to wait for, just the timeout.
		if timeoutMs == api.TimeoutInfinite {
			return 0, api.ErrNoWaitableHandles
		}
		b.waiter.Sleep(timeoutMs)
		return 0, nil
	}

	idx, err := b.waiter.WaitAny(handles, timeoutMs)
	if err != nil {
		if errors.Is(err, api.ErrOperationTimeout) {
			return 0, nil
		}
		return 0, err
	}

	fired := handles[idx]
	for i := range records {
		if records[i].FD > 0 && uintptr(records[i].FD) == fired {
			records[i].REvents = records[i].Events
		}
	}

	if timeoutMs == api.TimeoutProbe && len(handles) > 1 {
		rest := make([]uintptr, 0, len(handles)-1)
		rest = append(rest, handles[:idx]...)
		rest = append(rest, handles[idx+1:]...)

		more, err := b.waitRound(rest, records, api.TimeoutProbe)
		if err != nil {
			return 0, err
		}
		return more + 1, nil
	}
	return 1, nil
}

// collectHandles gathers the distinct waitable handles out of the record
// list, capped at maxHandles. Extras beyond the cap are silently ignored;
// degraded coverage beats a failed wait.
func (b *HandleBackend) collectHandles(records []api.Record) []uintptr {
	handles := make([]uintptr, 0, len(records))
	for i := range records {
		if records[i].FD <= 0 {
			continue
		}
		h := uintptr(records[i].FD)

		seen := false
		for _, known := range handles {
			if known == h {
				seen = true
				break
			}
		}
		if seen {
			continue
		}
		if len(handles) == b.maxHandles {
			break
		}
		handles = append(handles, h)
	}
	return handles
}
