// File: api/backend.go
// Package api defines the WaitBackend and HandleWaiter contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Timeout values accepted by WaitBackend.Wait and HandleWaiter.WaitAny, in
// milliseconds. Any positive value is a bounded wait.
const (
	// TimeoutInfinite blocks until a descriptor becomes ready.
	TimeoutInfinite = -1
	// TimeoutProbe checks readiness without blocking.
	TimeoutProbe = 0
)

// Record is one backend-facing poll entry. The registry keeps records
// index-aligned with the descriptors that own them; backends read FD and
// Events and write REvents.
type Record struct {
	// FD is the raw descriptor identifier. Values <= 0 are
	// pseudo-descriptors: they stay in the record list but backends that
	// wait on handles skip them when collecting waitable handles.
	FD int
	// Events is the requested readiness mask.
	Events Events
	// REvents is the readiness mask reported by the last wait.
	REvents Events
}

// WaitBackend blocks until at least one record is ready or the timeout
// elapses.
//
// Wait writes returned masks into the records and reports the number of
// records with a non-empty returned mask, or 0 on timeout. On failure it
// returns a non-nil error and every record's returned mask is cleared, so
// stale readiness is never acted on. A benign wakeup (EINTR and friends)
// reports 0 ready, not an error.
type WaitBackend interface {
	Wait(records []Record, timeoutMs int) (ready int, err error)
}

// HandleWaiter is the single-shot wait primitive underneath the manual
// multi-handle emulation: one bounded wait over a set of distinct handles,
// plus a plain sleep for when there is nothing to wait on. Implementations
// exist for platforms whose native wait API takes handle arrays; tests use a
// scripted fake.
type HandleWaiter interface {
	// WaitAny blocks until one of handles is signaled or timeoutMs elapses.
	// It returns the index of the signaled handle, ErrOperationTimeout on
	// timeout or a benign interruption, or another error on failure. The
	// handle set must not contain duplicates.
	WaitAny(handles []uintptr, timeoutMs int) (int, error)

	// Sleep pauses the caller for timeoutMs.
	Sleep(timeoutMs int)
}
