// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import "github.com/w1998-jq/libssh/api"

// WaitAnyCall records one observed WaitAny invocation.
type WaitAnyCall struct {
	Handles []uintptr
	Timeout int
}

// Waiter is a scripted api.HandleWaiter. Handles present in Ready are
// reported signaled, first match in the candidate set wins; everything else
// times out.
type Waiter struct {
	// Ready is the set of handles to report signaled.
	Ready map[uintptr]bool

	// Err, when set, fails every WaitAny call.
	Err error

	// Misses forces that many initial WaitAny calls to time out before
	// Ready is consulted, to model handles that signal mid-wait.
	Misses int

	// WaitCalls and Sleeps record observed calls.
	WaitCalls []WaitAnyCall
	Sleeps    []int
}

// NewWaiter builds a Waiter with the given signaled handles.
func NewWaiter(ready ...uintptr) *Waiter {
	w := &Waiter{Ready: make(map[uintptr]bool, len(ready))}
	for _, h := range ready {
		w.Ready[h] = true
	}
	return w
}

// WaitAny implements api.HandleWaiter.
func (w *Waiter) WaitAny(handles []uintptr, timeoutMs int) (int, error) {
	recorded := make([]uintptr, len(handles))
	copy(recorded, handles)
	w.WaitCalls = append(w.WaitCalls, WaitAnyCall{Handles: recorded, Timeout: timeoutMs})

	if w.Err != nil {
		return -1, w.Err
	}
	if w.Misses > 0 {
		w.Misses--
		return -1, api.ErrOperationTimeout
	}
	for i, h := range handles {
		if w.Ready[h] {
			return i, nil
		}
	}
	return -1, api.ErrOperationTimeout
}

// Sleep implements api.HandleWaiter.
func (w *Waiter) Sleep(timeoutMs int) {
	w.Sleeps = append(w.Sleeps, timeoutMs)
}
