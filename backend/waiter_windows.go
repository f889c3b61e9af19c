//go:build windows

// File: backend/waiter_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows implementation of api.HandleWaiter over WaitForMultipleObjects,
// for hosts too old to carry WSAPoll.

package backend

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/w1998-jq/libssh/api"
)

// waitIOCompletion is WAIT_IO_COMPLETION, reported when an alertable wait
// is interrupted by an APC. Treated as a benign wakeup.
const waitIOCompletion = 0x000000C0

// systemWaiter waits on kernel handles through WaitForMultipleObjects.
type systemWaiter struct{}

// NewSystemWaiter returns the native multi-handle wait primitive.
func NewSystemWaiter() api.HandleWaiter {
	return systemWaiter{}
}

func (systemWaiter) WaitAny(handles []uintptr, timeoutMs int) (int, error) {
	ms := uint32(windows.INFINITE)
	if timeoutMs >= 0 {
		ms = uint32(timeoutMs)
	}

	hs := make([]windows.Handle, len(handles))
	for i, h := range handles {
		hs[i] = windows.Handle(h)
	}

	event, err := windows.WaitForMultipleObjects(hs, false, ms)
	switch {
	case event == windows.WAIT_FAILED:
		return -1, fmt.Errorf("wait for multiple objects: %w", err)
	case event == windows.WAIT_TIMEOUT, event == waitIOCompletion:
		return -1, api.ErrOperationTimeout
	case event < windows.WAIT_OBJECT_0+uint32(len(hs)):
		return int(event - windows.WAIT_OBJECT_0), nil
	default:
		// Abandoned mutexes and other statuses carry no readiness signal.
		return -1, api.ErrOperationTimeout
	}
}

func (systemWaiter) Sleep(timeoutMs int) {
	if timeoutMs <= 0 {
		return
	}
	windows.SleepEx(uint32(timeoutMs), true)
}
