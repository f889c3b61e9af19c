//go:build windows

// File: backend/wsapoll_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Native readiness backend for Windows Vista and later, a pass-through to
// WSAPoll out of ws2_32.dll. WSAPoll accepts the whole record batch in one
// call, so no emulation is needed on this path.

package backend

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/w1998-jq/libssh/api"
)

var (
	modws2_32   = windows.NewLazySystemDLL("ws2_32.dll")
	procWSAPoll = modws2_32.NewProc("WSAPoll")
)

// WSAPOLLFD event bits, from winsock2.h.
const (
	wsaPollRdNorm = 0x0100
	wsaPollRdBand = 0x0200
	wsaPollWrNorm = 0x0010
	wsaPollErr    = 0x0001
	wsaPollHup    = 0x0002
	wsaPollNval   = 0x0004

	socketError = ^uintptr(0) // (SOCKET_ERROR) as returned through r1
)

// wsaPollFd mirrors WSAPOLLFD.
type wsaPollFd struct {
	fd      uintptr
	events  int16
	revents int16
}

// wsaPollBackend hands the whole record set to WSAPoll in one call.
type wsaPollBackend struct{}

// Default returns the native wait backend for this platform.
func Default() (api.WaitBackend, error) {
	return wsaPollBackend{}, nil
}

func (wsaPollBackend) Wait(records []api.Record, timeoutMs int) (int, error) {
	if len(records) == 0 {
		if timeoutMs == api.TimeoutInfinite {
			return 0, api.ErrNoWaitableHandles
		}
		time.Sleep(time.Duration(timeoutMs) * time.Millisecond)
		return 0, nil
	}

	fds := make([]wsaPollFd, len(records))
	for i := range records {
		fds[i] = wsaPollFd{
			fd:      uintptr(records[i].FD),
			events:  requestBits(records[i].Events),
			revents: 0,
		}
	}

	r1, _, callErr := procWSAPoll.Call(
		uintptr(unsafe.Pointer(&fds[0])),
		uintptr(len(fds)),
		uintptr(timeoutMs),
	)
	if r1 == socketError {
		for i := range records {
			records[i].REvents = 0
		}
		return 0, fmt.Errorf("wsapoll wait: %w", callErr)
	}

	for i := range records {
		records[i].REvents = returnedBits(fds[i].revents)
	}
	return int(int32(r1)), nil
}

// requestBits translates the portable mask into WSAPOLLFD request bits.
// WSAPoll rejects requests for error conditions, so only the read and write
// interests are forwarded; errors are always reported via revents.
func requestBits(e api.Events) int16 {
	var n int16
	if e&api.EventReadable != 0 {
		n |= wsaPollRdNorm | wsaPollRdBand
	}
	if e&api.EventWritable != 0 {
		n |= wsaPollWrNorm
	}
	return n
}

// returnedBits translates WSAPOLLFD returned bits into the portable mask.
func returnedBits(n int16) api.Events {
	var e api.Events
	if n&(wsaPollRdNorm|wsaPollRdBand) != 0 {
		e |= api.EventReadable
	}
	if n&wsaPollWrNorm != 0 {
		e |= api.EventWritable
	}
	if n&wsaPollErr != 0 {
		e |= api.EventError
	}
	if n&wsaPollHup != 0 {
		e |= api.EventHangup
	}
	if n&wsaPollNval != 0 {
		e |= api.EventInvalid
	}
	return e
}
