//go:build !unix && !windows

// File: backend/default_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub factory for platforms without a native wait primitive. Callers on
// such hosts construct the manual emulation explicitly with a HandleWaiter
// of their own.

package backend

import (
	"errors"

	"github.com/w1998-jq/libssh/api"
)

// Default returns an error for unsupported platforms.
func Default() (api.WaitBackend, error) {
	return nil, errors.New("backend: no native wait primitive on this platform")
}
