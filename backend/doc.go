// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package backend provides the platform implementations of api.WaitBackend:
// a poll(2) pass-through on Unix, a WSAPoll pass-through on Windows, and a
// manual multi-handle wait emulation for hosts with neither. The platform
// default is selected at build time through per-file build tags; the manual
// emulation is platform-neutral and can be constructed explicitly over any
// api.HandleWaiter.
package backend
