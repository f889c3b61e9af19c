// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package poll implements the registry and dispatch engine of the readiness
// multiplexer: callers register interest in socket readiness through
// Descriptors, attach them to a Context, and drive a single blocking wait
// that dispatches fired callbacks.
//
// The package is single-threaded by design. There is no internal locking;
// Drive is the sole suspension point, and reentrancy is permitted only in
// one documented form: a callback invoked from Drive or Close may detach its
// own descriptor or any other descriptor on the same context, provided it
// reports the mutation through api.OutcomeMutatedRegistry.
package poll
