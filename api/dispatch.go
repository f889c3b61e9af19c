// File: api/dispatch.go
// Package api defines the callback dispatch outcome.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// DispatchOutcome is returned by a readiness callback to tell the dispatch
// loop whether the registry it is iterating was structurally mutated.
type DispatchOutcome int

const (
	// OutcomeContinue means the callback performed no structural mutation;
	// the dispatch loop clears the slot's returned mask and advances.
	OutcomeContinue DispatchOutcome = iota

	// OutcomeMutatedRegistry means the callback detached its own descriptor
	// (and possibly others) from the context. The dispatch loop re-reads the
	// live count and re-examines the current slot, which now holds
	// different content after swap-compaction.
	OutcomeMutatedRegistry
)

func (o DispatchOutcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeMutatedRegistry:
		return "mutated-registry"
	default:
		return "unknown"
	}
}
