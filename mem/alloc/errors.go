package alloc

import "errors"

var (
	// ErrNoMemory indicates that a request cannot be satisfied under the
	// allocator's current capacity or fragmentation. It is the only failure
	// the capability interfaces report: callers are expected to treat it as
	// ordinary control flow (e.g. fall back to another allocator).
	ErrNoMemory = errors.New("alloc: no memory available")

	// ErrPageSize indicates an invalid page size passed to NewEarly.
	// Page size is a construction-time configuration value and must be a
	// nonzero power of two.
	ErrPageSize = errors.New("alloc: page size must be a power of two")
)
