package alloc

import (
	"github.com/joshuapare/memkit/internal/align"
)

// DefaultPageSize is the page size used when NewEarly is given zero (4 KiB).
const DefaultPageSize uintptr = 0x1000

// EarlyAllocator is a dual-region bump allocator for the window before a
// real heap exists: early boot code needs small transient objects and whole
// pages from the same range, with zero per-allocation metadata.
//
// Bytes are bumped forward from the low end and pages are bumped backward
// from the high end, so the two granularities never interleave:
//
//	[ bytes-used | available | pages-used ]
//	|            | -->   <-- |            |
//	start       bPos        pPos        end
//
// Key characteristics:
//   - O(1) initialization and O(1) allocation, no free lists or indexes
//   - Dealloc and DeallocPages are no-ops; spent memory is abandoned
//     wholesale when the bootstrap phase ends, never recycled piecemeal
//   - Exactly one region for the allocator's whole life: AddMemory always
//     fails with ErrNoMemory
//
// The invariant start <= bPos <= pPos <= end holds after every call,
// successful or failing. Failing calls never move a cursor.
//
// EarlyAllocator is not goroutine-safe. Callers needing concurrent access
// must serialize externally.
type EarlyAllocator struct {
	pageSize uintptr

	// start and end are fixed by Init. bPos only grows; pPos only shrinks.
	start uintptr
	bPos  uintptr
	pPos  uintptr
	end   uintptr
}

// NewEarly creates an EarlyAllocator with the given page size.
// A pageSize of zero selects DefaultPageSize. Any other value must be a
// power of two or NewEarly returns ErrPageSize.
func NewEarly(pageSize uintptr) (*EarlyAllocator, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if !align.IsPowerOfTwo(pageSize) {
		return nil, ErrPageSize
	}
	return &EarlyAllocator{pageSize: pageSize}, nil
}

// Init configures the allocator over [start, start+size). The byte frontier
// starts at the low end, the page frontier at the high end. Calling Init
// again abandons all prior allocations and resets both frontiers.
func (a *EarlyAllocator) Init(start, size uintptr) {
	a.start = start
	a.end = start + size
	a.bPos = start
	a.pPos = a.end
}

// AddMemory always fails with ErrNoMemory: the allocator manages exactly one
// region for its entire lifetime. Growth is deliberately traded away for a
// bookkeeping-free bootstrap allocator.
func (a *EarlyAllocator) AddMemory(start, size uintptr) error {
	return ErrNoMemory
}

// Alloc bump-allocates layout.Size bytes at the next layout.Align boundary
// at or above the byte frontier. Successive successful calls return
// non-decreasing addresses. Fails with ErrNoMemory, leaving the frontier
// unchanged, when the aligned range would cross into the page area.
func (a *EarlyAllocator) Alloc(layout Layout) (uintptr, error) {
	allocStart := align.Up(a.bPos, layout.Align)
	allocEnd := allocStart + layout.Size
	if allocEnd > a.pPos {
		return 0, ErrNoMemory
	}
	a.bPos = allocEnd
	return allocStart, nil
}

// Dealloc is a no-op. Individual byte allocations are never reclaimed; the
// byte area only shrinks when a later Init resets the region. The allocator
// targets a narrow bootstrap phase in which memory is abandoned wholesale
// rather than recycled, so per-allocation bookkeeping would buy nothing.
func (a *EarlyAllocator) Dealloc(addr uintptr, layout Layout) {}

// AllocPages allocates numPages whole pages from the high end of the region,
// aligned down to a 1<<alignPow2 boundary. Successive successful calls
// return non-increasing addresses. Fails with ErrNoMemory, leaving
// the frontier unchanged, when the candidate would cross the byte area or
// the request is larger than the whole remaining range (the candidate
// comparison against the current frontier also catches unsigned wraparound).
func (a *EarlyAllocator) AllocPages(numPages, alignPow2 uintptr) (uintptr, error) {
	size := numPages * a.pageSize
	allocEnd := a.pPos
	candidate := align.Down(allocEnd-size, uintptr(1)<<alignPow2)
	if candidate < a.bPos || candidate > allocEnd {
		return 0, ErrNoMemory
	}
	a.pPos = candidate
	return candidate, nil
}

// DeallocPages is a no-op. Pages consumed from the high end are never
// returned; the page area only shrinks on a later Init reset, matching the
// single-direction consumption design of the byte area.
func (a *EarlyAllocator) DeallocPages(addr, numPages uintptr) {}

// PageSize returns the page size fixed at construction.
func (a *EarlyAllocator) PageSize() uintptr {
	return a.pageSize
}

// TotalBytes returns the full extent of the region. Constant after Init.
func (a *EarlyAllocator) TotalBytes() uintptr {
	return a.end - a.start
}

// UsedBytes returns the bytes consumed by the forward byte area.
func (a *EarlyAllocator) UsedBytes() uintptr {
	return a.bPos - a.start
}

// AvailableBytes returns the gap between the two frontiers.
func (a *EarlyAllocator) AvailableBytes() uintptr {
	return a.pPos - a.bPos
}

// TotalPages returns the page-granular capacity of the whole region.
func (a *EarlyAllocator) TotalPages() uintptr {
	return (a.end - a.start) / a.pageSize
}

// UsedPages returns the pages consumed by the backward page area.
func (a *EarlyAllocator) UsedPages() uintptr {
	return (a.end - a.pPos) / a.pageSize
}

// AvailablePages returns the whole pages that still fit between the frontiers.
func (a *EarlyAllocator) AvailablePages() uintptr {
	return (a.pPos - a.bPos) / a.pageSize
}

// Compile-time interface checks
var (
	_ ByteAllocator = (*EarlyAllocator)(nil)
	_ PageAllocator = (*EarlyAllocator)(nil)
)
