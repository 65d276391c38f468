// Package alloc provides physical-memory allocation primitives designed to
// run beneath (or before) a general heap.
//
// # Overview
//
// This package implements two leaf allocators over plain address ranges.
// Neither owns the memory it manages: both do pure range arithmetic and
// bookkeeping, and never read or write through the addresses they return.
// That makes them equally usable against real backing memory (see the
// region package) and against synthetic ranges in tests and simulations.
//
// # Allocator Capabilities
//
// Capabilities are split into small interface contracts that a concrete
// allocator implements in any combination:
//
//   - BaseAllocator: Init(start, size) and AddMemory(start, size)
//   - ByteAllocator: Alloc/Dealloc by Layout plus byte accounting
//   - PageAllocator: AllocPages/DeallocPages plus page accounting
//
// # Implementations
//
// EarlyAllocator: dual-region bump allocator for early boot
//
//   - Bytes bump forward from the low end, pages bump backward from the
//     high end of a single region
//   - O(1) everything, zero per-allocation metadata
//   - Deallocs are no-ops: the bootstrap phase abandons memory wholesale
//
// PoolAllocator: bounded-table first-fit allocator
//
//   - Explicit table of free/in-use blocks (default 1024 slots)
//   - Linear first-fit scan with per-block aligned-fit check
//   - No coalescing, and partial fits shrink a block's recorded extent;
//     see the type documentation for the accounting consequences
//
// # Usage Example
//
//	ea, err := alloc.NewEarly(0) // default 4 KiB pages
//	if err != nil {
//	    return err
//	}
//	ea.Init(regionStart, regionSize)
//
//	// Small transient objects from the low end...
//	addr, err := ea.Alloc(alloc.Layout{Size: 64, Align: 8})
//	if err != nil {
//	    // ErrNoMemory is ordinary control flow: fall back or give up.
//	}
//
//	// ...and whole pages from the high end.
//	page, err := ea.AllocPages(1, 12) // one page, 4 KiB aligned
//
// # Error Handling
//
// The capability interfaces report exactly one failure, ErrNoMemory, raised
// when a request cannot be satisfied under current capacity or
// fragmentation. Failing calls are side-effect-free. Dealloc and
// DeallocPages have no error channel: unrecognized addresses are ignored.
//
// # Thread Safety
//
// Allocator instances are not goroutine-safe and contain no locking. They
// are built for exclusive single-threaded access during boot-style phases;
// callers needing concurrency must serialize all calls externally.
//
// # Related Packages
//
//   - github.com/joshuapare/memkit/mem/region: anonymous backing ranges
//   - github.com/joshuapare/memkit/internal/align: alignment arithmetic
package alloc
