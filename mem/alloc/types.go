package alloc

// Layout describes a single allocation request: a size in bytes and a
// required alignment. Align must be a power of two. That property is a
// precondition of the interface contract; the allocators never validate it.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// BaseAllocator is the lifecycle capability every allocator implements.
//
// Init hands the allocator its initial contiguous range [start, start+size).
// The allocator only does arithmetic on the range; it never reads or writes
// through the addresses it manages or returns. Calling Init again resets the
// allocator onto the new range.
type BaseAllocator interface {
	// Init configures the allocator over [start, start+size).
	// Must be called before any other operation.
	Init(start, size uintptr)

	// AddMemory offers the allocator an additional disjoint range.
	// Implementations that support exactly one region return ErrNoMemory.
	AddMemory(start, size uintptr) error
}

// ByteAllocator is the byte-granularity allocation capability.
//
// Implementations:
//   - EarlyAllocator: forward bump allocation, no reclamation
//   - PoolAllocator: first-fit over a bounded block table
type ByteAllocator interface {
	BaseAllocator

	// Alloc returns the address of a range satisfying layout, or ErrNoMemory.
	// Failing calls leave the allocator state unchanged.
	Alloc(layout Layout) (uintptr, error)

	// Dealloc releases the allocation previously returned for addr with the
	// same layout. There is no error channel: addresses the allocator does
	// not recognize as allocated are ignored.
	Dealloc(addr uintptr, layout Layout)

	// TotalBytes returns the capacity under management.
	TotalBytes() uintptr

	// UsedBytes returns the bytes currently accounted as allocated.
	UsedBytes() uintptr

	// AvailableBytes returns the bytes currently accounted as allocatable.
	AvailableBytes() uintptr
}

// PageAllocator is the whole-page allocation capability.
//
// Page size is fixed per allocator instance at construction time. Alignment
// for page requests is expressed as a power-of-two exponent so callers in
// early boot paths can pass page-order values directly.
type PageAllocator interface {
	BaseAllocator

	// AllocPages returns the start address of numPages contiguous pages
	// aligned to 1<<alignPow2, or ErrNoMemory. Failing calls leave the
	// allocator state unchanged.
	AllocPages(numPages, alignPow2 uintptr) (uintptr, error)

	// DeallocPages releases pages previously returned by AllocPages.
	// Like Dealloc, there is no error channel.
	DeallocPages(addr, numPages uintptr)

	// PageSize returns the page size this allocator was built with.
	PageSize() uintptr

	// TotalPages returns the page capacity under management.
	TotalPages() uintptr

	// UsedPages returns the pages currently accounted as allocated.
	UsedPages() uintptr

	// AvailablePages returns the pages currently accounted as allocatable.
	AvailablePages() uintptr
}
