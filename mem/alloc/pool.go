package alloc

import (
	"github.com/joshuapare/memkit/internal/align"
)

// DefaultBlockCapacity is the block table bound used when NewPool is given
// a non-positive capacity (1024 slots).
const DefaultBlockCapacity = 1024

// memoryBlock records one tracked range of the pool. A block is either free
// or in use; blocks are created by Init and AddMemory and never removed,
// only flipped between the two states.
type memoryBlock struct {
	start uintptr
	size  uintptr
	inUse bool
}

// PoolAllocator satisfies byte-granularity requests from a bounded table of
// disjoint memory blocks using a linear first-fit scan.
//
// The table is an arena of block records with a fixed capacity bound. Init
// clears it and seeds a single free block covering the pool; AddMemory
// appends further free blocks into the first empty slot until the table is
// full. Blocks are never merged: adjacent free blocks stay separate records.
//
// Allocation walks the table in slot order. The first free block large
// enough for the request is checked for an aligned fit; blocks that fail the
// alignment check are skipped and the scan continues. When a block is
// accepted its recorded size is shrunk to the requested size, so any tail
// beyond the aligned allocation drops out of the table and stays
// unreachable until the next Init. Freeing therefore recovers the shrunk
// extent, never the block's original extent. Accounting reflects this:
// AvailableBytes reports bytes not charged to live allocations, which after
// partial-fit allocations can exceed what Alloc can actually place.
//
// Every operation is a bounded synchronous computation: O(capacity) for the
// scans, O(1) otherwise. PoolAllocator is not goroutine-safe; callers
// needing concurrent access must serialize externally.
type PoolAllocator struct {
	poolStart uintptr
	poolSize  uintptr

	// blocks holds the occupied slots of the table. Occupancy is always a
	// prefix: Init clears the table and nothing ever vacates a slot, so the
	// first empty slot is len(blocks) and the bound is capacity.
	blocks   []memoryBlock
	capacity int

	// totalUsed is the running ledger of bytes charged to live allocations,
	// independent of block geometry.
	totalUsed uintptr
}

// NewPool creates a PoolAllocator whose block table holds at most capacity
// blocks. A non-positive capacity selects DefaultBlockCapacity.
func NewPool(capacity int) *PoolAllocator {
	if capacity <= 0 {
		capacity = DefaultBlockCapacity
	}
	return &PoolAllocator{
		capacity: capacity,
		blocks:   make([]memoryBlock, 0, capacity),
	}
}

// Init clears the block table and seeds it with one free block covering
// [start, start+size). The pool size recorded here is the TotalBytes
// baseline for the allocator's whole life; AddMemory does not change it.
func (p *PoolAllocator) Init(start, size uintptr) {
	p.poolStart = start
	p.poolSize = size
	p.blocks = p.blocks[:0]
	p.blocks = append(p.blocks, memoryBlock{start: start, size: size})
	p.totalUsed = 0
}

// AddMemory appends a free block for [start, start+size) into the first
// empty table slot. The new block is not merged with any adjacent block.
// Fails with ErrNoMemory when the table is at capacity.
func (p *PoolAllocator) AddMemory(start, size uintptr) error {
	if len(p.blocks) >= p.capacity {
		return ErrNoMemory
	}
	p.blocks = append(p.blocks, memoryBlock{start: start, size: size})
	return nil
}

// Alloc satisfies layout via first-fit: the scan accepts the first free
// block whose recorded size covers the request and whose aligned start
// still fits. Returns the aligned start address inside the accepted block.
// Fails with ErrNoMemory and leaves the table untouched when no block fits.
//
// Accepting a block overwrites its recorded size with the requested size.
// The block keeps its original start address even when alignment padding
// shifted the returned address forward.
func (p *PoolAllocator) Alloc(layout Layout) (uintptr, error) {
	for i := range p.blocks {
		b := &p.blocks[i]
		if b.inUse || b.size < layout.Size {
			continue
		}

		allocStart := align.Up(b.start, layout.Align)
		allocEnd := allocStart + layout.Size
		if allocEnd > b.start+b.size {
			// Alignment padding pushed the request past the block; the
			// block stays free and the scan moves on.
			continue
		}

		b.inUse = true
		p.totalUsed += layout.Size

		// Shrink the record to the requested size. The tail past allocEnd,
		// if any, is no longer tracked by any slot and cannot be handed out
		// again until the next Init.
		b.size = layout.Size

		return allocStart, nil
	}
	return 0, ErrNoMemory
}

// Dealloc releases the block whose start address equals addr, charging the
// ledger by layout.Size. The block record flips to free; no coalescing with
// neighbors happens. Addresses matching no in-use block start are silently
// ignored, including addresses that alignment padding shifted away from
// their block's recorded start.
func (p *PoolAllocator) Dealloc(addr uintptr, layout Layout) {
	for i := range p.blocks {
		b := &p.blocks[i]
		if b.start == addr && b.inUse {
			b.inUse = false
			p.totalUsed -= layout.Size
			return
		}
	}
}

// TotalBytes returns the pool size fixed at Init. Ranges added later via
// AddMemory extend what Alloc can place but are not reflected here.
func (p *PoolAllocator) TotalBytes() uintptr {
	return p.poolSize
}

// UsedBytes returns the bytes currently charged to live allocations.
func (p *PoolAllocator) UsedBytes() uintptr {
	return p.totalUsed
}

// AvailableBytes returns TotalBytes less UsedBytes. Because TotalBytes
// ignores AddMemory ranges and partial fits drop block tails, this is a
// ledger figure, not a guarantee that a request of that size can be placed.
func (p *PoolAllocator) AvailableBytes() uintptr {
	return p.poolSize - p.totalUsed
}

// Capacity returns the fixed bound on block-table entries.
func (p *PoolAllocator) Capacity() int {
	return p.capacity
}

// Compile-time interface check
var _ ByteAllocator = (*PoolAllocator)(nil)
