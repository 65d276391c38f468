package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPool builds a default-capacity PoolAllocator over [start, start+size).
func newTestPool(t testing.TB, start, size uintptr) *PoolAllocator {
	t.Helper()

	p := NewPool(0)
	p.Init(start, size)
	return p
}

// TestNewPool_Capacity covers table capacity construction rules.
func TestNewPool_Capacity(t *testing.T) {
	// Zero and negative select the default.
	assert.Equal(t, DefaultBlockCapacity, NewPool(0).Capacity())
	assert.Equal(t, DefaultBlockCapacity, NewPool(-5).Capacity())

	// Explicit capacities are honored.
	assert.Equal(t, 4, NewPool(4).Capacity())
}

// TestPoolAllocator_Init verifies the freshly initialized accounting.
func TestPoolAllocator_Init(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x1000)

	assert.Equal(t, uintptr(0x1000), p.TotalBytes())
	assert.Equal(t, uintptr(0), p.UsedBytes())
	assert.Equal(t, uintptr(0x1000), p.AvailableBytes())

	s := p.Stats()
	assert.Equal(t, 1, s.Blocks, "Init seeds exactly one block")
	assert.Equal(t, 0, s.BlocksInUse)
	assert.Equal(t, 1, s.BlocksFree)
	assert.Equal(t, uintptr(0x1000), s.LargestFree)
}

// TestPoolAllocator_AllocDealloc verifies the basic cycle: an allocation is
// served from the seeded block, and freeing it makes the same address
// available again.
func TestPoolAllocator_AllocDealloc(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x1000)

	addr, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x1000), addr)
	assert.Equal(t, uintptr(0x100), p.UsedBytes())
	assert.Equal(t, uintptr(0xF00), p.AvailableBytes())

	p.Dealloc(addr, Layout{Size: 0x100, Align: 1})
	assert.Equal(t, uintptr(0), p.UsedBytes())
	assert.Equal(t, uintptr(0x1000), p.AvailableBytes())

	// The freed block is reused at the same address.
	again, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, addr, again, "freed block should be handed out again")
}

// TestPoolAllocator_BlockShrinksToRequest verifies that serving a request
// from a larger block permanently narrows that block to the requested size.
// The surplus tail is not tracked afterwards.
func TestPoolAllocator_BlockShrinksToRequest(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x1000)

	addr, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x1000), addr)
	p.Dealloc(addr, Layout{Size: 0x100, Align: 1})

	// The block now records only 0x100 bytes, so a 0x200 request fails
	// even though the byte-level ledger reports the full pool free.
	assert.Equal(t, uintptr(0x1000), p.AvailableBytes())
	_, err = p.Alloc(Layout{Size: 0x200, Align: 1})
	assert.ErrorIs(t, err, ErrNoMemory,
		"narrowed block cannot serve a request larger than its recorded size")

	// The shrunken extent itself is still fully usable.
	again, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x1000), again)
}

// TestPoolAllocator_AlignedAllocLosesTrack verifies the behavior when
// alignment pushes the returned address past the block start: the block
// keeps its original start, so freeing by the returned address finds no
// block and the bytes stay accounted as used.
func TestPoolAllocator_AlignedAllocLosesTrack(t *testing.T) {
	p := newTestPool(t, 0x1008, 0x1000)

	addr, err := p.Alloc(Layout{Size: 0x100, Align: 16})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x1010), addr, "aligned address sits past the block start")

	// Freeing by the returned address matches nothing.
	p.Dealloc(addr, Layout{Size: 0x100, Align: 16})
	assert.Equal(t, uintptr(0x100), p.UsedBytes(), "dealloc by aligned address is a silent miss")
	assert.Equal(t, 1, p.Stats().BlocksInUse)

	// Freeing by the block start does release it.
	p.Dealloc(0x1008, Layout{Size: 0x100, Align: 16})
	assert.Equal(t, uintptr(0), p.UsedBytes())
	assert.Equal(t, 0, p.Stats().BlocksInUse)
}

// TestPoolAllocator_FirstFitSkipsMisaligned verifies that the scan keeps
// going after a block fails the aligned-fit check and serves the request
// from a later block.
func TestPoolAllocator_FirstFitSkipsMisaligned(t *testing.T) {
	p := newTestPool(t, 0x1004, 0x10)
	require.NoError(t, p.AddMemory(0x2000, 0x100))

	// Block one is large enough by size but cannot hold 0x10 bytes at a
	// 16-byte boundary; block two can.
	addr, err := p.Alloc(Layout{Size: 0x10, Align: 16})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x2000), addr)
}

// TestPoolAllocator_FirstFitSkipsInUse verifies that busy blocks are passed
// over.
func TestPoolAllocator_FirstFitSkipsInUse(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x100)
	require.NoError(t, p.AddMemory(0x2000, 0x100))

	first, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x1000), first)

	second, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x2000), second, "busy block must be skipped")
}

// TestPoolAllocator_UsedBytesExcludesPadding verifies the ledger counts the
// requested size only, not alignment padding.
func TestPoolAllocator_UsedBytesExcludesPadding(t *testing.T) {
	p := newTestPool(t, 0x1008, 0x1000)

	_, err := p.Alloc(Layout{Size: 0x40, Align: 16})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x40), p.UsedBytes(), "padding does not enter the ledger")
}

// TestPoolAllocator_AddMemory verifies that grown regions become
// allocatable but the reported total stays fixed at the Init size.
func TestPoolAllocator_AddMemory(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x100)

	require.NoError(t, p.AddMemory(0x2000, 0x200))
	assert.Equal(t, uintptr(0x100), p.TotalBytes(), "TotalBytes is fixed at Init")
	assert.Equal(t, 2, p.Stats().Blocks)

	// The added region serves requests the seeded block cannot.
	addr, err := p.Alloc(Layout{Size: 0x200, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x2000), addr)
}

// TestPoolAllocator_TableCapacity verifies that a full table rejects
// further regions and that Init itself occupies one slot.
func TestPoolAllocator_TableCapacity(t *testing.T) {
	p := NewPool(4)
	p.Init(0x1000, 0x100)

	// Three more fill the table.
	for i := range 3 {
		base := uintptr(0x2000 + i*0x1000)
		require.NoError(t, p.AddMemory(base, 0x100), "region %d should fit in the table", i)
	}

	err := p.AddMemory(0x8000, 0x100)
	assert.ErrorIs(t, err, ErrNoMemory, "fifth region exceeds a capacity of 4")
	assert.Equal(t, 4, p.Stats().Blocks, "rejected region must not enter the table")
}

// TestPoolAllocator_TableCapacityDefault verifies the default table holds
// exactly DefaultBlockCapacity regions.
func TestPoolAllocator_TableCapacityDefault(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x10)

	for i := range DefaultBlockCapacity - 1 {
		base := uintptr(0x10000 + i*0x100)
		require.NoError(t, p.AddMemory(base, 0x10), "region %d should fit in the table", i)
	}

	assert.ErrorIs(t, p.AddMemory(0xFFF0000, 0x10), ErrNoMemory)
	assert.Equal(t, DefaultBlockCapacity, p.Stats().Blocks)
}

// TestPoolAllocator_AllocFailureLeavesState verifies that an unservable
// request changes nothing.
func TestPoolAllocator_AllocFailureLeavesState(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x100)

	before := p.Stats()
	_, err := p.Alloc(Layout{Size: 0x200, Align: 1})
	assert.ErrorIs(t, err, ErrNoMemory)
	assert.Equal(t, before, p.Stats(), "failed Alloc must not touch the table")
}

// TestPoolAllocator_DeallocUnknownAddress verifies that freeing an address
// no block starts at is a silent no-op.
func TestPoolAllocator_DeallocUnknownAddress(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x1000)

	_, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)

	before := p.Stats()
	p.Dealloc(0xDEAD000, Layout{Size: 0x100, Align: 1})
	assert.Equal(t, before, p.Stats())
}

// TestPoolAllocator_DoubleDealloc verifies that freeing twice does not
// drive the ledger below the truth.
func TestPoolAllocator_DoubleDealloc(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x1000)

	addr, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)

	p.Dealloc(addr, Layout{Size: 0x100, Align: 1})
	assert.Equal(t, uintptr(0), p.UsedBytes())

	// Second free finds the block already idle and skips it.
	p.Dealloc(addr, Layout{Size: 0x100, Align: 1})
	assert.Equal(t, uintptr(0), p.UsedBytes(), "double free must not underflow the ledger")
}

// TestPoolAllocator_ExactFit verifies a request for a block's full recorded
// size succeeds.
func TestPoolAllocator_ExactFit(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x100)

	addr, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x1000), addr)
	assert.Equal(t, uintptr(0), p.AvailableBytes())

	_, err = p.Alloc(Layout{Size: 1, Align: 1})
	assert.ErrorIs(t, err, ErrNoMemory)
}

// TestPoolAllocator_ReinitResets verifies that Init discards the previous
// table and ledger entirely.
func TestPoolAllocator_ReinitResets(t *testing.T) {
	p := newTestPool(t, 0x1000, 0x100)
	require.NoError(t, p.AddMemory(0x2000, 0x100))
	_, err := p.Alloc(Layout{Size: 0x80, Align: 1})
	require.NoError(t, err)

	p.Init(0x9000, 0x400)
	assert.Equal(t, uintptr(0x400), p.TotalBytes())
	assert.Equal(t, uintptr(0), p.UsedBytes())
	assert.Equal(t, 1, p.Stats().Blocks, "old table must be gone")

	addr, err := p.Alloc(Layout{Size: 0x10, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x9000), addr)
}

// TestPoolAllocator_Stats verifies the block-table summary.
func TestPoolAllocator_Stats(t *testing.T) {
	p := NewPool(8)
	p.Init(0x1000, 0x100)
	require.NoError(t, p.AddMemory(0x2000, 0x400))
	require.NoError(t, p.AddMemory(0x3000, 0x200))

	_, err := p.Alloc(Layout{Size: 0x100, Align: 1})
	require.NoError(t, err)

	s := p.Stats()
	assert.Equal(t, 8, s.Capacity)
	assert.Equal(t, 3, s.Blocks)
	assert.Equal(t, 1, s.BlocksInUse)
	assert.Equal(t, 2, s.BlocksFree)
	assert.Equal(t, uintptr(0x400), s.LargestFree)
	assert.Equal(t, uintptr(0x100), s.UsedBytes)
}
