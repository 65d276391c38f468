package alloc

// EarlyStats is a point-in-time snapshot of an EarlyAllocator's accounting.
// Taking a snapshot is read-only and allocation-free.
type EarlyStats struct {
	TotalBytes     uintptr // full region extent, constant after Init
	UsedBytes      uintptr // forward byte area
	AvailableBytes uintptr // gap between the frontiers

	PageSize       uintptr
	TotalPages     uintptr
	UsedPages      uintptr // backward page area
	AvailablePages uintptr
}

// Stats returns a snapshot of the allocator's accounting counters.
func (a *EarlyAllocator) Stats() EarlyStats {
	return EarlyStats{
		TotalBytes:     a.TotalBytes(),
		UsedBytes:      a.UsedBytes(),
		AvailableBytes: a.AvailableBytes(),
		PageSize:       a.pageSize,
		TotalPages:     a.TotalPages(),
		UsedPages:      a.UsedPages(),
		AvailablePages: a.AvailablePages(),
	}
}

// PoolStats is a point-in-time snapshot of a PoolAllocator's accounting and
// table occupancy. LargestFree is the biggest single free block record; it
// bounds the largest request Alloc could place with alignment 1.
type PoolStats struct {
	TotalBytes     uintptr // pool size fixed at Init
	UsedBytes      uintptr
	AvailableBytes uintptr

	Capacity    int // table bound
	Blocks      int // occupied slots
	BlocksInUse int
	BlocksFree  int

	LargestFree uintptr
}

// Stats walks the block table once and returns a snapshot of the
// allocator's accounting and occupancy.
func (p *PoolAllocator) Stats() PoolStats {
	s := PoolStats{
		TotalBytes:     p.TotalBytes(),
		UsedBytes:      p.UsedBytes(),
		AvailableBytes: p.AvailableBytes(),
		Capacity:       p.capacity,
		Blocks:         len(p.blocks),
	}
	for i := range p.blocks {
		b := &p.blocks[i]
		if b.inUse {
			s.BlocksInUse++
			continue
		}
		s.BlocksFree++
		if b.size > s.LargestFree {
			s.LargestFree = b.size
		}
	}
	return s
}
