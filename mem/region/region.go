// Package region provides anonymous memory mappings for backing allocators
// with real, writable address ranges.
//
// A Region is a contiguous span of private, zero-filled memory obtained from
// the operating system. Its start address and size plug directly into the
// Init methods of the allocators in mem/alloc, which lets tests and tools
// exercise allocation arithmetic against addresses that can actually be
// dereferenced.
//
// Addresses handed out over a Region stay valid until Close. After Close the
// span is returned to the operating system and all pointers into it dangle.
package region

import (
	"fmt"
	"unsafe"
)

// Region is a span of anonymous memory.
type Region struct {
	data []byte
}

// Map obtains a private anonymous mapping of the given size in bytes.
func Map(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: invalid size %d", size)
	}
	data, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("region: map %d bytes: %w", size, err)
	}
	return &Region{data: data}, nil
}

// Start returns the address of the first byte of the span.
func (r *Region) Start() uintptr {
	if len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(r.data)))
}

// Size returns the span length in bytes.
func (r *Region) Size() uintptr {
	return uintptr(len(r.data))
}

// Bytes exposes the span for direct reads and writes.
func (r *Region) Bytes() []byte {
	return r.data
}

// Close returns the span to the operating system. Closing twice is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unmapAnon(r.data)
	r.data = nil
	return err
}
