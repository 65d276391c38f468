package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/memkit/internal/align"
)

// Allocator engine names accepted in workload files.
const (
	engineEarly = "early"
	enginePool  = "pool"
)

// Op kinds accepted in workload files.
const (
	opAlloc        = "alloc"
	opDealloc      = "dealloc"
	opAllocPages   = "allocPages"
	opDeallocPages = "deallocPages"
	opAddMemory    = "addMemory"
)

// Workload is a scripted allocation run decoded from a TOML file.
type Workload struct {
	// allocator selects the engine: "early" or "pool". default: early
	Allocator string `toml:"allocator"`

	// pageSize configures the early allocator. 0 selects the default 4096.
	PageSize int64 `toml:"pageSize"`

	// blockCapacity bounds the pool's block table. 0 selects the default 1024.
	BlockCapacity int `toml:"blockCapacity"`

	// regionSize is the number of bytes mapped for the run. default: 1 MiB
	RegionSize int64 `toml:"regionSize"`

	// initSize is the number of leading bytes handed to Init. The rest of
	// the mapping is available to addMemory ops. 0 means the whole region.
	InitSize int64 `toml:"initSize"`

	Ops []Op `toml:"op"`
}

// Op is a single scripted operation.
type Op struct {
	Kind string `toml:"kind"`

	// alloc: request size in bytes
	Size int64 `toml:"size"`

	// alloc: required power-of-two alignment. 0 means 1.
	Align int64 `toml:"align"`

	// allocPages: number of pages. 0 means 1.
	Pages int64 `toml:"pages"`

	// allocPages: alignment as a power-of-two exponent
	AlignPow2 int64 `toml:"alignPow2"`

	// addMemory: offset of the new range within the mapped region
	Start int64 `toml:"start"`

	// dealloc, deallocPages: position in the list of outstanding
	// allocations, oldest first
	Index int `toml:"index"`

	// count repeats the op. 0 means once.
	Count int `toml:"count"`
}

// LoadWorkload reads a workload file, applies defaults, and rejects
// invalid configurations.
func LoadWorkload(path string) (*Workload, error) {
	w := &Workload{}
	if _, err := toml.DecodeFile(path, w); err != nil {
		return nil, fmt.Errorf("workload %s: %w", path, err)
	}
	w.SetDefaults()
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("workload %s: %w", path, err)
	}
	return w, nil
}

// SetDefaults fills zero fields with their documented defaults.
func (w *Workload) SetDefaults() {
	if w.Allocator == "" {
		w.Allocator = engineEarly
	}
	if w.RegionSize == 0 {
		w.RegionSize = 1 << 20
	}
	if w.InitSize == 0 {
		w.InitSize = w.RegionSize
	}
	for i := range w.Ops {
		op := &w.Ops[i]
		if op.Align == 0 {
			op.Align = 1
		}
		if op.Pages == 0 {
			op.Pages = 1
		}
		if op.Count == 0 {
			op.Count = 1
		}
	}
}

// Validate rejects workloads the runner could not execute.
func (w *Workload) Validate() error {
	if w.Allocator != engineEarly && w.Allocator != enginePool {
		return fmt.Errorf("unknown allocator %q", w.Allocator)
	}
	if w.PageSize < 0 || (w.PageSize > 0 && !align.IsPowerOfTwo(uintptr(w.PageSize))) {
		return fmt.Errorf("pageSize %d is not a power of two", w.PageSize)
	}
	if w.RegionSize <= 0 {
		return fmt.Errorf("regionSize %d must be positive", w.RegionSize)
	}
	if w.InitSize <= 0 || w.InitSize > w.RegionSize {
		return fmt.Errorf("initSize %d must be within the %d byte region", w.InitSize, w.RegionSize)
	}

	for i := range w.Ops {
		op := &w.Ops[i]
		if err := op.validate(w); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
		}
	}
	return nil
}

func (op *Op) validate(w *Workload) error {
	switch op.Kind {
	case opAlloc:
		if op.Size <= 0 {
			return fmt.Errorf("size %d must be positive", op.Size)
		}
		if !align.IsPowerOfTwo(uintptr(op.Align)) {
			return fmt.Errorf("align %d is not a power of two", op.Align)
		}
	case opDealloc:
		if op.Index < 0 {
			return fmt.Errorf("index %d must not be negative", op.Index)
		}
	case opAllocPages:
		if w.Allocator != engineEarly {
			return fmt.Errorf("not supported by the %s allocator", w.Allocator)
		}
		if op.Pages <= 0 {
			return fmt.Errorf("pages %d must be positive", op.Pages)
		}
		if op.AlignPow2 < 0 || op.AlignPow2 > 48 {
			return fmt.Errorf("alignPow2 %d out of range", op.AlignPow2)
		}
	case opDeallocPages:
		if w.Allocator != engineEarly {
			return fmt.Errorf("not supported by the %s allocator", w.Allocator)
		}
		if op.Index < 0 {
			return fmt.Errorf("index %d must not be negative", op.Index)
		}
	case opAddMemory:
		if op.Size <= 0 {
			return fmt.Errorf("size %d must be positive", op.Size)
		}
		if op.Start < 0 || op.Start+op.Size > w.RegionSize {
			return fmt.Errorf("range [%d, %d) escapes the %d byte region",
				op.Start, op.Start+op.Size, w.RegionSize)
		}
	default:
		return fmt.Errorf("unknown kind")
	}

	if op.Count < 0 {
		return fmt.Errorf("count %d must not be negative", op.Count)
	}
	return nil
}
