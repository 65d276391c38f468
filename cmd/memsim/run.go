package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/region"
)

var (
	runCheck bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runCheck, "check", false, "Verify allocator invariants after every operation")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workload.toml>",
		Short: "Replay an allocation workload",
		Long: `The run command maps an anonymous region, initializes the configured
allocator over it, and replays the workload operations in order. Requests
refused with no-memory are counted, not fatal; a broken invariant under
--check aborts the run.

Example:
  memsim run boot.toml
  memsim run boot.toml --check
  memsim run pool.toml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload(args[0])
		},
	}
	return cmd
}

// RunReport summarizes a completed workload run.
type RunReport struct {
	Workload  string
	Allocator string

	Ops     int // operations executed
	Refused int // requests denied with no-memory
	Skipped int // deallocs naming no outstanding allocation
	Checks  int // invariant checks performed

	Elapsed time.Duration

	Early *alloc.EarlyStats `json:",omitempty"`
	Pool  *alloc.PoolStats  `json:",omitempty"`
}

// extent records an outstanding allocation so later ops can release it by
// position.
type extent struct {
	addr   uintptr
	layout alloc.Layout
	pages  uintptr
}

func runWorkload(path string) error {
	w, err := LoadWorkload(path)
	if err != nil {
		return err
	}

	logger.L.Debugf("mapping %d bytes for %s workload", w.RegionSize, w.Allocator)
	r, err := region.Map(int(w.RegionSize))
	if err != nil {
		return err
	}
	defer r.Close()

	report := &RunReport{Workload: path, Allocator: w.Allocator}

	start := time.Now()
	switch w.Allocator {
	case engineEarly:
		err = runEarly(w, r, report)
	case enginePool:
		err = runPool(w, r, report)
	}
	if err != nil {
		return err
	}
	report.Elapsed = time.Since(start)

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func runEarly(w *Workload, r *region.Region, report *RunReport) error {
	ea, err := alloc.NewEarly(uintptr(w.PageSize))
	if err != nil {
		return err
	}
	ea.Init(r.Start(), uintptr(w.InitSize))
	logger.L.Infof("early allocator over [0x%X, 0x%X), page size 0x%X",
		r.Start(), r.Start()+uintptr(w.InitSize), ea.PageSize())

	var bytes, pages []extent
	for i := range w.Ops {
		op := &w.Ops[i]
		for n := 0; n < op.Count; n++ {
			report.Ops++

			switch op.Kind {
			case opAlloc:
				layout := alloc.Layout{Size: uintptr(op.Size), Align: uintptr(op.Align)}
				addr, allocErr := ea.Alloc(layout)
				if errors.Is(allocErr, alloc.ErrNoMemory) {
					report.Refused++
					logger.L.Debugf("op %d: alloc %d/%d refused", i, op.Size, op.Align)
					break
				}
				bytes = append(bytes, extent{addr: addr, layout: layout})
				logger.L.Debugf("op %d: alloc %d/%d -> 0x%X", i, op.Size, op.Align, addr)

			case opAllocPages:
				addr, allocErr := ea.AllocPages(uintptr(op.Pages), uintptr(op.AlignPow2))
				if errors.Is(allocErr, alloc.ErrNoMemory) {
					report.Refused++
					logger.L.Debugf("op %d: allocPages %d refused", i, op.Pages)
					break
				}
				pages = append(pages, extent{addr: addr, pages: uintptr(op.Pages)})
				logger.L.Debugf("op %d: allocPages %d -> 0x%X", i, op.Pages, addr)

			case opDealloc:
				if op.Index >= len(bytes) {
					report.Skipped++
					logger.L.Warnf("op %d: dealloc index %d names no outstanding allocation", i, op.Index)
					break
				}
				e := bytes[op.Index]
				ea.Dealloc(e.addr, e.layout)
				bytes = append(bytes[:op.Index], bytes[op.Index+1:]...)
				logger.L.Debugf("op %d: dealloc 0x%X", i, e.addr)

			case opDeallocPages:
				if op.Index >= len(pages) {
					report.Skipped++
					logger.L.Warnf("op %d: deallocPages index %d names no outstanding allocation", i, op.Index)
					break
				}
				e := pages[op.Index]
				ea.DeallocPages(e.addr, e.pages)
				pages = append(pages[:op.Index], pages[op.Index+1:]...)
				logger.L.Debugf("op %d: deallocPages 0x%X", i, e.addr)

			case opAddMemory:
				// The early allocator refuses extra regions by contract.
				if addErr := ea.AddMemory(r.Start()+uintptr(op.Start), uintptr(op.Size)); addErr != nil {
					report.Refused++
					logger.L.Debugf("op %d: addMemory refused", i)
				}
			}

			if runCheck {
				if checkErr := checkEarly(ea); checkErr != nil {
					return fmt.Errorf("op %d: %w", i, checkErr)
				}
				report.Checks++
			}
		}
	}

	stats := ea.Stats()
	report.Early = &stats
	return nil
}

func runPool(w *Workload, r *region.Region, report *RunReport) error {
	p := alloc.NewPool(w.BlockCapacity)
	p.Init(r.Start(), uintptr(w.InitSize))
	logger.L.Infof("pool allocator over [0x%X, 0x%X), %d table slots",
		r.Start(), r.Start()+uintptr(w.InitSize), p.Capacity())

	var live []extent
	for i := range w.Ops {
		op := &w.Ops[i]
		for n := 0; n < op.Count; n++ {
			report.Ops++

			switch op.Kind {
			case opAlloc:
				layout := alloc.Layout{Size: uintptr(op.Size), Align: uintptr(op.Align)}
				addr, allocErr := p.Alloc(layout)
				if errors.Is(allocErr, alloc.ErrNoMemory) {
					report.Refused++
					logger.L.Debugf("op %d: alloc %d/%d refused", i, op.Size, op.Align)
					break
				}
				live = append(live, extent{addr: addr, layout: layout})
				logger.L.Debugf("op %d: alloc %d/%d -> 0x%X", i, op.Size, op.Align, addr)

			case opDealloc:
				if op.Index >= len(live) {
					report.Skipped++
					logger.L.Warnf("op %d: dealloc index %d names no outstanding allocation", i, op.Index)
					break
				}
				e := live[op.Index]
				p.Dealloc(e.addr, e.layout)
				live = append(live[:op.Index], live[op.Index+1:]...)
				logger.L.Debugf("op %d: dealloc 0x%X", i, e.addr)

			case opAddMemory:
				if addErr := p.AddMemory(r.Start()+uintptr(op.Start), uintptr(op.Size)); addErr != nil {
					report.Refused++
					logger.L.Debugf("op %d: addMemory refused, table full", i)
					break
				}
				logger.L.Debugf("op %d: addMemory +%d bytes", i, op.Size)
			}

			if runCheck {
				if checkErr := checkPool(p); checkErr != nil {
					return fmt.Errorf("op %d: %w", i, checkErr)
				}
				report.Checks++
			}
		}
	}

	stats := p.Stats()
	report.Pool = &stats
	return nil
}

// checkEarly validates the cursor accounting identity.
func checkEarly(ea *alloc.EarlyAllocator) error {
	sum := ea.UsedBytes() + ea.AvailableBytes() + ea.UsedPages()*ea.PageSize()
	if sum != ea.TotalBytes() {
		return fmt.Errorf("accounting identity broken: used 0x%X + available 0x%X + pages 0x%X != total 0x%X",
			ea.UsedBytes(), ea.AvailableBytes(), ea.UsedPages()*ea.PageSize(), ea.TotalBytes())
	}
	return nil
}

// checkPool validates the block table bookkeeping.
func checkPool(p *alloc.PoolAllocator) error {
	s := p.Stats()
	if s.Blocks > s.Capacity {
		return fmt.Errorf("table overflow: %d blocks with capacity %d", s.Blocks, s.Capacity)
	}
	if s.BlocksInUse+s.BlocksFree != s.Blocks {
		return fmt.Errorf("block counts disagree: %d busy + %d free != %d total",
			s.BlocksInUse, s.BlocksFree, s.Blocks)
	}
	return nil
}

func printReport(rep *RunReport) {
	pr := message.NewPrinter(language.English)

	printInfo("\nWorkload Report: %s\n", rep.Workload)
	printInfo("%s\n\n", strings.Repeat("=", 40))

	printInfo("Run:\n")
	printInfo("  Allocator: %s\n", rep.Allocator)
	printInfo("  Operations: %s (%s refused, %s skipped)\n",
		pr.Sprintf("%d", rep.Ops), pr.Sprintf("%d", rep.Refused), pr.Sprintf("%d", rep.Skipped))
	if rep.Checks > 0 {
		printInfo("  Invariant checks: %s, all passed\n", pr.Sprintf("%d", rep.Checks))
	}
	printInfo("  Elapsed: %s\n", rep.Elapsed)

	if rep.Early != nil {
		s := rep.Early
		printInfo("\nRegion:\n")
		printInfo("  Total: %s (%s bytes)\n",
			formatBytes(int64(s.TotalBytes)), pr.Sprintf("%d", uint64(s.TotalBytes)))
		printInfo("  Byte area: %s used\n", formatBytes(int64(s.UsedBytes)))
		printInfo("  Page area: %s of %s pages used, page size %s\n",
			pr.Sprintf("%d", uint64(s.UsedPages)), pr.Sprintf("%d", uint64(s.TotalPages)),
			formatBytes(int64(s.PageSize)))
		printInfo("  Free gap: %s\n", formatBytes(int64(s.AvailableBytes)))
	}

	if rep.Pool != nil {
		s := rep.Pool
		printInfo("\nBlock Table:\n")
		printInfo("  Capacity: %s slots\n", pr.Sprintf("%d", s.Capacity))
		printInfo("  Blocks: %s (%s busy, %s free)\n",
			pr.Sprintf("%d", s.Blocks), pr.Sprintf("%d", s.BlocksInUse), pr.Sprintf("%d", s.BlocksFree))
		printInfo("  Largest free block: %s\n", formatBytes(int64(s.LargestFree)))
		printInfo("  Ledger: %s used of %s\n",
			formatBytes(int64(s.UsedBytes)), formatBytes(int64(s.TotalBytes)))
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
