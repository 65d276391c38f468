package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Engine      string // "early" or "pool"
	Operation   string
	Variant     string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult pairs the two engines on a shared operation.
type ComparisonResult struct {
	Operation   string
	Variant     string
	EarlyNs     float64
	PoolNs      float64
	Ratio       float64 // pool ns / early ns
	EarlyMem    int64
	PoolMem     int64
	EarlyAllocs int64
	PoolAllocs  int64
	SingleOnly  string // engine name when only one side exists
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	// Read benchmark output
	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	// Parse benchmarks
	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	// Generate comparisons
	comparisons := generateComparisons(results)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated %d comparisons\n", len(comparisons))
	}

	// Generate markdown report
	report := generateMarkdownReport(comparisons)

	// Write output
	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	// Close input file if opened
	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkPoolAllocator_TableScan/256Blocks-8  10000  1245 ns/op  0 B/op  0 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+(?:B|MB)/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Tolerate test2json lines (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		// Parse benchmark line
		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64

		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		engine, operation, variant := splitBenchmarkName(name)
		if engine == "" {
			continue
		}

		results = append(results, BenchmarkResult{
			Name:        name,
			Engine:      engine,
			Operation:   operation,
			Variant:     variant,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// splitBenchmarkName decomposes names like
// BenchmarkEarlyAllocator_Alloc-8 and
// BenchmarkPoolAllocator_TableScan/256Blocks-8.
func splitBenchmarkName(name string) (engine, operation, variant string) {
	trimmed := strings.TrimPrefix(name, "Benchmark")

	// Strip the -procs suffix from the final path element.
	parts := strings.Split(trimmed, "/")
	last := parts[len(parts)-1]
	if dashIdx := strings.LastIndex(last, "-"); dashIdx > 0 {
		parts[len(parts)-1] = last[:dashIdx]
	}
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	typeAndOp := strings.SplitN(parts[0], "_", 2)
	switch typeAndOp[0] {
	case "EarlyAllocator":
		engine = "early"
	case "PoolAllocator":
		engine = "pool"
	default:
		return "", "", ""
	}

	if len(typeAndOp) == 2 {
		operation = typeAndOp[1]
	}
	if len(parts) > 1 {
		variant = strings.Join(parts[1:], "/")
	}
	return engine, operation, variant
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	// Group results by operation and variant
	type key struct {
		operation string
		variant   string
	}

	grouped := make(map[key]map[string]BenchmarkResult)

	for _, result := range results {
		k := key{result.Operation, result.Variant}
		if grouped[k] == nil {
			grouped[k] = make(map[string]BenchmarkResult)
		}
		grouped[k][result.Engine] = result
	}

	var comparisons []ComparisonResult

	for k, engines := range grouped {
		early, hasEarly := engines["early"]
		pool, hasPool := engines["pool"]

		switch {
		case hasEarly && hasPool:
			comparisons = append(comparisons, ComparisonResult{
				Operation:   k.operation,
				Variant:     k.variant,
				EarlyNs:     early.NsPerOp,
				PoolNs:      pool.NsPerOp,
				Ratio:       pool.NsPerOp / early.NsPerOp,
				EarlyMem:    early.BytesPerOp,
				PoolMem:     pool.BytesPerOp,
				EarlyAllocs: early.AllocsPerOp,
				PoolAllocs:  pool.AllocsPerOp,
			})
		case hasEarly:
			comparisons = append(comparisons, ComparisonResult{
				Operation:   k.operation,
				Variant:     k.variant,
				EarlyNs:     early.NsPerOp,
				EarlyMem:    early.BytesPerOp,
				EarlyAllocs: early.AllocsPerOp,
				SingleOnly:  "early",
			})
		case hasPool:
			comparisons = append(comparisons, ComparisonResult{
				Operation:  k.operation,
				Variant:    k.variant,
				PoolNs:     pool.NsPerOp,
				PoolMem:    pool.BytesPerOp,
				PoolAllocs: pool.AllocsPerOp,
				SingleOnly: "pool",
			})
		}
	}

	// Sort by operation then variant
	sort.Slice(comparisons, func(i, j int) bool {
		if comparisons[i].Operation != comparisons[j].Operation {
			return comparisons[i].Operation < comparisons[j].Operation
		}
		return comparisons[i].Variant < comparisons[j].Variant
	})

	return comparisons
}

func generateMarkdownReport(comparisons []ComparisonResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Allocator Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// Summary statistics
	comparable := 0
	totalRatio := 0.0
	for _, comp := range comparisons {
		if comp.SingleOnly == "" {
			comparable++
			totalRatio += comp.Ratio
		}
	}

	avgRatio := 0.0
	if comparable > 0 {
		avgRatio = totalRatio / float64(comparable)
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total benchmarks**: %d\n", len(comparisons)))
	sb.WriteString(fmt.Sprintf("- **Comparable** (both engines): %d\n", comparable))
	if comparable > 0 {
		sb.WriteString(fmt.Sprintf("- **Average pool/early time ratio**: %.2fx\n", avgRatio))
	}
	sb.WriteString("\n")

	// Detailed results table
	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString(
		"| Operation | Variant | early (ns/op) | pool (ns/op) | Ratio | early B/op | pool B/op |\n",
	)
	sb.WriteString(
		"|-----------|---------|---------------|--------------|-------|------------|-----------|\n",
	)

	for _, comp := range comparisons {
		switch comp.SingleOnly {
		case "early":
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | *N/A* | *early only* | %s | *N/A* |\n",
				comp.Operation,
				orDash(comp.Variant),
				formatNumber(comp.EarlyNs),
				formatBytes(comp.EarlyMem),
			))
		case "pool":
			sb.WriteString(fmt.Sprintf("| %s | %s | *N/A* | %s | *pool only* | *N/A* | %s |\n",
				comp.Operation,
				orDash(comp.Variant),
				formatNumber(comp.PoolNs),
				formatBytes(comp.PoolMem),
			))
		default:
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.2fx | %s | %s |\n",
				comp.Operation,
				orDash(comp.Variant),
				formatNumber(comp.EarlyNs),
				formatNumber(comp.PoolNs),
				comp.Ratio,
				formatBytes(comp.EarlyMem),
				formatBytes(comp.PoolMem),
			))
		}
	}

	sb.WriteString("\n")

	// Notes
	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Ratio > 1.0**: the pool engine spends more time per op\n")
	sb.WriteString("- **Ratio**: pool table scans grow with occupied slots; the early engine is constant time\n")
	sb.WriteString("- **B/op**: steady-state operations of both engines should report zero\n")

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
