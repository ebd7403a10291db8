package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/heap/backing"
	"github.com/joshuapare/cellheap/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
)

// Counters are printed with digit grouping.
var counts = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Exercise and inspect the cellheap allocator",
	Long: `heapctl drives a cellheap arena from the command line. It replays
allocation traces, runs the built-in scenarios, and prints the cell layout
of an arena so fragmentation and coalescing can be inspected.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && !quiet {
			logger.Init(logger.Options{Enabled: true, Level: slog.LevelDebug, JSON: jsonOut})
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// arenaFlags size and place the arena of one command.
type arenaFlags struct {
	size   string
	mapped bool
}

// addArenaFlags registers --arena and --mapped on cmd.
func addArenaFlags(cmd *cobra.Command, defaultSize string) *arenaFlags {
	f := &arenaFlags{}
	cmd.Flags().StringVar(&f.size, "arena", defaultSize, "Arena size (e.g. 65536, 64KiB, 2MB)")
	cmd.Flags().BoolVar(&f.mapped, "mapped", false, "Back the arena with an anonymous memory mapping")
	return f
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newArena acquires a region of the requested size and formats a heap in it.
// The returned release func must be called when the heap is no longer used.
func newArena(f *arenaFlags) (*heap.Heap, func(), error) {
	size, err := humanize.ParseBytes(f.size)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --arena %q: %w", f.size, err)
	}
	if size < heap.MinArenaSize || size > heap.MaxArenaSize {
		return nil, nil, fmt.Errorf("--arena must be between %d and %s bytes", heap.MinArenaSize, humanize.Comma(heap.MaxArenaSize))
	}
	return openArena(int(size), f.mapped)
}

// openArena formats a heap in a fresh region of size bytes.
func openArena(size int, mapped bool) (*heap.Heap, func(), error) {
	region, err := backing.Acquire(size, &backing.Options{Mapped: mapped})
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := region.Release(); err != nil {
			logger.Error("release arena", "size", size, "mapped", mapped, "err", err)
			printError("release arena: %v\n", err)
		}
	}

	h, err := heap.New(region.Bytes(), &heap.Options{Logger: logger.L})
	if err != nil {
		release()
		return nil, nil, err
	}
	printVerbose("Arena: %s (%s)\n", humanize.IBytes(uint64(size)), regionKind(region))
	return h, release, nil
}

func regionKind(r *backing.Region) string {
	if r.Mapped() {
		return "mapped"
	}
	return "slice"
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// usageReport is the printable form of heap.Usage.
type usageReport struct {
	Arena          int     `json:"arena"`
	Cells          int     `json:"cells"`
	FreeCells      int     `json:"free_cells"`
	FreeBytes      uint64  `json:"free_bytes"`
	LargestFree    uint32  `json:"largest_free"`
	AllocatedCells int     `json:"allocated_cells"`
	AllocatedBytes uint64  `json:"allocated_bytes"`
	HeaderBytes    uint64  `json:"header_bytes"`
	Fragmentation  float64 `json:"fragmentation"`
}

func newUsageReport(u heap.Usage) usageReport {
	return usageReport{
		Arena:          u.Arena,
		Cells:          u.Cells,
		FreeCells:      u.FreeCells,
		FreeBytes:      u.FreeBytes,
		LargestFree:    u.LargestFree,
		AllocatedCells: u.AllocatedCells,
		AllocatedBytes: u.AllocatedBytes,
		HeaderBytes:    u.HeaderBytes,
		Fragmentation:  u.Fragmentation(),
	}
}

func printUsage(u usageReport) {
	printInfo("\n%s\n", styled(headerStyle, "Arena Usage:"))
	printInfo("  Arena:           %s\n", humanize.IBytes(uint64(u.Arena)))
	printInfo("  Cells:           %s (%s free, %s allocated)\n",
		counts.Sprintf("%d", u.Cells), counts.Sprintf("%d", u.FreeCells), counts.Sprintf("%d", u.AllocatedCells))
	printInfo("  Free bytes:      %s\n", humanize.IBytes(u.FreeBytes))
	printInfo("  Largest free:    %s\n", humanize.IBytes(uint64(u.LargestFree)))
	printInfo("  Allocated bytes: %s\n", humanize.IBytes(u.AllocatedBytes))
	printInfo("  Header bytes:    %s\n", humanize.IBytes(u.HeaderBytes))
	printInfo("  Fragmentation:   %.1f%%\n", u.Fragmentation*100)
}
