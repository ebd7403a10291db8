package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/trace"
)

var (
	layoutArena    *arenaFlags
	layoutLimit    int
	layoutFreeOnly bool
)

func init() {
	cmd := newLayoutCmd()
	layoutArena = addArenaFlags(cmd, "64KiB")
	cmd.Flags().IntVar(&layoutLimit, "limit", 0, "Print at most this many cells (0 = all)")
	cmd.Flags().BoolVar(&layoutFreeOnly, "free", false, "Print free cells only")
	rootCmd.AddCommand(cmd)
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout [trace]",
		Short: "Print the cell map of an arena",
		Long: `The layout command prints every cell of an arena in address order.
With a trace argument the trace is replayed first, so the map shows the
fragmentation it leaves behind.

Example:
  heapctl layout
  heapctl layout workload.trace --free
  heapctl layout workload.trace --limit 20 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(args)
		},
	}
	return cmd
}

type cellRow struct {
	Claim     uint32 `json:"claim"`
	Start     uint32 `json:"start"`
	Size      uint32 `json:"size"`
	Allocated bool   `json:"allocated"`
}

type layoutReport struct {
	Cells []cellRow   `json:"cells"`
	Usage usageReport `json:"usage"`
}

func runLayout(args []string) error {
	h, release, err := newArena(layoutArena)
	if err != nil {
		return err
	}
	defer release()

	if len(args) == 1 {
		ops, err := trace.Open(args[0])
		if err != nil {
			return err
		}
		if _, err := trace.Replay(h, ops, nil); err != nil {
			return err
		}
	}

	report := layoutReport{Cells: collectCells(h), Usage: newUsageReport(h.Usage())}
	if jsonOut {
		return printJSON(report)
	}

	printInfo("%s\n", styled(headerStyle, fmt.Sprintf("%10s  %10s  %12s  %s", "CLAIM", "START", "SIZE", "STATE")))
	for _, c := range report.Cells {
		state := styled(freeStyle, "free")
		if c.Allocated {
			state = styled(allocatedStyle, "allocated")
		}
		printInfo("%10d  %10d  %12s  %s\n", c.Claim, c.Start, humanize.Comma(int64(c.Size)), state)
	}
	printUsage(report.Usage)
	return nil
}

func collectCells(h *heap.Heap) []cellRow {
	var rows []cellRow
	h.Walk(func(ci heap.CellInfo) bool {
		if layoutFreeOnly && ci.Allocated {
			return true
		}
		rows = append(rows, cellRow{Claim: ci.Claim, Start: ci.Start, Size: ci.Size, Allocated: ci.Allocated})
		return layoutLimit <= 0 || len(rows) < layoutLimit
	})
	return rows
}
