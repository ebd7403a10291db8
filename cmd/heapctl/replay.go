package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cellheap/internal/logger"
	"github.com/joshuapare/cellheap/internal/trace"
)

var (
	replayArena     *arenaFlags
	replayFailOnOOM bool
)

func init() {
	cmd := newReplayCmd()
	replayArena = addArenaFlags(cmd, "1MiB")
	cmd.Flags().BoolVar(&replayFailOnOOM, "fail-on-oom", false, "Treat out-of-memory as an error")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay an allocation trace",
		Long: `The replay command runs every operation of a trace file against a
fresh arena, checking payload contents as it goes, and reports operation
counts and the final arena usage.

Trace lines:
  alloc   <id> <size> <align>
  zalloc  <id> <size> <align>
  realloc <id> <newsize>
  free    <id>
  verify

Example:
  heapctl replay workload.trace
  heapctl replay workload.trace --arena 64MiB --mapped
  heapctl replay workload.trace --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

type replayReport struct {
	Trace  string       `json:"trace"`
	Result trace.Result `json:"result"`
	Usage  usageReport  `json:"usage"`
}

func runReplay(args []string) error {
	path := args[0]

	printVerbose("Parsing trace: %s\n", path)
	ops, err := trace.Open(path)
	if err != nil {
		return err
	}

	h, release, err := newArena(replayArena)
	if err != nil {
		return err
	}
	defer release()

	res, err := trace.Replay(h, ops, &trace.Options{FailOnOOM: replayFailOnOOM})
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	if err := h.Verify(); err != nil {
		return fmt.Errorf("arena invalid after replay: %w", err)
	}

	logger.Info("replay finished", "trace", path, "ops", res.Ops, "oom", res.OutOfMemory, "mismatches", res.Mismatches)
	if res.Mismatches > 0 {
		logger.Warn("payload mismatches during replay", "trace", path, "count", res.Mismatches)
	}

	report := replayReport{Trace: path, Result: res, Usage: newUsageReport(h.Usage())}
	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printResult(report)
	}

	if res.Mismatches > 0 {
		return fmt.Errorf("%d payload mismatches", res.Mismatches)
	}
	return nil
}

func printResult(r replayReport) {
	res := r.Result
	printInfo("%s %s\n", styled(headerStyle, "Trace:"), r.Trace)
	printInfo("  Operations:    %s\n", counts.Sprintf("%d", res.Ops))
	printInfo("  Allocations:   %s\n", counts.Sprintf("%d", res.Allocs))
	printInfo("  Reallocations: %s (%s moved)\n", counts.Sprintf("%d", res.Reallocs), counts.Sprintf("%d", res.Moved))
	printInfo("  Frees:         %s\n", counts.Sprintf("%d", res.Frees))
	printInfo("  Verifies:      %s\n", counts.Sprintf("%d", res.Verifies))
	printInfo("  Out of memory: %s\n", counts.Sprintf("%d", res.OutOfMemory))
	printInfo("  Mismatches:    %s\n", counts.Sprintf("%d", res.Mismatches))
	printInfo("  Live at end:   %s\n", counts.Sprintf("%d", res.Live))
	printInfo("  Peak live:     %s\n", counts.Sprintf("%d", res.PeakLive))
	printUsage(r.Usage)
}
