package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/cell"
)

const scenarioArenaSize = 2_000_000

var scenarioMapped bool

func init() {
	cmd := newScenarioCmd()
	cmd.Flags().BoolVar(&scenarioMapped, "mapped", false, "Back the arenas with anonymous memory mappings")
	rootCmd.AddCommand(cmd)
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run the built-in allocation scenarios",
		Long: `The scenario command runs fixed allocation sequences on a 2,000,000
byte arena and checks their outcome:

  A1  alloc(100,8), alloc(50,4), free first, free second
  A2  alloc(100,8), alloc(50,4), free second, free first
      both must leave a single free cell spanning the arena
  B   alloc(1000,1), realloc to 2000; must grow in place and keep the data

Example:
  heapctl scenario
  heapctl scenario --mapped --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios()
		},
	}
	return cmd
}

type scenario struct {
	Name string
	Run  func(h *heap.Heap) error
}

type scenarioResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

var scenarios = []scenario{
	{"A1", func(h *heap.Heap) error { return scenarioA(h, false) }},
	{"A2", func(h *heap.Heap) error { return scenarioA(h, true) }},
	{"B", scenarioB},
}

var errScenarioFailed = errors.New("scenario failed")

func runScenarios() error {
	results := make([]scenarioResult, 0, len(scenarios))
	failed := 0
	for _, sc := range scenarios {
		res := scenarioResult{Name: sc.Name, Passed: true}
		if err := runScenario(sc); err != nil {
			res.Passed, res.Error = false, err.Error()
			failed++
		}
		results = append(results, res)
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Passed {
				printInfo("%s  %s\n", styled(passStyle, "PASS"), r.Name)
			} else {
				printInfo("%s  %s: %s\n", styled(failStyle, "FAIL"), r.Name, r.Error)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(scenarios), errScenarioFailed)
	}
	return nil
}

func runScenario(sc scenario) error {
	h, release, err := openArena(scenarioArenaSize, scenarioMapped)
	if err != nil {
		return err
	}
	defer release()

	printVerbose("Running scenario %s\n", sc.Name)
	if err := sc.Run(h); err != nil {
		return err
	}
	return h.Verify()
}

func scenarioA(h *heap.Heap, reverse bool) error {
	p1, err := h.Alloc(100, 8)
	if err != nil {
		return err
	}
	p2, err := h.Alloc(50, 4)
	if err != nil {
		return err
	}
	if p1%8 != 0 || p2%4 != 0 {
		return fmt.Errorf("misaligned pointers %d, %d", p1, p2)
	}

	first, second := p1, p2
	if reverse {
		first, second = p2, p1
	}
	if err := h.Free(first); err != nil {
		return err
	}
	if err := h.Free(second); err != nil {
		return err
	}

	u := h.Usage()
	want := uint32(h.Len() - cell.HeadSize - cell.Overhead)
	if u.FreeCells != 1 || u.LargestFree != want {
		return fmt.Errorf("want one free cell of %d bytes, got %d cells, largest %d", want, u.FreeCells, u.LargestFree)
	}
	return nil
}

func scenarioB(h *heap.Heap) error {
	p, err := h.Alloc(1000, 1)
	if err != nil {
		return err
	}
	want := make([]byte, 1000)
	for i := range want {
		want[i] = byte(i * 7)
	}
	copy(h.Bytes(p, 1000), want)

	np, err := h.Realloc(p, 1000, 1, 2000)
	if err != nil {
		return err
	}
	if np != p {
		return fmt.Errorf("realloc moved %d to %d", p, np)
	}
	if !bytes.Equal(h.Bytes(np, 1000), want) {
		return errors.New("payload changed across realloc")
	}
	return nil
}
