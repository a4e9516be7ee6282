package main

import (
	"fmt"
	"time"

	"github.com/joshuapare/arenakit/arena"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	fillCount     int
	fillWorkers   int
	fillFreeEvery int
)

func init() {
	cmd := newFillCmd()
	cmd.Flags().IntVar(&fillCount, "count", 10000, "Total slots to allocate")
	cmd.Flags().IntVar(&fillWorkers, "workers", 4, "Concurrent workers")
	cmd.Flags().
		IntVar(&fillFreeEvery, "free-every", 3, "Free every Nth allocation (0 keeps all)")
	rootCmd.AddCommand(cmd)
}

func newFillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill <dir>",
		Short: "Drive a synthetic allocation workload",
		Long: `The fill command resumes an existing arena and runs a concurrent
alloc/stamp/free workload against it, then flushes the stage files and writes
the control block back. Useful for sizing stages and smoke-testing an arena
directory.

Example:
  arenactl fill ./scratch --count 50000
  arenactl fill ./scratch --count 50000 --workers 8 --free-every 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(args)
		},
	}
	return cmd
}

func runFill(args []string) error {
	dir := args[0]

	if fillCount <= 0 {
		return fmt.Errorf("count must be positive, got %d", fillCount)
	}
	if fillWorkers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", fillWorkers)
	}

	printVerbose("Resuming arena: %s\n", dir)
	a, p, ctrl, h, err := openArena(dir, arena.FlagBigLock)
	if err != nil {
		return err
	}

	start := time.Now()
	var g errgroup.Group
	per := fillCount / fillWorkers
	for w := 0; w < fillWorkers; w++ {
		n := per
		if w == 0 {
			n += fillCount % fillWorkers
		}
		g.Go(func() error {
			for i := 0; i < n; i++ {
				hdl, allocErr := a.Alloc()
				if allocErr != nil {
					return fmt.Errorf("alloc: %w", allocErr)
				}
				buf, resolveErr := a.Resolve(hdl)
				if resolveErr != nil {
					return fmt.Errorf("resolve %#x: %w", uint64(hdl), resolveErr)
				}
				buf[len(buf)-1] = byte(i)
				if fillFreeEvery > 0 && i%fillFreeEvery == fillFreeEvery-1 {
					if freeErr := a.Free(hdl); freeErr != nil {
						return fmt.Errorf("free %#x: %w", uint64(hdl), freeErr)
					}
				}
			}
			return nil
		})
	}
	workErr := g.Wait()
	elapsed := time.Since(start)

	stats := a.Stats()
	for i := uint32(0); i < stats.StageCount; i++ {
		if flushErr := p.Flush(h.KeyBase + i); flushErr != nil {
			printVerbose("Warning: flush stage %d: %v\n", i, flushErr)
		}
	}
	if detachErr := a.Detach(); detachErr != nil && workErr == nil {
		workErr = detachErr
	}
	if writeErr := writeCtrl(dir, ctrl); writeErr != nil && workErr == nil {
		workErr = writeErr
	}
	if workErr != nil {
		return workErr
	}

	if jsonOut {
		return printJSON(stats)
	}

	en := message.NewPrinter(language.English)
	printInfo("Workload complete in %s\n", elapsed.Round(time.Millisecond))
	printInfo("  Allocs: %s (%s reused)\n",
		en.Sprintf("%d", stats.Counters.Allocs),
		en.Sprintf("%d", stats.Counters.Reused))
	printInfo("  Frees: %s\n", en.Sprintf("%d", stats.Counters.Frees))
	printInfo("  Stages: %d\n", stats.StageCount)
	printInfo("  Cursor: stage %d, element %s\n",
		stats.AtStageID, en.Sprintf("%d", stats.AtElementID))
	return nil
}
