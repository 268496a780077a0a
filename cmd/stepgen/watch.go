package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"stepgen/internal/core"
)

const defaultDebounce = 300 * time.Millisecond

func (c *cli) watchCommand() *cobra.Command {
	var (
		flags    simulateFlags
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <protocol.{json,yaml}>",
		Short: "Re-simulate a protocol file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), serviceNeeds{history: flags.record, artifacts: flags.export})
			if err != nil {
				return err
			}
			defer s.Close()
			path := args[0]
			simulate := func() {
				run, err := s.svc.SimulateFile(cmd.Context(), path, flags.options())
				if err != nil {
					c.logger.Error("simulate failed", "path", path, "error", err)
					return
				}
				var stepErrs stepErrorsExit
				if err := c.printRuns([]core.SimulationRun{run}, flags.timeline, false); err != nil && !errors.As(err, &stepErrs) {
					c.logger.Error("print run", "error", err)
				}
			}
			simulate()
			err = watchFile(cmd.Context(), path, debounce, simulate)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.continueOnError, "continue-on-error", false, "skip failing steps instead of halting")
	f.BoolVar(&flags.stripNoOp, "strip-noop", false, "remove aspirate/dispense pairs that leave no trace")
	f.BoolVar(&flags.export, "export", false, "export each timeline to the artifact store")
	f.BoolVar(&flags.record, "record", false, "record each run in the history store")
	f.BoolVar(&flags.timeline, "timeline", false, "include per-step frames with robot state")
	f.DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before re-simulating")
	return cmd
}

// watchFile calls onChange once per burst of writes to path, after debounce
// has passed without further events. The parent directory is watched so
// editors that replace the file on save are handled. It returns when ctx is
// done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		case <-timer.C:
			onChange()
		}
	}
}
