package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"stepgen/internal/core"
	"stepgen/pkg/domain"
)

type simulateFlags struct {
	continueOnError bool
	stripNoOp       bool
	export          bool
	record          bool
	timeline        bool
	parallel        int
}

func (f simulateFlags) options() core.SimulateOptions {
	return core.SimulateOptions{
		ContinueOnError: f.continueOnError,
		StripNoOp:       f.stripNoOp,
		Record:          f.record,
		Export:          f.export,
	}
}

// runOutput is what simulate prints for each protocol.
type runOutput struct {
	RunID       string             `json:"runId"`
	Name        string             `json:"name"`
	ContentHash string             `json:"contentHash"`
	OK          bool               `json:"ok"`
	Halted      bool               `json:"halted"`
	Commands    domain.CommandList `json:"commands"`
	Errors      []core.StepErrors  `json:"errors,omitempty"`
	Warnings    int                `json:"warnings"`
	ArtifactKey string             `json:"artifactKey,omitempty"`
	HistoryID   int64              `json:"historyId,omitempty"`
	Timeline    *core.Timeline     `json:"timeline,omitempty"`
}

func newRunOutput(run core.SimulationRun, withTimeline bool) runOutput {
	out := runOutput{
		RunID:       run.RunID,
		Name:        run.Name,
		ContentHash: run.ContentHash,
		OK:          run.OK(),
		Halted:      run.Timeline.Halted(),
		Commands:    domain.CommandList(run.Commands),
		Errors:      run.Timeline.Errors,
		ArtifactKey: run.ArtifactKey,
	}
	if out.Commands == nil {
		out.Commands = domain.CommandList{}
	}
	for _, f := range run.Timeline.Frames {
		out.Warnings += len(f.Warnings)
	}
	if run.History != nil {
		out.HistoryID = run.History.ID
	}
	if withTimeline {
		tl := run.Timeline
		out.Timeline = &tl
	}
	return out
}

func (c *cli) simulateCommand() *cobra.Command {
	var flags simulateFlags
	cmd := &cobra.Command{
		Use:   "simulate <protocol.{json,yaml}>...",
		Short: "Simulate protocol files and print their commands or errors",
		Long: `Simulate folds each protocol's steps over its starting robot state and
prints the generated commands as JSON. Steps that fail validation are
reported with every error they hit; the exit code is 2 when any step failed.

Several files are simulated concurrently (see --parallel) and printed as a
JSON array in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), serviceNeeds{history: flags.record, artifacts: flags.export})
			if err != nil {
				return err
			}
			defer s.Close()
			defer c.logMetrics(s)

			var runs []core.SimulationRun
			if len(args) == 1 {
				run, err := s.svc.SimulateFile(cmd.Context(), args[0], flags.options())
				if err != nil {
					return err
				}
				runs = []core.SimulationRun{run}
			} else {
				runs, err = s.svc.SimulateBatch(cmd.Context(), args, flags.options(), flags.parallel)
				if err != nil {
					return err
				}
			}
			return c.printRuns(runs, flags.timeline, len(args) > 1)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.continueOnError, "continue-on-error", false, "skip failing steps instead of halting")
	f.BoolVar(&flags.stripNoOp, "strip-noop", false, "remove aspirate/dispense pairs that leave no trace")
	f.BoolVar(&flags.export, "export", false, "export the timeline to the artifact store")
	f.BoolVar(&flags.record, "record", false, "record the run in the history store")
	f.BoolVar(&flags.timeline, "timeline", false, "include per-step frames with robot state")
	f.IntVar(&flags.parallel, "parallel", core.DefaultBatchLimit, "maximum protocols simulated at once")
	return cmd
}

func (c *cli) printRuns(runs []core.SimulationRun, withTimeline, asArray bool) error {
	outputs := make([]runOutput, len(runs))
	failed := 0
	for i, run := range runs {
		outputs[i] = newRunOutput(run, withTimeline)
		failed += run.Timeline.ErrorCount()
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	var err error
	if asArray {
		err = enc.Encode(outputs)
	} else {
		err = enc.Encode(outputs[0])
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if failed > 0 {
		return stepErrorsExit{count: failed}
	}
	return nil
}
