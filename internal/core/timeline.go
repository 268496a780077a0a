package core

import (
	"encoding/json"

	"stepgen/pkg/domain"
)

// TimelineFrame is the outcome of one successful step.
type TimelineFrame struct {
	StepIndex  int                            `json:"stepIndex"`
	Commands   []domain.Command               `json:"-"`
	RobotState domain.RobotState              `json:"robotState"`
	Warnings   []domain.CommandCreatorWarning `json:"-"`
}

// MarshalJSON encodes commands and warnings in their tagged wire shapes.
func (f TimelineFrame) MarshalJSON() ([]byte, error) {
	type frame struct {
		StepIndex  int                `json:"stepIndex"`
		Commands   domain.CommandList `json:"commands"`
		RobotState domain.RobotState  `json:"robotState"`
		Warnings   domain.WarningList `json:"warnings,omitempty"`
	}
	commands := domain.CommandList(f.Commands)
	if commands == nil {
		commands = domain.CommandList{}
	}
	return json.Marshal(frame{StepIndex: f.StepIndex, Commands: commands, RobotState: f.RobotState, Warnings: f.Warnings})
}

// StepErrors are the errors reported by the step at StepIndex.
type StepErrors struct {
	StepIndex int                          `json:"stepIndex"`
	Errors    []domain.CommandCreatorError `json:"-"`
}

// MarshalJSON encodes errors with their type tags.
func (e StepErrors) MarshalJSON() ([]byte, error) {
	type stepErrors struct {
		StepIndex int              `json:"stepIndex"`
		Errors    domain.ErrorList `json:"errors"`
	}
	return json.Marshal(stepErrors{StepIndex: e.StepIndex, Errors: e.Errors})
}

// Timeline is the simulated run of a whole protocol.
type Timeline struct {
	Frames          []TimelineFrame   `json:"frames"`
	Errors          []StepErrors      `json:"errors,omitempty"`
	FinalRobotState domain.RobotState `json:"finalRobotState"`
	// Stopped is set when a failing step ended the run early.
	Stopped bool `json:"halted"`
}

// TimelineOptions configures CommandCreatorsTimeline.
type TimelineOptions struct {
	// ContinueOnError skips a failing step, leaving the state as it was, and
	// keeps going instead of halting.
	ContinueOnError bool
}

// Halted reports whether the run stopped at a failing step.
func (t Timeline) Halted() bool {
	return t.Stopped
}

// OK reports whether no step failed.
func (t Timeline) OK() bool {
	return len(t.Errors) == 0
}

// ErrorCount returns the total number of errors across steps.
func (t Timeline) ErrorCount() int {
	n := 0
	for _, e := range t.Errors {
		n += len(e.Errors)
	}
	return n
}

// Commands flattens every frame's commands in order, optionally removing
// no-op mix pairs.
func (t Timeline) Commands(stripNoOp bool) []domain.Command {
	var out []domain.Command
	for _, frame := range t.Frames {
		out = append(out, frame.Commands...)
	}
	if stripNoOp {
		return StripNoOpCommands(out)
	}
	return out
}

// CommandCreatorsTimeline folds steps over initial. Each successful step
// yields a frame holding the state after it. By default the fold stops at
// the first step with errors.
func CommandCreatorsTimeline(steps []CurriedCommandCreator, ic domain.InvariantContext, initial domain.RobotState, opts TimelineOptions) Timeline {
	timeline := Timeline{Frames: []TimelineFrame{}}
	state := initial.Clone()
	for i, step := range steps {
		res := step(ic, state)
		if res.HasErrors() {
			timeline.Errors = append(timeline.Errors, StepErrors{StepIndex: i, Errors: res.Errors})
			if !opts.ContinueOnError {
				timeline.Stopped = true
				break
			}
			continue
		}
		next, warnings := advance(res, ic, state)
		next = next.Clone()
		timeline.Frames = append(timeline.Frames, TimelineFrame{
			StepIndex:  i,
			Commands:   res.Commands,
			RobotState: next,
			Warnings:   warnings,
		})
		state = next
	}
	timeline.FinalRobotState = state.Clone()
	return timeline
}
