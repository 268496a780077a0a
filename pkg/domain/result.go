package domain

import "encoding/json"

// CommandCreatorResult is the outcome of a command creator. Errors and
// Commands are mutually exclusive: a result that reports errors carries no
// commands. RobotState is populated by creators that thread state (compound
// creators and timelines) and is nil for leaf creators.
type CommandCreatorResult struct {
	Errors     []CommandCreatorError
	Warnings   []CommandCreatorWarning
	Commands   []Command
	RobotState *RobotState
}

// ErrorResult builds a failed result.
func ErrorResult(errs ...CommandCreatorError) CommandCreatorResult {
	return CommandCreatorResult{Errors: errs}
}

// CommandsResult builds a successful result. A nil command slice is
// normalized to empty so that "no commands" is distinguishable from failure.
func CommandsResult(commands []Command, warnings ...CommandCreatorWarning) CommandCreatorResult {
	if commands == nil {
		commands = []Command{}
	}
	return CommandCreatorResult{Commands: commands, Warnings: warnings}
}

// HasErrors reports whether the result is a failure.
func (r CommandCreatorResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// MergeWarnings appends warnings from another result.
func (r *CommandCreatorResult) MergeWarnings(other CommandCreatorResult) {
	if len(other.Warnings) == 0 {
		return
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// MarshalJSON encodes {"errors": [...]} on failure and
// {"commands": [...], "warnings": [...], "robotState": {...}} on success.
func (r CommandCreatorResult) MarshalJSON() ([]byte, error) {
	if r.HasErrors() {
		type failure struct {
			Errors     ErrorList   `json:"errors"`
			RobotState *RobotState `json:"robotState,omitempty"`
		}
		return json.Marshal(failure{Errors: r.Errors, RobotState: r.RobotState})
	}
	commands := CommandList(r.Commands)
	if commands == nil {
		commands = CommandList{}
	}
	// commands is always present on success, even when empty
	type success struct {
		Commands   CommandList `json:"commands"`
		Warnings   WarningList `json:"warnings,omitempty"`
		RobotState *RobotState `json:"robotState,omitempty"`
	}
	return json.Marshal(success{Commands: commands, Warnings: r.Warnings, RobotState: r.RobotState})
}
