package core

import "stepgen/pkg/domain"

// DelayArgs configures a timed wait.
type DelayArgs struct {
	Seconds float64 `json:"seconds"`
	Message string  `json:"message,omitempty"`
}

// PauseArgs configures a wait that lasts until the operator resumes.
type PauseArgs struct {
	Message string `json:"message,omitempty"`
}

// Delay waits for a fixed number of seconds.
func Delay(args DelayArgs, _ domain.InvariantContext, _ domain.RobotState) domain.CommandCreatorResult {
	var p Preconditions
	p.AddIf(args.Seconds < 0, domain.NewInvalidParameters("delay", "seconds", "must not be negative"))
	return p.Result(domain.DelayCommand{Params: domain.DelayParams{Seconds: args.Seconds, Message: args.Message}})
}

// Pause halts the run until the operator resumes it.
func Pause(args PauseArgs, _ domain.InvariantContext, _ domain.RobotState) domain.CommandCreatorResult {
	return domain.CommandsResult([]domain.Command{
		domain.DelayCommand{Params: domain.DelayParams{UntilResume: true, Message: args.Message}},
	})
}
