package core

import "stepgen/pkg/domain"

// RollbackPolicy decides what a compound creator hands back when one of its
// steps fails.
type RollbackPolicy int

const (
	// RollbackAll reports only the failing step's errors. No state escapes,
	// so the caller continues from the state it passed in.
	RollbackAll RollbackPolicy = iota
	// KeepUntilFailure also returns the state reached after the last step
	// that succeeded. Commands are still withheld.
	KeepUntilFailure
)

func (p RollbackPolicy) String() string {
	switch p {
	case RollbackAll:
		return "rollback_all"
	case KeepUntilFailure:
		return "keep_until_failure"
	default:
		return "unknown"
	}
}

// ReduceCommandCreators runs creators in order, feeding each the state
// produced by the commands of the one before. It stops at the first creator
// that reports errors.
func ReduceCommandCreators(creators []CurriedCommandCreator, ic domain.InvariantContext, prev domain.RobotState, policy RollbackPolicy) domain.CommandCreatorResult {
	state := prev
	commands := []domain.Command{}
	var warnings []domain.CommandCreatorWarning
	for _, creator := range creators {
		res := creator(ic, state)
		if res.HasErrors() {
			out := domain.ErrorResult(res.Errors...)
			if policy == KeepUntilFailure {
				partial := state.Clone()
				out.RobotState = &partial
			}
			return out
		}
		var w []domain.CommandCreatorWarning
		state, w = advance(res, ic, state)
		commands = append(commands, res.Commands...)
		warnings = append(warnings, w...)
	}
	final := state.Clone()
	out := domain.CommandsResult(commands, warnings...)
	out.RobotState = &final
	return out
}

// reduce is ReduceCommandCreators with the default policy, for the built-in
// compound creators.
func reduce(ic domain.InvariantContext, prev domain.RobotState, creators ...CurriedCommandCreator) domain.CommandCreatorResult {
	return ReduceCommandCreators(creators, ic, prev, RollbackAll)
}

// advance returns the state after a successful result and every warning the
// step produced. Results that already carry a state (compound creators) are
// trusted as-is; otherwise the commands are replayed through the reducer.
func advance(res domain.CommandCreatorResult, ic domain.InvariantContext, prev domain.RobotState) (domain.RobotState, []domain.CommandCreatorWarning) {
	if res.RobotState != nil {
		return res.RobotState.Clone(), res.Warnings
	}
	next, warnings := ApplyCommands(res.Commands, ic, prev)
	return next, append(append([]domain.CommandCreatorWarning(nil), res.Warnings...), warnings...)
}
