// Package core turns liquid-handling actions into robot commands. Command
// creators are pure: they read an InvariantContext and a RobotState and return
// a CommandCreatorResult without touching either input.
package core

import "stepgen/pkg/domain"

// CommandCreator is the shape shared by every atomic and compound creator.
type CommandCreator[A any] func(args A, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult

// CurriedCommandCreator is a creator with its arguments already bound, ready
// to be folded over a sequence of robot states.
type CurriedCommandCreator func(ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult

// Curry binds args to creator.
func Curry[A any](creator CommandCreator[A], args A) CurriedCommandCreator {
	return func(ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
		return creator(args, ic, prev)
	}
}

// Preconditions accumulates validation errors so that every check runs and
// every failure is reported together.
type Preconditions struct {
	errs []domain.CommandCreatorError
}

// Add records err unconditionally.
func (p *Preconditions) Add(err domain.CommandCreatorError) {
	if err != nil {
		p.errs = append(p.errs, err)
	}
}

// AddIf records err when failed is true.
func (p *Preconditions) AddIf(failed bool, err domain.CommandCreatorError) {
	if failed {
		p.Add(err)
	}
}

// OK reports whether no error has been recorded yet.
func (p *Preconditions) OK() bool {
	return len(p.errs) == 0
}

// Errors returns the recorded errors in check order.
func (p *Preconditions) Errors() []domain.CommandCreatorError {
	return append([]domain.CommandCreatorError(nil), p.errs...)
}

// Result returns the errors when any were recorded, otherwise the commands.
func (p *Preconditions) Result(commands ...domain.Command) domain.CommandCreatorResult {
	if len(p.errs) > 0 {
		return domain.ErrorResult(p.Errors()...)
	}
	return domain.CommandsResult(commands)
}
