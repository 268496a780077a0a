package core

import "stepgen/pkg/domain"

// MoveToWell moves the pipette over a well. No tip is required.
func MoveToWell(args domain.MoveToWellParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "move to well"
	var p Preconditions
	liquidHandlingChecks(&p, action, args.Pipette, args.Labware, args.Well, false, ic, prev)
	if args.MinimumZHeight != nil {
		p.AddIf(*args.MinimumZHeight < 0, domain.NewInvalidParameters(action, "minimumZHeight", "must not be negative"))
	}
	return p.Result(domain.MoveToWellCommand{Params: args})
}
