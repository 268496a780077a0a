package core

import "stepgen/pkg/domain"

// Blowout pushes any remaining liquid out of the tip into a well.
func Blowout(args domain.BlowoutParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	var p Preconditions
	liquidHandlingChecks(&p, "blowout", args.Pipette, args.Labware, args.Well, true, ic, prev)
	return p.Result(domain.BlowoutCommand{Params: args})
}
