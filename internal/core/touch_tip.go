package core

import "stepgen/pkg/domain"

// TouchTip touches the tip against the sides of a well to shed droplets.
func TouchTip(args domain.TouchTipParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	var p Preconditions
	liquidHandlingChecks(&p, "touch tip", args.Pipette, args.Labware, args.Well, true, ic, prev)
	return p.Result(domain.TouchTipCommand{Params: args})
}
