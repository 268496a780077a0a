package core

import "stepgen/pkg/domain"

// Dispense expels volume from the pipette's tip into a well. Checks run in
// the order module collision, tip, labware, thermocycler lid, and every
// failure is reported.
func Dispense(args domain.AspDispAirgapParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "dispense"
	var p Preconditions
	liquidHandlingChecks(&p, action, args.Pipette, args.Labware, args.Well, true, ic, prev)
	p.AddIf(args.Volume <= 0, domain.NewInvalidParameters(action, "volume", "must be greater than zero"))
	return p.Result(domain.DispenseCommand{Params: args})
}
