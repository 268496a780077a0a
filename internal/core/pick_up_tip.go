package core

import "stepgen/pkg/domain"

// PickUpTip attaches the tip at well of a tiprack to the pipette.
func PickUpTip(args domain.PipetteAccessParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "pick up tip"
	var p Preconditions
	requirePipette(&p, action, args.Pipette, ic)
	if requireLabware(&p, action, args.Labware, prev) {
		requireWell(&p, action, args.Labware, args.Well, ic)
		p.AddIf(!ic.Labware[args.Labware].Def.IsTiprack,
			domain.NewInvalidParameters(action, "labware", args.Labware+" is not a tiprack"))
	}
	return p.Result(domain.PickUpTipCommand{Params: args})
}
