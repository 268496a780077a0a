package core

import "stepgen/pkg/domain"

// AirGap aspirates air above a well so liquid in the tip does not drip.
func AirGap(args domain.AspDispAirgapParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "air gap"
	var p Preconditions
	pipette, known := liquidHandlingChecks(&p, action, args.Pipette, args.Labware, args.Well, true, ic, prev)
	p.AddIf(args.Volume <= 0, domain.NewInvalidParameters(action, "volume", "must be greater than zero"))
	if known && pipette.Spec.MaxVolume > 0 {
		held := tipVolume(prev, args.Pipette)
		p.AddIf(held+args.Volume > pipette.Spec.MaxVolume+volumeTolerance,
			domain.NewPipetteVolumeExceeded(action, args.Pipette, held+args.Volume, pipette.Spec.MaxVolume))
	}
	return p.Result(domain.AirGapCommand{Params: args})
}
