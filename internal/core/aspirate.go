package core

import "stepgen/pkg/domain"

// Aspirate draws volume into the pipette's tip from a well.
func Aspirate(args domain.AspDispAirgapParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "aspirate"
	var p Preconditions
	pipette, known := liquidHandlingChecks(&p, action, args.Pipette, args.Labware, args.Well, true, ic, prev)
	p.AddIf(args.Volume <= 0, domain.NewInvalidParameters(action, "volume", "must be greater than zero"))
	if known && pipette.Spec.MaxVolume > 0 {
		held := tipVolume(prev, args.Pipette)
		p.AddIf(held+args.Volume > pipette.Spec.MaxVolume+volumeTolerance,
			domain.NewPipetteVolumeExceeded(action, args.Pipette, held+args.Volume, pipette.Spec.MaxVolume))
	}
	return p.Result(domain.AspirateCommand{Params: args})
}

// volumeTolerance absorbs float rounding when volumes are summed.
const volumeTolerance = 1e-9

// tipVolume returns the volume held by the pipette's first channel.
func tipVolume(state domain.RobotState, pipette string) float64 {
	return state.LiquidState.Pipettes[pipette]["0"].Total()
}
