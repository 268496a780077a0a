package core

import "stepgen/pkg/domain"

// ConsolidateArgs pools Volume from each source well into one destination.
type ConsolidateArgs struct {
	LiquidHandling
	Pipette               string          `json:"pipette"`
	SourceLabware         string          `json:"sourceLabware"`
	SourceWells           []string        `json:"sourceWells"`
	DestLabware           string          `json:"destLabware"`
	DestWell              string          `json:"destWell"`
	Volume                float64         `json:"volume"`
	ChangeTip             ChangeTip       `json:"changeTip"`
	MixFirstAspirate      *MixOptions     `json:"mixFirstAspirate,omitempty"`
	MixInDestination      *MixOptions     `json:"mixInDestination,omitempty"`
	TouchTipAfterAspirate bool            `json:"touchTipAfterAspirate"`
	TouchTipAfterDispense bool            `json:"touchTipAfterDispense"`
	BlowoutLocation       BlowoutLocation `json:"blowoutLocation,omitempty"`
}

// Consolidate aspirates from as many sources as one tip can hold, then
// dispenses the lot into the destination, repeating until every source is
// drawn from.
func Consolidate(args ConsolidateArgs, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "consolidate"
	var p Preconditions
	pipette, known := requirePipette(&p, action, args.Pipette, ic)
	p.AddIf(len(args.SourceWells) == 0, domain.NewInvalidParameters(action, "sourceWells", "at least one well is required"))
	p.AddIf(args.Volume <= 0, domain.NewInvalidParameters(action, "volume", "must be greater than zero"))
	p.AddIf(!args.ChangeTip.valid(ChangeTipAlways, ChangeTipOnce, ChangeTipNever),
		domain.NewInvalidParameters(action, "changeTip", "must be always, once or never"))
	checkMixOptions(&p, action, "mixFirstAspirate", args.MixFirstAspirate)
	checkMixOptions(&p, action, "mixInDestination", args.MixInDestination)
	checkBlowoutLocation(&p, action, args.BlowoutLocation)
	if !known || !p.OK() {
		return p.Result()
	}
	maxVolume := effectiveMaxVolume(pipette, ic)
	perChunk := int((maxVolume + volumeTolerance) / args.Volume)
	if perChunk < 1 {
		return domain.ErrorResult(domain.NewPipetteVolumeExceeded(action, args.Pipette, args.Volume, maxVolume))
	}

	var creators []CurriedCommandCreator
	if args.ChangeTip == ChangeTipOnce {
		creators = append(creators, replaceTip(args.Pipette))
	}
	for _, chunk := range chunkWells(args.SourceWells, perChunk) {
		if args.ChangeTip == ChangeTipAlways {
			creators = append(creators, replaceTip(args.Pipette))
		}
		if m := args.MixFirstAspirate; m != nil {
			creators = append(creators, args.mix(args.Pipette, args.SourceLabware, chunk[0], m.Volume, m.Times)...)
		}
		for _, src := range chunk {
			creators = append(creators, args.aspirate(args.Pipette, args.SourceLabware, src, args.Volume))
			if args.TouchTipAfterAspirate {
				creators = append(creators, args.touchTip(args.Pipette, args.SourceLabware, src))
			}
		}
		creators = append(creators, args.dispense(args.Pipette, args.DestLabware, args.DestWell, args.Volume*float64(len(chunk))))
		if m := args.MixInDestination; m != nil {
			creators = append(creators, args.mix(args.Pipette, args.DestLabware, args.DestWell, m.Volume, m.Times)...)
		}
		if args.TouchTipAfterDispense {
			creators = append(creators, args.touchTip(args.Pipette, args.DestLabware, args.DestWell))
		}
		creators = append(creators, args.blowoutTo(args.BlowoutLocation, args.Pipette, args.SourceLabware, chunk[len(chunk)-1], args.DestLabware, args.DestWell)...)
	}
	return reduce(ic, prev, creators...)
}
