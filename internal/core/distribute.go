package core

import "stepgen/pkg/domain"

// DistributeArgs dispenses Volume from one source into each destination well.
type DistributeArgs struct {
	LiquidHandling
	Pipette               string          `json:"pipette"`
	SourceLabware         string          `json:"sourceLabware"`
	SourceWell            string          `json:"sourceWell"`
	DestLabware           string          `json:"destLabware"`
	DestWells             []string        `json:"destWells"`
	Volume                float64         `json:"volume"`
	DisposalVolume        float64         `json:"disposalVolume"`
	ChangeTip             ChangeTip       `json:"changeTip"`
	MixBeforeAspirate     *MixOptions     `json:"mixBeforeAspirate,omitempty"`
	TouchTipAfterAspirate bool            `json:"touchTipAfterAspirate"`
	TouchTipAfterDispense bool            `json:"touchTipAfterDispense"`
	BlowoutLocation       BlowoutLocation `json:"blowoutLocation,omitempty"`
}

// Distribute fills the tip for as many destinations as it can serve plus the
// disposal volume, dispenses into each, then blows the disposal volume out.
// The disposal goes to the trash unless BlowoutLocation says otherwise.
func Distribute(args DistributeArgs, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "distribute"
	var p Preconditions
	pipette, known := requirePipette(&p, action, args.Pipette, ic)
	p.AddIf(len(args.DestWells) == 0, domain.NewInvalidParameters(action, "destWells", "at least one well is required"))
	p.AddIf(args.Volume <= 0, domain.NewInvalidParameters(action, "volume", "must be greater than zero"))
	p.AddIf(args.DisposalVolume < 0, domain.NewInvalidParameters(action, "disposalVolume", "must not be negative"))
	p.AddIf(!args.ChangeTip.valid(ChangeTipAlways, ChangeTipOnce, ChangeTipNever),
		domain.NewInvalidParameters(action, "changeTip", "must be always, once or never"))
	checkMixOptions(&p, action, "mixBeforeAspirate", args.MixBeforeAspirate)
	checkBlowoutLocation(&p, action, args.BlowoutLocation)
	if !known || !p.OK() {
		return p.Result()
	}
	maxVolume := effectiveMaxVolume(pipette, ic)
	perChunk := int((maxVolume - args.DisposalVolume + volumeTolerance) / args.Volume)
	if perChunk < 1 {
		return domain.ErrorResult(domain.NewPipetteVolumeExceeded(action, args.Pipette, args.Volume+args.DisposalVolume, maxVolume))
	}
	blowout := args.BlowoutLocation
	if blowout == BlowoutNone && args.DisposalVolume > 0 {
		blowout = BlowoutTrash
	}

	var creators []CurriedCommandCreator
	if args.ChangeTip == ChangeTipOnce {
		creators = append(creators, replaceTip(args.Pipette))
	}
	for _, chunk := range chunkWells(args.DestWells, perChunk) {
		if args.ChangeTip == ChangeTipAlways {
			creators = append(creators, replaceTip(args.Pipette))
		}
		if m := args.MixBeforeAspirate; m != nil {
			creators = append(creators, args.mix(args.Pipette, args.SourceLabware, args.SourceWell, m.Volume, m.Times)...)
		}
		creators = append(creators, args.aspirate(args.Pipette, args.SourceLabware, args.SourceWell,
			args.Volume*float64(len(chunk))+args.DisposalVolume))
		if args.TouchTipAfterAspirate {
			creators = append(creators, args.touchTip(args.Pipette, args.SourceLabware, args.SourceWell))
		}
		for _, dst := range chunk {
			creators = append(creators, args.dispense(args.Pipette, args.DestLabware, dst, args.Volume))
			if args.TouchTipAfterDispense {
				creators = append(creators, args.touchTip(args.Pipette, args.DestLabware, dst))
			}
		}
		creators = append(creators, args.blowoutTo(blowout, args.Pipette, args.SourceLabware, args.SourceWell, args.DestLabware, chunk[len(chunk)-1])...)
	}
	return reduce(ic, prev, creators...)
}
