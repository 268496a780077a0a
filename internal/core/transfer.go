package core

import "stepgen/pkg/domain"

// TransferArgs moves Volume from each source well to the destination well at
// the same index.
type TransferArgs struct {
	LiquidHandling
	Pipette               string          `json:"pipette"`
	SourceLabware         string          `json:"sourceLabware"`
	SourceWells           []string        `json:"sourceWells"`
	DestLabware           string          `json:"destLabware"`
	DestWells             []string        `json:"destWells"`
	Volume                float64         `json:"volume"`
	ChangeTip             ChangeTip       `json:"changeTip"`
	MixBeforeAspirate     *MixOptions     `json:"mixBeforeAspirate,omitempty"`
	MixAfterDispense      *MixOptions     `json:"mixAfterDispense,omitempty"`
	TouchTipAfterAspirate bool            `json:"touchTipAfterAspirate"`
	TouchTipAfterDispense bool            `json:"touchTipAfterDispense"`
	BlowoutLocation       BlowoutLocation `json:"blowoutLocation,omitempty"`
}

// Transfer moves liquid well to well. Volumes above what a tip holds are
// split into several trips.
func Transfer(args TransferArgs, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "transfer"
	var p Preconditions
	pipette, known := requirePipette(&p, action, args.Pipette, ic)
	p.AddIf(len(args.SourceWells) == 0, domain.NewInvalidParameters(action, "sourceWells", "at least one well is required"))
	p.AddIf(len(args.SourceWells) != len(args.DestWells),
		domain.NewInvalidParameters(action, "destWells", "must pair one to one with sourceWells"))
	p.AddIf(args.Volume <= 0, domain.NewInvalidParameters(action, "volume", "must be greater than zero"))
	p.AddIf(!args.ChangeTip.valid(ChangeTipAlways, ChangeTipOnce, ChangeTipNever, ChangeTipPerSource, ChangeTipPerDest),
		domain.NewInvalidParameters(action, "changeTip", "must be always, once, never, perSource or perDest"))
	checkMixOptions(&p, action, "mixBeforeAspirate", args.MixBeforeAspirate)
	checkMixOptions(&p, action, "mixAfterDispense", args.MixAfterDispense)
	checkBlowoutLocation(&p, action, args.BlowoutLocation)
	if !known || !p.OK() {
		return p.Result()
	}

	maxVolume := effectiveMaxVolume(pipette, ic)
	var creators []CurriedCommandCreator
	if args.ChangeTip == ChangeTipOnce {
		creators = append(creators, replaceTip(args.Pipette))
	}
	prevSource, prevDest := "", ""
	for i, src := range args.SourceWells {
		dst := args.DestWells[i]
		for _, volume := range splitVolume(args.Volume, maxVolume, pipette.Spec.MinVolume) {
			switch {
			case args.ChangeTip == ChangeTipAlways,
				args.ChangeTip == ChangeTipPerSource && src != prevSource,
				args.ChangeTip == ChangeTipPerDest && dst != prevDest:
				creators = append(creators, replaceTip(args.Pipette))
			}
			prevSource, prevDest = src, dst

			if m := args.MixBeforeAspirate; m != nil {
				creators = append(creators, args.mix(args.Pipette, args.SourceLabware, src, m.Volume, m.Times)...)
			}
			creators = append(creators, args.aspirate(args.Pipette, args.SourceLabware, src, volume))
			if args.TouchTipAfterAspirate {
				creators = append(creators, args.touchTip(args.Pipette, args.SourceLabware, src))
			}
			creators = append(creators, args.dispense(args.Pipette, args.DestLabware, dst, volume))
			if m := args.MixAfterDispense; m != nil {
				creators = append(creators, args.mix(args.Pipette, args.DestLabware, dst, m.Volume, m.Times)...)
			}
			if args.TouchTipAfterDispense {
				creators = append(creators, args.touchTip(args.Pipette, args.DestLabware, dst))
			}
			creators = append(creators, args.blowoutTo(args.BlowoutLocation, args.Pipette, args.SourceLabware, src, args.DestLabware, dst)...)
		}
	}
	return reduce(ic, prev, creators...)
}
