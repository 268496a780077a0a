package core

import "stepgen/pkg/domain"

// MixArgs configures mixing in place across a set of wells.
type MixArgs struct {
	LiquidHandling
	Pipette         string          `json:"pipette"`
	Labware         string          `json:"labware"`
	Wells           []string        `json:"wells"`
	Volume          float64         `json:"volume"`
	Times           int             `json:"times"`
	ChangeTip       ChangeTip       `json:"changeTip"`
	TouchTip        bool            `json:"touchTip"`
	BlowoutLocation BlowoutLocation `json:"blowoutLocation,omitempty"`
}

// Mix aspirates and dispenses Volume Times times in each well.
func Mix(args MixArgs, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "mix"
	var p Preconditions
	requirePipette(&p, action, args.Pipette, ic)
	p.AddIf(len(args.Wells) == 0, domain.NewInvalidParameters(action, "wells", "at least one well is required"))
	p.AddIf(args.Volume <= 0, domain.NewInvalidParameters(action, "volume", "must be greater than zero"))
	p.AddIf(args.Times <= 0, domain.NewInvalidParameters(action, "times", "must be a positive integer"))
	p.AddIf(!args.ChangeTip.valid(ChangeTipAlways, ChangeTipOnce, ChangeTipNever),
		domain.NewInvalidParameters(action, "changeTip", "must be always, once or never"))
	checkBlowoutLocation(&p, action, args.BlowoutLocation)
	if !p.OK() {
		return p.Result()
	}

	var creators []CurriedCommandCreator
	if args.ChangeTip == ChangeTipOnce {
		creators = append(creators, replaceTip(args.Pipette))
	}
	for _, well := range args.Wells {
		if args.ChangeTip == ChangeTipAlways {
			creators = append(creators, replaceTip(args.Pipette))
		}
		creators = append(creators, args.mix(args.Pipette, args.Labware, well, args.Volume, args.Times)...)
		if args.TouchTip {
			creators = append(creators, args.touchTip(args.Pipette, args.Labware, well))
		}
		creators = append(creators, args.blowoutTo(args.BlowoutLocation, args.Pipette, args.Labware, well, args.Labware, well)...)
	}
	return reduce(ic, prev, creators...)
}
