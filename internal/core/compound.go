package core

import (
	"fmt"

	"stepgen/pkg/domain"
)

// ChangeTip controls when compound creators swap tips.
type ChangeTip string

// Tip change policies.
const (
	ChangeTipAlways    ChangeTip = "always"
	ChangeTipOnce      ChangeTip = "once"
	ChangeTipNever     ChangeTip = "never"
	ChangeTipPerSource ChangeTip = "perSource"
	ChangeTipPerDest   ChangeTip = "perDest"
)

func (c ChangeTip) valid(allowed ...ChangeTip) bool {
	for _, a := range allowed {
		if c == a {
			return true
		}
	}
	return false
}

// BlowoutLocation selects where leftover liquid is blown out.
type BlowoutLocation string

// Blowout locations. The zero value skips the blowout.
const (
	BlowoutNone       BlowoutLocation = ""
	BlowoutTrash      BlowoutLocation = "trash"
	BlowoutSourceWell BlowoutLocation = "source_well"
	BlowoutDestWell   BlowoutLocation = "dest_well"
)

// MixOptions configures a mix at one well.
type MixOptions struct {
	Volume float64 `json:"volume"`
	Times  int     `json:"times"`
}

// LiquidHandling carries the flow rates and heights shared by the compound
// creators.
type LiquidHandling struct {
	AspirateFlowRate           float64 `json:"aspirateFlowRate"`
	DispenseFlowRate           float64 `json:"dispenseFlowRate"`
	AspirateOffsetFromBottomMm float64 `json:"aspirateOffsetFromBottomMm"`
	DispenseOffsetFromBottomMm float64 `json:"dispenseOffsetFromBottomMm"`
	TouchTipOffsetFromBottomMm float64 `json:"touchTipOffsetFromBottomMm"`
	BlowoutFlowRate            float64 `json:"blowoutFlowRate"`
	BlowoutOffsetFromBottomMm  float64 `json:"blowoutOffsetFromBottomMm"`
}

func (h LiquidHandling) aspirate(pipette, labware, well string, volume float64) CurriedCommandCreator {
	return Curry(Aspirate, domain.AspDispAirgapParams{
		Pipette:            pipette,
		Volume:             volume,
		Labware:            labware,
		Well:               well,
		OffsetFromBottomMm: h.AspirateOffsetFromBottomMm,
		FlowRate:           h.AspirateFlowRate,
	})
}

func (h LiquidHandling) dispense(pipette, labware, well string, volume float64) CurriedCommandCreator {
	return Curry(Dispense, domain.AspDispAirgapParams{
		Pipette:            pipette,
		Volume:             volume,
		Labware:            labware,
		Well:               well,
		OffsetFromBottomMm: h.DispenseOffsetFromBottomMm,
		FlowRate:           h.DispenseFlowRate,
	})
}

func (h LiquidHandling) touchTip(pipette, labware, well string) CurriedCommandCreator {
	return Curry(TouchTip, domain.TouchTipParams{
		Pipette:            pipette,
		Labware:            labware,
		Well:               well,
		OffsetFromBottomMm: h.TouchTipOffsetFromBottomMm,
	})
}

func (h LiquidHandling) blowout(pipette, labware, well string) CurriedCommandCreator {
	return Curry(Blowout, domain.BlowoutParams{
		Pipette:            pipette,
		Labware:            labware,
		Well:               well,
		OffsetFromBottomMm: h.BlowoutOffsetFromBottomMm,
		FlowRate:           h.BlowoutFlowRate,
	})
}

// mix repeats aspirate/dispense of volume in one well.
func (h LiquidHandling) mix(pipette, labware, well string, volume float64, times int) []CurriedCommandCreator {
	creators := make([]CurriedCommandCreator, 0, 2*times)
	for range times {
		creators = append(creators,
			h.aspirate(pipette, labware, well, volume),
			h.dispense(pipette, labware, well, volume))
	}
	return creators
}

// blowoutTo resolves loc against the wells of the current transfer.
func (h LiquidHandling) blowoutTo(loc BlowoutLocation, pipette, srcLabware, srcWell, dstLabware, dstWell string) []CurriedCommandCreator {
	switch loc {
	case BlowoutTrash:
		return []CurriedCommandCreator{h.blowout(pipette, domain.FixedTrashID, "A1")}
	case BlowoutSourceWell:
		return []CurriedCommandCreator{h.blowout(pipette, srcLabware, srcWell)}
	case BlowoutDestWell:
		return []CurriedCommandCreator{h.blowout(pipette, dstLabware, dstWell)}
	default:
		return nil
	}
}

func replaceTip(pipette string) CurriedCommandCreator {
	return Curry(ReplaceTip, ReplaceTipArgs{Pipette: pipette})
}

// checkMixOptions validates an optional mix.
func checkMixOptions(p *Preconditions, action, field string, opts *MixOptions) {
	if opts == nil {
		return
	}
	p.AddIf(opts.Volume <= 0, domain.NewInvalidParameters(action, field+".volume", "must be greater than zero"))
	p.AddIf(opts.Times <= 0, domain.NewInvalidParameters(action, field+".times", "must be a positive integer"))
}

func checkBlowoutLocation(p *Preconditions, action string, loc BlowoutLocation) {
	switch loc {
	case BlowoutNone, BlowoutTrash, BlowoutSourceWell, BlowoutDestWell:
	default:
		p.Add(domain.NewInvalidParameters(action, "blowoutLocation", fmt.Sprintf("unknown location %q", loc)))
	}
}

// effectiveMaxVolume is the most one tip can hold: the pipette's capacity,
// capped by the tip volume of its tiprack when that is known.
func effectiveMaxVolume(pipette domain.PipetteEntity, ic domain.InvariantContext) float64 {
	maxVolume := pipette.Spec.MaxVolume
	if pipette.TiprackDefURI == "" {
		return maxVolume
	}
	for _, lw := range ic.Labware {
		if lw.DefURI == pipette.TiprackDefURI && lw.Def.TipVolume > 0 {
			return min(maxVolume, lw.Def.TipVolume)
		}
	}
	return maxVolume
}

// splitVolume breaks volume into chunks no larger than maxVolume. A volume
// that needs two trips is halved; longer runs use full chunks and fold a
// remainder below minVolume back into the last two chunks.
func splitVolume(volume, maxVolume, minVolume float64) []float64 {
	if maxVolume <= 0 || volume <= maxVolume {
		return []float64{volume}
	}
	if volume < 2*maxVolume {
		return []float64{volume / 2, volume / 2}
	}
	var chunks []float64
	remaining := volume
	for remaining > maxVolume+volumeTolerance {
		chunks = append(chunks, maxVolume)
		remaining -= maxVolume
	}
	if remaining <= volumeTolerance {
		return chunks
	}
	if remaining < minVolume {
		last := chunks[len(chunks)-1] + remaining
		chunks[len(chunks)-1] = last / 2
		return append(chunks, last/2)
	}
	return append(chunks, remaining)
}

func chunkWells(wells []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(wells); start += size {
		out = append(out, wells[start:min(start+size, len(wells))])
	}
	return out
}
