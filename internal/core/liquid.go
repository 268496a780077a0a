package core

import (
	"slices"
	"strconv"

	"stepgen/pkg/domain"
)

// splitLiquid takes volume out of source, proportionally across ingredients.
// It returns the portion taken and what stays behind.
func splitLiquid(volume float64, source domain.LocationLiquidState) (taken, remaining domain.LocationLiquidState) {
	total := source.Total()
	taken, remaining = domain.LocationLiquidState{}, domain.LocationLiquidState{}
	if total <= 0 || volume <= 0 {
		for group, v := range source {
			remaining[group] = v
		}
		return taken, remaining
	}
	if volume >= total {
		for group, v := range source {
			taken[group] = v
		}
		return taken, remaining
	}
	ratio := volume / total
	for group, v := range source {
		part := v.Volume * ratio
		taken[group] = domain.LiquidVolume{Volume: part}
		remaining[group] = domain.LiquidVolume{Volume: v.Volume - part}
	}
	return taken, remaining
}

// mergeLiquid sums two locations' contents by ingredient.
func mergeLiquid(a, b domain.LocationLiquidState) domain.LocationLiquidState {
	out := make(domain.LocationLiquidState, len(a)+len(b))
	for group, v := range a {
		out[group] = v
	}
	for group, v := range b {
		out[group] = domain.LiquidVolume{Volume: out[group].Volume + v.Volume}
	}
	return out
}

// wellsForChannels maps each pipette channel to the well it reaches when
// channel 0 is positioned over well. Channels fan out down the well's column;
// labware with fewer rows than channels (troughs, reservoirs) puts several
// channels in the same well.
func wellsForChannels(channels int, def domain.LabwareDefinition, well string) []string {
	channels = max(channels, 1)
	out := make([]string, channels)
	for i := range out {
		out[i] = well
	}
	if channels == 1 {
		return out
	}
	for _, column := range def.Ordering {
		start := slices.Index(column, well)
		if start < 0 {
			continue
		}
		rows := column[start:]
		if len(rows) < channels {
			return out
		}
		for i := range out {
			out[i] = rows[i]
		}
		return out
	}
	return out
}

func tipKey(channel int) string {
	return strconv.Itoa(channel)
}

func channelCount(ic domain.InvariantContext, pipette string) int {
	return max(ic.Pipettes[pipette].Spec.Channels, 1)
}

// aspirateLiquid moves volume from the wells under each channel into the
// matching tips, reporting wells that were empty or short.
func aspirateLiquid(state *domain.RobotState, ic domain.InvariantContext, pipette, labware, well string, volume float64) []domain.CommandCreatorWarning {
	wells := wellsForChannels(channelCount(ic, pipette), ic.Labware[labware].Def, well)
	labwareLiquid := ensureLabwareLiquid(state, labware)
	tips := ensurePipetteLiquid(state, pipette)
	var warnings []domain.CommandCreatorWarning
	warned := map[string]bool{}
	for ch, w := range wells {
		source := labwareLiquid[w]
		total := source.Total()
		if !warned[w] {
			switch {
			case total <= 0:
				warnings = append(warnings, domain.NewAspirateFromPristineWell(labware, w))
				warned[w] = true
			case total < volume:
				warnings = append(warnings, domain.NewAspirateMoreThanWellContents(labware, w))
				warned[w] = true
			}
		}
		taken, remaining := splitLiquid(volume, source)
		labwareLiquid[w] = remaining
		tips[tipKey(ch)] = mergeLiquid(tips[tipKey(ch)], taken)
	}
	return warnings
}

// dispenseLiquid moves volume out of every tip into the wells under them.
// A negative volume empties the tips entirely.
func dispenseLiquid(state *domain.RobotState, ic domain.InvariantContext, pipette, labware, well string, volume float64) {
	wells := wellsForChannels(channelCount(ic, pipette), ic.Labware[labware].Def, well)
	tips := ensurePipetteLiquid(state, pipette)
	var labwareLiquid map[string]domain.LocationLiquidState
	if labware != domain.FixedTrashID {
		labwareLiquid = ensureLabwareLiquid(state, labware)
	}
	for ch, w := range wells {
		held := tips[tipKey(ch)]
		amount := volume
		if amount < 0 {
			amount = held.Total()
		}
		moved, kept := splitLiquid(amount, held)
		tips[tipKey(ch)] = kept
		if labwareLiquid != nil {
			labwareLiquid[w] = mergeLiquid(labwareLiquid[w], moved)
		}
	}
}

// clearTips discards whatever the pipette's tips hold.
func clearTips(state *domain.RobotState, ic domain.InvariantContext, pipette string) {
	tips := ensurePipetteLiquid(state, pipette)
	for ch := range channelCount(ic, pipette) {
		tips[tipKey(ch)] = domain.LocationLiquidState{}
	}
}

func ensureLabwareLiquid(state *domain.RobotState, labware string) map[string]domain.LocationLiquidState {
	if state.LiquidState.Labware == nil {
		state.LiquidState.Labware = map[string]map[string]domain.LocationLiquidState{}
	}
	wells := state.LiquidState.Labware[labware]
	if wells == nil {
		wells = map[string]domain.LocationLiquidState{}
		state.LiquidState.Labware[labware] = wells
	}
	return wells
}

func ensurePipetteLiquid(state *domain.RobotState, pipette string) map[string]domain.LocationLiquidState {
	if state.LiquidState.Pipettes == nil {
		state.LiquidState.Pipettes = map[string]map[string]domain.LocationLiquidState{}
	}
	tips := state.LiquidState.Pipettes[pipette]
	if tips == nil {
		tips = map[string]domain.LocationLiquidState{}
		state.LiquidState.Pipettes[pipette] = tips
	}
	return tips
}
