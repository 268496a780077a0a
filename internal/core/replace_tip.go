package core

import (
	"sort"

	"stepgen/pkg/domain"
)

// ReplaceTipArgs names the pipette that needs a fresh tip.
type ReplaceTipArgs struct {
	Pipette string `json:"pipette"`
}

// ReplaceTip drops the current tip, if any, and picks up the next available
// tip from a compatible tiprack.
func ReplaceTip(args ReplaceTipArgs, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	var p Preconditions
	if _, ok := requirePipette(&p, "replace tip", args.Pipette, ic); !ok {
		return p.Result()
	}
	rack, well, ok := NextTip(args.Pipette, ic, prev)
	if !ok {
		return domain.ErrorResult(domain.NewInsufficientTips(args.Pipette))
	}
	return reduce(ic, prev,
		Curry(DropTip, DropTipArgs{Pipette: args.Pipette}),
		Curry(PickUpTip, domain.PipetteAccessParams{Pipette: args.Pipette, Labware: rack, Well: well}),
	)
}

// NextTip finds the tiprack and well the pipette should pick up from next.
// Racks are used in deck slot order. Multi-channel pipettes only take from a
// column that is still full.
func NextTip(pipette string, ic domain.InvariantContext, state domain.RobotState) (rack, well string, ok bool) {
	entity := ic.Pipettes[pipette]
	channels := max(entity.Spec.Channels, 1)
	for _, id := range compatibleTipracks(entity, ic, state) {
		tips := state.TipState.Tipracks[id]
		def := ic.Labware[id].Def
		if channels == 1 {
			for _, w := range def.WellNames() {
				if tips[w] {
					return id, w, true
				}
			}
			continue
		}
		for _, column := range def.Ordering {
			if len(column) < channels {
				continue
			}
			full := true
			for _, w := range column[:channels] {
				full = full && tips[w]
			}
			if full {
				return id, column[0], true
			}
		}
	}
	return "", "", false
}

func compatibleTipracks(pipette domain.PipetteEntity, ic domain.InvariantContext, state domain.RobotState) []string {
	var ids []string
	for id, lw := range ic.Labware {
		if !lw.Def.IsTiprack {
			continue
		}
		if pipette.TiprackDefURI != "" && lw.DefURI != pipette.TiprackDefURI {
			continue
		}
		if _, onDeck := state.Labware[id]; !onDeck {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, _ := labwareDeckSlot(ids[i], state)
		sj, _ := labwareDeckSlot(ids[j], state)
		if si != sj {
			return si < sj
		}
		return ids[i] < ids[j]
	})
	return ids
}
