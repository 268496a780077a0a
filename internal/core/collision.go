package core

import (
	"strconv"

	"stepgen/pkg/domain"
)

// Modules a GEN1 multi-channel pipette can strike when reaching the slot in
// front of or behind them.
var collisionProneModules = map[domain.ModuleModel]bool{
	domain.MagneticModuleV1:    true,
	domain.TemperatureModuleV1: true,
}

// ModulePipetteCollision reports whether a GEN1 multi-channel pipette working
// in labware would collide with a GEN1 magnetic or temperature module. That
// is the case when the labware sits on such a module or in the deck slot
// directly north or south of one.
func ModulePipetteCollision(pipette, labware string, ic domain.InvariantContext, state domain.RobotState) bool {
	entity, ok := ic.Pipettes[pipette]
	if !ok || entity.Spec.Channels <= 1 || entity.Spec.Generation != domain.PipetteGen1 {
		return false
	}
	lw, ok := state.Labware[labware]
	if !ok {
		return false
	}
	slot, onDeck := labwareDeckSlot(labware, state)
	for id, module := range state.Modules {
		if !collisionProneModules[ic.Modules[id].Model] {
			continue
		}
		if lw.Slot == id {
			return true
		}
		moduleSlot, ok := deckSlotNumber(module.Slot)
		if onDeck && ok && northOrSouth(slot, moduleSlot) {
			return true
		}
	}
	return false
}

// ThermocyclerPipetteCollision reports whether labwareID sits on a
// thermocycler whose lid is closed or in an unknown position.
func ThermocyclerPipetteCollision(modules map[string]domain.ModuleTemporal, labware map[string]domain.LabwareTemporal, labwareID string) bool {
	lw, ok := labware[labwareID]
	if !ok {
		return false
	}
	module, ok := modules[lw.Slot]
	if !ok {
		return false
	}
	tc, ok := module.State.(domain.ThermocyclerModuleState)
	if !ok {
		return false
	}
	return tc.LidOpen == nil || !*tc.LidOpen
}

// labwareDeckSlot resolves the numbered deck slot the labware occupies,
// following it through a module when it sits on one.
func labwareDeckSlot(labware string, state domain.RobotState) (int, bool) {
	lw, ok := state.Labware[labware]
	if !ok {
		return 0, false
	}
	slot := lw.Slot
	if module, ok := state.Modules[slot]; ok {
		slot = module.Slot
	}
	return deckSlotNumber(slot)
}

func deckSlotNumber(slot string) (int, bool) {
	n, err := strconv.Atoi(slot)
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return n, true
}

// northOrSouth reports whether two deck slots share a column in adjacent
// rows. Slots are numbered left to right, front to back, three per row.
func northOrSouth(a, b int) bool {
	colA, rowA := (a-1)%3, (a-1)/3
	colB, rowB := (b-1)%3, (b-1)/3
	if colA != colB {
		return false
	}
	return rowA-rowB == 1 || rowB-rowA == 1
}
