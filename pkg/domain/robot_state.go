package domain

import (
	"fmt"
	"maps"
	"sort"
)

// LiquidVolume is the amount of one ingredient group at a location.
type LiquidVolume struct {
	Volume float64 `json:"volume"`
}

// LocationLiquidState maps ingredient group ids to volumes at one location.
type LocationLiquidState map[string]LiquidVolume

// Total returns the summed volume of every ingredient at the location.
func (l LocationLiquidState) Total() float64 {
	var total float64
	for _, v := range l {
		total += v.Volume
	}
	return total
}

// LiquidState tracks liquid held in pipette tips and in labware wells.
type LiquidState struct {
	// Pipettes is keyed by pipette id, then by tip (channel) index.
	Pipettes map[string]map[string]LocationLiquidState `json:"pipettes"`
	// Labware is keyed by labware id, then by well name.
	Labware map[string]map[string]LocationLiquidState `json:"labware"`
}

// TipState records which pipettes hold a tip and which tiprack wells still
// contain tips.
type TipState struct {
	Tipracks map[string]map[string]bool `json:"tipracks"`
	Pipettes map[string]bool            `json:"pipettes"`
}

// LabwareTemporal is the current location of a labware. Slot is either a
// deck slot ("1".."12") or the id of the module the labware sits on.
type LabwareTemporal struct {
	Slot string `json:"slot"`
}

// PipetteTemporal is the mount a pipette is attached to.
type PipetteTemporal struct {
	Mount string `json:"mount"`
}

// RobotState is a snapshot of the robot at one point in a protocol. Command
// creators treat it as an immutable value; transitions produce a new one.
type RobotState struct {
	Labware     map[string]LabwareTemporal `json:"labware"`
	Modules     map[string]ModuleTemporal  `json:"modules"`
	Pipettes    map[string]PipetteTemporal `json:"pipettes"`
	TipState    TipState                   `json:"tipState"`
	LiquidState LiquidState                `json:"liquidState"`
}

// HasTip reports whether the pipette currently holds a tip.
func (s RobotState) HasTip(pipetteID string) bool {
	return s.TipState.Pipettes[pipetteID]
}

// Clone returns a deep copy sharing no mutable references with s.
func (s RobotState) Clone() RobotState {
	out := RobotState{
		Labware:  maps.Clone(s.Labware),
		Pipettes: maps.Clone(s.Pipettes),
		TipState: TipState{
			Pipettes: maps.Clone(s.TipState.Pipettes),
			Tipracks: cloneNested(s.TipState.Tipracks),
		},
		LiquidState: LiquidState{
			Pipettes: cloneLiquidTree(s.LiquidState.Pipettes),
			Labware:  cloneLiquidTree(s.LiquidState.Labware),
		},
	}
	if s.Modules != nil {
		out.Modules = make(map[string]ModuleTemporal, len(s.Modules))
		for id, m := range s.Modules {
			if m.State != nil {
				m.State = m.State.cloneModuleState()
			}
			out.Modules[id] = m
		}
	}
	return out
}

func cloneNested(in map[string]map[string]bool) map[string]map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string]bool, len(in))
	for k, v := range in {
		out[k] = maps.Clone(v)
	}
	return out
}

func cloneLiquidTree(in map[string]map[string]LocationLiquidState) map[string]map[string]LocationLiquidState {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string]LocationLiquidState, len(in))
	for id, locations := range in {
		if locations == nil {
			out[id] = nil
			continue
		}
		cp := make(map[string]LocationLiquidState, len(locations))
		for loc, liquid := range locations {
			cp[loc] = maps.Clone(liquid)
		}
		out[id] = cp
	}
	return out
}

// DeckSetup describes where things are placed before the first step runs.
type DeckSetup struct {
	Labware  map[string]string `json:"labware"`
	Modules  map[string]string `json:"modules"`
	Pipettes map[string]string `json:"pipettes"`
	// Liquids seeds well contents: labware id → well → ingredient group → volume.
	Liquids map[string]map[string]map[string]float64 `json:"liquids,omitempty"`
}

// NewRobotState builds the initial robot state for a deck setup: every
// tiprack full, no tips on pipettes, modules in their power-on state.
func NewRobotState(ic InvariantContext, setup DeckSetup) (RobotState, error) {
	state := RobotState{
		Labware:  make(map[string]LabwareTemporal, len(setup.Labware)),
		Modules:  make(map[string]ModuleTemporal, len(setup.Modules)),
		Pipettes: make(map[string]PipetteTemporal, len(setup.Pipettes)),
		TipState: TipState{
			Tipracks: make(map[string]map[string]bool),
			Pipettes: make(map[string]bool, len(setup.Pipettes)),
		},
		LiquidState: LiquidState{
			Pipettes: make(map[string]map[string]LocationLiquidState, len(setup.Pipettes)),
			Labware:  make(map[string]map[string]LocationLiquidState, len(setup.Labware)),
		},
	}
	for _, id := range sortedKeys(setup.Modules) {
		entity, ok := ic.Modules[id]
		if !ok {
			return RobotState{}, fmt.Errorf("module %s not declared", id)
		}
		initial, err := InitialModuleState(entity.Type)
		if err != nil {
			return RobotState{}, err
		}
		state.Modules[id] = ModuleTemporal{Slot: setup.Modules[id], State: initial}
	}
	for _, id := range sortedKeys(setup.Labware) {
		entity, ok := ic.Labware[id]
		if !ok {
			return RobotState{}, fmt.Errorf("labware %s not declared", id)
		}
		state.Labware[id] = LabwareTemporal{Slot: setup.Labware[id]}
		wells := make(map[string]LocationLiquidState, len(entity.Def.Wells))
		for well := range entity.Def.Wells {
			wells[well] = LocationLiquidState{}
		}
		state.LiquidState.Labware[id] = wells
		if entity.Def.IsTiprack {
			rack := make(map[string]bool, len(entity.Def.Wells))
			for well := range entity.Def.Wells {
				rack[well] = true
			}
			state.TipState.Tipracks[id] = rack
		}
	}
	for _, id := range sortedKeys(setup.Pipettes) {
		entity, ok := ic.Pipettes[id]
		if !ok {
			return RobotState{}, fmt.Errorf("pipette %s not declared", id)
		}
		state.Pipettes[id] = PipetteTemporal{Mount: setup.Pipettes[id]}
		state.TipState.Pipettes[id] = false
		tips := make(map[string]LocationLiquidState, entity.Spec.Channels)
		for ch := 0; ch < max(entity.Spec.Channels, 1); ch++ {
			tips[fmt.Sprint(ch)] = LocationLiquidState{}
		}
		state.LiquidState.Pipettes[id] = tips
	}
	for labwareID, wells := range setup.Liquids {
		known, ok := state.LiquidState.Labware[labwareID]
		if !ok {
			return RobotState{}, fmt.Errorf("liquid seeded into unknown labware %s", labwareID)
		}
		for well, groups := range wells {
			if _, ok := known[well]; !ok {
				return RobotState{}, fmt.Errorf("liquid seeded into unknown well %s of %s", well, labwareID)
			}
			loc := LocationLiquidState{}
			for group, vol := range groups {
				loc[group] = LiquidVolume{Volume: vol}
			}
			known[well] = loc
		}
	}
	return state, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
