package core

import (
	"testing"

	"stepgen/pkg/domain"
)

const tiprackURI = "opentrons/opentrons_96_tiprack_300ul/1"

func plateDef(wells ...string) domain.LabwareDefinition {
	def := domain.LabwareDefinition{DisplayName: "plate", Wells: map[string]domain.WellDefinition{}}
	for _, w := range wells {
		def.Wells[w] = domain.WellDefinition{Depth: 10, TotalLiquidVolume: 360}
	}
	return def
}

// benchContext declares two pipettes, a two-tip rack, a 2x2 plate, the trash,
// a plate seated on the thermocycler and one module of each family.
func benchContext() domain.InvariantContext {
	tiprack := plateDef("A1", "B1")
	tiprack.IsTiprack = true
	tiprack.TipVolume = 300
	tiprack.Ordering = [][]string{{"A1", "B1"}}

	plate := plateDef("A1", "B1", "A2", "B2")
	plate.Ordering = [][]string{{"A1", "B1"}, {"A2", "B2"}}

	trash := plateDef("A1")
	trash.Ordering = [][]string{{"A1"}}

	tcPlate := plateDef("A1")
	tcPlate.Ordering = [][]string{{"A1"}}

	return domain.InvariantContext{
		Pipettes: map[string]domain.PipetteEntity{
			"p1": {ID: "p1", Name: "p300_single_gen2", TiprackDefURI: tiprackURI,
				Spec: domain.PipetteSpec{Channels: 1, MaxVolume: 300, MinVolume: 20, Generation: domain.PipetteGen2}},
			"p2": {ID: "p2", Name: "p300_dual", TiprackDefURI: tiprackURI,
				Spec: domain.PipetteSpec{Channels: 2, MaxVolume: 300, MinVolume: 20, Generation: domain.PipetteGen2}},
		},
		Labware: map[string]domain.LabwareEntity{
			"tiprack1":          {ID: "tiprack1", DefURI: tiprackURI, Def: tiprack},
			"plate1":            {ID: "plate1", DefURI: "opentrons/corning_96_wellplate_360ul_flat/1", Def: plate},
			domain.FixedTrashID: {ID: domain.FixedTrashID, DefURI: "opentrons/opentrons_1_trash_1100ml_fixed/1", Def: trash},
			"tcPlate":           {ID: "tcPlate", DefURI: "opentrons/nest_96_wellplate_100ul_pcr_full_skirt/1", Def: tcPlate},
		},
		Modules: map[string]domain.ModuleEntity{
			"mag1":  {ID: "mag1", Type: domain.MagneticModuleType, Model: domain.MagneticModuleV2},
			"temp1": {ID: "temp1", Type: domain.TemperatureModuleType, Model: domain.TemperatureModuleV2},
			"tc1":   {ID: "tc1", Type: domain.ThermocyclerModuleType, Model: domain.ThermocyclerModuleV1},
		},
	}
}

func benchSetup() domain.DeckSetup {
	return domain.DeckSetup{
		Labware: map[string]string{
			"tiprack1":          "1",
			"plate1":            "2",
			domain.FixedTrashID: "12",
			"tcPlate":           "tc1",
		},
		Modules:  map[string]string{"mag1": "4", "temp1": "3", "tc1": "7"},
		Pipettes: map[string]string{"p1": "left", "p2": "right"},
		Liquids:  map[string]map[string]map[string]float64{"plate1": {"A1": {"water": 200}}},
	}
}

func benchState(t *testing.T, ic domain.InvariantContext) domain.RobotState {
	t.Helper()
	state, err := domain.NewRobotState(ic, benchSetup())
	if err != nil {
		t.Fatalf("initial state: %v", err)
	}
	return state
}

// withTip returns a copy of state in which pipette holds an empty tip.
func withTip(state domain.RobotState, pipette string) domain.RobotState {
	next := state.Clone()
	next.TipState.Pipettes[pipette] = true
	return next
}

// withLidOpen returns a copy of state with the thermocycler lid open.
func withLidOpen(state domain.RobotState, module string) domain.RobotState {
	next := state.Clone()
	placed := next.Modules[module]
	tc := placed.State.(domain.ThermocyclerModuleState)
	tc.LidOpen = domain.Bool(true)
	placed.State = tc
	next.Modules[module] = placed
	return next
}

func commandTypes(commands []domain.Command) []domain.CommandType {
	out := make([]domain.CommandType, len(commands))
	for i, c := range commands {
		out[i] = c.CommandType()
	}
	return out
}

func errorTypes(errs []domain.CommandCreatorError) []domain.ErrorType {
	out := make([]domain.ErrorType, len(errs))
	for i, e := range errs {
		out[i] = e.Type()
	}
	return out
}

func warningTypes(warnings []domain.CommandCreatorWarning) []domain.WarningType {
	out := make([]domain.WarningType, len(warnings))
	for i, w := range warnings {
		out[i] = w.Type()
	}
	return out
}

func asp(pipette, labware, well string, volume float64) domain.AspDispAirgapParams {
	return domain.AspDispAirgapParams{Pipette: pipette, Labware: labware, Well: well, Volume: volume}
}
