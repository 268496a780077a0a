package core

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stepgen/pkg/domain"
)

func volumeOf(l domain.LocationLiquidState, group string) float64 {
	return l[group].Volume
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReducerTipLifecycle(t *testing.T) {
	ic := benchContext()
	prev := benchState(t, ic)
	before := prev.Clone()

	picked, warnings := NextRobotStateAndWarnings(domain.PickUpTipCommand{Params: domain.PipetteAccessParams{
		Pipette: "p1", Labware: "tiprack1", Well: "A1",
	}}, ic, prev)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warningTypes(warnings))
	}
	if !picked.HasTip("p1") {
		t.Fatalf("pipette should hold a tip")
	}
	if picked.TipState.Tipracks["tiprack1"]["A1"] || !picked.TipState.Tipracks["tiprack1"]["B1"] {
		t.Fatalf("only A1 should be taken, got %v", picked.TipState.Tipracks["tiprack1"])
	}
	if diff := cmp.Diff(before, prev); diff != "" {
		t.Fatalf("reducer modified its input (-before +after):\n%s", diff)
	}

	dropped, _ := NextRobotStateAndWarnings(domain.DropTipCommand{Params: domain.PipetteAccessParams{
		Pipette: "p1", Labware: domain.FixedTrashID, Well: "A1",
	}}, ic, picked)
	if dropped.HasTip("p1") {
		t.Fatalf("tip should be gone after drop")
	}
}

func TestReducerMultiChannelPickUpTakesColumn(t *testing.T) {
	ic := benchContext()
	prev := benchState(t, ic)
	next, _ := NextRobotStateAndWarnings(domain.PickUpTipCommand{Params: domain.PipetteAccessParams{
		Pipette: "p2", Labware: "tiprack1", Well: "A1",
	}}, ic, prev)
	if next.TipState.Tipracks["tiprack1"]["A1"] || next.TipState.Tipracks["tiprack1"]["B1"] {
		t.Fatalf("two channels should take A1 and B1, got %v", next.TipState.Tipracks["tiprack1"])
	}
}

func TestReducerLiquidTracking(t *testing.T) {
	ic := benchContext()
	state := withTip(benchState(t, ic), "p1")

	state, warnings := ApplyCommands([]domain.Command{
		domain.AspirateCommand{Params: asp("p1", "plate1", "A1", 50)},
		domain.DispenseCommand{Params: asp("p1", "plate1", "A2", 30)},
	}, ic, state)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warningTypes(warnings))
	}
	wells := state.LiquidState.Labware["plate1"]
	if !almostEqual(volumeOf(wells["A1"], "water"), 150) {
		t.Fatalf("source should hold 150, got %v", wells["A1"])
	}
	if !almostEqual(volumeOf(wells["A2"], "water"), 30) {
		t.Fatalf("destination should hold 30, got %v", wells["A2"])
	}
	if !almostEqual(state.LiquidState.Pipettes["p1"]["0"].Total(), 20) {
		t.Fatalf("tip should hold 20, got %v", state.LiquidState.Pipettes["p1"]["0"])
	}

	blown, _ := NextRobotStateAndWarnings(domain.BlowoutCommand{Params: domain.BlowoutParams{
		Pipette: "p1", Labware: domain.FixedTrashID, Well: "A1",
	}}, ic, state)
	if blown.LiquidState.Pipettes["p1"]["0"].Total() != 0 {
		t.Fatalf("blowout should empty the tip")
	}
	if _, ok := blown.LiquidState.Labware[domain.FixedTrashID]["A1"]["water"]; ok {
		t.Fatalf("liquid blown into the trash is discarded")
	}

	airGapped, _ := NextRobotStateAndWarnings(domain.AirGapCommand{Params: asp("p1", "plate1", "A1", 5)}, ic, state)
	if diff := cmp.Diff(state, airGapped); diff != "" {
		t.Fatalf("air gap should not change liquid state (-before +after):\n%s", diff)
	}
}

func TestReducerAspirateWarnings(t *testing.T) {
	ic := benchContext()
	state := withTip(benchState(t, ic), "p1")

	_, warnings := NextRobotStateAndWarnings(domain.AspirateCommand{Params: asp("p1", "plate1", "B1", 10)}, ic, state)
	want := []domain.CommandCreatorWarning{domain.NewAspirateFromPristineWell("plate1", "B1")}
	if diff := cmp.Diff(want, warnings); diff != "" {
		t.Fatalf("pristine warning mismatch (-want +got):\n%s", diff)
	}

	next, warnings := NextRobotStateAndWarnings(domain.AspirateCommand{Params: asp("p1", "plate1", "A1", 250)}, ic, state)
	want = []domain.CommandCreatorWarning{domain.NewAspirateMoreThanWellContents("plate1", "A1")}
	if diff := cmp.Diff(want, warnings); diff != "" {
		t.Fatalf("overdraw warning mismatch (-want +got):\n%s", diff)
	}
	if !almostEqual(next.LiquidState.Pipettes["p1"]["0"].Total(), 200) {
		t.Fatalf("an overdraw takes what the well has, got %v", next.LiquidState.Pipettes["p1"]["0"])
	}
}

func TestReducerSplitsMixturesProportionally(t *testing.T) {
	ic := benchContext()
	state := withTip(benchState(t, ic), "p1")
	state.LiquidState.Labware["plate1"]["B2"] = domain.LocationLiquidState{
		"buffer": {Volume: 30},
		"sample": {Volume: 10},
	}
	next, _ := NextRobotStateAndWarnings(domain.AspirateCommand{Params: asp("p1", "plate1", "B2", 20)}, ic, state)
	tip := next.LiquidState.Pipettes["p1"]["0"]
	if !almostEqual(volumeOf(tip, "buffer"), 15) || !almostEqual(volumeOf(tip, "sample"), 5) {
		t.Fatalf("expected 15 buffer and 5 sample in the tip, got %v", tip)
	}
}

func TestReducerModuleTransitions(t *testing.T) {
	ic := benchContext()
	state := benchState(t, ic)

	state, _ = ApplyCommands([]domain.Command{
		domain.EngageMagnetCommand{Params: domain.EngageMagnetParams{Module: "mag1", EngageHeight: 12}},
		domain.SetTargetTemperatureCommand{Params: domain.TemperatureParams{Module: "temp1", Temperature: 4}},
		domain.ThermocyclerOpenLidCommand{Params: domain.ModuleOnlyParams{Module: "tc1"}},
		domain.ThermocyclerSetLidTempCommand{Params: domain.TemperatureParams{Module: "tc1", Temperature: 105}},
		domain.ThermocyclerRunProfileCommand{Params: domain.ThermocyclerRunProfileParams{
			Module:  "tc1",
			Profile: []domain.ProfileStep{{Temperature: 95, HoldTime: 10}, {Temperature: 4, HoldTime: 60}},
		}},
	}, ic, state)

	wantModules := map[string]domain.ModuleState{
		"mag1":  domain.MagneticModuleState{Engaged: true, EngageHeight: domain.Float(12)},
		"temp1": domain.TemperatureModuleState{Status: domain.TemperatureApproachingTarget, TargetTemperature: domain.Float(4)},
		"tc1":   domain.ThermocyclerModuleState{LidOpen: domain.Bool(true), BlockTargetTemp: domain.Float(4), LidTargetTemp: domain.Float(105)},
	}
	for id, want := range wantModules {
		if diff := cmp.Diff(want, state.Modules[id].State); diff != "" {
			t.Fatalf("%s state mismatch (-want +got):\n%s", id, diff)
		}
	}

	state, _ = ApplyCommands([]domain.Command{
		domain.DisengageMagnetCommand{Params: domain.ModuleOnlyParams{Module: "mag1"}},
		domain.AwaitTemperatureCommand{Params: domain.TemperatureParams{Module: "temp1", Temperature: 4}},
		domain.ThermocyclerCloseLidCommand{Params: domain.ModuleOnlyParams{Module: "tc1"}},
		domain.ThermocyclerDeactivateBlockCommand{Params: domain.ModuleOnlyParams{Module: "tc1"}},
		domain.ThermocyclerDeactivateLidCommand{Params: domain.ModuleOnlyParams{Module: "tc1"}},
	}, ic, state)
	wantModules = map[string]domain.ModuleState{
		"mag1":  domain.MagneticModuleState{},
		"temp1": domain.TemperatureModuleState{Status: domain.TemperatureAtTarget, TargetTemperature: domain.Float(4)},
		"tc1":   domain.ThermocyclerModuleState{LidOpen: domain.Bool(false)},
	}
	for id, want := range wantModules {
		if diff := cmp.Diff(want, state.Modules[id].State); diff != "" {
			t.Fatalf("%s state mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestReducerPanicsOnUnknownCommand(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a command without a transition")
		}
	}()
	ic := benchContext()
	NextRobotStateAndWarnings(nil, ic, benchState(t, ic))
}

func TestWellsForChannels(t *testing.T) {
	plate := domain.LabwareDefinition{Ordering: [][]string{{"A1", "B1", "C1"}, {"A2", "B2", "C2"}}}
	trough := domain.LabwareDefinition{Ordering: [][]string{{"A1"}}}

	cases := []struct {
		name     string
		channels int
		def      domain.LabwareDefinition
		well     string
		want     []string
	}{
		{"single channel", 1, plate, "B2", []string{"B2"}},
		{"fans down the column", 2, plate, "B1", []string{"B1", "C1"}},
		{"trough shares one well", 3, trough, "A1", []string{"A1", "A1", "A1"}},
		{"short column falls back to the well", 3, plate, "B1", []string{"B1", "B1", "B1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, wellsForChannels(tc.channels, tc.def, tc.well)); diff != "" {
				t.Fatalf("wells mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
