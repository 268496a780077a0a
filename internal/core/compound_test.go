package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"stepgen/pkg/domain"
)

var (
	pickUp   = domain.CommandPickUpTip
	aspirate = domain.CommandAspirate
	dispense = domain.CommandDispense
	dropTip  = domain.CommandDropTip
	blowout  = domain.CommandBlowout
	touchTip = domain.CommandTouchTip
)

func mustSucceed(t *testing.T, res domain.CommandCreatorResult) domain.CommandCreatorResult {
	t.Helper()
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.RobotState == nil {
		t.Fatalf("compound result should carry the final robot state")
	}
	return res
}

func TestTransferChangeTipOnce(t *testing.T) {
	ic := benchContext()
	res := mustSucceed(t, Transfer(TransferArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1"},
		DestLabware: "plate1", DestWells: []string{"A2"}, Volume: 50, ChangeTip: ChangeTipOnce,
	}, ic, benchState(t, ic)))

	if diff := cmp.Diff([]domain.CommandType{pickUp, aspirate, dispense}, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	final := *res.RobotState
	if !final.HasTip("p1") || final.TipState.Tipracks["tiprack1"]["A1"] {
		t.Fatalf("expected the A1 tip on p1")
	}
	if got := final.LiquidState.Labware["plate1"]["A2"]["water"].Volume; !almostEqual(got, 50) {
		t.Fatalf("destination should hold 50, got %v", got)
	}
}

func TestTransferChangeTipAlwaysUsesNextTip(t *testing.T) {
	ic := benchContext()
	res := mustSucceed(t, Transfer(TransferArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1", "B1"},
		DestLabware: "plate1", DestWells: []string{"A2", "B2"}, Volume: 20, ChangeTip: ChangeTipAlways,
		TouchTipAfterDispense: true,
	}, ic, benchState(t, ic)))

	want := []domain.CommandType{pickUp, aspirate, dispense, touchTip, dropTip, pickUp, aspirate, dispense, touchTip}
	if diff := cmp.Diff(want, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	second := res.Commands[5].(domain.PickUpTipCommand)
	if second.Params.Well != "B1" {
		t.Fatalf("second tip should come from B1, got %s", second.Params.Well)
	}
	// B1 of the plate was never filled
	if diff := cmp.Diff([]domain.WarningType{domain.WarningAspirateFromPristineWell}, warningTypes(res.Warnings)); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestTransferSplitsLargeVolumes(t *testing.T) {
	ic := benchContext()
	res := mustSucceed(t, Transfer(TransferArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1"},
		DestLabware: "plate1", DestWells: []string{"A2"}, Volume: 400, ChangeTip: ChangeTipOnce,
	}, ic, benchState(t, ic)))

	want := []domain.CommandType{pickUp, aspirate, dispense, aspirate, dispense}
	if diff := cmp.Diff(want, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	for _, i := range []int{1, 3} {
		if v := res.Commands[i].(domain.AspirateCommand).Params.Volume; v != 200 {
			t.Fatalf("command %d should aspirate 200, got %v", i, v)
		}
	}
}

func TestTransferWithoutTipRollsBack(t *testing.T) {
	ic := benchContext()
	res := Transfer(TransferArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1"},
		DestLabware: "plate1", DestWells: []string{"A2"}, Volume: 50, ChangeTip: ChangeTipNever,
	}, ic, benchState(t, ic))

	want := []domain.CommandCreatorError{domain.NewNoTipOnPipette("aspirate", "p1", "plate1", "A1")}
	if diff := cmp.Diff(want, res.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if res.RobotState != nil || len(res.Commands) != 0 {
		t.Fatalf("a failed transfer must not leak state or commands")
	}
}

func TestTransferArgumentValidation(t *testing.T) {
	ic := benchContext()
	res := Transfer(TransferArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1"},
		DestLabware: "plate1", Volume: -1, ChangeTip: "sometimes",
		MixAfterDispense: &MixOptions{Volume: 10},
		BlowoutLocation:  "floor",
	}, ic, benchState(t, ic))

	var fields []string
	for _, e := range res.Errors {
		fields = append(fields, e.(domain.InvalidParameters).Field)
	}
	want := []string{"destWells", "volume", "changeTip", "mixAfterDispense.times", "blowoutLocation"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("invalid fields mismatch (-want +got):\n%s", diff)
	}
}

func TestTransferBlowoutLocations(t *testing.T) {
	ic := benchContext()
	for loc, wantLabware := range map[BlowoutLocation]string{
		BlowoutTrash:      domain.FixedTrashID,
		BlowoutSourceWell: "plate1",
		BlowoutDestWell:   "plate1",
	} {
		t.Run(string(loc), func(t *testing.T) {
			res := mustSucceed(t, Transfer(TransferArgs{
				Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1"},
				DestLabware: "plate1", DestWells: []string{"B2"}, Volume: 20, ChangeTip: ChangeTipOnce,
				BlowoutLocation: loc,
			}, ic, benchState(t, ic)))
			last := res.Commands[len(res.Commands)-1]
			b, ok := last.(domain.BlowoutCommand)
			if !ok || b.Params.Labware != wantLabware {
				t.Fatalf("expected blowout into %s, got %#v", wantLabware, last)
			}
		})
	}
}

func TestMix(t *testing.T) {
	ic := benchContext()
	res := mustSucceed(t, Mix(MixArgs{
		Pipette: "p1", Labware: "plate1", Wells: []string{"A1"}, Volume: 20, Times: 2, ChangeTip: ChangeTipOnce,
	}, ic, benchState(t, ic)))

	want := []domain.CommandType{pickUp, aspirate, dispense, aspirate, dispense}
	if diff := cmp.Diff(want, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	if got := res.RobotState.LiquidState.Labware["plate1"]["A1"]["water"].Volume; !almostEqual(got, 200) {
		t.Fatalf("mixing should leave the well volume unchanged, got %v", got)
	}

	bad := Mix(MixArgs{Pipette: "p1", Labware: "plate1", Volume: 20, Times: 0, ChangeTip: ChangeTipPerDest}, ic, benchState(t, ic))
	want2 := []domain.ErrorType{domain.ErrorInvalidParameters, domain.ErrorInvalidParameters, domain.ErrorInvalidParameters}
	if diff := cmp.Diff(want2, errorTypes(bad.Errors)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestConsolidate(t *testing.T) {
	ic := benchContext()
	state := benchState(t, ic)
	state.LiquidState.Labware["plate1"]["B1"] = domain.LocationLiquidState{"water": {Volume: 200}}
	state.LiquidState.Labware["plate1"]["A2"] = domain.LocationLiquidState{"water": {Volume: 200}}

	// three 100 uL draws fill the 300 uL tip exactly, so one trip serves all
	res := mustSucceed(t, Consolidate(ConsolidateArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1", "B1", "A2"},
		DestLabware: "plate1", DestWell: "B2", Volume: 100, ChangeTip: ChangeTipOnce,
	}, ic, state))
	if diff := cmp.Diff([]domain.CommandType{pickUp, aspirate, aspirate, aspirate, dispense}, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	if v := res.Commands[4].(domain.DispenseCommand).Params.Volume; v != 300 {
		t.Fatalf("pooled dispense should be 300, got %v", v)
	}

	res = mustSucceed(t, Consolidate(ConsolidateArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1", "B1", "A2"},
		DestLabware: "plate1", DestWell: "B2", Volume: 120, ChangeTip: ChangeTipAlways,
	}, ic, state))
	want := []domain.CommandType{pickUp, aspirate, aspirate, dispense, dropTip, pickUp, aspirate, dispense}
	if diff := cmp.Diff(want, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("chunked commands mismatch (-want +got):\n%s", diff)
	}

	tooBig := Consolidate(ConsolidateArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWells: []string{"A1"},
		DestLabware: "plate1", DestWell: "B2", Volume: 301, ChangeTip: ChangeTipOnce,
	}, ic, state)
	wantErr := []domain.CommandCreatorError{domain.NewPipetteVolumeExceeded("consolidate", "p1", 301, 300)}
	if diff := cmp.Diff(wantErr, tooBig.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestDistribute(t *testing.T) {
	ic := benchContext()
	res := mustSucceed(t, Distribute(DistributeArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWell: "A1",
		DestLabware: "plate1", DestWells: []string{"A2", "B2"}, Volume: 60, DisposalVolume: 20, ChangeTip: ChangeTipOnce,
	}, ic, benchState(t, ic)))

	if diff := cmp.Diff([]domain.CommandType{pickUp, aspirate, dispense, dispense, blowout}, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	if v := res.Commands[1].(domain.AspirateCommand).Params.Volume; v != 140 {
		t.Fatalf("aspirate should cover both wells plus disposal, got %v", v)
	}
	if b := res.Commands[4].(domain.BlowoutCommand); b.Params.Labware != domain.FixedTrashID {
		t.Fatalf("disposal volume should go to the trash, got %s", b.Params.Labware)
	}
	final := res.RobotState
	if final.LiquidState.Pipettes["p1"]["0"].Total() != 0 {
		t.Fatalf("tip should be empty after blowout")
	}
	if got := final.LiquidState.Labware["plate1"]["B2"]["water"].Volume; !almostEqual(got, 60) {
		t.Fatalf("B2 should hold 60, got %v", got)
	}

	tooBig := Distribute(DistributeArgs{
		Pipette: "p1", SourceLabware: "plate1", SourceWell: "A1",
		DestLabware: "plate1", DestWells: []string{"A2"}, Volume: 290, DisposalVolume: 20, ChangeTip: ChangeTipOnce,
	}, ic, benchState(t, ic))
	wantErr := []domain.CommandCreatorError{domain.NewPipetteVolumeExceeded("distribute", "p1", 310, 300)}
	if diff := cmp.Diff(wantErr, tooBig.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceTip(t *testing.T) {
	ic := benchContext()
	state := benchState(t, ic)

	res := mustSucceed(t, ReplaceTip(ReplaceTipArgs{Pipette: "p1"}, ic, state))
	if diff := cmp.Diff([]domain.CommandType{pickUp}, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("fresh pipette should only pick up (-want +got):\n%s", diff)
	}

	res = mustSucceed(t, ReplaceTip(ReplaceTipArgs{Pipette: "p1"}, ic, *res.RobotState))
	if diff := cmp.Diff([]domain.CommandType{dropTip, pickUp}, commandTypes(res.Commands)); diff != "" {
		t.Fatalf("tipped pipette should drop then pick up (-want +got):\n%s", diff)
	}

	res = ReplaceTip(ReplaceTipArgs{Pipette: "p1"}, ic, *res.RobotState)
	if diff := cmp.Diff([]domain.CommandCreatorError{domain.NewInsufficientTips("p1")}, res.Errors); diff != "" {
		t.Fatalf("empty rack should fail (-want +got):\n%s", diff)
	}

	res = ReplaceTip(ReplaceTipArgs{Pipette: "ghost"}, ic, state)
	if diff := cmp.Diff([]domain.CommandCreatorError{domain.NewPipetteDoesNotExist("replace tip", "ghost")}, res.Errors); diff != "" {
		t.Fatalf("unknown pipette (-want +got):\n%s", diff)
	}
}

func TestNextTip(t *testing.T) {
	ic := benchContext()
	state := benchState(t, ic)

	if rack, well, ok := NextTip("p1", ic, state); !ok || rack != "tiprack1" || well != "A1" {
		t.Fatalf("NextTip = %s %s %v, want tiprack1 A1", rack, well, ok)
	}
	if _, well, ok := NextTip("p2", ic, state); !ok || well != "A1" {
		t.Fatalf("a full column should serve the two-channel pipette, got %s %v", well, ok)
	}

	state.TipState.Tipracks["tiprack1"]["A1"] = false
	if _, well, _ := NextTip("p1", ic, state); well != "B1" {
		t.Fatalf("single channel should move on to B1, got %s", well)
	}
	if _, _, ok := NextTip("p2", ic, state); ok {
		t.Fatalf("a partial column cannot serve the two-channel pipette")
	}

	// racks are used in slot order
	ic.Labware["tiprack0"] = domain.LabwareEntity{ID: "tiprack0", DefURI: tiprackURI, Def: ic.Labware["tiprack1"].Def}
	state.Labware["tiprack0"] = domain.LabwareTemporal{Slot: "5"}
	state.Labware["tiprack1"] = domain.LabwareTemporal{Slot: "6"}
	state.TipState.Tipracks["tiprack0"] = map[string]bool{"A1": true, "B1": true}
	if rack, _, _ := NextTip("p1", ic, state); rack != "tiprack0" {
		t.Fatalf("expected the lower slot rack, got %s", rack)
	}
}

func TestSplitVolume(t *testing.T) {
	cases := []struct {
		volume, maxVolume, minVolume float64
		want                         []float64
	}{
		{100, 300, 20, []float64{100}},
		{300, 300, 20, []float64{300}},
		{400, 300, 20, []float64{200, 200}},
		{650, 300, 20, []float64{300, 300, 50}},
		{610, 300, 20, []float64{300, 155, 155}},
		{900, 300, 20, []float64{300, 300, 300}},
		{50, 0, 0, []float64{50}},
	}
	for _, tc := range cases {
		got := splitVolume(tc.volume, tc.maxVolume, tc.minVolume)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("splitVolume(%v, %v, %v) mismatch (-want +got):\n%s", tc.volume, tc.maxVolume, tc.minVolume, diff)
		}
	}
}

func TestEffectiveMaxVolumeUsesTipCapacity(t *testing.T) {
	ic := benchContext()
	small := ic.Labware["tiprack1"]
	small.Def.TipVolume = 200
	ic.Labware["tiprack1"] = small
	if got := effectiveMaxVolume(ic.Pipettes["p1"], ic); got != 200 {
		t.Fatalf("effectiveMaxVolume = %v, want 200", got)
	}
	p := ic.Pipettes["p1"]
	p.TiprackDefURI = ""
	if got := effectiveMaxVolume(p, ic); got != 300 {
		t.Fatalf("without a tiprack the pipette capacity applies, got %v", got)
	}
}

func TestChunkWells(t *testing.T) {
	got := chunkWells([]string{"A1", "B1", "C1", "D1", "E1"}, 2)
	want := [][]string{{"A1", "B1"}, {"C1", "D1"}, {"E1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}
