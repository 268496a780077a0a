package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stepgen/pkg/domain"
)

func timelineSteps() []CurriedCommandCreator {
	return []CurriedCommandCreator{
		Curry(Delay, DelayArgs{Seconds: 5}),
		Curry(Aspirate, asp("p1", "plate1", "A1", 10)), // no tip yet
		Curry(PickUpTip, domain.PipetteAccessParams{Pipette: "p1", Labware: "tiprack1", Well: "A1"}),
		Curry(Aspirate, asp("p1", "plate1", "B1", 10)),
	}
}

func TestTimelineHaltsAtFirstError(t *testing.T) {
	ic := benchContext()
	initial := benchState(t, ic)
	tl := CommandCreatorsTimeline(timelineSteps(), ic, initial, TimelineOptions{})

	if !tl.Halted() || tl.OK() {
		t.Fatalf("expected a halted, failed timeline")
	}
	if len(tl.Frames) != 1 || tl.Frames[0].StepIndex != 0 {
		t.Fatalf("expected only the delay frame, got %+v", tl.Frames)
	}
	want := []StepErrors{{StepIndex: 1, Errors: []domain.CommandCreatorError{
		domain.NewNoTipOnPipette("aspirate", "p1", "plate1", "A1"),
	}}}
	if diff := cmp.Diff(want, tl.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tl.Frames[0].RobotState, tl.FinalRobotState); diff != "" {
		t.Fatalf("final state should be the last frame's (-frame +final):\n%s", diff)
	}
	if tl.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", tl.ErrorCount())
	}
}

func TestTimelineContinueOnError(t *testing.T) {
	ic := benchContext()
	initial := benchState(t, ic)
	tl := CommandCreatorsTimeline(timelineSteps(), ic, initial, TimelineOptions{ContinueOnError: true})

	if tl.Halted() {
		t.Fatalf("continue-on-error timeline must not halt")
	}
	if tl.OK() {
		t.Fatalf("the failed step should still be reported")
	}
	var indexes []int
	for _, f := range tl.Frames {
		indexes = append(indexes, f.StepIndex)
	}
	if diff := cmp.Diff([]int{0, 2, 3}, indexes); diff != "" {
		t.Fatalf("frame indexes mismatch (-want +got):\n%s", diff)
	}
	last := tl.Frames[2]
	if diff := cmp.Diff([]domain.WarningType{domain.WarningAspirateFromPristineWell}, warningTypes(last.Warnings)); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
	if !tl.FinalRobotState.HasTip("p1") {
		t.Fatalf("final state should reflect the pick up")
	}
	if initial.HasTip("p1") {
		t.Fatalf("initial state was modified")
	}
	if diff := cmp.Diff([]domain.CommandType{domain.CommandDelay, pickUp, aspirate}, commandTypes(tl.Commands(false))); diff != "" {
		t.Fatalf("flattened commands mismatch (-want +got):\n%s", diff)
	}
}

func TestTimelineFramesAreIndependent(t *testing.T) {
	ic := benchContext()
	tl := CommandCreatorsTimeline(timelineSteps()[2:], ic, benchState(t, ic), TimelineOptions{})
	if !tl.OK() || tl.Halted() {
		t.Fatalf("unexpected errors: %+v", tl.Errors)
	}
	first, second := tl.Frames[0].RobotState, tl.Frames[1].RobotState
	if first.LiquidState.Pipettes["p1"]["0"].Total() != 0 {
		t.Fatalf("first frame should hold an empty tip")
	}
	second.TipState.Pipettes["p1"] = false
	if !tl.Frames[0].RobotState.HasTip("p1") || !tl.FinalRobotState.HasTip("p1") {
		t.Fatalf("frames must not share maps")
	}
}

func TestTimelineCommandsStripNoOp(t *testing.T) {
	ic := benchContext()
	steps := []CurriedCommandCreator{
		Curry(PickUpTip, domain.PipetteAccessParams{Pipette: "p1", Labware: "tiprack1", Well: "A1"}),
		Curry(Mix, MixArgs{Pipette: "p1", Labware: "plate1", Wells: []string{"A1"}, Volume: 20, Times: 3, ChangeTip: ChangeTipNever}),
		Curry(DropTip, DropTipArgs{Pipette: "p1"}),
	}
	tl := CommandCreatorsTimeline(steps, ic, benchState(t, ic), TimelineOptions{})
	if got := len(tl.Commands(false)); got != 8 {
		t.Fatalf("expected 8 raw commands, got %d", got)
	}
	if diff := cmp.Diff([]domain.CommandType{pickUp, dropTip}, commandTypes(tl.Commands(true))); diff != "" {
		t.Fatalf("stripped commands mismatch (-want +got):\n%s", diff)
	}
}

func TestTimelineJSON(t *testing.T) {
	ic := benchContext()
	tl := CommandCreatorsTimeline(timelineSteps(), ic, benchState(t, ic), TimelineOptions{})
	raw, err := json.Marshal(tl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, fragment := range []string{
		`"halted":true`,
		`"command":"delay"`,
		`"type":"NO_TIP_ON_PIPETTE"`,
		`"stepIndex":1`,
	} {
		if !strings.Contains(string(raw), fragment) {
			t.Fatalf("timeline JSON missing %s:\n%s", fragment, raw)
		}
	}

	empty, err := json.Marshal(TimelineFrame{StepIndex: 3})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	if !strings.Contains(string(empty), `"commands":[]`) {
		t.Fatalf("a frame without commands should encode an empty list: %s", empty)
	}
}
