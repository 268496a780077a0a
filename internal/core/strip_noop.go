package core

import "stepgen/pkg/domain"

// RemovePairs drops adjacent pairs for which shouldRemove(first, second) is
// true. Removing a pair brings its neighbours together, and those are checked
// in turn, so [a, b, b', a'] collapses fully when both b/b' and a/a' match.
// The input slice is not modified.
func RemovePairs[T any](items []T, shouldRemove func(first, second T) bool) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if n := len(kept); n > 0 && shouldRemove(kept[n-1], item) {
			kept = kept[:n-1]
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// NoOpMixRule matches an aspirate immediately followed by a dispense of the
// same volume back into the same well with the same pipette.
type NoOpMixRule struct{}

// Name implements PairRule.
func (NoOpMixRule) Name() string { return "noop_mix" }

// Cancels implements PairRule.
func (NoOpMixRule) Cancels(first, second domain.Command) bool {
	asp, ok := first.(domain.AspirateCommand)
	if !ok {
		return false
	}
	disp, ok := second.(domain.DispenseCommand)
	if !ok {
		return false
	}
	a, d := asp.Params, disp.Params
	return a.Pipette == d.Pipette && a.Volume == d.Volume && a.Labware == d.Labware && a.Well == d.Well
}

var defaultStripper = NewDefaultStripper()

// StripNoOpCommands removes mix pairs that leave the robot state unchanged.
func StripNoOpCommands(commands []domain.Command) []domain.Command {
	return defaultStripper.Strip(commands)
}
