package core

import (
	"fmt"

	"stepgen/pkg/domain"
)

// NextRobotStateAndWarnings applies one command to prev and returns the
// resulting state. prev is never modified.
func NextRobotStateAndWarnings(cmd domain.Command, ic domain.InvariantContext, prev domain.RobotState) (domain.RobotState, []domain.CommandCreatorWarning) {
	next := prev.Clone()
	var warnings []domain.CommandCreatorWarning
	switch c := cmd.(type) {
	case domain.AspirateCommand:
		warnings = aspirateLiquid(&next, ic, c.Params.Pipette, c.Params.Labware, c.Params.Well, c.Params.Volume)
	case domain.AirGapCommand:
		// air only; tip contents are unchanged
	case domain.DispenseCommand:
		dispenseLiquid(&next, ic, c.Params.Pipette, c.Params.Labware, c.Params.Well, c.Params.Volume)
	case domain.BlowoutCommand:
		dispenseLiquid(&next, ic, c.Params.Pipette, c.Params.Labware, c.Params.Well, -1)
	case domain.PickUpTipCommand:
		pickUpTip(&next, ic, c.Params)
	case domain.DropTipCommand:
		clearTips(&next, ic, c.Params.Pipette)
		setTip(&next, c.Params.Pipette, false)
	case domain.TouchTipCommand, domain.MoveToWellCommand, domain.DelayCommand:
	case domain.EngageMagnetCommand:
		setModuleState(&next, c.Params.Module, domain.MagneticModuleState{Engaged: true, EngageHeight: domain.Float(c.Params.EngageHeight)})
	case domain.DisengageMagnetCommand:
		setModuleState(&next, c.Params.Module, domain.MagneticModuleState{})
	case domain.SetTargetTemperatureCommand:
		setModuleState(&next, c.Params.Module, domain.TemperatureModuleState{
			Status:            domain.TemperatureApproachingTarget,
			TargetTemperature: domain.Float(c.Params.Temperature),
		})
	case domain.AwaitTemperatureCommand:
		setModuleState(&next, c.Params.Module, domain.TemperatureModuleState{
			Status:            domain.TemperatureAtTarget,
			TargetTemperature: domain.Float(c.Params.Temperature),
		})
	case domain.DeactivateTemperatureCommand:
		setModuleState(&next, c.Params.Module, domain.TemperatureModuleState{Status: domain.TemperatureDeactivated})
	case domain.ThermocyclerOpenLidCommand:
		updateThermocycler(&next, c.Params.Module, func(s *domain.ThermocyclerModuleState) { s.LidOpen = domain.Bool(true) })
	case domain.ThermocyclerCloseLidCommand:
		updateThermocycler(&next, c.Params.Module, func(s *domain.ThermocyclerModuleState) { s.LidOpen = domain.Bool(false) })
	case domain.ThermocyclerSetBlockTempCommand:
		updateThermocycler(&next, c.Params.Module, func(s *domain.ThermocyclerModuleState) { s.BlockTargetTemp = domain.Float(c.Params.Temperature) })
	case domain.ThermocyclerSetLidTempCommand:
		updateThermocycler(&next, c.Params.Module, func(s *domain.ThermocyclerModuleState) { s.LidTargetTemp = domain.Float(c.Params.Temperature) })
	case domain.ThermocyclerDeactivateBlockCommand:
		updateThermocycler(&next, c.Params.Module, func(s *domain.ThermocyclerModuleState) { s.BlockTargetTemp = nil })
	case domain.ThermocyclerDeactivateLidCommand:
		updateThermocycler(&next, c.Params.Module, func(s *domain.ThermocyclerModuleState) { s.LidTargetTemp = nil })
	case domain.ThermocyclerRunProfileCommand:
		// the block holds at the final step's temperature once the profile ends
		if n := len(c.Params.Profile); n > 0 {
			last := c.Params.Profile[n-1].Temperature
			updateThermocycler(&next, c.Params.Module, func(s *domain.ThermocyclerModuleState) { s.BlockTargetTemp = domain.Float(last) })
		}
	default:
		panic(fmt.Sprintf("core: no robot state transition for command %T", cmd))
	}
	return next, warnings
}

// ApplyCommands folds NextRobotStateAndWarnings over commands.
func ApplyCommands(commands []domain.Command, ic domain.InvariantContext, prev domain.RobotState) (domain.RobotState, []domain.CommandCreatorWarning) {
	state := prev
	var warnings []domain.CommandCreatorWarning
	for _, cmd := range commands {
		var w []domain.CommandCreatorWarning
		state, w = NextRobotStateAndWarnings(cmd, ic, state)
		warnings = append(warnings, w...)
	}
	return state, warnings
}

func setTip(state *domain.RobotState, pipette string, on bool) {
	if state.TipState.Pipettes == nil {
		state.TipState.Pipettes = map[string]bool{}
	}
	state.TipState.Pipettes[pipette] = on
}

// pickUpTip removes one tip per channel from the rack, walking down the
// column from the named well.
func pickUpTip(state *domain.RobotState, ic domain.InvariantContext, params domain.PipetteAccessParams) {
	wells := wellsForChannels(channelCount(ic, params.Pipette), ic.Labware[params.Labware].Def, params.Well)
	if rack, ok := state.TipState.Tipracks[params.Labware]; ok {
		for _, w := range wells {
			rack[w] = false
		}
	}
	clearTips(state, ic, params.Pipette)
	setTip(state, params.Pipette, true)
}

func setModuleState(state *domain.RobotState, module string, ms domain.ModuleState) {
	placed, ok := state.Modules[module]
	if !ok {
		return
	}
	placed.State = ms
	state.Modules[module] = placed
}

func updateThermocycler(state *domain.RobotState, module string, update func(*domain.ThermocyclerModuleState)) {
	placed, ok := state.Modules[module]
	if !ok {
		return
	}
	tc, ok := placed.State.(domain.ThermocyclerModuleState)
	if !ok {
		return
	}
	update(&tc)
	placed.State = tc
	state.Modules[module] = placed
}
