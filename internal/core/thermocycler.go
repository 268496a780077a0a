package core

import (
	"fmt"

	"stepgen/pkg/domain"
)

func thermocyclerCreator[P any](action string, module func(P) string, build func(P) domain.Command) CommandCreator[P] {
	return func(args P, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
		var p Preconditions
		requireModule(&p, action, module(args), domain.ThermocyclerModuleType, ic, prev)
		return p.Result(build(args))
	}
}

func moduleOf(p domain.ModuleOnlyParams) string { return p.Module }

var (
	// ThermocyclerOpenLid opens the thermocycler lid.
	ThermocyclerOpenLid = thermocyclerCreator("open thermocycler lid", moduleOf,
		func(p domain.ModuleOnlyParams) domain.Command { return domain.ThermocyclerOpenLidCommand{Params: p} })
	// ThermocyclerCloseLid closes the thermocycler lid.
	ThermocyclerCloseLid = thermocyclerCreator("close thermocycler lid", moduleOf,
		func(p domain.ModuleOnlyParams) domain.Command { return domain.ThermocyclerCloseLidCommand{Params: p} })
	// ThermocyclerDeactivateBlock turns off block temperature control.
	ThermocyclerDeactivateBlock = thermocyclerCreator("deactivate thermocycler block", moduleOf,
		func(p domain.ModuleOnlyParams) domain.Command { return domain.ThermocyclerDeactivateBlockCommand{Params: p} })
	// ThermocyclerDeactivateLid turns off the lid heater.
	ThermocyclerDeactivateLid = thermocyclerCreator("deactivate thermocycler lid", moduleOf,
		func(p domain.ModuleOnlyParams) domain.Command { return domain.ThermocyclerDeactivateLidCommand{Params: p} })
	// ThermocyclerSetLidTemperature sets the lid heater target.
	ThermocyclerSetLidTemperature = thermocyclerCreator("set thermocycler lid temperature",
		func(p domain.TemperatureParams) string { return p.Module },
		func(p domain.TemperatureParams) domain.Command { return domain.ThermocyclerSetLidTempCommand{Params: p} })
)

// ThermocyclerSetBlockTemperature sets the block target, optionally with the
// volume of liquid per well.
func ThermocyclerSetBlockTemperature(args domain.ThermocyclerSetBlockTempParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "set thermocycler block temperature"
	var p Preconditions
	requireModule(&p, action, args.Module, domain.ThermocyclerModuleType, ic, prev)
	if args.Volume != nil {
		p.AddIf(*args.Volume < 0, domain.NewInvalidParameters(action, "volume", "must not be negative"))
	}
	return p.Result(domain.ThermocyclerSetBlockTempCommand{Params: args})
}

// maxProfileSteps bounds the expanded length of a cycled profile.
const maxProfileSteps = 10000

// RunProfileArgs describes a thermocycler profile. Steps are cycled
// Repetitions times.
type RunProfileArgs struct {
	Module      string               `json:"module"`
	Steps       []domain.ProfileStep `json:"steps"`
	Repetitions int                  `json:"repetitions"`
	Volume      float64              `json:"volume"`
}

// ThermocyclerRunProfile expands a cycled profile into a single runProfile
// command.
func ThermocyclerRunProfile(args RunProfileArgs, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "run thermocycler profile"
	var p Preconditions
	requireModule(&p, action, args.Module, domain.ThermocyclerModuleType, ic, prev)
	p.AddIf(args.Repetitions <= 0, domain.NewInvalidParameters(action, "repetitions", "must be a positive integer"))
	p.AddIf(len(args.Steps) == 0, domain.NewInvalidParameters(action, "steps", "profile needs at least one step"))
	if len(args.Steps) > 0 && args.Repetitions > maxProfileSteps/len(args.Steps) {
		p.Add(domain.NewInvalidParameters(action, "repetitions", fmt.Sprintf("profile expands to more than %d steps", maxProfileSteps)))
	}
	for i, step := range args.Steps {
		p.AddIf(step.HoldTime <= 0, domain.NewInvalidParameters(action, fmt.Sprintf("steps[%d].holdTime", i), "must be greater than zero"))
	}
	p.AddIf(args.Volume < 0, domain.NewInvalidParameters(action, "volume", "must not be negative"))
	if !p.OK() {
		return p.Result()
	}
	profile := make([]domain.ProfileStep, 0, len(args.Steps)*args.Repetitions)
	for range args.Repetitions {
		profile = append(profile, args.Steps...)
	}
	return p.Result(domain.ThermocyclerRunProfileCommand{Params: domain.ThermocyclerRunProfileParams{
		Module:  args.Module,
		Profile: profile,
		Volume:  args.Volume,
	}})
}
