package core

import "stepgen/pkg/domain"

// SetTemperature starts a temperature module heading to its target without
// waiting for it to arrive.
func SetTemperature(args domain.TemperatureParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	var p Preconditions
	requireModule(&p, "set temperature", args.Module, domain.TemperatureModuleType, ic, prev)
	return p.Result(domain.SetTargetTemperatureCommand{Params: args})
}

// AwaitTemperature blocks until the module reaches the temperature most
// recently set on it. Awaiting anything else is an error.
func AwaitTemperature(args domain.TemperatureParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "await temperature"
	var p Preconditions
	state, ok := requireModule(&p, action, args.Module, domain.TemperatureModuleType, ic, prev)
	if ok {
		tm, _ := state.(domain.TemperatureModuleState)
		matching := tm.Status != domain.TemperatureDeactivated &&
			tm.TargetTemperature != nil && *tm.TargetTemperature == args.Temperature
		p.AddIf(!matching, domain.NewMissingTemperatureStep(action, args.Module))
	}
	return p.Result(domain.AwaitTemperatureCommand{Params: args})
}

// DeactivateTemperature turns a temperature module off.
func DeactivateTemperature(args domain.ModuleOnlyParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	var p Preconditions
	requireModule(&p, "deactivate temperature", args.Module, domain.TemperatureModuleType, ic, prev)
	return p.Result(domain.DeactivateTemperatureCommand{Params: args})
}
