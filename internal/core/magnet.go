package core

import "stepgen/pkg/domain"

// EngageMagnet raises the magnets of a magnetic module to EngageHeight.
func EngageMagnet(args domain.EngageMagnetParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	const action = "engage magnet"
	var p Preconditions
	requireModule(&p, action, args.Module, domain.MagneticModuleType, ic, prev)
	p.AddIf(args.EngageHeight < 0, domain.NewInvalidParameters(action, "engageHeight", "must not be negative"))
	return p.Result(domain.EngageMagnetCommand{Params: args})
}

// DisengageMagnet lowers the magnets of a magnetic module.
func DisengageMagnet(args domain.ModuleOnlyParams, ic domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	var p Preconditions
	requireModule(&p, "disengage magnet", args.Module, domain.MagneticModuleType, ic, prev)
	return p.Result(domain.DisengageMagnetCommand{Params: args})
}
