package core

import "stepgen/pkg/domain"

// Shared precondition checks. Each records its failure on p and reports
// whether the checked reference is usable by later checks.

func requirePipette(p *Preconditions, action, pipette string, ic domain.InvariantContext) (domain.PipetteEntity, bool) {
	entity, ok := ic.Pipettes[pipette]
	p.AddIf(!ok, domain.NewPipetteDoesNotExist(action, pipette))
	return entity, ok
}

func requireTip(p *Preconditions, action, pipette, labware, well string, state domain.RobotState) {
	p.AddIf(!state.HasTip(pipette), domain.NewNoTipOnPipette(action, pipette, labware, well))
}

// requireLabware fails on an empty id or on labware that is not on the deck.
func requireLabware(p *Preconditions, action, labware string, state domain.RobotState) bool {
	_, ok := state.Labware[labware]
	ok = ok && labware != ""
	p.AddIf(!ok, domain.NewLabwareDoesNotExist(action, labware))
	return ok
}

// requireWell checks the well against the labware definition. Labware without
// a well map (for example a bare trash) accepts any well name.
func requireWell(p *Preconditions, action, labware, well string, ic domain.InvariantContext) {
	entity, ok := ic.Labware[labware]
	if !ok || len(entity.Def.Wells) == 0 {
		return
	}
	_, ok = entity.Def.Wells[well]
	p.AddIf(!ok, domain.NewWellDoesNotExist(action, labware, well))
}

func requireLidOpen(p *Preconditions, labware string, state domain.RobotState) {
	p.AddIf(ThermocyclerPipetteCollision(state.Modules, state.Labware, labware), domain.NewThermocyclerLidClosed(labware))
}

func requireNoModuleCollision(p *Preconditions, pipette, labware string, ic domain.InvariantContext, state domain.RobotState) {
	p.AddIf(ModulePipetteCollision(pipette, labware, ic, state), domain.NewModulePipetteCollisionDanger(pipette, labware))
}

// requireModule checks that the module is declared, placed on the deck and of
// the expected family. The returned state is only meaningful when ok is true.
func requireModule(p *Preconditions, action, module string, expected domain.ModuleType, ic domain.InvariantContext, state domain.RobotState) (domain.ModuleState, bool) {
	entity, declared := ic.Modules[module]
	placed, onDeck := state.Modules[module]
	if !declared || !onDeck {
		p.Add(domain.NewModuleDoesNotExist(action, module))
		return nil, false
	}
	if entity.Type != expected {
		p.Add(domain.NewWrongModuleType(action, module, expected, entity.Type))
		return nil, false
	}
	return placed.State, true
}

// liquidHandlingChecks runs the checks every in-well pipette action shares,
// in the order collision, tip, labware, well, lid.
func liquidHandlingChecks(p *Preconditions, action, pipette, labware, well string, needsTip bool, ic domain.InvariantContext, state domain.RobotState) (domain.PipetteEntity, bool) {
	entity, known := requirePipette(p, action, pipette, ic)
	if known {
		requireNoModuleCollision(p, pipette, labware, ic, state)
		if needsTip {
			requireTip(p, action, pipette, labware, well, state)
		}
	}
	if requireLabware(p, action, labware, state) {
		requireWell(p, action, labware, well, ic)
	}
	requireLidOpen(p, labware, state)
	return entity, known
}
