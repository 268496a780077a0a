package domain

// Catalog constructors. Creators build diagnostics through these so every
// call site yields the interface type and carries the same context fields.

func NewNoTipOnPipette(actionName, pipette, labware, well string) CommandCreatorError {
	return NoTipOnPipette{ActionName: actionName, Pipette: pipette, Labware: labware, Well: well}
}

func NewLabwareDoesNotExist(actionName, labware string) CommandCreatorError {
	return LabwareDoesNotExist{ActionName: actionName, Labware: labware}
}

func NewWellDoesNotExist(actionName, labware, well string) CommandCreatorError {
	return WellDoesNotExist{ActionName: actionName, Labware: labware, Well: well}
}

func NewModulePipetteCollisionDanger(pipette, labware string) CommandCreatorError {
	return ModulePipetteCollisionDanger{Pipette: pipette, Labware: labware}
}

func NewThermocyclerLidClosed(labware string) CommandCreatorError {
	return ThermocyclerLidClosed{Labware: labware}
}

func NewPipetteDoesNotExist(actionName, pipette string) CommandCreatorError {
	return PipetteDoesNotExist{ActionName: actionName, Pipette: pipette}
}

func NewModuleDoesNotExist(actionName, module string) CommandCreatorError {
	return ModuleDoesNotExist{ActionName: actionName, Module: module}
}

func NewWrongModuleType(actionName, module string, expected, actual ModuleType) CommandCreatorError {
	return WrongModuleType{ActionName: actionName, Module: module, Expected: expected, Actual: actual}
}

func NewInsufficientTips(pipette string) CommandCreatorError {
	return InsufficientTips{Pipette: pipette}
}

func NewPipetteVolumeExceeded(actionName, pipette string, volume, maxVolume float64) CommandCreatorError {
	return PipetteVolumeExceeded{ActionName: actionName, Pipette: pipette, Volume: volume, MaxVolume: maxVolume}
}

func NewMissingTemperatureStep(actionName, module string) CommandCreatorError {
	return MissingTemperatureStep{ActionName: actionName, Module: module}
}

func NewInvalidParameters(actionName, field, reason string) CommandCreatorError {
	return InvalidParameters{ActionName: actionName, Field: field, Reason: reason}
}

func NewUnknownStepType(stepType string) CommandCreatorError {
	return UnknownStepType{StepType: stepType}
}

func NewAspirateMoreThanWellContents(labware, well string) CommandCreatorWarning {
	return AspirateMoreThanWellContents{Labware: labware, Well: well}
}

func NewAspirateFromPristineWell(labware, well string) CommandCreatorWarning {
	return AspirateFromPristineWell{Labware: labware, Well: well}
}
