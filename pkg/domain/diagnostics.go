package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorType is the stable machine-readable tag of a command creator error.
// Tags never collide with CommandType values.
type ErrorType string

// Command creator error tags.
const (
	ErrorNoTipOnPipette               ErrorType = "NO_TIP_ON_PIPETTE"
	ErrorLabwareDoesNotExist          ErrorType = "LABWARE_DOES_NOT_EXIST"
	ErrorWellDoesNotExist             ErrorType = "WELL_DOES_NOT_EXIST"
	ErrorModulePipetteCollisionDanger ErrorType = "MODULE_PIPETTE_COLLISION_DANGER"
	ErrorThermocyclerLidClosed        ErrorType = "THERMOCYCLER_LID_CLOSED"
	ErrorPipetteDoesNotExist          ErrorType = "PIPETTE_DOES_NOT_EXIST"
	ErrorModuleDoesNotExist           ErrorType = "MODULE_DOES_NOT_EXIST"
	ErrorWrongModuleType              ErrorType = "WRONG_MODULE_TYPE"
	ErrorInsufficientTips             ErrorType = "INSUFFICIENT_TIPS"
	ErrorPipetteVolumeExceeded        ErrorType = "PIPETTE_VOLUME_EXCEEDED"
	ErrorMissingTemperatureStep       ErrorType = "MISSING_TEMPERATURE_STEP"
	ErrorInvalidParameters            ErrorType = "INVALID_PARAMETERS"
	ErrorUnknownStepType              ErrorType = "UNKNOWN_STEP_TYPE"
)

// WarningType is the stable machine-readable tag of a command creator warning.
type WarningType string

// Command creator warning tags.
const (
	WarningAspirateMoreThanWellContents WarningType = "ASPIRATE_MORE_THAN_WELL_CONTENTS"
	WarningAspirateFromPristineWell     WarningType = "ASPIRATE_FROM_PRISTINE_WELL"
)

// CommandCreatorError is a blocking validation failure. The implementations
// in this file are the complete set.
type CommandCreatorError interface {
	Type() ErrorType
	Message() string
	commandCreatorError()
}

// CommandCreatorWarning is a non-blocking diagnostic.
type CommandCreatorWarning interface {
	Type() WarningType
	Message() string
	commandCreatorWarning()
}

// NoTipOnPipette reports a liquid-handling action attempted without a tip.
type NoTipOnPipette struct {
	ActionName string `json:"actionName"`
	Pipette    string `json:"pipette"`
	Labware    string `json:"labware"`
	Well       string `json:"well"`
}

// LabwareDoesNotExist reports a reference to labware absent from the deck.
type LabwareDoesNotExist struct {
	ActionName string `json:"actionName"`
	Labware    string `json:"labware"`
}

// WellDoesNotExist reports a well name the labware definition lacks.
type WellDoesNotExist struct {
	ActionName string `json:"actionName"`
	Labware    string `json:"labware"`
	Well       string `json:"well"`
}

// ModulePipetteCollisionDanger reports a pipette that would strike a module
// next to the target labware.
type ModulePipetteCollisionDanger struct {
	Pipette string `json:"pipette"`
	Labware string `json:"labware"`
}

// ThermocyclerLidClosed reports labware inside a thermocycler whose lid is
// closed or in an unknown position.
type ThermocyclerLidClosed struct {
	Labware string `json:"labware"`
}

// PipetteDoesNotExist reports a pipette id absent from the invariant context.
type PipetteDoesNotExist struct {
	ActionName string `json:"actionName"`
	Pipette    string `json:"pipette"`
}

// ModuleDoesNotExist reports a module id absent from the deck.
type ModuleDoesNotExist struct {
	ActionName string `json:"actionName"`
	Module     string `json:"module"`
}

// WrongModuleType reports a module command aimed at a module of another family.
type WrongModuleType struct {
	ActionName string     `json:"actionName"`
	Module     string     `json:"module"`
	Expected   ModuleType `json:"expected"`
	Actual     ModuleType `json:"actual"`
}

// InsufficientTips reports that no compatible tiprack has a tip left.
type InsufficientTips struct {
	Pipette string `json:"pipette"`
}

// PipetteVolumeExceeded reports a volume above the pipette's capacity.
type PipetteVolumeExceeded struct {
	ActionName string  `json:"actionName"`
	Pipette    string  `json:"pipette"`
	Volume     float64 `json:"volume"`
	MaxVolume  float64 `json:"maxVolume"`
}

// MissingTemperatureStep reports an await with no matching target set.
type MissingTemperatureStep struct {
	ActionName string `json:"actionName"`
	Module     string `json:"module"`
}

// InvalidParameters reports an argument outside its valid domain.
type InvalidParameters struct {
	ActionName string `json:"actionName"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

// UnknownStepType reports a protocol step with no registered creator.
type UnknownStepType struct {
	StepType string `json:"stepType"`
}

func (NoTipOnPipette) Type() ErrorType               { return ErrorNoTipOnPipette }
func (LabwareDoesNotExist) Type() ErrorType          { return ErrorLabwareDoesNotExist }
func (WellDoesNotExist) Type() ErrorType             { return ErrorWellDoesNotExist }
func (ModulePipetteCollisionDanger) Type() ErrorType { return ErrorModulePipetteCollisionDanger }
func (ThermocyclerLidClosed) Type() ErrorType        { return ErrorThermocyclerLidClosed }
func (PipetteDoesNotExist) Type() ErrorType          { return ErrorPipetteDoesNotExist }
func (ModuleDoesNotExist) Type() ErrorType           { return ErrorModuleDoesNotExist }
func (WrongModuleType) Type() ErrorType              { return ErrorWrongModuleType }
func (InsufficientTips) Type() ErrorType             { return ErrorInsufficientTips }
func (PipetteVolumeExceeded) Type() ErrorType        { return ErrorPipetteVolumeExceeded }
func (MissingTemperatureStep) Type() ErrorType       { return ErrorMissingTemperatureStep }
func (InvalidParameters) Type() ErrorType            { return ErrorInvalidParameters }
func (UnknownStepType) Type() ErrorType              { return ErrorUnknownStepType }

func (NoTipOnPipette) commandCreatorError()               {}
func (LabwareDoesNotExist) commandCreatorError()          {}
func (WellDoesNotExist) commandCreatorError()             {}
func (ModulePipetteCollisionDanger) commandCreatorError() {}
func (ThermocyclerLidClosed) commandCreatorError()        {}
func (PipetteDoesNotExist) commandCreatorError()          {}
func (ModuleDoesNotExist) commandCreatorError()           {}
func (WrongModuleType) commandCreatorError()              {}
func (InsufficientTips) commandCreatorError()             {}
func (PipetteVolumeExceeded) commandCreatorError()        {}
func (MissingTemperatureStep) commandCreatorError()       {}
func (InvalidParameters) commandCreatorError()            {}
func (UnknownStepType) commandCreatorError()              {}

// Message implements CommandCreatorError.
func (e NoTipOnPipette) Message() string {
	return fmt.Sprintf("attempted to %s with no tip on pipette %s from %s's well %s", e.ActionName, e.Pipette, e.Labware, e.Well)
}

// Message implements CommandCreatorError.
func (e LabwareDoesNotExist) Message() string {
	return fmt.Sprintf("attempted to %s with labware %q that is not on the deck", e.ActionName, e.Labware)
}

// Message implements CommandCreatorError.
func (e WellDoesNotExist) Message() string {
	return fmt.Sprintf("attempted to %s in well %s which labware %s does not have", e.ActionName, e.Well, e.Labware)
}

// Message implements CommandCreatorError.
func (e ModulePipetteCollisionDanger) Message() string {
	return fmt.Sprintf("pipette %s may collide with a module next to labware %s; GEN1 multi-channel pipettes cannot reach labware north or south of a GEN1 module", e.Pipette, e.Labware)
}

// Message implements CommandCreatorError.
func (e ThermocyclerLidClosed) Message() string {
	return fmt.Sprintf("labware %s is in a thermocycler whose lid is closed; open the lid before accessing it", e.Labware)
}

// Message implements CommandCreatorError.
func (e PipetteDoesNotExist) Message() string {
	return fmt.Sprintf("attempted to %s with pipette %q that does not exist", e.ActionName, e.Pipette)
}

// Message implements CommandCreatorError.
func (e ModuleDoesNotExist) Message() string {
	return fmt.Sprintf("attempted to %s with module %q that is not on the deck", e.ActionName, e.Module)
}

// Message implements CommandCreatorError.
func (e WrongModuleType) Message() string {
	return fmt.Sprintf("attempted to %s on module %s: expected %s, found %s", e.ActionName, e.Module, e.Expected, e.Actual)
}

// Message implements CommandCreatorError.
func (e InsufficientTips) Message() string {
	return fmt.Sprintf("not enough tips left for pipette %s", e.Pipette)
}

// Message implements CommandCreatorError.
func (e PipetteVolumeExceeded) Message() string {
	return fmt.Sprintf("attempted to %s %g uL with pipette %s (max %g uL)", e.ActionName, e.Volume, e.Pipette, e.MaxVolume)
}

// Message implements CommandCreatorError.
func (e MissingTemperatureStep) Message() string {
	return fmt.Sprintf("attempted to %s on module %s without a matching target temperature", e.ActionName, e.Module)
}

// Message implements CommandCreatorError.
func (e InvalidParameters) Message() string {
	return fmt.Sprintf("invalid %s for %s: %s", e.Field, e.ActionName, e.Reason)
}

// Message implements CommandCreatorError.
func (e UnknownStepType) Message() string {
	return fmt.Sprintf("unknown step type %q", e.StepType)
}

// AspirateMoreThanWellContents warns that a well held less than requested.
type AspirateMoreThanWellContents struct {
	Labware string `json:"labware"`
	Well    string `json:"well"`
}

// AspirateFromPristineWell warns that a well held no liquid at all.
type AspirateFromPristineWell struct {
	Labware string `json:"labware"`
	Well    string `json:"well"`
}

func (AspirateMoreThanWellContents) Type() WarningType { return WarningAspirateMoreThanWellContents }
func (AspirateFromPristineWell) Type() WarningType     { return WarningAspirateFromPristineWell }

func (AspirateMoreThanWellContents) commandCreatorWarning() {}
func (AspirateFromPristineWell) commandCreatorWarning()     {}

// Message implements CommandCreatorWarning.
func (w AspirateMoreThanWellContents) Message() string {
	return fmt.Sprintf("not enough liquid in %s well %s", w.Labware, w.Well)
}

// Message implements CommandCreatorWarning.
func (w AspirateFromPristineWell) Message() string {
	return fmt.Sprintf("aspirating from %s well %s which has no liquid", w.Labware, w.Well)
}

// ErrorList serializes errors with their type tag and message.
type ErrorList []CommandCreatorError

// MarshalJSON implements json.Marshaler.
func (l ErrorList) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(l))
	for _, e := range l {
		raw, err := marshalTagged(string(e.Type()), e.Message(), e)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// WarningList serializes warnings with their type tag and message.
type WarningList []CommandCreatorWarning

// MarshalJSON implements json.Marshaler.
func (l WarningList) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(l))
	for _, w := range l {
		raw, err := marshalTagged(string(w.Type()), w.Message(), w)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

func marshalTagged(tag, message string, v any) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(tag)
	fields["message"], _ = json.Marshal(message)
	return json.Marshal(fields)
}
