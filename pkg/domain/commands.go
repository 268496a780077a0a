package domain

import (
	"encoding/json"
	"fmt"
)

// CommandType is the robot command tag. Values match the run engine's
// command vocabulary and must not change.
type CommandType string

// Robot command tags.
const (
	CommandAspirate                    CommandType = "aspirate"
	CommandDispense                    CommandType = "dispense"
	CommandAirGap                      CommandType = "airGap"
	CommandBlowout                     CommandType = "blowout"
	CommandTouchTip                    CommandType = "touchTip"
	CommandPickUpTip                   CommandType = "pickUpTip"
	CommandDropTip                     CommandType = "dropTip"
	CommandMoveToWell                  CommandType = "moveToWell"
	CommandDelay                       CommandType = "delay"
	CommandEngageMagnet                CommandType = "magneticModule/engageMagnet"
	CommandDisengageMagnet             CommandType = "magneticModule/disengageMagnet"
	CommandSetTargetTemperature        CommandType = "temperatureModule/setTargetTemperature"
	CommandAwaitTemperature            CommandType = "temperatureModule/awaitTemperature"
	CommandDeactivateTemperature       CommandType = "temperatureModule/deactivate"
	CommandThermocyclerOpenLid         CommandType = "thermocycler/openLid"
	CommandThermocyclerCloseLid        CommandType = "thermocycler/closeLid"
	CommandThermocyclerSetBlockTemp    CommandType = "thermocycler/setTargetBlockTemperature"
	CommandThermocyclerSetLidTemp      CommandType = "thermocycler/setTargetLidTemperature"
	CommandThermocyclerDeactivateBlock CommandType = "thermocycler/deactivateBlock"
	CommandThermocyclerDeactivateLid   CommandType = "thermocycler/deactivateLid"
	CommandThermocyclerRunProfile      CommandType = "thermocycler/runProfile"
)

// Command is one low-level robot command. The set of implementations is
// closed; consumers switch on the concrete type.
type Command interface {
	CommandType() CommandType
	commandParams() any
}

// AspDispAirgapParams parameterizes aspirate, dispense and air gap.
type AspDispAirgapParams struct {
	Pipette            string  `json:"pipette"`
	Volume             float64 `json:"volume"`
	Labware            string  `json:"labware"`
	Well               string  `json:"well"`
	OffsetFromBottomMm float64 `json:"offsetFromBottomMm"`
	FlowRate           float64 `json:"flowRate"`
}

// BlowoutParams parameterizes blowout.
type BlowoutParams struct {
	Pipette            string  `json:"pipette"`
	Labware            string  `json:"labware"`
	Well               string  `json:"well"`
	OffsetFromBottomMm float64 `json:"offsetFromBottomMm"`
	FlowRate           float64 `json:"flowRate"`
}

// TouchTipParams parameterizes touch tip.
type TouchTipParams struct {
	Pipette            string  `json:"pipette"`
	Labware            string  `json:"labware"`
	Well               string  `json:"well"`
	OffsetFromBottomMm float64 `json:"offsetFromBottomMm"`
}

// PipetteAccessParams parameterizes pick up tip and drop tip.
type PipetteAccessParams struct {
	Pipette string `json:"pipette"`
	Labware string `json:"labware"`
	Well    string `json:"well"`
}

// Offset is a relative position in millimetres.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MoveToWellParams parameterizes moveToWell.
type MoveToWellParams struct {
	Pipette        string   `json:"pipette"`
	Labware        string   `json:"labware"`
	Well           string   `json:"well"`
	Offset         *Offset  `json:"offset,omitempty"`
	MinimumZHeight *float64 `json:"minimumZHeight,omitempty"`
	ForceDirect    *bool    `json:"forceDirect,omitempty"`
}

// DelayParams parameterizes delay. When UntilResume is set the robot pauses
// until the operator resumes, encoded on the wire as "wait": true.
type DelayParams struct {
	Seconds     float64
	UntilResume bool
	Message     string
}

type delayParamsWire struct {
	Wait    json.RawMessage `json:"wait"`
	Message string          `json:"message,omitempty"`
}

// MarshalJSON encodes wait as either a number of seconds or true.
func (p DelayParams) MarshalJSON() ([]byte, error) {
	wait := []byte("true")
	if !p.UntilResume {
		var err error
		if wait, err = json.Marshal(p.Seconds); err != nil {
			return nil, err
		}
	}
	return json.Marshal(delayParamsWire{Wait: wait, Message: p.Message})
}

// UnmarshalJSON decodes wait from either a number or true.
func (p *DelayParams) UnmarshalJSON(data []byte) error {
	var wire delayParamsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = DelayParams{Message: wire.Message}
	switch string(wire.Wait) {
	case "true":
		p.UntilResume = true
		return nil
	case "", "null", "false":
		return fmt.Errorf("delay wait must be a number of seconds or true")
	}
	return json.Unmarshal(wire.Wait, &p.Seconds)
}

// ModuleOnlyParams parameterizes module commands that only name the module.
type ModuleOnlyParams struct {
	Module string `json:"module"`
}

// EngageMagnetParams parameterizes magnet engagement.
type EngageMagnetParams struct {
	Module       string  `json:"module"`
	EngageHeight float64 `json:"engageHeight"`
}

// TemperatureParams parameterizes temperature targets.
type TemperatureParams struct {
	Module      string  `json:"module"`
	Temperature float64 `json:"temperature"`
}

// ThermocyclerSetBlockTempParams parameterizes the block temperature target.
type ThermocyclerSetBlockTempParams struct {
	Module      string   `json:"module"`
	Temperature float64  `json:"temperature"`
	Volume      *float64 `json:"volume,omitempty"`
}

// ProfileStep is one hold in a thermocycler profile.
type ProfileStep struct {
	Temperature float64 `json:"temperature"`
	HoldTime    float64 `json:"holdTime"`
}

// ThermocyclerRunProfileParams parameterizes a thermocycler profile run.
type ThermocyclerRunProfileParams struct {
	Module  string        `json:"module"`
	Profile []ProfileStep `json:"profile"`
	Volume  float64       `json:"volume"`
}

// AspirateCommand draws liquid into the tip.
type AspirateCommand struct{ Params AspDispAirgapParams }

// DispenseCommand expels liquid from the tip.
type DispenseCommand struct{ Params AspDispAirgapParams }

// AirGapCommand aspirates air above a well.
type AirGapCommand struct{ Params AspDispAirgapParams }

// BlowoutCommand blows out remaining liquid.
type BlowoutCommand struct{ Params BlowoutParams }

// TouchTipCommand touches the tip to the well walls.
type TouchTipCommand struct{ Params TouchTipParams }

// PickUpTipCommand picks a tip up from a tiprack well.
type PickUpTipCommand struct{ Params PipetteAccessParams }

// DropTipCommand drops the attached tip.
type DropTipCommand struct{ Params PipetteAccessParams }

// MoveToWellCommand moves the pipette to a well without liquid handling.
type MoveToWellCommand struct{ Params MoveToWellParams }

// DelayCommand waits for a duration or for the operator.
type DelayCommand struct{ Params DelayParams }

// EngageMagnetCommand raises the magnets of a magnetic module.
type EngageMagnetCommand struct{ Params EngageMagnetParams }

// DisengageMagnetCommand lowers the magnets of a magnetic module.
type DisengageMagnetCommand struct{ Params ModuleOnlyParams }

// SetTargetTemperatureCommand sets a temperature module target.
type SetTargetTemperatureCommand struct{ Params TemperatureParams }

// AwaitTemperatureCommand blocks until a temperature module reaches a target.
type AwaitTemperatureCommand struct{ Params TemperatureParams }

// DeactivateTemperatureCommand turns a temperature module off.
type DeactivateTemperatureCommand struct{ Params ModuleOnlyParams }

// ThermocyclerOpenLidCommand opens the thermocycler lid.
type ThermocyclerOpenLidCommand struct{ Params ModuleOnlyParams }

// ThermocyclerCloseLidCommand closes the thermocycler lid.
type ThermocyclerCloseLidCommand struct{ Params ModuleOnlyParams }

// ThermocyclerSetBlockTempCommand sets the thermocycler block target.
type ThermocyclerSetBlockTempCommand struct{ Params ThermocyclerSetBlockTempParams }

// ThermocyclerSetLidTempCommand sets the thermocycler lid target.
type ThermocyclerSetLidTempCommand struct{ Params TemperatureParams }

// ThermocyclerDeactivateBlockCommand turns the block heater off.
type ThermocyclerDeactivateBlockCommand struct{ Params ModuleOnlyParams }

// ThermocyclerDeactivateLidCommand turns the lid heater off.
type ThermocyclerDeactivateLidCommand struct{ Params ModuleOnlyParams }

// ThermocyclerRunProfileCommand runs a temperature profile.
type ThermocyclerRunProfileCommand struct{ Params ThermocyclerRunProfileParams }

func (AspirateCommand) CommandType() CommandType                    { return CommandAspirate }
func (DispenseCommand) CommandType() CommandType                    { return CommandDispense }
func (AirGapCommand) CommandType() CommandType                      { return CommandAirGap }
func (BlowoutCommand) CommandType() CommandType                     { return CommandBlowout }
func (TouchTipCommand) CommandType() CommandType                    { return CommandTouchTip }
func (PickUpTipCommand) CommandType() CommandType                   { return CommandPickUpTip }
func (DropTipCommand) CommandType() CommandType                     { return CommandDropTip }
func (MoveToWellCommand) CommandType() CommandType                  { return CommandMoveToWell }
func (DelayCommand) CommandType() CommandType                       { return CommandDelay }
func (EngageMagnetCommand) CommandType() CommandType                { return CommandEngageMagnet }
func (DisengageMagnetCommand) CommandType() CommandType             { return CommandDisengageMagnet }
func (SetTargetTemperatureCommand) CommandType() CommandType        { return CommandSetTargetTemperature }
func (AwaitTemperatureCommand) CommandType() CommandType            { return CommandAwaitTemperature }
func (DeactivateTemperatureCommand) CommandType() CommandType       { return CommandDeactivateTemperature }
func (ThermocyclerOpenLidCommand) CommandType() CommandType         { return CommandThermocyclerOpenLid }
func (ThermocyclerCloseLidCommand) CommandType() CommandType        { return CommandThermocyclerCloseLid }
func (ThermocyclerSetBlockTempCommand) CommandType() CommandType    { return CommandThermocyclerSetBlockTemp }
func (ThermocyclerSetLidTempCommand) CommandType() CommandType      { return CommandThermocyclerSetLidTemp }
func (ThermocyclerDeactivateBlockCommand) CommandType() CommandType { return CommandThermocyclerDeactivateBlock }
func (ThermocyclerDeactivateLidCommand) CommandType() CommandType   { return CommandThermocyclerDeactivateLid }
func (ThermocyclerRunProfileCommand) CommandType() CommandType      { return CommandThermocyclerRunProfile }

func (c AspirateCommand) commandParams() any                    { return c.Params }
func (c DispenseCommand) commandParams() any                    { return c.Params }
func (c AirGapCommand) commandParams() any                      { return c.Params }
func (c BlowoutCommand) commandParams() any                     { return c.Params }
func (c TouchTipCommand) commandParams() any                    { return c.Params }
func (c PickUpTipCommand) commandParams() any                   { return c.Params }
func (c DropTipCommand) commandParams() any                     { return c.Params }
func (c MoveToWellCommand) commandParams() any                  { return c.Params }
func (c DelayCommand) commandParams() any                       { return c.Params }
func (c EngageMagnetCommand) commandParams() any                { return c.Params }
func (c DisengageMagnetCommand) commandParams() any             { return c.Params }
func (c SetTargetTemperatureCommand) commandParams() any        { return c.Params }
func (c AwaitTemperatureCommand) commandParams() any            { return c.Params }
func (c DeactivateTemperatureCommand) commandParams() any       { return c.Params }
func (c ThermocyclerOpenLidCommand) commandParams() any         { return c.Params }
func (c ThermocyclerCloseLidCommand) commandParams() any        { return c.Params }
func (c ThermocyclerSetBlockTempCommand) commandParams() any    { return c.Params }
func (c ThermocyclerSetLidTempCommand) commandParams() any      { return c.Params }
func (c ThermocyclerDeactivateBlockCommand) commandParams() any { return c.Params }
func (c ThermocyclerDeactivateLidCommand) commandParams() any   { return c.Params }
func (c ThermocyclerRunProfileCommand) commandParams() any      { return c.Params }
