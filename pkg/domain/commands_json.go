package domain

import (
	"encoding/json"
	"fmt"
)

type commandWire struct {
	Command CommandType     `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// MarshalCommand encodes a command as {"command": tag, "params": {...}}.
func MarshalCommand(c Command) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("marshal nil command")
	}
	params, err := json.Marshal(c.commandParams())
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", c.CommandType(), err)
	}
	return json.Marshal(commandWire{Command: c.CommandType(), Params: params})
}

// UnmarshalCommand decodes a single command in the run-engine shape.
func UnmarshalCommand(data []byte) (Command, error) {
	var wire commandWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	decode, ok := commandDecoders[wire.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", wire.Command)
	}
	return decode(wire.Params)
}

func decoderFor[P any](wrap func(P) Command) func(json.RawMessage) (Command, error) {
	return func(raw json.RawMessage) (Command, error) {
		var params P
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		return wrap(params), nil
	}
}

var commandDecoders = map[CommandType]func(json.RawMessage) (Command, error){
	CommandAspirate:                    decoderFor(func(p AspDispAirgapParams) Command { return AspirateCommand{p} }),
	CommandDispense:                    decoderFor(func(p AspDispAirgapParams) Command { return DispenseCommand{p} }),
	CommandAirGap:                      decoderFor(func(p AspDispAirgapParams) Command { return AirGapCommand{p} }),
	CommandBlowout:                     decoderFor(func(p BlowoutParams) Command { return BlowoutCommand{p} }),
	CommandTouchTip:                    decoderFor(func(p TouchTipParams) Command { return TouchTipCommand{p} }),
	CommandPickUpTip:                   decoderFor(func(p PipetteAccessParams) Command { return PickUpTipCommand{p} }),
	CommandDropTip:                     decoderFor(func(p PipetteAccessParams) Command { return DropTipCommand{p} }),
	CommandMoveToWell:                  decoderFor(func(p MoveToWellParams) Command { return MoveToWellCommand{p} }),
	CommandDelay:                       decoderFor(func(p DelayParams) Command { return DelayCommand{p} }),
	CommandEngageMagnet:                decoderFor(func(p EngageMagnetParams) Command { return EngageMagnetCommand{p} }),
	CommandDisengageMagnet:             decoderFor(func(p ModuleOnlyParams) Command { return DisengageMagnetCommand{p} }),
	CommandSetTargetTemperature:        decoderFor(func(p TemperatureParams) Command { return SetTargetTemperatureCommand{p} }),
	CommandAwaitTemperature:            decoderFor(func(p TemperatureParams) Command { return AwaitTemperatureCommand{p} }),
	CommandDeactivateTemperature:       decoderFor(func(p ModuleOnlyParams) Command { return DeactivateTemperatureCommand{p} }),
	CommandThermocyclerOpenLid:         decoderFor(func(p ModuleOnlyParams) Command { return ThermocyclerOpenLidCommand{p} }),
	CommandThermocyclerCloseLid:        decoderFor(func(p ModuleOnlyParams) Command { return ThermocyclerCloseLidCommand{p} }),
	CommandThermocyclerSetBlockTemp:    decoderFor(func(p ThermocyclerSetBlockTempParams) Command { return ThermocyclerSetBlockTempCommand{p} }),
	CommandThermocyclerSetLidTemp:      decoderFor(func(p TemperatureParams) Command { return ThermocyclerSetLidTempCommand{p} }),
	CommandThermocyclerDeactivateBlock: decoderFor(func(p ModuleOnlyParams) Command { return ThermocyclerDeactivateBlockCommand{p} }),
	CommandThermocyclerDeactivateLid:   decoderFor(func(p ModuleOnlyParams) Command { return ThermocyclerDeactivateLidCommand{p} }),
	CommandThermocyclerRunProfile:      decoderFor(func(p ThermocyclerRunProfileParams) Command { return ThermocyclerRunProfileCommand{p} }),
}

// KnownCommandTypes returns every command tag the decoder understands.
func KnownCommandTypes() []CommandType {
	out := make([]CommandType, 0, len(commandDecoders))
	for t := range commandDecoders {
		out = append(out, t)
	}
	return out
}

// CommandList is an ordered command sequence with run-engine JSON encoding.
type CommandList []Command

// MarshalJSON encodes each command in the {"command","params"} shape.
func (l CommandList) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, len(l))
	for i, c := range l {
		raw, err := MarshalCommand(c)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		raws[i] = raw
	}
	return json.Marshal(raws)
}

// UnmarshalJSON decodes a list of run-engine commands.
func (l *CommandList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(CommandList, len(raws))
	for i, raw := range raws {
		c, err := UnmarshalCommand(raw)
		if err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		out[i] = c
	}
	*l = out
	return nil
}
