package domain

import (
	"encoding/json"
	"fmt"
)

// ModuleState is the runtime state of a module. It is a closed set: the
// implementations in this package are the only valid values.
type ModuleState interface {
	ModuleType() ModuleType
	cloneModuleState() ModuleState
}

// TemperatureStatus reports where a temperature module is relative to its target.
type TemperatureStatus string

// Temperature module statuses.
const (
	TemperatureDeactivated       TemperatureStatus = "TEMPERATURE_DEACTIVATED"
	TemperatureAtTarget          TemperatureStatus = "TEMPERATURE_AT_TARGET"
	TemperatureApproachingTarget TemperatureStatus = "TEMPERATURE_APPROACHING_TARGET"
)

// MagneticModuleState tracks magnet engagement.
type MagneticModuleState struct {
	Engaged      bool     `json:"engaged"`
	EngageHeight *float64 `json:"engageHeight"`
}

// ModuleType implements ModuleState.
func (MagneticModuleState) ModuleType() ModuleType { return MagneticModuleType }

func (s MagneticModuleState) cloneModuleState() ModuleState {
	s.EngageHeight = cloneFloat(s.EngageHeight)
	return s
}

// TemperatureModuleState tracks the target temperature of a temperature module.
type TemperatureModuleState struct {
	Status            TemperatureStatus `json:"status"`
	TargetTemperature *float64          `json:"targetTemperature"`
}

// ModuleType implements ModuleState.
func (TemperatureModuleState) ModuleType() ModuleType { return TemperatureModuleType }

func (s TemperatureModuleState) cloneModuleState() ModuleState {
	s.TargetTemperature = cloneFloat(s.TargetTemperature)
	return s
}

// ThermocyclerModuleState tracks lid position and block/lid targets. A nil
// LidOpen means the lid position is unknown.
type ThermocyclerModuleState struct {
	LidOpen         *bool    `json:"lidOpen"`
	BlockTargetTemp *float64 `json:"blockTargetTemp"`
	LidTargetTemp   *float64 `json:"lidTargetTemp"`
}

// ModuleType implements ModuleState.
func (ThermocyclerModuleState) ModuleType() ModuleType { return ThermocyclerModuleType }

func (s ThermocyclerModuleState) cloneModuleState() ModuleState {
	if s.LidOpen != nil {
		v := *s.LidOpen
		s.LidOpen = &v
	}
	s.BlockTargetTemp = cloneFloat(s.BlockTargetTemp)
	s.LidTargetTemp = cloneFloat(s.LidTargetTemp)
	return s
}

// InitialModuleState returns the power-on state for a module family.
func InitialModuleState(t ModuleType) (ModuleState, error) {
	switch t {
	case MagneticModuleType:
		return MagneticModuleState{}, nil
	case TemperatureModuleType:
		return TemperatureModuleState{Status: TemperatureDeactivated}, nil
	case ThermocyclerModuleType:
		return ThermocyclerModuleState{}, nil
	default:
		return nil, fmt.Errorf("unknown module type %q", t)
	}
}

// ModuleTemporal is a module's slot plus its runtime state.
type ModuleTemporal struct {
	Slot  string
	State ModuleState
}

type moduleTemporalWire struct {
	Slot        string          `json:"slot"`
	ModuleState json.RawMessage `json:"moduleState"`
}

// MarshalJSON encodes the module state with a "type" discriminator.
func (m ModuleTemporal) MarshalJSON() ([]byte, error) {
	if m.State == nil {
		return json.Marshal(moduleTemporalWire{Slot: m.Slot, ModuleState: json.RawMessage("null")})
	}
	body, err := json.Marshal(m.State)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typ, _ := json.Marshal(m.State.ModuleType())
	fields["type"] = typ
	state, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(moduleTemporalWire{Slot: m.Slot, ModuleState: state})
}

// UnmarshalJSON decodes the discriminated module state.
func (m *ModuleTemporal) UnmarshalJSON(data []byte) error {
	var wire moduleTemporalWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Slot = wire.Slot
	m.State = nil
	if len(wire.ModuleState) == 0 || string(wire.ModuleState) == "null" {
		return nil
	}
	var head struct {
		Type ModuleType `json:"type"`
	}
	if err := json.Unmarshal(wire.ModuleState, &head); err != nil {
		return fmt.Errorf("decode module state: %w", err)
	}
	switch head.Type {
	case MagneticModuleType:
		var s MagneticModuleState
		if err := json.Unmarshal(wire.ModuleState, &s); err != nil {
			return fmt.Errorf("decode magnetic module state: %w", err)
		}
		m.State = s
	case TemperatureModuleType:
		var s TemperatureModuleState
		if err := json.Unmarshal(wire.ModuleState, &s); err != nil {
			return fmt.Errorf("decode temperature module state: %w", err)
		}
		if s.Status == "" {
			s.Status = TemperatureDeactivated
		}
		m.State = s
	case ThermocyclerModuleType:
		var s ThermocyclerModuleState
		if err := json.Unmarshal(wire.ModuleState, &s); err != nil {
			return fmt.Errorf("decode thermocycler state: %w", err)
		}
		m.State = s
	default:
		return fmt.Errorf("unknown module state type %q", head.Type)
	}
	return nil
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
