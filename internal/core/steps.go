package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"stepgen/pkg/domain"
)

// StepDecoder turns a protocol step's JSON arguments into a creator.
type StepDecoder func(args json.RawMessage) (CurriedCommandCreator, error)

// StepFor adapts a creator into a StepDecoder. Unknown argument fields are
// rejected.
func StepFor[A any](creator CommandCreator[A]) StepDecoder {
	return func(raw json.RawMessage) (CurriedCommandCreator, error) {
		var args A
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&args); err != nil {
				return nil, err
			}
		}
		return Curry(creator, args), nil
	}
}

// StepRegistry maps protocol step types to their decoders.
type StepRegistry struct {
	decoders map[string]StepDecoder
}

// NewStepRegistry constructs an empty registry.
func NewStepRegistry() *StepRegistry {
	return &StepRegistry{decoders: make(map[string]StepDecoder)}
}

// NewDefaultStepRegistry registers every built-in step type.
func NewDefaultStepRegistry() *StepRegistry {
	r := NewStepRegistry()
	for stepType, decoder := range map[string]StepDecoder{
		"aspirate":                        StepFor(Aspirate),
		"dispense":                        StepFor(Dispense),
		"airGap":                          StepFor(AirGap),
		"blowout":                         StepFor(Blowout),
		"touchTip":                        StepFor(TouchTip),
		"moveToWell":                      StepFor(MoveToWell),
		"pickUpTip":                       StepFor(PickUpTip),
		"dropTip":                         StepFor(DropTip),
		"replaceTip":                      StepFor(ReplaceTip),
		"delay":                           StepFor(Delay),
		"pause":                           StepFor(Pause),
		"engageMagnet":                    StepFor(EngageMagnet),
		"disengageMagnet":                 StepFor(DisengageMagnet),
		"setTemperature":                  StepFor(SetTemperature),
		"awaitTemperature":                StepFor(AwaitTemperature),
		"deactivateTemperature":           StepFor(DeactivateTemperature),
		"thermocyclerOpenLid":             StepFor(ThermocyclerOpenLid),
		"thermocyclerCloseLid":            StepFor(ThermocyclerCloseLid),
		"thermocyclerSetBlockTemperature": StepFor(ThermocyclerSetBlockTemperature),
		"thermocyclerSetLidTemperature":   StepFor(ThermocyclerSetLidTemperature),
		"thermocyclerDeactivateBlock":     StepFor(ThermocyclerDeactivateBlock),
		"thermocyclerDeactivateLid":       StepFor(ThermocyclerDeactivateLid),
		"thermocyclerRunProfile":          StepFor(ThermocyclerRunProfile),
		"mix":                             StepFor(Mix),
		"transfer":                        StepFor(Transfer),
		"consolidate":                     StepFor(Consolidate),
		"distribute":                      StepFor(Distribute),
	} {
		r.mustRegister(stepType, decoder)
	}
	return r
}

func (r *StepRegistry) mustRegister(stepType string, decoder StepDecoder) {
	if err := r.Register(stepType, decoder); err != nil {
		panic(fmt.Sprintf("core: built-in step: %v", err))
	}
}

// Register adds a decoder for stepType.
func (r *StepRegistry) Register(stepType string, decoder StepDecoder) error {
	if stepType == "" {
		return fmt.Errorf("step type cannot be empty")
	}
	if decoder == nil {
		return fmt.Errorf("step type %s: decoder cannot be nil", stepType)
	}
	if _, exists := r.decoders[stepType]; exists {
		return fmt.Errorf("step type %s already registered", stepType)
	}
	r.decoders[stepType] = decoder
	return nil
}

// Types returns the registered step types in sorted order.
func (r *StepRegistry) Types() []string {
	out := make([]string, 0, len(r.decoders))
	for stepType := range r.decoders {
		out = append(out, stepType)
	}
	sort.Strings(out)
	return out
}

// Build returns the creator for one step. Unknown step types and
// undecodable arguments become creators that report the problem as a
// command creator error, so they surface in the timeline like any other
// failing step.
func (r *StepRegistry) Build(step domain.StepSpec) CurriedCommandCreator {
	decoder, ok := r.decoders[step.Type]
	if !ok {
		return failing(domain.NewUnknownStepType(step.Type))
	}
	creator, err := decoder(step.Args)
	if err != nil {
		return failing(domain.NewInvalidParameters(step.Type, "args", err.Error()))
	}
	return creator
}

// BuildAll builds every step in order.
func (r *StepRegistry) BuildAll(steps []domain.StepSpec) []CurriedCommandCreator {
	out := make([]CurriedCommandCreator, len(steps))
	for i, step := range steps {
		out[i] = r.Build(step)
	}
	return out
}

func failing(err domain.CommandCreatorError) CurriedCommandCreator {
	return func(domain.InvariantContext, domain.RobotState) domain.CommandCreatorResult {
		return domain.ErrorResult(err)
	}
}
