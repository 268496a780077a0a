package domain

import (
	"encoding/json"
	"fmt"
)

// ProtocolSchemaVersion is written to exported timelines and history entries.
const ProtocolSchemaVersion = "stepgen/1"

// StepSpec is one ordered protocol step: a registered step type plus its
// JSON-encoded arguments.
type StepSpec struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"type"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ProtocolFile is the on-disk protocol description consumed by the engine.
// The starting robot state comes from InitialRobotState when present and is
// otherwise derived from DeckSetup.
type ProtocolFile struct {
	Name              string           `json:"name"`
	Author            string           `json:"author,omitempty"`
	SchemaVersion     string           `json:"schemaVersion,omitempty"`
	InvariantContext  InvariantContext `json:"invariantContext"`
	InitialRobotState *RobotState      `json:"initialRobotState,omitempty"`
	DeckSetup         *DeckSetup       `json:"deckSetup,omitempty"`
	Steps             []StepSpec       `json:"steps"`
}

// StartingState returns the robot state the first step runs against.
func (p ProtocolFile) StartingState() (RobotState, error) {
	if p.InitialRobotState != nil {
		return p.InitialRobotState.Clone(), nil
	}
	if p.DeckSetup == nil {
		return RobotState{}, fmt.Errorf("protocol %q has neither initialRobotState nor deckSetup", p.Name)
	}
	return NewRobotState(p.InvariantContext, *p.DeckSetup)
}
