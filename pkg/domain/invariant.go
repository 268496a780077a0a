// Package domain defines the robot data model, the command vocabulary, and
// the diagnostic catalog shared by the step-generation engine and its callers.
package domain

import "maps"

// FixedTrashID identifies the fixed trash labware that receives dropped tips.
const FixedTrashID = "trashId"

// ModuleType identifies the family a hardware module belongs to.
type ModuleType string

// Supported module families.
const (
	MagneticModuleType     ModuleType = "magneticModuleType"
	TemperatureModuleType  ModuleType = "temperatureModuleType"
	ThermocyclerModuleType ModuleType = "thermocyclerModuleType"
)

// ModuleModel identifies a specific hardware revision of a module.
type ModuleModel string

// Known module models.
const (
	MagneticModuleV1     ModuleModel = "magneticModuleV1"
	MagneticModuleV2     ModuleModel = "magneticModuleV2"
	TemperatureModuleV1  ModuleModel = "temperatureModuleV1"
	TemperatureModuleV2  ModuleModel = "temperatureModuleV2"
	ThermocyclerModuleV1 ModuleModel = "thermocyclerModuleV1"
)

// PipetteGeneration distinguishes pipette hardware generations.
type PipetteGeneration string

// Pipette generations.
const (
	PipetteGen1 PipetteGeneration = "GEN1"
	PipetteGen2 PipetteGeneration = "GEN2"
)

// WellDefinition holds the static geometry of a single well.
type WellDefinition struct {
	Depth             float64 `json:"depth"`
	TotalLiquidVolume float64 `json:"totalLiquidVolume"`
	Shape             string  `json:"shape,omitempty"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
}

// LabwareDefinition is the static description of a labware type.
type LabwareDefinition struct {
	DisplayName string                    `json:"displayName"`
	IsTiprack   bool                      `json:"isTiprack"`
	TipVolume   float64                   `json:"tipVolume,omitempty"`
	Wells       map[string]WellDefinition `json:"wells"`
	// Ordering lists well names column by column, front to back.
	Ordering [][]string `json:"ordering"`
}

// LabwareEntity binds a labware id to its definition.
type LabwareEntity struct {
	ID     string            `json:"id"`
	DefURI string            `json:"labwareDefURI"`
	Def    LabwareDefinition `json:"def"`
}

// ModuleEntity binds a module id to its family and model.
type ModuleEntity struct {
	ID    string      `json:"id"`
	Type  ModuleType  `json:"type"`
	Model ModuleModel `json:"model"`
}

// PipetteSpec captures the hardware capabilities of a pipette model.
type PipetteSpec struct {
	Channels   int               `json:"channels"`
	MaxVolume  float64           `json:"maxVolume"`
	MinVolume  float64           `json:"minVolume"`
	Generation PipetteGeneration `json:"generation"`
}

// PipetteEntity binds a pipette id to its model and tiprack choice.
type PipetteEntity struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Spec          PipetteSpec `json:"spec"`
	TiprackDefURI string      `json:"tiprackDefURI"`
}

// InvariantContext is the protocol-scoped reference data. It is populated
// once when a protocol loads and is only ever read by command creators.
type InvariantContext struct {
	Labware  map[string]LabwareEntity `json:"labwareEntities"`
	Modules  map[string]ModuleEntity  `json:"moduleEntities"`
	Pipettes map[string]PipetteEntity `json:"pipetteEntities"`
}

// Clone returns a deep copy of the context.
func (c InvariantContext) Clone() InvariantContext {
	out := InvariantContext{
		Modules:  maps.Clone(c.Modules),
		Pipettes: maps.Clone(c.Pipettes),
	}
	if c.Labware != nil {
		out.Labware = make(map[string]LabwareEntity, len(c.Labware))
	}
	for id, lw := range c.Labware {
		lw.Def.Wells = maps.Clone(lw.Def.Wells)
		if lw.Def.Ordering != nil {
			cols := make([][]string, len(lw.Def.Ordering))
			for i, col := range lw.Def.Ordering {
				cols[i] = append([]string(nil), col...)
			}
			lw.Def.Ordering = cols
		}
		out.Labware[id] = lw
	}
	return out
}

// WellNames returns the labware's wells in definition order.
func (d LabwareDefinition) WellNames() []string {
	var names []string
	for _, col := range d.Ordering {
		names = append(names, col...)
	}
	return names
}
