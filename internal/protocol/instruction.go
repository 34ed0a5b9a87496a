package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"platewright/internal/labware"
	"platewright/internal/liquidhandle"
	"platewright/internal/quantity"
)

// Instruction op names.
const (
	OpSeal            = "seal"
	OpUnseal          = "unseal"
	OpCover           = "cover"
	OpUncover         = "uncover"
	OpSpin            = "spin"
	OpIncubate        = "incubate"
	OpThermocycle     = "thermocycle"
	OpThermocycleRamp = "thermocycle_ramp"
	OpPipette         = "pipette"
	OpProvision       = "provision"
	OpLiquidHandle    = "liquid_handle"
	OpAbsorbance      = "absorbance"
	OpFluorescence    = "fluorescence"
	OpLuminescence    = "luminescence"
)

// Instruction is one appended record. Data is one of the *Data types of this
// package and is never modified after the instruction is appended.
type Instruction struct {
	Op   string
	Data any
}

// MarshalJSON flattens Data into a single object led by "op".
func (i Instruction) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(i.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s instruction: %w", i.Op, err)
	}
	op, err := json.Marshal(i.Op)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("marshal %s instruction: data is not an object", i.Op)
	}
	var buf bytes.Buffer
	buf.Grow(len(body) + len(op) + 8)
	buf.WriteString(`{"op":`)
	buf.Write(op)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Object returns the container name the instruction acts on, if it has one.
func (i Instruction) Object() string {
	if o, ok := i.Data.(interface{ object() string }); ok {
		return o.object()
	}
	return ""
}

type objectField struct {
	Object string `json:"object"`
}

func (o objectField) object() string { return o.Object }

type SealData struct {
	objectField
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"`
}

type UnsealData struct {
	objectField
}

type CoverData struct {
	objectField
	Lid string `json:"lid"`
}

type UncoverData struct {
	objectField
}

type SpinData struct {
	objectField
	Acceleration  quantity.Quantity `json:"acceleration"`
	Duration      quantity.Quantity `json:"duration"`
	FlowDirection string            `json:"flow_direction,omitempty"`
	SpinDirection []string          `json:"spin_direction,omitempty"`
}

type IncubateData struct {
	objectField
	Where             string            `json:"where"`
	Duration          quantity.Quantity `json:"duration"`
	Shaking           bool              `json:"shaking"`
	CO2Percent        float64           `json:"co2_percent"`
	TargetTemperature quantity.Quantity `json:"target_temperature,omitzero"`
}

// Gradient spreads a step temperature across the block.
type Gradient struct {
	Top    quantity.Quantity `json:"top"`
	Bottom quantity.Quantity `json:"bottom"`
}

// ThermocycleStep holds either a fixed temperature or a gradient.
type ThermocycleStep struct {
	Duration    quantity.Quantity `json:"duration"`
	Temperature quantity.Quantity `json:"temperature,omitzero"`
	Gradient    *Gradient         `json:"gradient,omitempty"`
	Read        bool              `json:"read,omitempty"`
}

// ThermocycleGroup repeats its steps Cycles times.
type ThermocycleGroup struct {
	Cycles int               `json:"cycles"`
	Steps  []ThermocycleStep `json:"steps"`
}

type ThermocycleData struct {
	objectField
	Groups         []ThermocycleGroup `json:"groups"`
	Volume         quantity.Quantity  `json:"volume"`
	LidTemperature quantity.Quantity  `json:"lid_temperature,omitzero"`
	Dataref        string             `json:"dataref,omitempty"`
}

type ThermocycleRampData struct {
	objectField
	StartTemperature quantity.Quantity `json:"start_temperature"`
	EndTemperature   quantity.Quantity `json:"end_temperature"`
	Duration         quantity.Quantity `json:"duration"`
	LidTemperature   quantity.Quantity `json:"lid_temperature,omitzero"`
}

// TransferStep moves Volume from one well to another.
type TransferStep struct {
	From   labware.Well      `json:"from"`
	To     labware.Well      `json:"to"`
	Volume quantity.Quantity `json:"volume"`
}

// WellVolume pairs a well with the volume moved in or out of it.
type WellVolume struct {
	Well   labware.Well      `json:"well"`
	Volume quantity.Quantity `json:"volume"`
}

type DistributeStep struct {
	From labware.Well `json:"from"`
	To   []WellVolume `json:"to"`
}

type ConsolidateStep struct {
	To   labware.Well `json:"to"`
	From []WellVolume `json:"from"`
}

type MixStep struct {
	Well        labware.Well      `json:"well"`
	Volume      quantity.Quantity `json:"volume"`
	Repetitions int               `json:"repetitions"`
}

// PipetteGroup holds exactly one of its members.
type PipetteGroup struct {
	Transfer    []TransferStep   `json:"transfer,omitempty"`
	Distribute  *DistributeStep  `json:"distribute,omitempty"`
	Consolidate *ConsolidateStep `json:"consolidate,omitempty"`
	Mix         []MixStep        `json:"mix,omitempty"`
}

type PipetteData struct {
	Groups []PipetteGroup `json:"groups"`
}

type ProvisionData struct {
	ResourceID string       `json:"resource_id"`
	To         []WellVolume `json:"to"`
}

// Shape is the dispenser head footprint.
type Shape struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Format  string `json:"format"`
}

// DeviceModeParams are instruction-level dispenser settings.
type DeviceModeParams struct {
	Chip liquidhandle.Chip `json:"x_tempest_chip"`
}

type LiquidHandleData struct {
	Mode       string                  `json:"mode"`
	Shape      Shape                   `json:"shape"`
	Locations  []liquidhandle.Location `json:"locations"`
	ModeParams *DeviceModeParams       `json:"mode_params,omitempty"`
}

type AbsorbanceData struct {
	objectField
	Wells      []int             `json:"wells"`
	Wavelength quantity.Quantity `json:"wavelength"`
	NumFlashes int               `json:"num_flashes"`
	Dataref    string            `json:"dataref"`
}

type FluorescenceData struct {
	objectField
	Wells      []int             `json:"wells"`
	Excitation quantity.Quantity `json:"excitation"`
	Emission   quantity.Quantity `json:"emission"`
	NumFlashes int               `json:"num_flashes"`
	Gain       float64           `json:"gain,omitempty"`
	Dataref    string            `json:"dataref"`
}

type LuminescenceData struct {
	objectField
	Wells   []int  `json:"wells"`
	Dataref string `json:"dataref"`
}
