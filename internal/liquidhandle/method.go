package liquidhandle

import (
	"slices"

	"platewright/internal/faults"
	"platewright/internal/quantity"
)

const component = "liquid_handle"

// Default auxiliary volumes of a dispense.
var (
	DefaultPrimeVolume       = quantity.Must("600:microliter")
	DefaultPredispenseVolume = quantity.Must("10:microliter")
)

var (
	chipModels    = []string{"high_volume"}
	chipMaterials = []string{"silicone", "pfe"}
	chipNozzles   = []string{"standard"}
)

// Chip selects the dispenser chip. Empty members are left to the device.
type Chip struct {
	Model    string `json:"model,omitempty"`
	Material string `json:"material,omitempty"`
	Nozzle   string `json:"nozzle,omitempty"`
}

// IsZero reports whether no chip parameter is set.
func (c Chip) IsZero() bool { return c == Chip{} }

// Validate checks every set member against the supported chips.
func (c Chip) Validate() error {
	if c.Model != "" && !slices.Contains(chipModels, c.Model) {
		return faults.Wrapf(faults.ErrConfiguration, component, "chip", "model %q is not one of %v", c.Model, chipModels)
	}
	if c.Material != "" && !slices.Contains(chipMaterials, c.Material) {
		return faults.Wrapf(faults.ErrConfiguration, component, "chip", "material %q is not one of %v", c.Material, chipMaterials)
	}
	if c.Nozzle != "" && !slices.Contains(chipNozzles, c.Nozzle) {
		return faults.Wrapf(faults.ErrConfiguration, component, "chip", "nozzle %q is not one of %v", c.Nozzle, chipNozzles)
	}
	return nil
}

// DispenseMethod configures one dispense. The zero value dispenses with the
// default prime and predispense volumes.
type DispenseMethod struct {
	// PrimeVolume and PredispenseVolume override the defaults when set.
	PrimeVolume       quantity.Quantity
	PredispenseVolume quantity.Quantity
	// SkipPrime and SkipPredispense drop the auxiliary location entirely.
	SkipPrime        bool
	SkipPredispense  bool
	VolumeResolution quantity.Quantity
	LiquidClass      string
	Chip             Chip
}

// Prime returns the effective prime volume, or the zero Quantity when the
// prime location is skipped.
func (m DispenseMethod) Prime() quantity.Quantity {
	if m.SkipPrime {
		return quantity.Quantity{}
	}
	if m.PrimeVolume.IsZero() {
		return DefaultPrimeVolume
	}
	return m.PrimeVolume
}

// Predispense returns the effective predispense volume, or the zero Quantity
// when the predispense location is skipped.
func (m DispenseMethod) Predispense() quantity.Quantity {
	if m.SkipPredispense {
		return quantity.Quantity{}
	}
	if m.PredispenseVolume.IsZero() {
		return DefaultPredispenseVolume
	}
	return m.PredispenseVolume
}

// Validate checks the chip and the dimensions of every configured volume.
func (m DispenseMethod) Validate() error {
	if err := m.Chip.Validate(); err != nil {
		return err
	}
	for label, q := range map[string]quantity.Quantity{
		"prime volume":       m.PrimeVolume,
		"predispense volume": m.PredispenseVolume,
		"volume resolution":  m.VolumeResolution,
	} {
		if q.IsZero() {
			continue
		}
		if q.Dimension() != quantity.Volume {
			return faults.Wrapf(faults.ErrConfiguration, component, "method", "%s %s is not a volume", label, q)
		}
		if q.Sign() < 0 {
			return faults.Wrapf(faults.ErrConfiguration, component, "method", "%s %s must not be negative", label, q)
		}
	}
	return nil
}

func (m DispenseMethod) modeParams() ModeParams {
	return ModeParams{LiquidClass: m.LiquidClass, VolumeResolution: m.VolumeResolution}
}
