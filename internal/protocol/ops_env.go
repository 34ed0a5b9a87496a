package protocol

import (
	"slices"

	"github.com/shopspring/decimal"

	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/quantity"
)

var (
	defaultThermocycleVolume = quantity.Must("10:microliter")
	spinDirections           = map[string][]string{
		"inward":  {"cw"},
		"outward": {"cw", "ccw"},
	}
)

// SpinOptions are the optional spin parameters.
type SpinOptions struct {
	// FlowDirection is "inward" (default) or "outward". Outward spins need
	// liquid access instead of a lid.
	FlowDirection string
	// SpinDirection defaults per flow direction.
	SpinDirection []string
}

// Spin centrifuges c.
func (p *Protocol) Spin(c *labware.Container, acceleration, duration quantity.Quantity, opts SpinOptions) error {
	if err := p.owns(c, OpSpin); err != nil {
		return err
	}
	if err := requireDimension(OpSpin, "acceleration", acceleration, quantity.Acceleration); err != nil {
		return err
	}
	if err := requireDimension(OpSpin, "duration", duration, quantity.Time); err != nil {
		return err
	}
	flow := opts.FlowDirection
	if flow != "" && flow != "inward" && flow != "outward" {
		return faults.Wrapf(faults.ErrUsage, component, OpSpin, "flow direction %q must be inward or outward", flow)
	}
	directions := slices.Clone(opts.SpinDirection)
	if directions == nil && flow != "" {
		directions = slices.Clone(spinDirections[flow])
	}
	if directions != nil && len(directions) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, OpSpin, "spin direction needs at least one of cw, ccw")
	}
	for _, d := range directions {
		if d != "cw" && d != "ccw" {
			return faults.Wrapf(faults.ErrUsage, component, OpSpin, "spin direction %q must be cw or ccw", d)
		}
	}

	var (
		plan transition
		err  error
	)
	if flow == "outward" {
		plan, err = planAccess(c, "outward spin")
	} else {
		plan, err = planLid(c, OpSpin, true)
	}
	if err != nil {
		return err
	}
	p.apply(plan)
	p.append(OpSpin, SpinData{
		objectField:   objectField{c.Name()},
		Acceleration:  acceleration,
		Duration:      duration,
		FlowDirection: flow,
		SpinDirection: directions,
	})
	return nil
}

// IncubateOptions are the optional incubation parameters.
type IncubateOptions struct {
	Shaking    bool
	CO2Percent float64
	// Uncovered skips the automatic lid. Only ambient, non-shaking
	// incubation may be uncovered.
	Uncovered         bool
	TargetTemperature quantity.Quantity
}

// Incubate holds c at where for duration.
func (p *Protocol) Incubate(c *labware.Container, where string, duration quantity.Quantity, opts IncubateOptions) error {
	if err := p.owns(c, OpIncubate); err != nil {
		return err
	}
	if !slices.Contains(StorageConditions, where) {
		return faults.Wrapf(faults.ErrUsage, component, OpIncubate, "location %q is not one of %v", where, StorageConditions)
	}
	if err := requireDimension(OpIncubate, "duration", duration, quantity.Time); err != nil {
		return err
	}
	if opts.Uncovered && (where != "ambient" || opts.Shaking) {
		return faults.Wrapf(faults.ErrUsage, component, OpIncubate, "uncovered incubation must be ambient and not shaking")
	}
	if opts.CO2Percent < 0 || opts.CO2Percent > 100 {
		return faults.Wrapf(faults.ErrUsage, component, OpIncubate, "co2 percent %v must be within 0-100", opts.CO2Percent)
	}
	if !opts.TargetTemperature.IsZero() {
		if err := requireDimension(OpIncubate, "target temperature", opts.TargetTemperature, quantity.Temperature); err != nil {
			return err
		}
	}
	if !opts.Uncovered {
		plan, err := planLid(c, OpIncubate, false)
		if err != nil {
			return err
		}
		p.apply(plan)
	}
	p.append(OpIncubate, IncubateData{
		objectField:       objectField{c.Name()},
		Where:             where,
		Duration:          duration,
		Shaking:           opts.Shaking,
		CO2Percent:        opts.CO2Percent,
		TargetTemperature: opts.TargetTemperature,
	})
	return nil
}

// ThermocycleOptions are the optional thermocycle parameters.
type ThermocycleOptions struct {
	// Volume is the reaction volume, 10 microliters when unset.
	Volume         quantity.Quantity
	LidTemperature quantity.Quantity
	Dataref        string
}

// Thermocycle runs groups on c.
func (p *Protocol) Thermocycle(c *labware.Container, groups []ThermocycleGroup, opts ThermocycleOptions) error {
	if err := p.owns(c, OpThermocycle); err != nil {
		return err
	}
	if err := validateGroups(groups); err != nil {
		return err
	}
	volume := opts.Volume
	if volume.IsZero() {
		volume = defaultThermocycleVolume
	}
	if err := requireDimension(OpThermocycle, "volume", volume, quantity.Volume); err != nil {
		return err
	}
	if err := validateLidTemperature(OpThermocycle, opts.LidTemperature); err != nil {
		return err
	}
	plan, err := planThermocycle(c, OpThermocycle)
	if err != nil {
		return err
	}
	p.apply(plan)
	p.append(OpThermocycle, ThermocycleData{
		objectField:    objectField{c.Name()},
		Groups:         cloneGroups(groups),
		Volume:         volume,
		LidTemperature: opts.LidTemperature,
		Dataref:        opts.Dataref,
	})
	return nil
}

// ThermocycleRamp moves c from start to end temperature over duration.
func (p *Protocol) ThermocycleRamp(c *labware.Container, start, end, duration, lidTemperature quantity.Quantity) error {
	if err := p.owns(c, OpThermocycleRamp); err != nil {
		return err
	}
	if err := requireDimension(OpThermocycleRamp, "start temperature", start, quantity.Temperature); err != nil {
		return err
	}
	if err := requireDimension(OpThermocycleRamp, "end temperature", end, quantity.Temperature); err != nil {
		return err
	}
	if err := requireDimension(OpThermocycleRamp, "duration", duration, quantity.Time); err != nil {
		return err
	}
	if err := validateLidTemperature(OpThermocycleRamp, lidTemperature); err != nil {
		return err
	}
	plan, err := planThermocycle(c, OpThermocycleRamp)
	if err != nil {
		return err
	}
	p.apply(plan)
	p.append(OpThermocycleRamp, ThermocycleRampData{
		objectField:      objectField{c.Name()},
		StartTemperature: start,
		EndTemperature:   end,
		Duration:         duration,
		LidTemperature:   lidTemperature,
	})
	return nil
}

func validateGroups(groups []ThermocycleGroup) error {
	if len(groups) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, OpThermocycle, "at least one cycle group is required")
	}
	for gi, g := range groups {
		if g.Cycles < 1 {
			return faults.Wrapf(faults.ErrUsage, component, OpThermocycle, "group %d: cycles must be at least 1, got %d", gi, g.Cycles)
		}
		if len(g.Steps) == 0 {
			return faults.Wrapf(faults.ErrUsage, component, OpThermocycle, "group %d has no steps", gi)
		}
		for si, s := range g.Steps {
			if err := requireDimension(OpThermocycle, "step duration", s.Duration, quantity.Time); err != nil {
				return err
			}
			hasTemp := !s.Temperature.IsZero()
			hasGradient := s.Gradient != nil
			if hasTemp == hasGradient {
				return faults.Wrapf(faults.ErrUsage, component, OpThermocycle,
					"group %d step %d needs exactly one of temperature or gradient", gi, si)
			}
			if hasTemp {
				if err := requireDimension(OpThermocycle, "step temperature", s.Temperature, quantity.Temperature); err != nil {
					return err
				}
				continue
			}
			if err := requireDimension(OpThermocycle, "gradient top", s.Gradient.Top, quantity.Temperature); err != nil {
				return err
			}
			if err := requireDimension(OpThermocycle, "gradient bottom", s.Gradient.Bottom, quantity.Temperature); err != nil {
				return err
			}
		}
	}
	return nil
}

func cloneGroups(groups []ThermocycleGroup) []ThermocycleGroup {
	out := make([]ThermocycleGroup, len(groups))
	for i, g := range groups {
		steps := make([]ThermocycleStep, len(g.Steps))
		for j, s := range g.Steps {
			if s.Gradient != nil {
				gradient := *s.Gradient
				s.Gradient = &gradient
			}
			steps[j] = s
		}
		out[i] = ThermocycleGroup{Cycles: g.Cycles, Steps: steps}
	}
	return out
}

func validateLidTemperature(op string, lid quantity.Quantity) error {
	if lid.IsZero() {
		return nil
	}
	if err := requireDimension(op, "lid temperature", lid, quantity.Temperature); err != nil {
		return err
	}
	celsius, err := lid.To("celsius")
	if err != nil {
		return faults.Wrap(faults.ErrUsage, component, op, "lid temperature", err)
	}
	if celsius.Magnitude().LessThan(decimal.NewFromInt(minLidCelsius)) || celsius.Magnitude().GreaterThan(decimal.NewFromInt(maxLidCelsius)) {
		return faults.Wrapf(faults.ErrUsage, component, op, "lid temperature %s must be within %d-%d celsius", lid, minLidCelsius, maxLidCelsius)
	}
	return nil
}

func requireDimension(op, field string, q quantity.Quantity, dim quantity.Dimension) error {
	if q.IsZero() {
		return faults.Wrapf(faults.ErrUsage, component, op, "%s is required", field)
	}
	if q.Dimension() != dim {
		return faults.Wrapf(faults.ErrDimension, component, op, "%s %s is not a %s", field, q, dim)
	}
	return nil
}
