package protocol

import (
	"strings"

	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/liquidhandle"
	"platewright/internal/logging"
	"platewright/internal/quantity"
)

var defaultShape = Shape{Rows: 8, Columns: 1, Format: "SBS96"}

// Transfer moves volume from each source to the matching destination. A
// single source feeds every destination.
func (p *Protocol) Transfer(from, to labware.WellGroup, volume quantity.Quantity) error {
	const op = "transfer"
	if len(to) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, op, "at least one destination is required")
	}
	if len(from) != 1 && len(from) != len(to) {
		return faults.Wrapf(faults.ErrUsage, component, op, "%d sources cannot pair with %d destinations", len(from), len(to))
	}
	if err := p.liquidArgs(op, volume, joinWells(from, to)...); err != nil {
		return err
	}
	plans, err := planAll(distinctContainers(from, to), op, planAccess)
	if err != nil {
		return err
	}

	steps := make([]TransferStep, len(to))
	for i, dest := range to {
		src := from[0]
		if len(from) > 1 {
			src = from[i]
		}
		steps[i] = TransferStep{From: src, To: dest, Volume: volume}
	}
	for _, s := range steps {
		if err := move(s.From, s.To, volume); err != nil {
			return err
		}
	}
	p.applyAll(plans)
	p.append(OpPipette, PipetteData{Groups: []PipetteGroup{{Transfer: steps}}})
	return nil
}

// Distribute moves volume from one source into each destination.
func (p *Protocol) Distribute(from labware.Well, to labware.WellGroup, volume quantity.Quantity) error {
	const op = "distribute"
	if len(to) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, op, "at least one destination is required")
	}
	if err := p.liquidArgs(op, volume, append(labware.WellGroup{from}, to...)...); err != nil {
		return err
	}
	plans, err := planAll(distinctContainers(labware.WellGroup{from}, to), op, planAccess)
	if err != nil {
		return err
	}
	targets := make([]WellVolume, len(to))
	for i, dest := range to {
		if err := move(from, dest, volume); err != nil {
			return err
		}
		targets[i] = WellVolume{Well: dest, Volume: volume}
	}
	p.applyAll(plans)
	p.append(OpPipette, PipetteData{Groups: []PipetteGroup{{Distribute: &DistributeStep{From: from, To: targets}}}})
	return nil
}

// Consolidate moves volume from each source into one destination.
func (p *Protocol) Consolidate(from labware.WellGroup, to labware.Well, volume quantity.Quantity) error {
	const op = "consolidate"
	if len(from) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, op, "at least one source is required")
	}
	if err := p.liquidArgs(op, volume, append(labware.WellGroup{to}, from...)...); err != nil {
		return err
	}
	plans, err := planAll(distinctContainers(from, labware.WellGroup{to}), op, planAccess)
	if err != nil {
		return err
	}
	sources := make([]WellVolume, len(from))
	for i, src := range from {
		if err := move(src, to, volume); err != nil {
			return err
		}
		sources[i] = WellVolume{Well: src, Volume: volume}
	}
	p.applyAll(plans)
	p.append(OpPipette, PipetteData{Groups: []PipetteGroup{{Consolidate: &ConsolidateStep{To: to, From: sources}}}})
	return nil
}

// Mix aspirates and dispenses volume in each well repetitions times.
// Volumes do not change.
func (p *Protocol) Mix(wells labware.WellGroup, volume quantity.Quantity, repetitions int) error {
	const op = "mix"
	if len(wells) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, op, "at least one well is required")
	}
	if repetitions < 1 {
		return faults.Wrapf(faults.ErrUsage, component, op, "repetitions must be at least 1, got %d", repetitions)
	}
	if err := p.liquidArgs(op, volume, wells...); err != nil {
		return err
	}
	plans, err := planAll(wells.Containers(), op, planAccess)
	if err != nil {
		return err
	}
	steps := make([]MixStep, len(wells))
	for i, w := range wells {
		steps[i] = MixStep{Well: w, Volume: volume, Repetitions: repetitions}
	}
	p.applyAll(plans)
	p.append(OpPipette, PipetteData{Groups: []PipetteGroup{{Mix: steps}}})
	return nil
}

// Provision adds volume of a catalogued resource to each well.
func (p *Protocol) Provision(resourceID string, to labware.WellGroup, volume quantity.Quantity) error {
	const op = OpProvision
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return faults.Wrapf(faults.ErrUsage, component, op, "resource id is required")
	}
	if len(to) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, op, "at least one destination is required")
	}
	if err := p.liquidArgs(op, volume, to...); err != nil {
		return err
	}
	plans, err := planAll(to.Containers(), op, planAccess)
	if err != nil {
		return err
	}
	targets := make([]WellVolume, len(to))
	for i, dest := range to {
		if err := dest.AddVolume(volume); err != nil {
			return err
		}
		targets[i] = WellVolume{Well: dest, Volume: volume}
	}
	p.applyAll(plans)
	p.append(OpProvision, ProvisionData{ResourceID: resourceID, To: targets})
	return nil
}

// DispenseRequest describes one reagent dispenser run. Unset Method and
// Shape fall back to the session defaults.
type DispenseRequest struct {
	Source       labware.Well
	Destinations labware.WellGroup
	// Volumes holds one volume per destination or one for all.
	Volumes []quantity.Quantity
	Method  *liquidhandle.DispenseMethod
	Shape   Shape
}

// Dispense compiles a liquid_handle dispense and appends it.
func (p *Protocol) Dispense(req DispenseRequest) error {
	const op = "dispense"
	method := p.dispenseMethod
	if req.Method != nil {
		method = *req.Method
	}
	if err := method.Validate(); err != nil {
		return err
	}
	shape := req.Shape
	if shape.Rows == 0 && shape.Columns == 0 {
		shape = p.dispenseShape
	}
	if shape.Rows < 1 || shape.Columns < 1 {
		return faults.Wrapf(faults.ErrUsage, component, op, "shape %dx%d must be positive", shape.Rows, shape.Columns)
	}
	if shape.Format == "" {
		shape.Format = defaultShape.Format
	}
	if len(req.Destinations) == 0 {
		return faults.Wrapf(faults.ErrUsage, component, op, "at least one destination is required")
	}
	if err := p.ownsWells(op, append(labware.WellGroup{req.Source}, req.Destinations...)...); err != nil {
		return err
	}
	plans, err := planAll(distinctContainers(labware.WellGroup{req.Source}, req.Destinations), op, planAccess)
	if err != nil {
		return err
	}

	locations, err := liquidhandle.Compile(req.Source, req.Destinations, req.Volumes, method)
	if err != nil {
		return err
	}
	p.applyAll(plans)

	data := LiquidHandleData{Mode: "dispense", Shape: shape, Locations: locations}
	if !method.Chip.IsZero() {
		data.ModeParams = &DeviceModeParams{Chip: method.Chip}
	}
	p.append(OpLiquidHandle, data)
	if p.observer != nil {
		p.observer.DispenseCompiled(len(locations))
	}
	p.logger.Debug("dispense compiled",
		logging.String(logging.FieldOp, OpLiquidHandle),
		logging.String("source", req.Source.String()),
		logging.Int("destinations", len(req.Destinations)),
		logging.Int("locations", len(locations)),
	)
	return nil
}

func (p *Protocol) liquidArgs(op string, volume quantity.Quantity, wells ...labware.Well) error {
	if err := p.ownsWells(op, wells...); err != nil {
		return err
	}
	if err := requireDimension(op, "volume", volume, quantity.Volume); err != nil {
		return err
	}
	if volume.Sign() < 0 {
		return faults.Wrapf(faults.ErrUsage, component, op, "volume %s must not be negative", volume)
	}
	return nil
}

// move books volume out of src and into dst. Either side may go negative.
func move(src, dst labware.Well, volume quantity.Quantity) error {
	if err := src.AddVolume(volume.Neg()); err != nil {
		return err
	}
	return dst.AddVolume(volume)
}

func distinctContainers(groups ...labware.WellGroup) []*labware.Container {
	return joinWells(groups...).Containers()
}

func joinWells(groups ...labware.WellGroup) labware.WellGroup {
	var all labware.WellGroup
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}
