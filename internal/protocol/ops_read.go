package protocol

import (
	"strings"

	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/quantity"
)

const defaultFlashes = 25

// ReadOptions are shared plate reader parameters.
type ReadOptions struct {
	// NumFlashes defaults to 25.
	NumFlashes int
	Gain       float64
}

// Absorbance reads wells at wavelength and stores the data under dataref.
func (p *Protocol) Absorbance(wells labware.WellGroup, wavelength quantity.Quantity, dataref string, opts ReadOptions) error {
	c, indices, err := p.readTarget(OpAbsorbance, wells, dataref)
	if err != nil {
		return err
	}
	if err := requireDimension(OpAbsorbance, "wavelength", wavelength, quantity.Length); err != nil {
		return err
	}
	p.append(OpAbsorbance, AbsorbanceData{
		objectField: objectField{c.Name()},
		Wells:       indices,
		Wavelength:  wavelength,
		NumFlashes:  flashes(opts),
		Dataref:     dataref,
	})
	return nil
}

// Fluorescence reads wells with the given excitation and emission.
func (p *Protocol) Fluorescence(wells labware.WellGroup, excitation, emission quantity.Quantity, dataref string, opts ReadOptions) error {
	c, indices, err := p.readTarget(OpFluorescence, wells, dataref)
	if err != nil {
		return err
	}
	if err := requireDimension(OpFluorescence, "excitation", excitation, quantity.Length); err != nil {
		return err
	}
	if err := requireDimension(OpFluorescence, "emission", emission, quantity.Length); err != nil {
		return err
	}
	if opts.Gain < 0 || opts.Gain > 1 {
		return faults.Wrapf(faults.ErrUsage, component, OpFluorescence, "gain %v must be within 0-1", opts.Gain)
	}
	p.append(OpFluorescence, FluorescenceData{
		objectField: objectField{c.Name()},
		Wells:       indices,
		Excitation:  excitation,
		Emission:    emission,
		NumFlashes:  flashes(opts),
		Gain:        opts.Gain,
		Dataref:     dataref,
	})
	return nil
}

// Luminescence reads wells and stores the data under dataref.
func (p *Protocol) Luminescence(wells labware.WellGroup, dataref string) error {
	c, indices, err := p.readTarget(OpLuminescence, wells, dataref)
	if err != nil {
		return err
	}
	p.append(OpLuminescence, LuminescenceData{
		objectField: objectField{c.Name()},
		Wells:       indices,
		Dataref:     dataref,
	})
	return nil
}

// readTarget checks that wells share one registered container.
func (p *Protocol) readTarget(op string, wells labware.WellGroup, dataref string) (*labware.Container, []int, error) {
	if strings.TrimSpace(dataref) == "" {
		return nil, nil, faults.Wrapf(faults.ErrUsage, component, op, "dataref is required")
	}
	if len(wells) == 0 {
		return nil, nil, faults.Wrapf(faults.ErrUsage, component, op, "at least one well is required")
	}
	if err := p.ownsWells(op, wells...); err != nil {
		return nil, nil, err
	}
	containers := wells.Containers()
	if len(containers) != 1 {
		return nil, nil, faults.Wrapf(faults.ErrUsage, component, op, "wells span %d containers; a read covers one plate", len(containers))
	}
	return containers[0], wells.Indices(), nil
}

func flashes(opts ReadOptions) int {
	if opts.NumFlashes > 0 {
		return opts.NumFlashes
	}
	return defaultFlashes
}
