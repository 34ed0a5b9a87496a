package protocols

import (
	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/manifest"
	"platewright/internal/protocol"
	"platewright/internal/quantity"
)

var defaultWavelength = quantity.Must("600:nanometer")

// SerialDilution fills a row with diluent, seeds its first well with
// sample and carries sample_volume down the row, mixing at every step.
func SerialDilution(p *protocol.Protocol, params manifest.Params) error {
	sample, err := params.Well("sample")
	if err != nil {
		return err
	}
	diluent, err := params.Well("diluent")
	if err != nil {
		return err
	}
	plate, err := params.Container("plate")
	if err != nil {
		return err
	}
	row, err := params.String("row")
	if err != nil {
		return err
	}
	steps, err := params.Int("steps")
	if err != nil {
		return err
	}
	diluentVolume, err := params.Quantity("diluent_volume")
	if err != nil {
		return err
	}
	sampleVolume, err := params.Quantity("sample_volume")
	if err != nil {
		return err
	}
	wavelength, err := params.Quantity("wavelength")
	if err != nil {
		return err
	}
	if sample.IsZero() || diluent.IsZero() || plate == nil {
		return faults.Wrapf(faults.ErrUsage, "serial_dilution", "inputs", "sample, diluent and plate are required")
	}
	if steps < 2 {
		return faults.Wrapf(faults.ErrUsage, "serial_dilution", "inputs", "steps must be at least 2, got %d", steps)
	}
	if wavelength.IsZero() {
		wavelength = defaultWavelength
	}

	wells, err := plate.WellsFrom(row+"1", int(steps), false)
	if err != nil {
		return err
	}
	if err := p.Distribute(diluent, wells[1:], diluentVolume); err != nil {
		return err
	}
	seed, err := diluentVolume.Add(sampleVolume)
	if err != nil {
		return err
	}
	if err := p.Transfer(labware.WellGroup{sample}, wells[:1], seed); err != nil {
		return err
	}
	for i := 1; i < len(wells); i++ {
		if err := p.Transfer(wells[i-1:i], wells[i:i+1], sampleVolume); err != nil {
			return err
		}
		if err := p.Mix(wells[i:i+1], sampleVolume, 3); err != nil {
			return err
		}
	}
	return p.Absorbance(wells, wavelength, "dilution_od", protocol.ReadOptions{})
}
