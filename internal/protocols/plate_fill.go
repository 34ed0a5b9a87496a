package protocols

import (
	"platewright/internal/faults"
	"platewright/internal/manifest"
	"platewright/internal/protocol"
	"platewright/internal/quantity"
)

var (
	spinAcceleration = quantity.Must("1000:g")
	spinDuration     = quantity.Must("1:minute")
)

// PlateFill dispenses volume from source into every well of destination and
// optionally spins the plate down.
func PlateFill(p *protocol.Protocol, params manifest.Params) error {
	source, err := params.Well("source")
	if err != nil {
		return err
	}
	dest, err := params.Container("destination")
	if err != nil {
		return err
	}
	volume, err := params.Quantity("volume")
	if err != nil {
		return err
	}
	spin, err := params.Bool("spin")
	if err != nil {
		return err
	}
	if source.IsZero() || dest == nil {
		return faults.Wrapf(faults.ErrUsage, "plate_fill", "inputs", "source and destination are required")
	}

	req := protocol.DispenseRequest{
		Source:       source,
		Destinations: dest.AllWells(false),
		Volumes:      []quantity.Quantity{volume},
	}
	if err := p.Dispense(req); err != nil {
		return err
	}
	if spin {
		return p.Spin(dest, spinAcceleration, spinDuration, protocol.SpinOptions{})
	}
	return nil
}
