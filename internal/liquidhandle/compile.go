package liquidhandle

import (
	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/quantity"
)

// ModeParams are the per-transport dispenser settings.
type ModeParams struct {
	LiquidClass      string            `json:"liquid_class,omitempty"`
	VolumeResolution quantity.Quantity `json:"volume_resolution,omitzero"`
}

// IsZero reports whether no setting is present.
func (p ModeParams) IsZero() bool {
	return p.LiquidClass == "" && p.VolumeResolution.IsZero()
}

// Transport is one signed volume movement. Negative volumes aspirate.
type Transport struct {
	Volume     quantity.Quantity `json:"volume"`
	ModeParams ModeParams        `json:"mode_params,omitzero"`
}

// Location is a stop of the dispenser head. Prime and predispense stops have
// no well.
type Location struct {
	Well       labware.Well `json:"location,omitzero"`
	Transports []Transport  `json:"transports"`
}

// Role labels what a location does, for summaries and logging.
func (l Location) Role() string {
	if len(l.Transports) == 0 {
		return "empty"
	}
	switch {
	case l.Transports[0].Volume.Sign() < 0:
		return "aspirate"
	case l.Well.IsZero():
		return "auxiliary"
	default:
		return "dispense"
	}
}

// Compile builds the location sequence for dispensing from source into each
// destination. volumes holds either one volume per destination or a single
// volume applied to all of them.
//
// The sequence is: aspirate at source, prime, predispense, then one location
// per destination. The aspirate is omitted when nothing would be dispensed.
// On success the source loses the aspirated total and each destination gains
// its volume; on failure no location is returned and no volume changes.
func Compile(source labware.Well, destinations labware.WellGroup, volumes []quantity.Quantity, method DispenseMethod) ([]Location, error) {
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if source.IsZero() {
		return nil, faults.Wrapf(faults.ErrUsage, component, "dispense", "a source well is required")
	}
	perDest, err := expandVolumes(destinations, volumes)
	if err != nil {
		return nil, err
	}

	params := method.modeParams()
	prime := method.Prime()
	predispense := method.Predispense()

	total, err := quantity.Sum("microliter", perDest...)
	if err != nil {
		return nil, faults.Wrap(faults.ErrUsage, component, "dispense", "sum destination volumes", err)
	}
	var auxiliary []Location
	for _, aux := range []quantity.Quantity{prime, predispense} {
		if aux.IsZero() {
			continue
		}
		if total, err = total.Add(aux); err != nil {
			return nil, faults.Wrap(faults.ErrUsage, component, "dispense", "sum auxiliary volumes", err)
		}
		auxiliary = append(auxiliary, Location{Transports: []Transport{{Volume: aux, ModeParams: params}}})
	}

	locations := make([]Location, 0, len(destinations)+3)
	if len(auxiliary) > 0 || len(destinations) > 0 {
		locations = append(locations, Location{
			Well:       source,
			Transports: []Transport{{Volume: total.Neg(), ModeParams: params}},
		})
	}
	locations = append(locations, auxiliary...)
	for i, dest := range destinations {
		locations = append(locations, Location{
			Well:       dest,
			Transports: []Transport{{Volume: perDest[i], ModeParams: params}},
		})
	}

	if len(locations) > 0 {
		if err := source.AddVolume(total.Neg()); err != nil {
			return nil, err
		}
		for i, dest := range destinations {
			if err := dest.AddVolume(perDest[i]); err != nil {
				return nil, err
			}
		}
	}
	return locations, nil
}

func expandVolumes(destinations labware.WellGroup, volumes []quantity.Quantity) ([]quantity.Quantity, error) {
	var out []quantity.Quantity
	switch {
	case len(volumes) == 1:
		out = make([]quantity.Quantity, len(destinations))
		for i := range out {
			out[i] = volumes[0]
		}
	case len(volumes) == len(destinations):
		out = volumes
	default:
		return nil, faults.Wrapf(faults.ErrUsage, component, "dispense",
			"%d volumes given for %d destinations", len(volumes), len(destinations))
	}
	for _, v := range out {
		if v.Dimension() != quantity.Volume {
			return nil, faults.Wrapf(faults.ErrDimension, component, "dispense", "%q is not a volume", v.String())
		}
		if v.Sign() < 0 {
			return nil, faults.Wrapf(faults.ErrUsage, component, "dispense", "dispense volume %s must not be negative", v)
		}
	}
	return out, nil
}
