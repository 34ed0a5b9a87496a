package main

import (
	"fmt"

	"platewright/internal/config"
	"platewright/internal/liquidhandle"
	"platewright/internal/protocol"
	"platewright/internal/quantity"
)

// dispenseDefaults converts the [dispense] section into the session
// defaults used when a protocol dispenses without an explicit method.
func dispenseDefaults(d config.Dispense) (liquidhandle.DispenseMethod, protocol.Shape, error) {
	method := liquidhandle.DispenseMethod{
		LiquidClass: d.LiquidClass,
		Chip: liquidhandle.Chip{
			Model:    d.ChipModel,
			Material: d.ChipMaterial,
			Nozzle:   d.ChipNozzle,
		},
	}
	volumes := []struct {
		key  string
		text string
		dst  *quantity.Quantity
	}{
		{"dispense.prime_volume", d.PrimeVolume, &method.PrimeVolume},
		{"dispense.predispense_volume", d.PredispenseVolume, &method.PredispenseVolume},
		{"dispense.volume_resolution", d.VolumeResolution, &method.VolumeResolution},
	}
	for _, v := range volumes {
		if v.text == "" {
			continue
		}
		q, err := quantity.Parse(v.text)
		if err != nil {
			return liquidhandle.DispenseMethod{}, protocol.Shape{}, fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = q
	}
	if err := method.Validate(); err != nil {
		return liquidhandle.DispenseMethod{}, protocol.Shape{}, err
	}
	shape := protocol.Shape{Rows: d.ShapeRows, Columns: d.ShapeColumns}
	return method, shape, nil
}
