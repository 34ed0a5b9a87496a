package protocols

import (
	"platewright/internal/faults"
	"platewright/internal/manifest"
	"platewright/internal/protocol"
)

// PCRSetup distributes master mix into one column-wise well per sample,
// adds each template, seals, spins and runs the thermocycle program.
func PCRSetup(p *protocol.Protocol, params manifest.Params) error {
	mix, err := params.Well("master_mix")
	if err != nil {
		return err
	}
	mixVolume, err := params.Quantity("mix_volume")
	if err != nil {
		return err
	}
	samples, err := params.WellGroup("samples")
	if err != nil {
		return err
	}
	templateVolume, err := params.Quantity("template_volume")
	if err != nil {
		return err
	}
	plate, err := params.Container("destination")
	if err != nil {
		return err
	}
	program, err := params.Thermocycle("program")
	if err != nil {
		return err
	}
	lid, err := params.Quantity("lid_temperature")
	if err != nil {
		return err
	}
	if mix.IsZero() || plate == nil || samples.Len() == 0 {
		return faults.Wrapf(faults.ErrUsage, "pcr_setup", "inputs", "master_mix, samples and destination are required")
	}

	reactions, err := plate.WellsFrom("0", samples.Len(), true)
	if err != nil {
		return err
	}
	if err := p.Distribute(mix, reactions, mixVolume); err != nil {
		return err
	}
	if err := p.Transfer(samples, reactions, templateVolume); err != nil {
		return err
	}
	if err := p.Mix(reactions, mixVolume, 3); err != nil {
		return err
	}
	if err := p.Seal(plate, "ultra-clear"); err != nil {
		return err
	}
	if err := p.Spin(plate, spinAcceleration, spinDuration, protocol.SpinOptions{}); err != nil {
		return err
	}
	reactionVolume, err := mixVolume.Add(templateVolume)
	if err != nil {
		return err
	}
	return p.Thermocycle(plate, program, protocol.ThermocycleOptions{
		Volume:         reactionVolume,
		LidTemperature: lid,
		Dataref:        "pcr",
	})
}
