package manifest

import (
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"platewright/internal/faults"
	"platewright/internal/quantity"
)

// Kind tags an input shape.
type Kind string

const (
	KindBool          Kind = "bool"
	KindString        Kind = "string"
	KindChoice        Kind = "choice"
	KindInteger       Kind = "integer"
	KindDecimal       Kind = "decimal"
	KindAliquot       Kind = "aliquot"
	KindAliquots      Kind = "aliquot+"
	KindAliquotGroups Kind = "aliquot++"
	KindContainer     Kind = "container"
	KindContainers    Kind = "container+"
	KindGroup         Kind = "group"
	KindGroups        Kind = "group+"
	KindGroupChoice   Kind = "group-choice"
	KindThermocycle   Kind = "thermocycle"
	KindCSVTable      Kind = "csv-table"
)

// Quantity kinds, each bound to one dimension.
const (
	KindVolume             Kind = "volume"
	KindTime               Kind = "time"
	KindTemperature        Kind = "temperature"
	KindLength             Kind = "length"
	KindMass               Kind = "mass"
	KindAmount             Kind = "amount"
	KindFrequency          Kind = "frequency"
	KindAcceleration       Kind = "acceleration"
	KindFlowrate           Kind = "flowrate"
	KindMolarConcentration Kind = "concentration(molar)"
	KindMassConcentration  Kind = "concentration(mass)"
)

var quantityKinds = map[Kind]quantity.Dimension{
	KindVolume:             quantity.Volume,
	KindTime:               quantity.Time,
	KindTemperature:        quantity.Temperature,
	KindLength:             quantity.Length,
	KindMass:               quantity.Mass,
	KindAmount:             quantity.Amount,
	KindFrequency:          quantity.Frequency,
	KindAcceleration:       quantity.Acceleration,
	KindFlowrate:           quantity.Flowrate,
	KindMolarConcentration: quantity.MolarConcentration,
	KindMassConcentration:  quantity.MassConcentration,
}

var plainKinds = []Kind{
	KindBool, KindString, KindChoice, KindInteger, KindDecimal,
	KindAliquot, KindAliquots, KindAliquotGroups, KindContainer, KindContainers,
	KindGroup, KindGroups, KindGroupChoice, KindThermocycle, KindCSVTable,
}

// Known reports whether k is a supported kind.
func (k Kind) Known() bool {
	_, isQuantity := quantityKinds[k]
	return isQuantity || slices.Contains(plainKinds, k)
}

// Dimension returns the dimension of a quantity kind.
func (k Kind) Dimension() (quantity.Dimension, bool) {
	dim, ok := quantityKinds[k]
	return dim, ok
}

// Input declares one named parameter. Groups carry nested Inputs; choice
// and group-choice carry Options.
type Input struct {
	Kind        Kind
	Label       string
	Description string
	// Default is a raw value resolved like a supplied one. For group-choice
	// it names the selected option.
	Default any
	Options []Option
	Inputs  map[string]Input
}

// Option is one choice. Group-choice options carry their own inputs.
type Option struct {
	Value  string           `yaml:"value"`
	Name   string           `yaml:"name"`
	Inputs map[string]Input `yaml:"inputs"`
}

// UnmarshalYAML accepts either a bare kind ("volume") or a mapping with a
// "type" key.
func (in *Input) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*in = Input{Kind: Kind(node.Value)}
		return nil
	}
	var raw struct {
		Type        Kind             `yaml:"type"`
		Label       string           `yaml:"label"`
		Description string           `yaml:"description"`
		Default     any              `yaml:"default"`
		Options     []Option         `yaml:"options"`
		Inputs      map[string]Input `yaml:"inputs"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*in = Input{
		Kind:        raw.Type,
		Label:       raw.Label,
		Description: raw.Description,
		Default:     raw.Default,
		Options:     raw.Options,
		Inputs:      raw.Inputs,
	}
	return nil
}

// UnmarshalYAML accepts a bare value or a mapping.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*o = Option{Value: node.Value}
		return nil
	}
	type plain Option
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*o = Option(raw)
	return nil
}

// Validate checks the declaration tree rooted at in.
func (in Input) Validate(path string) error {
	if !in.Kind.Known() {
		return faults.Wrapf(faults.ErrConfiguration, component, "schema", "input %q has unknown type %q", path, in.Kind)
	}
	switch in.Kind {
	case KindChoice, KindGroupChoice:
		if len(in.Options) == 0 {
			return faults.Wrapf(faults.ErrConfiguration, component, "schema", "input %q (%s) declares no options", path, in.Kind)
		}
		seen := map[string]struct{}{}
		for _, opt := range in.Options {
			if opt.Value == "" {
				return faults.Wrapf(faults.ErrConfiguration, component, "schema", "input %q has an option without a value", path)
			}
			if _, dup := seen[opt.Value]; dup {
				return faults.Wrapf(faults.ErrConfiguration, component, "schema", "input %q repeats option %q", path, opt.Value)
			}
			seen[opt.Value] = struct{}{}
			if err := validateInputs(joinPath(path, opt.Value), opt.Inputs); err != nil {
				return err
			}
		}
	case KindGroup, KindGroups:
		return validateInputs(path, in.Inputs)
	}
	return nil
}

func validateInputs(path string, inputs map[string]Input) error {
	for _, name := range slices.Sorted(maps.Keys(inputs)) {
		if err := inputs[name].Validate(joinPath(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func (in Input) option(value string) (Option, bool) {
	for _, opt := range in.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

func (in Input) optionValues() []string {
	out := make([]string, len(in.Options))
	for i, opt := range in.Options {
		out[i] = opt.Value
	}
	return out
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
