package manifest

import (
	"github.com/shopspring/decimal"

	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/protocol"
	"platewright/internal/quantity"
)

// Params maps input names to resolved values. A value is nil when the input
// was absent and has no blank default; otherwise its Go type follows the
// input kind:
//
//	bool                  bool
//	string, choice        string
//	integer               int64
//	decimal               decimal.Decimal
//	quantity kinds        quantity.Quantity (temperature may be a storage string)
//	aliquot               labware.Well
//	aliquot+              labware.WellGroup
//	aliquot++             []labware.WellGroup
//	container             *labware.Container
//	container+            []*labware.Container
//	group                 Params
//	group+, csv-table     []Params
//	group-choice          Choice
//	thermocycle           []protocol.ThermocycleGroup
type Params map[string]any

// Choice is a resolved group-choice: the selected option and its inputs.
type Choice struct {
	Value  string
	Inputs Params
}

// Selected reports whether an option was chosen.
func (c Choice) Selected() bool { return c.Value != "" }

func lookup[T any](p Params, name string) (T, error) {
	var zero T
	v, ok := p[name]
	if !ok {
		return zero, faults.Wrapf(faults.ErrUsage, component, "params", "input %q is not declared", name)
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, faults.Wrapf(faults.ErrType, component, "params", "input %q holds %T, not %T", name, v, zero)
	}
	return t, nil
}

func (p Params) Bool(name string) (bool, error)       { return lookup[bool](p, name) }
func (p Params) String(name string) (string, error)   { return lookup[string](p, name) }
func (p Params) Int(name string) (int64, error)       { return lookup[int64](p, name) }
func (p Params) Choice(name string) (Choice, error)   { return lookup[Choice](p, name) }
func (p Params) Group(name string) (Params, error)    { return lookup[Params](p, name) }
func (p Params) Groups(name string) ([]Params, error) { return lookup[[]Params](p, name) }

func (p Params) Decimal(name string) (decimal.Decimal, error) {
	return lookup[decimal.Decimal](p, name)
}

func (p Params) Quantity(name string) (quantity.Quantity, error) {
	return lookup[quantity.Quantity](p, name)
}

func (p Params) Well(name string) (labware.Well, error) {
	return lookup[labware.Well](p, name)
}

func (p Params) WellGroup(name string) (labware.WellGroup, error) {
	return lookup[labware.WellGroup](p, name)
}

func (p Params) WellGroups(name string) ([]labware.WellGroup, error) {
	return lookup[[]labware.WellGroup](p, name)
}

func (p Params) Container(name string) (*labware.Container, error) {
	return lookup[*labware.Container](p, name)
}

func (p Params) Containers(name string) ([]*labware.Container, error) {
	return lookup[[]*labware.Container](p, name)
}

func (p Params) Thermocycle(name string) ([]protocol.ThermocycleGroup, error) {
	return lookup[[]protocol.ThermocycleGroup](p, name)
}
