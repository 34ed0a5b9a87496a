package manifest

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/protocol"
	"platewright/internal/quantity"
)

// Resolve registers doc's refs on p and resolves doc's parameters against
// the inputs info declares.
func Resolve(p *protocol.Protocol, info ProtocolInfo, doc Document) (Params, error) {
	if err := RegisterRefs(p, doc.Refs); err != nil {
		return nil, err
	}
	return ResolveParameters(p, info.Inputs, doc.Parameters)
}

// RegisterRefs declares every ref on p in name order and presets any
// aliquot volumes, names and properties.
func RegisterRefs(p *protocol.Protocol, refs map[string]RefDecl) error {
	for _, name := range slices.Sorted(maps.Keys(refs)) {
		decl := refs[name]
		c, err := p.Ref(name, protocol.RefOptions{
			ID:      decl.ID,
			Type:    decl.Type,
			Storage: decl.Store.Where,
			Discard: decl.Discard,
			Cover:   decl.Cover,
		})
		if err != nil {
			return fmt.Errorf("ref %s: %w", name, err)
		}
		for _, addr := range slices.Sorted(maps.Keys(decl.Aliquots)) {
			if err := presetAliquot(c, addr, decl.Aliquots[addr]); err != nil {
				return fmt.Errorf("ref %s: %w", name, err)
			}
		}
	}
	return nil
}

func presetAliquot(c *labware.Container, addr string, decl AliquotDecl) error {
	w, err := c.Well(addr)
	if err != nil {
		return err
	}
	if decl.Volume != "" {
		volume, err := quantity.Parse(decl.Volume)
		if err != nil {
			return err
		}
		if err := w.SetVolume(volume); err != nil {
			return err
		}
	}
	if decl.Name != "" {
		w.SetName(decl.Name)
	}
	for _, key := range slices.Sorted(maps.Keys(decl.Properties)) {
		w.SetProperty(key, decl.Properties[key])
	}
	return nil
}

// ResolveParameters resolves raw against inputs. Every declared input gets
// an entry; raw keys with no declaration are ignored.
func ResolveParameters(p *protocol.Protocol, inputs map[string]Input, raw map[string]any) (Params, error) {
	r := resolver{p: p}
	return r.group("", inputs, raw)
}

type resolver struct {
	p *protocol.Protocol
}

func (r resolver) group(path string, inputs map[string]Input, raw map[string]any) (Params, error) {
	out := make(Params, len(inputs))
	for _, name := range slices.Sorted(maps.Keys(inputs)) {
		value, err := r.resolve(joinPath(path, name), inputs[name], raw[name])
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

func (r resolver) resolve(path string, in Input, raw any) (any, error) {
	if raw == nil {
		if in.Default == nil || in.Kind == KindGroupChoice {
			return r.blank(path, in)
		}
		raw = in.Default
	}
	if dim, ok := in.Kind.Dimension(); ok {
		return r.quantity(path, in, dim, raw)
	}

	switch in.Kind {
	case KindBool:
		return expect[bool](path, in, raw)
	case KindString:
		return expect[string](path, in, raw)
	case KindChoice:
		s, err := expect[string](path, in, raw)
		if err != nil {
			return nil, err
		}
		if _, ok := in.option(s); !ok {
			return nil, usagef(path, in, "%q is not one of %v", s, in.optionValues())
		}
		return s, nil
	case KindInteger:
		return integer(path, in, raw)
	case KindDecimal:
		return decimalValue(path, in, raw)
	case KindAliquot:
		return r.aliquot(path, in, raw)
	case KindAliquots:
		return r.aliquots(path, in, raw)
	case KindAliquotGroups:
		items, err := expect[[]any](path, in, raw)
		if err != nil {
			return nil, err
		}
		out := make([]labware.WellGroup, len(items))
		for i, item := range items {
			if out[i], err = r.aliquots(indexPath(path, i), Input{Kind: KindAliquots}, item); err != nil {
				return nil, err
			}
		}
		return out, nil
	case KindContainer:
		return r.container(path, in, raw)
	case KindContainers:
		items, err := expect[[]any](path, in, raw)
		if err != nil {
			return nil, err
		}
		out := make([]*labware.Container, len(items))
		for i, item := range items {
			if out[i], err = r.container(indexPath(path, i), Input{Kind: KindContainer}, item); err != nil {
				return nil, err
			}
		}
		return out, nil
	case KindGroup:
		m, err := expect[map[string]any](path, in, raw)
		if err != nil {
			return nil, err
		}
		return r.group(path, in.Inputs, m)
	case KindGroups:
		items, err := expect[[]any](path, in, raw)
		if err != nil {
			return nil, err
		}
		out := make([]Params, len(items))
		for i, item := range items {
			itemPath := indexPath(path, i)
			m, err := expect[map[string]any](itemPath, in, item)
			if err != nil {
				return nil, err
			}
			if out[i], err = r.group(itemPath, in.Inputs, m); err != nil {
				return nil, err
			}
		}
		return out, nil
	case KindGroupChoice:
		return r.choice(path, in, raw)
	case KindThermocycle:
		return thermocycle(path, in, raw)
	case KindCSVTable:
		return r.table(path, in, raw)
	}
	return nil, faults.Wrapf(faults.ErrConfiguration, component, "resolve", "input %q has unknown type %q", path, in.Kind)
}

// blank is the value of an absent input.
func (r resolver) blank(path string, in Input) (any, error) {
	switch in.Kind {
	case KindAliquots:
		return labware.WellGroup{}, nil
	case KindAliquotGroups:
		return []labware.WellGroup{}, nil
	case KindContainers:
		return []*labware.Container{}, nil
	case KindGroup:
		return r.group(path, in.Inputs, nil)
	case KindGroups:
		member, err := r.group(indexPath(path, 0), in.Inputs, nil)
		if err != nil {
			return nil, err
		}
		return []Params{member}, nil
	case KindGroupChoice:
		if in.Default != nil {
			return r.choice(path, in, map[string]any{"value": in.Default})
		}
		return Choice{}, nil
	case KindCSVTable:
		return []Params{}, nil
	}
	return nil, nil
}

func (r resolver) quantity(path string, in Input, dim quantity.Dimension, raw any) (any, error) {
	s, err := expect[string](path, in, raw)
	if err != nil {
		return nil, err
	}
	if in.Kind == KindTemperature && slices.Contains(protocol.StorageConditions, s) {
		return s, nil
	}
	q, err := quantity.Parse(s)
	if err != nil {
		return nil, faults.Wrap(faults.ErrUsage, component, "resolve", describe(path, in), err)
	}
	if q.Dimension() != dim {
		return nil, faults.Wrap(faults.ErrUsage, component, "resolve", describe(path, in),
			faults.Wrapf(faults.ErrDimension, "quantity", "check", "%s is %s, not %s", q, q.Dimension(), dim))
	}
	return q, nil
}

func (r resolver) aliquot(path string, in Input, raw any) (labware.Well, error) {
	s, err := expect[string](path, in, raw)
	if err != nil {
		return labware.Well{}, err
	}
	w, err := r.p.Well(s)
	if err != nil {
		return labware.Well{}, faults.Wrap(faults.ErrUsage, component, "resolve", describe(path, in)+fmt.Sprintf(": %q is not a well of a declared container", s), err)
	}
	return w, nil
}

func (r resolver) aliquots(path string, in Input, raw any) (labware.WellGroup, error) {
	items, err := expect[[]any](path, in, raw)
	if err != nil {
		return nil, err
	}
	out := make(labware.WellGroup, len(items))
	for i, item := range items {
		if out[i], err = r.aliquot(indexPath(path, i), Input{Kind: KindAliquot}, item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r resolver) container(path string, in Input, raw any) (*labware.Container, error) {
	s, err := expect[string](path, in, raw)
	if err != nil {
		return nil, err
	}
	c, err := r.p.Container(s)
	if err != nil {
		return nil, faults.Wrap(faults.ErrUsage, component, "resolve", describe(path, in), err)
	}
	return c, nil
}

// choice parses only the selected option. Inputs listed for other declared
// options are ignored; inputs for undeclared options fail.
func (r resolver) choice(path string, in Input, raw any) (Choice, error) {
	m, err := expect[map[string]any](path, in, raw)
	if err != nil {
		return Choice{}, err
	}
	value, ok := m["value"].(string)
	if !ok || value == "" {
		return Choice{}, usagef(path, in, "a string \"value\" naming one of %v is required", in.optionValues())
	}
	selected, ok := in.option(value)
	if !ok {
		return Choice{}, usagef(path, in, "%q is not one of %v", value, in.optionValues())
	}
	var supplied map[string]any
	if rawInputs, present := m["inputs"]; present && rawInputs != nil {
		if supplied, err = expect[map[string]any](joinPath(path, "inputs"), in, rawInputs); err != nil {
			return Choice{}, err
		}
	}
	for _, key := range slices.Sorted(maps.Keys(supplied)) {
		if _, declared := in.option(key); !declared {
			return Choice{}, usagef(path, in, "inputs given for unknown option %q", key)
		}
	}
	var nested map[string]any
	if rawNested, present := supplied[value]; present && rawNested != nil {
		if nested, err = expect[map[string]any](joinPath(path, value), in, rawNested); err != nil {
			return Choice{}, err
		}
	}
	params, err := r.group(joinPath(path, value), selected.Inputs, nested)
	if err != nil {
		return Choice{}, err
	}
	return Choice{Value: value, Inputs: params}, nil
}

// table resolves [columnTypes, rows]: every cell is resolved with the kind
// its column declares.
func (r resolver) table(path string, in Input, raw any) ([]Params, error) {
	parts, err := expect[[]any](path, in, raw)
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, usagef(path, in, "expected [column types, rows], got %d elements", len(parts))
	}
	header, err := expect[map[string]any](joinPath(path, "columns"), in, parts[0])
	if err != nil {
		return nil, err
	}
	columns := make(map[string]Input, len(header))
	for name, kind := range header {
		s, ok := kind.(string)
		if !ok || !Kind(s).Known() {
			return nil, usagef(path, in, "column %q has unsupported type %v", name, kind)
		}
		columns[name] = Input{Kind: Kind(s)}
	}
	rows, err := expect[[]any](joinPath(path, "rows"), in, parts[1])
	if err != nil {
		return nil, err
	}
	out := make([]Params, len(rows))
	for i, row := range rows {
		rowPath := indexPath(path, i)
		cells, err := expect[map[string]any](rowPath, in, row)
		if err != nil {
			return nil, err
		}
		for name := range cells {
			if _, ok := columns[name]; !ok {
				return nil, usagef(rowPath, in, "column %q is not declared", name)
			}
		}
		if out[i], err = r.group(rowPath, columns, cells); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func thermocycle(path string, in Input, raw any) ([]protocol.ThermocycleGroup, error) {
	items, err := expect[[]any](path, in, raw)
	if err != nil {
		return nil, err
	}
	groups := make([]protocol.ThermocycleGroup, len(items))
	for i, item := range items {
		groupPath := indexPath(path, i)
		m, err := expect[map[string]any](groupPath, in, item)
		if err != nil {
			return nil, err
		}
		cycles, err := integer(joinPath(groupPath, "cycles"), Input{Kind: KindInteger}, m["cycles"])
		if err != nil {
			return nil, err
		}
		rawSteps, err := expect[[]any](joinPath(groupPath, "steps"), in, m["steps"])
		if err != nil {
			return nil, err
		}
		steps := make([]protocol.ThermocycleStep, len(rawSteps))
		for j, rawStep := range rawSteps {
			if steps[j], err = thermocycleStep(indexPath(joinPath(groupPath, "steps"), j), in, rawStep); err != nil {
				return nil, err
			}
		}
		groups[i] = protocol.ThermocycleGroup{Cycles: int(cycles), Steps: steps}
	}
	return groups, nil
}

func thermocycleStep(path string, in Input, raw any) (protocol.ThermocycleStep, error) {
	m, err := expect[map[string]any](path, in, raw)
	if err != nil {
		return protocol.ThermocycleStep{}, err
	}
	var step protocol.ThermocycleStep
	if step.Duration, err = quantityField(joinPath(path, "duration"), m["duration"], quantity.Time); err != nil {
		return protocol.ThermocycleStep{}, err
	}
	_, hasTemp := m["temperature"]
	rawGradient, hasGradient := m["gradient"]
	switch {
	case hasTemp == hasGradient:
		return protocol.ThermocycleStep{}, usagef(path, in, "a step needs exactly one of temperature or gradient")
	case hasTemp:
		if step.Temperature, err = quantityField(joinPath(path, "temperature"), m["temperature"], quantity.Temperature); err != nil {
			return protocol.ThermocycleStep{}, err
		}
	default:
		gm, err := expect[map[string]any](joinPath(path, "gradient"), in, rawGradient)
		if err != nil {
			return protocol.ThermocycleStep{}, err
		}
		var g protocol.Gradient
		if g.Top, err = quantityField(joinPath(path, "gradient.top"), gm["top"], quantity.Temperature); err != nil {
			return protocol.ThermocycleStep{}, err
		}
		if g.Bottom, err = quantityField(joinPath(path, "gradient.bottom"), gm["bottom"], quantity.Temperature); err != nil {
			return protocol.ThermocycleStep{}, err
		}
		step.Gradient = &g
	}
	if read, present := m["read"]; present {
		if step.Read, err = expect[bool](joinPath(path, "read"), Input{Kind: KindBool}, read); err != nil {
			return protocol.ThermocycleStep{}, err
		}
	}
	return step, nil
}

func quantityField(path string, raw any, dim quantity.Dimension) (quantity.Quantity, error) {
	in := Input{Kind: Kind(dim)}
	if raw == nil {
		return quantity.Quantity{}, usagef(path, in, "value is required")
	}
	v, err := resolver{}.quantity(path, in, dim, raw)
	if err != nil {
		return quantity.Quantity{}, err
	}
	return v.(quantity.Quantity), nil
}

func integer(path string, in Input, raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, usagef(path, in, "%d overflows", v)
		}
		return int64(v), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
			return int64(v), nil
		}
		return 0, usagef(path, in, "%v is not a whole number", v)
	}
	return 0, usagef(path, in, "expected an integer, got %T", raw)
}

func decimalValue(path string, in Input, raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint64:
		return decimal.NewFromUint64(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	return decimal.Decimal{}, usagef(path, in, "expected a number, got %T", raw)
}

func expect[T any](path string, in Input, raw any) (T, error) {
	v, ok := raw.(T)
	if !ok {
		var zero T
		return zero, usagef(path, in, "expected %s, got %T", typeLabel[T](), raw)
	}
	return v, nil
}

func typeLabel[T any]() string {
	var zero T
	switch any(zero).(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case []any:
		return "a list"
	case map[string]any:
		return "a mapping"
	}
	return fmt.Sprintf("%T", zero)
}

func usagef(path string, in Input, format string, args ...any) error {
	return faults.Wrapf(faults.ErrUsage, component, "resolve", "%s: %s", describe(path, in), fmt.Sprintf(format, args...))
}

func describe(path string, in Input) string {
	name := path
	if in.Label != "" {
		name = fmt.Sprintf("%s (%s)", path, in.Label)
	}
	return fmt.Sprintf("input %q of type %s", name, in.Kind)
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
