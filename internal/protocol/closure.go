package protocol

import (
	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/logging"
)

const (
	universalCover  = "universal"
	lowEvaporation  = "low_evaporation"
	ultraClear      = "ultra-clear"
	minLidCelsius   = 30
	maxLidCelsius   = 110
	thermocycleNeed = "cover:ultra-clear or seal:ultra-clear"
)

// transition is a planned closure change. Planning never mutates, so an
// operation can check every container it touches before changing any.
type transition struct {
	c      *labware.Container
	op     string
	next   labware.Closure
	reason string
}

func (t transition) noop() bool { return t.op == "" }

// planAccess clears the way for liquid to move in or out of c. Lids do not
// block access. A builder-inserted seal is removed; an author's seal is not.
func planAccess(c *labware.Container, action string) (transition, error) {
	closure := c.Closure()
	if c.Type().IsTube || closure.Kind != labware.Sealed {
		return transition{}, nil
	}
	if closure.Origin == labware.OriginExplicit {
		return transition{}, faults.Wrapf(faults.ErrUsage, component, action,
			"%s is sealed with %s by request; unseal it before %s", c.Name(), closure.Type, action)
	}
	return transition{c: c, op: OpUnseal, next: labware.Closure{}, reason: action}, nil
}

// planLid makes sure c is closed before action. Spins reject low evaporation
// lids.
func planLid(c *labware.Container, action string, spin bool) (transition, error) {
	ctype := c.Type()
	if ctype.IsTube {
		return transition{}, nil
	}
	closure := c.Closure()
	if !closure.IsOpen() {
		if spin && closure.Kind == labware.Covered && closure.Type == lowEvaporation {
			return transition{}, incompatible(c, action, "a lid that stays on in the centrifuge")
		}
		return transition{}, nil
	}

	for _, kind := range coverPreference(ctype) {
		if spin && kind == lowEvaporation {
			continue
		}
		return transition{c: c, op: OpCover, next: labware.Closure{Kind: labware.Covered, Type: kind, Origin: labware.OriginAuto}, reason: action}, nil
	}
	if len(ctype.SealTypes) > 0 {
		return transition{c: c, op: OpSeal, next: labware.Closure{Kind: labware.Sealed, Type: ctype.SealTypes[0], Origin: labware.OriginAuto}, reason: action}, nil
	}
	return transition{}, faults.Wrapf(faults.ErrType, component, action,
		"%s needs a lid or seal but %s lists none", c.Name(), ctype.Shortname)
}

// coverPreference orders the type's lids with universal first.
func coverPreference(ctype labware.ContainerType) []string {
	out := make([]string, 0, len(ctype.CoverTypes))
	if ctype.SupportsCover(universalCover) {
		out = append(out, universalCover)
	}
	for _, kind := range ctype.CoverTypes {
		if kind != universalCover {
			out = append(out, kind)
		}
	}
	return out
}

// planThermocycle requires an ultra-clear lid or seal, sealing an open
// container.
func planThermocycle(c *labware.Container, action string) (transition, error) {
	ctype := c.Type()
	if ctype.IsTube {
		return transition{}, nil
	}
	closure := c.Closure()
	if !closure.IsOpen() {
		if closure.Type == ultraClear {
			return transition{}, nil
		}
		return transition{}, incompatible(c, action, thermocycleNeed)
	}
	switch {
	case ctype.SupportsSeal(ultraClear):
		return transition{c: c, op: OpSeal, next: labware.Closure{Kind: labware.Sealed, Type: ultraClear, Origin: labware.OriginAuto}, reason: action}, nil
	case ctype.SupportsCover(ultraClear):
		return transition{c: c, op: OpCover, next: labware.Closure{Kind: labware.Covered, Type: ultraClear, Origin: labware.OriginAuto}, reason: action}, nil
	default:
		return transition{}, faults.Wrapf(faults.ErrType, component, action,
			"%s needs %s but %s supports neither", c.Name(), thermocycleNeed, ctype.Shortname)
	}
}

// incompatible reports a closure that does not suit action. An author's
// closure is a usage error; one the builder chose is a type error.
func incompatible(c *labware.Container, action, need string) error {
	closure := c.Closure()
	if closure.Origin == labware.OriginExplicit {
		return faults.Wrapf(faults.ErrUsage, component, action,
			"%s was given %s by request but %s needs %s", c.Name(), closure, action, need)
	}
	return faults.Wrapf(faults.ErrType, component, action,
		"%s has %s but %s needs %s", c.Name(), closure, action, need)
}

// apply records a planned transition as its own instruction.
func (p *Protocol) apply(t transition) {
	if t.noop() {
		return
	}
	name := t.c.Name()
	switch t.op {
	case OpSeal:
		p.append(OpSeal, SealData{objectField: objectField{name}, Type: t.next.Type})
	case OpCover:
		p.append(OpCover, CoverData{objectField: objectField{name}, Lid: t.next.Type})
	case OpUnseal:
		p.append(OpUnseal, UnsealData{objectField{name}})
	case OpUncover:
		p.append(OpUncover, UncoverData{objectField{name}})
	}
	before := t.c.Closure()
	t.c.SetClosure(t.next)
	if p.observer != nil {
		p.observer.ClosureInserted(t.op)
	}
	p.logger.Debug("closure inserted",
		logging.String(logging.FieldOp, t.op),
		logging.String(logging.FieldContainer, name),
		logging.Stringer("from", before),
		logging.Stringer("to", t.next),
		logging.String("reason", t.reason),
	)
}

// planAll plans fn for each distinct container, failing before any change.
func planAll(containers []*labware.Container, action string, fn func(*labware.Container, string) (transition, error)) ([]transition, error) {
	plans := make([]transition, 0, len(containers))
	for _, c := range containers {
		t, err := fn(c, action)
		if err != nil {
			return nil, err
		}
		plans = append(plans, t)
	}
	return plans, nil
}

func (p *Protocol) applyAll(plans []transition) {
	for _, t := range plans {
		p.apply(t)
	}
}
