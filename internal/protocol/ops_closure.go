package protocol

import (
	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/logging"
)

// Seal puts a seal of kind on c. Sealing a container that already carries
// the same seal only marks it as requested.
func (p *Protocol) Seal(c *labware.Container, kind string) error {
	if err := p.explicitClosure(c, OpSeal); err != nil {
		return err
	}
	ctype := c.Type()
	if !ctype.SupportsSeal(kind) {
		return faults.Wrapf(faults.ErrType, component, OpSeal, "%s does not accept seal %q (seal types %v)", ctype.Shortname, kind, ctype.SealTypes)
	}
	closure := c.Closure()
	switch closure.Kind {
	case labware.Covered:
		return faults.Wrapf(faults.ErrUsage, component, OpSeal, "%s has %s; uncover it before sealing", c.Name(), closure)
	case labware.Sealed:
		if closure.Type != kind {
			return faults.Wrapf(faults.ErrUsage, component, OpSeal, "%s already has %s; unseal it first", c.Name(), closure)
		}
		p.markExplicit(c)
		return nil
	}
	p.append(OpSeal, SealData{objectField: objectField{c.Name()}, Type: kind})
	c.SetClosure(labware.Closure{Kind: labware.Sealed, Type: kind, Origin: labware.OriginExplicit})
	return nil
}

// Cover puts a lid of kind on c.
func (p *Protocol) Cover(c *labware.Container, kind string) error {
	if err := p.explicitClosure(c, OpCover); err != nil {
		return err
	}
	ctype := c.Type()
	if !ctype.SupportsCover(kind) {
		return faults.Wrapf(faults.ErrType, component, OpCover, "%s does not accept lid %q (cover types %v)", ctype.Shortname, kind, ctype.CoverTypes)
	}
	closure := c.Closure()
	switch closure.Kind {
	case labware.Sealed:
		return faults.Wrapf(faults.ErrUsage, component, OpCover, "%s has %s; unseal it before covering", c.Name(), closure)
	case labware.Covered:
		if closure.Type != kind {
			return faults.Wrapf(faults.ErrUsage, component, OpCover, "%s already has %s; uncover it first", c.Name(), closure)
		}
		p.markExplicit(c)
		return nil
	}
	p.append(OpCover, CoverData{objectField: objectField{c.Name()}, Lid: kind})
	c.SetClosure(labware.Closure{Kind: labware.Covered, Type: kind, Origin: labware.OriginExplicit})
	return nil
}

// Unseal removes a seal. It is a no-op on an open container.
func (p *Protocol) Unseal(c *labware.Container) error {
	if err := p.explicitClosure(c, OpUnseal); err != nil {
		return err
	}
	closure := c.Closure()
	switch closure.Kind {
	case labware.Open:
		return nil
	case labware.Covered:
		return faults.Wrapf(faults.ErrUsage, component, OpUnseal, "%s has %s, not a seal", c.Name(), closure)
	}
	p.append(OpUnseal, UnsealData{objectField{c.Name()}})
	c.SetClosure(labware.Closure{})
	return nil
}

// Uncover removes a lid. It is a no-op on an open container.
func (p *Protocol) Uncover(c *labware.Container) error {
	if err := p.explicitClosure(c, OpUncover); err != nil {
		return err
	}
	closure := c.Closure()
	switch closure.Kind {
	case labware.Open:
		return nil
	case labware.Sealed:
		return faults.Wrapf(faults.ErrUsage, component, OpUncover, "%s has %s, not a lid", c.Name(), closure)
	}
	p.append(OpUncover, UncoverData{objectField{c.Name()}})
	c.SetClosure(labware.Closure{})
	return nil
}

func (p *Protocol) explicitClosure(c *labware.Container, op string) error {
	if err := p.owns(c, op); err != nil {
		return err
	}
	if c.Type().IsTube {
		return faults.Wrapf(faults.ErrUsage, component, op, "%s is a tube; tubes are not covered or sealed", c.Name())
	}
	return nil
}

func (p *Protocol) markExplicit(c *labware.Container) {
	closure := c.Closure()
	if closure.Origin == labware.OriginExplicit {
		return
	}
	closure.Origin = labware.OriginExplicit
	c.SetClosure(closure)
	p.logger.Debug("closure adopted by request",
		logging.String(logging.FieldContainer, c.Name()),
		logging.Stringer("closure", closure),
	)
}
