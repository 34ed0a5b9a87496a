package quantity

import (
	"github.com/shopspring/decimal"

	"platewright/internal/faults"
)

type dimPair struct{ a, b Dimension }

type product struct {
	result Dimension
	// factor converts base(a)*base(b) into the base unit of result.
	factor decimal.Decimal
}

var products = map[dimPair]product{
	// nanoliter/second * millisecond = 1e-3 nanoliter
	{Flowrate, Time}: {result: Volume, factor: decimal.New(1, -3)},
	// picomolar * nanoliter = 1e-21 mole = 1e-9 picomole
	{MolarConcentration, Volume}: {result: Amount, factor: decimal.New(1, -9)},
	// picogram/microliter * nanoliter = 1e-3 picogram
	{MassConcentration, Volume}: {result: Mass, factor: decimal.New(1, -3)},
}

var ratios = map[dimPair]product{
	// nanoliter / millisecond = 1e3 nanoliter/second
	{Volume, Time}: {result: Flowrate, factor: decimal.New(1, 3)},
	// picogram / nanoliter = 1e3 picogram/microliter
	{Mass, Volume}: {result: MassConcentration, factor: decimal.New(1, 3)},
	// picomole / nanoliter = 1e9 picomolar
	{Amount, Volume}: {result: MolarConcentration, factor: decimal.New(1, 9)},
}

// Mul multiplies two quantities. A dimensionless operand scales the other;
// otherwise the pair must be one of the defined cross-dimension products.
func Mul(a, b Quantity) (Quantity, error) {
	if a.IsZero() || b.IsZero() {
		return Quantity{}, faults.Wrapf(faults.ErrDimension, component, "multiply", "operand has no unit")
	}
	if a.unit.dim == Dimensionless {
		return b.Scale(a.base()), nil
	}
	if b.unit.dim == Dimensionless {
		return a.Scale(b.base()), nil
	}
	p, ok := products[dimPair{a.unit.dim, b.unit.dim}]
	if !ok {
		p, ok = products[dimPair{b.unit.dim, a.unit.dim}]
	}
	if !ok {
		return Quantity{}, faults.Wrapf(faults.ErrDimension, component, "multiply", "no product defined for %s and %s",
			a.unit.dim, b.unit.dim)
	}
	return readable(p.result, a.base().Mul(b.base()).Mul(p.factor)), nil
}

// Div divides a by b. Operands of one dimension give a dimensionless ratio;
// the other accepted pairs are listed in ratios.
func Div(a, b Quantity) (Quantity, error) {
	if a.IsZero() || b.IsZero() {
		return Quantity{}, faults.Wrapf(faults.ErrDimension, component, "divide", "operand has no unit")
	}
	if b.base().IsZero() {
		return Quantity{}, faults.Wrapf(faults.ErrUsage, component, "divide", "division of %s by zero", a)
	}
	if b.unit.dim == Dimensionless {
		return Quantity{mag: a.mag.DivRound(b.base(), conversionPrecision), unit: a.unit}, nil
	}
	if a.unit.dim == b.unit.dim {
		return readable(Dimensionless, a.base().DivRound(b.base(), conversionPrecision)), nil
	}
	p, ok := ratios[dimPair{a.unit.dim, b.unit.dim}]
	if !ok {
		return Quantity{}, faults.Wrapf(faults.ErrDimension, component, "divide", "no ratio defined for %s over %s",
			a.unit.dim, b.unit.dim)
	}
	return readable(p.result, a.base().DivRound(b.base(), conversionPrecision).Mul(p.factor)), nil
}

// readable expresses a base magnitude in the coarsest unit that keeps the
// magnitude at least one and exact.
func readable(dim Dimension, base decimal.Decimal) Quantity {
	units := unitsByDim[dim]
	abs := base.Abs()
	for i := len(units) - 1; i > 0; i-- {
		u := units[i]
		if abs.LessThan(u.scale) {
			continue
		}
		mag := base.DivRound(u.scale, conversionPrecision)
		if mag.Mul(u.scale).Equal(base) {
			return Quantity{mag: mag, unit: u}
		}
	}
	return Quantity{mag: base, unit: baseUnit(dim)}
}
