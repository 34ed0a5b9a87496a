package quantity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"platewright/internal/faults"
)

const component = "quantity"

// conversionPrecision bounds the digits kept when a conversion does not
// terminate, e.g. minutes expressed in hours.
const conversionPrecision = 24

// Quantity is a magnitude tagged with a unit. The zero value carries no unit
// and reports IsZero.
type Quantity struct {
	mag  decimal.Decimal
	unit *unitDef
}

// New builds a quantity from a decimal magnitude and a unit name or alias.
func New(magnitude decimal.Decimal, unit string) (Quantity, error) {
	u, ok := lookupUnit(unit)
	if !ok {
		return Quantity{}, faults.Wrapf(faults.ErrFormat, component, "new", "unknown unit %q", unit)
	}
	return Quantity{mag: magnitude, unit: u}, nil
}

// NewInt is New for integral magnitudes.
func NewInt(magnitude int64, unit string) (Quantity, error) {
	return New(decimal.NewFromInt(magnitude), unit)
}

// Zero returns a zero magnitude in the given unit.
func Zero(unit string) (Quantity, error) {
	return New(decimal.Zero, unit)
}

// Parse reads the canonical "<number>:<unit>" text form.
func Parse(text string) (Quantity, error) {
	raw := strings.TrimSpace(text)
	number, unit, found := strings.Cut(raw, ":")
	if !found || strings.Contains(unit, ":") {
		return Quantity{}, faults.Wrapf(faults.ErrFormat, component, "parse", "%q is not of the form <number>:<unit>", text)
	}
	number = strings.TrimSpace(number)
	unit = strings.TrimSpace(unit)
	if number == "" || unit == "" {
		return Quantity{}, faults.Wrapf(faults.ErrFormat, component, "parse", "%q is not of the form <number>:<unit>", text)
	}
	mag, err := decimal.NewFromString(number)
	if err != nil {
		return Quantity{}, faults.Wrap(faults.ErrFormat, component, "parse", fmt.Sprintf("invalid magnitude in %q", text), err)
	}
	u, ok := lookupUnit(unit)
	if !ok {
		return Quantity{}, faults.Wrapf(faults.ErrFormat, component, "parse", "unknown unit %q in %q", unit, text)
	}
	return Quantity{mag: mag, unit: u}, nil
}

// Must parses text and panics on failure. Intended for constants and tests.
func Must(text string) Quantity {
	q, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return q
}

// IsZero reports whether q is the unitless zero value.
func (q Quantity) IsZero() bool { return q.unit == nil }

// Magnitude returns the numeric part in q's own unit.
func (q Quantity) Magnitude() decimal.Decimal { return q.mag }

// Unit returns the canonical unit name, or "" for the zero value.
func (q Quantity) Unit() string {
	if q.unit == nil {
		return ""
	}
	return q.unit.name
}

// Dimension returns the dimension of q's unit.
func (q Quantity) Dimension() Dimension {
	if q.unit == nil {
		return ""
	}
	return q.unit.dim
}

// Sign returns -1, 0 or 1.
func (q Quantity) Sign() int { return q.mag.Sign() }

// Neg flips the sign of the magnitude.
func (q Quantity) Neg() Quantity { return Quantity{mag: q.mag.Neg(), unit: q.unit} }

// Abs drops the sign of the magnitude.
func (q Quantity) Abs() Quantity { return Quantity{mag: q.mag.Abs(), unit: q.unit} }

// String renders the canonical "<magnitude>:<unit>" form.
func (q Quantity) String() string {
	if q.unit == nil {
		return ""
	}
	return q.mag.String() + ":" + q.unit.name
}

// Float64 returns the magnitude as a float, for display only.
func (q Quantity) Float64() float64 {
	f, _ := q.mag.Float64()
	return f
}

// MarshalText implements encoding.TextMarshaler.
func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text yields the
// zero value.
func (q *Quantity) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*q = Quantity{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func (q Quantity) base() decimal.Decimal {
	return q.mag.Mul(q.unit.scale)
}

func fromBase(base decimal.Decimal, u *unitDef) Quantity {
	mag := base
	if !u.scale.Equal(decimal.NewFromInt(1)) {
		mag = base.DivRound(u.scale, conversionPrecision)
	}
	return Quantity{mag: mag, unit: u}
}

func (q Quantity) requireSameDimension(other Quantity, op string) error {
	if q.unit == nil || other.unit == nil {
		return faults.Wrapf(faults.ErrDimension, component, op, "operand has no unit")
	}
	if q.unit.dim != other.unit.dim {
		return faults.Wrapf(faults.ErrDimension, component, op, "%s (%s) and %s (%s) have different dimensions",
			q, q.unit.dim, other, other.unit.dim)
	}
	return nil
}

func finer(a, b *unitDef) *unitDef {
	if b.scale.LessThan(a.scale) {
		return b
	}
	return a
}

// Add returns q + other expressed in the finer of the two units.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if err := q.requireSameDimension(other, "add"); err != nil {
		return Quantity{}, err
	}
	if q.unit == other.unit {
		return Quantity{mag: q.mag.Add(other.mag), unit: q.unit}, nil
	}
	return fromBase(q.base().Add(other.base()), finer(q.unit, other.unit)), nil
}

// Sub returns q - other expressed in the finer of the two units.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if err := q.requireSameDimension(other, "subtract"); err != nil {
		return Quantity{}, err
	}
	return q.Add(other.Neg())
}

// Scale multiplies q by a dimensionless factor.
func (q Quantity) Scale(factor decimal.Decimal) Quantity {
	return Quantity{mag: q.mag.Mul(factor), unit: q.unit}
}

// ScaleInt multiplies q by an integer count.
func (q Quantity) ScaleInt(n int64) Quantity {
	return q.Scale(decimal.NewFromInt(n))
}

// To converts q into another unit of the same dimension.
func (q Quantity) To(unit string) (Quantity, error) {
	u, ok := lookupUnit(unit)
	if !ok {
		return Quantity{}, faults.Wrapf(faults.ErrFormat, component, "convert", "unknown unit %q", unit)
	}
	if q.unit == nil || q.unit.dim != u.dim {
		return Quantity{}, faults.Wrapf(faults.ErrDimension, component, "convert", "cannot convert %s to %s", q, u.name)
	}
	if q.unit == u {
		return q, nil
	}
	return fromBase(q.base(), u), nil
}

// Cmp compares q with other; both must share a dimension.
func (q Quantity) Cmp(other Quantity) (int, error) {
	if err := q.requireSameDimension(other, "compare"); err != nil {
		return 0, err
	}
	return q.base().Cmp(other.base()), nil
}

// Equal reports whether q and other share a dimension and amount. Quantities
// of different dimensions are never equal.
func (q Quantity) Equal(other Quantity) bool {
	if q.unit == nil || other.unit == nil {
		return q.unit == other.unit
	}
	c, err := q.Cmp(other)
	return err == nil && c == 0
}

// Less reports q < other, failing across dimensions.
func (q Quantity) Less(other Quantity) (bool, error) {
	c, err := q.Cmp(other)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}

// Sum adds every quantity in qs. An empty list yields a zero of unit.
func Sum(unit string, qs ...Quantity) (Quantity, error) {
	total, err := Zero(unit)
	if err != nil {
		return Quantity{}, err
	}
	for _, q := range qs {
		if total, err = total.Add(q); err != nil {
			return Quantity{}, err
		}
	}
	return total, nil
}
