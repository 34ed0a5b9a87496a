package quantity

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Dimension names the physical dimension a unit measures.
type Dimension string

const (
	Dimensionless      Dimension = "dimensionless"
	Volume             Dimension = "volume"
	Time               Dimension = "time"
	Temperature        Dimension = "temperature"
	Length             Dimension = "length"
	Mass               Dimension = "mass"
	Amount             Dimension = "amount"
	Frequency          Dimension = "frequency"
	Acceleration       Dimension = "acceleration"
	Flowrate           Dimension = "flowrate"
	MolarConcentration Dimension = "concentration(molar)"
	MassConcentration  Dimension = "concentration(mass)"
)

// unit scales are integers relative to the finest unit of the dimension so
// conversions between units of one dimension stay exact.
type unitDef struct {
	name  string
	dim   Dimension
	scale decimal.Decimal
}

var (
	unitsByName  = map[string]*unitDef{}
	unitsByAlias = map[string]*unitDef{}
	unitsByDim   = map[Dimension][]*unitDef{}
)

func register(dim Dimension, name string, scale int64, aliases ...string) {
	u := &unitDef{name: name, dim: dim, scale: decimal.NewFromInt(scale)}
	unitsByName[name] = u
	unitsByAlias[name] = u
	for _, alias := range aliases {
		unitsByAlias[alias] = u
	}
	unitsByDim[dim] = append(unitsByDim[dim], u)
}

func init() {
	register(Dimensionless, "count", 1, "counts", "x")

	register(Volume, "nanoliter", 1, "nanoliters", "nl", "nL")
	register(Volume, "microliter", 1_000, "microliters", "ul", "uL", "µl", "µL")
	register(Volume, "milliliter", 1_000_000, "milliliters", "ml", "mL")
	register(Volume, "liter", 1_000_000_000, "liters", "l", "L")

	register(Time, "millisecond", 1, "milliseconds", "ms")
	register(Time, "second", 1_000, "seconds", "s", "sec")
	register(Time, "minute", 60_000, "minutes", "min")
	register(Time, "hour", 3_600_000, "hours", "h", "hr")

	register(Temperature, "celsius", 1, "degC", "C")

	register(Length, "nanometer", 1, "nanometers", "nm")
	register(Length, "micrometer", 1_000, "micrometers", "um", "µm")
	register(Length, "millimeter", 1_000_000, "millimeters", "mm")
	register(Length, "centimeter", 10_000_000, "centimeters", "cm")
	register(Length, "meter", 1_000_000_000, "meters", "m")

	register(Mass, "picogram", 1, "picograms", "pg")
	register(Mass, "nanogram", 1_000, "nanograms", "ng")
	register(Mass, "microgram", 1_000_000, "micrograms", "ug", "µg")
	register(Mass, "milligram", 1_000_000_000, "milligrams", "mg")
	register(Mass, "gram", 1_000_000_000_000, "grams")

	register(Amount, "picomole", 1, "picomoles", "pmol")
	register(Amount, "nanomole", 1_000, "nanomoles", "nmol")
	register(Amount, "micromole", 1_000_000, "micromoles", "umol", "µmol")
	register(Amount, "millimole", 1_000_000_000, "millimoles", "mmol")
	register(Amount, "mole", 1_000_000_000_000, "moles", "mol")

	register(Frequency, "rpm", 1)
	register(Frequency, "hertz", 60, "Hz", "hz")
	register(Frequency, "kilohertz", 60_000, "kHz", "khz")

	register(Acceleration, "meter/second^2", 100_000, "m/s^2")
	register(Acceleration, "g", 980_665, "gravity")

	register(Flowrate, "nanoliter/second", 1, "nl/s")
	register(Flowrate, "microliter/second", 1_000, "ul/s", "µl/s")
	register(Flowrate, "milliliter/second", 1_000_000, "ml/s")

	register(MolarConcentration, "picomolar", 1, "pM")
	register(MolarConcentration, "nanomolar", 1_000, "nM")
	register(MolarConcentration, "micromolar", 1_000_000, "uM", "µM")
	register(MolarConcentration, "millimolar", 1_000_000_000, "mM")
	register(MolarConcentration, "molar", 1_000_000_000_000, "M")

	register(MassConcentration, "picogram/microliter", 1, "pg/ul")
	register(MassConcentration, "nanogram/microliter", 1_000, "ng/ul", "microgram/milliliter", "ug/ml")
	register(MassConcentration, "microgram/microliter", 1_000_000, "ug/ul", "milligram/milliliter", "mg/ml", "gram/liter", "g/l")

	for dim := range unitsByDim {
		units := unitsByDim[dim]
		sort.SliceStable(units, func(i, j int) bool { return units[i].scale.LessThan(units[j].scale) })
	}
}

func lookupUnit(name string) (*unitDef, bool) {
	name = strings.TrimSpace(name)
	if u, ok := unitsByAlias[name]; ok {
		return u, true
	}
	u, ok := unitsByAlias[strings.ToLower(name)]
	return u, ok
}

// DimensionOf reports the dimension of a unit name or alias.
func DimensionOf(unit string) (Dimension, bool) {
	u, ok := lookupUnit(unit)
	if !ok {
		return "", false
	}
	return u.dim, true
}

// Units returns the canonical unit names of dim from finest to coarsest.
func Units(dim Dimension) []string {
	units := unitsByDim[dim]
	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.name)
	}
	return names
}

// Dimensions returns every registered dimension in sorted order.
func Dimensions() []Dimension {
	dims := make([]Dimension, 0, len(unitsByDim))
	for dim := range unitsByDim {
		dims = append(dims, dim)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })
	return dims
}

func baseUnit(dim Dimension) *unitDef {
	units := unitsByDim[dim]
	if len(units) == 0 {
		return nil
	}
	return units[0]
}
