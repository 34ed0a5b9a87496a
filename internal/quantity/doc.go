// Package quantity implements dimensioned values with exact decimal
// magnitudes.
//
// A Quantity pairs a magnitude with a unit drawn from a fixed registry; each
// unit belongs to exactly one Dimension. Quantities print in the canonical
// "<magnitude>:<unit>" form and Parse reverses it exactly. Arithmetic across
// dimensions fails with faults.ErrDimension except for the small set of
// products and ratios listed in products.go.
package quantity
