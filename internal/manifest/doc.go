// Package manifest reads protocol manifests and resolves raw parameter
// documents against a protocol's declared inputs.
//
// A schema is a tree of Input values tagged by Kind. Resolve walks the tree
// once, substituting each kind's blank default for missing values and
// coercing present ones strictly: the only conversions are quantity text to
// Quantity and "container/address" strings to wells or containers that the
// session already knows about.
package manifest
