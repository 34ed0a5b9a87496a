// Package liquidhandle compiles reagent dispenser requests into the ordered
// locations a liquid_handle instruction carries.
//
// A dispense aspirates everything it needs from one source well, optionally
// primes the chip and predispenses to waste, and then visits each
// destination. Compile is pure with respect to its output: chip settings are
// checked before any location is built, and well volumes are adjusted only
// once the whole sequence exists.
package liquidhandle
