// Package protocol is the instruction builder. A Protocol is one authoring
// session: it owns the registered containers, the ordered instruction log,
// and the closure state of every container.
//
// Each operation validates its arguments against current state, updates
// well volumes, inserts any cover, seal, uncover or unseal the operation
// needs, and appends its own instruction. A closure the author requested is
// never removed automatically; a closure the builder inserted is. Errors
// abort the current call and leave earlier instructions in place.
//
// Sessions share nothing, so concurrent authoring uses one Protocol per
// goroutine.
package protocol
