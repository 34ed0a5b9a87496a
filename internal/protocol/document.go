package protocol

import (
	"encoding/json"
	"fmt"
	"io"

	"platewright/internal/labware"
	"platewright/internal/logging"
)

// StoreSpec is the end-of-run storage of a ref.
type StoreSpec struct {
	Where string `json:"where"`
}

// RefEntry is the serialized form of one registered container. New names
// the type of a container to create; ID names an existing one.
type RefEntry struct {
	New     string     `json:"new,omitempty"`
	ID      string     `json:"id,omitempty"`
	Store   *StoreSpec `json:"store,omitempty"`
	Discard bool       `json:"discard,omitempty"`
	Cover   string     `json:"cover,omitempty"`
}

// Document is the compiled protocol.
type Document struct {
	Refs         map[string]RefEntry `json:"refs"`
	Instructions []Instruction       `json:"instructions"`
}

// Close appends a closing cover or seal for every container that will be
// stored but is still open, using the type's preference. Tubes, discarded
// containers and closed containers are skipped. It returns the number of
// instructions appended; running it again appends nothing.
func (p *Protocol) Close() int {
	appended := 0
	for _, c := range p.Containers() {
		ctype := c.Type()
		if ctype.IsTube || c.Discard() || !c.Closure().IsOpen() {
			continue
		}
		plan, ok := closingPlan(c)
		if !ok {
			logging.WarnWithContext(p.logger, "container left open", "closing_pass_skipped",
				logging.String(logging.FieldContainer, c.Name()),
				logging.String("type", ctype.Shortname),
				logging.String(logging.FieldErrorHint, "add cover_types or seal_types to the container type"),
				logging.String(logging.FieldImpact, "the container is stored uncovered"),
			)
			continue
		}
		p.apply(plan)
		appended++
	}
	if appended > 0 {
		p.logger.Info("closing pass complete", logging.Int("closed", appended))
	}
	return appended
}

func closingPlan(c *labware.Container) (transition, bool) {
	ctype := c.Type()
	seal := func() (transition, bool) {
		if len(ctype.SealTypes) == 0 {
			return transition{}, false
		}
		return transition{c: c, op: OpSeal, next: labware.Closure{Kind: labware.Sealed, Type: ctype.SealTypes[0], Origin: labware.OriginAuto}, reason: "storage"}, true
	}
	cover := func() (transition, bool) {
		if len(ctype.CoverTypes) == 0 {
			return transition{}, false
		}
		return transition{c: c, op: OpCover, next: labware.Closure{Kind: labware.Covered, Type: ctype.CoverTypes[0], Origin: labware.OriginAuto}, reason: "storage"}, true
	}
	first, second := seal, cover
	if !ctype.SealFirst() {
		first, second = cover, seal
	}
	if t, ok := first(); ok {
		return t, true
	}
	return second()
}

// Document snapshots the refs and the instruction log.
func (p *Protocol) Document() Document {
	refs := make(map[string]RefEntry, len(p.order))
	for _, name := range p.order {
		r := p.refs[name]
		c := r.container
		entry := RefEntry{Cover: r.cover}
		if c.ID() != "" {
			entry.ID = c.ID()
		} else {
			entry.New = c.Type().Shortname
		}
		if c.Discard() {
			entry.Discard = true
		} else {
			entry.Store = &StoreSpec{Where: c.Storage()}
		}
		refs[name] = entry
	}
	instructions := p.Instructions()
	if instructions == nil {
		instructions = []Instruction{}
	}
	return Document{Refs: refs, Instructions: instructions}
}

// MarshalJSON renders the compiled document.
func (p *Protocol) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Document())
}

// WriteJSON writes the document to w, indented when indent is set.
func (p *Protocol) WriteJSON(w io.Writer, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(p.Document()); err != nil {
		return fmt.Errorf("encode protocol document: %w", err)
	}
	return nil
}
