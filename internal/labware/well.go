package labware

import (
	"maps"
	"slices"
	"strings"

	"platewright/internal/faults"
	"platewright/internal/quantity"
)

// Well is a handle to one compartment of a container: the owning container
// plus an index into its well state.
type Well struct {
	c   *Container
	idx int
}

// IsZero reports whether w refers to nothing.
func (w Well) IsZero() bool { return w.c == nil }

func (w Well) Container() *Container { return w.c }
func (w Well) Index() int            { return w.idx }

func (w Well) state() *wellState { return &w.c.wells[w.idx] }

func zeroWell(operation string) error {
	return faults.Wrapf(faults.ErrUsage, "labware", operation, "well handle refers to no container")
}

// Volume returns the tracked volume, or the zero Quantity when never set.
func (w Well) Volume() quantity.Quantity {
	if w.IsZero() {
		return quantity.Quantity{}
	}
	return w.state().volume
}

// SetVolume overwrites the tracked volume. Capacity is not enforced so that
// overfills remain visible in the output.
func (w Well) SetVolume(v quantity.Quantity) error {
	if w.IsZero() {
		return zeroWell("set volume")
	}
	if v.Dimension() != quantity.Volume {
		return faults.Wrapf(faults.ErrDimension, "labware", "set volume", "%q is not a volume", v.String())
	}
	w.state().volume = v
	return nil
}

// AddVolume adjusts the tracked volume by delta, treating an unset volume as
// zero. The result may be negative.
func (w Well) AddVolume(delta quantity.Quantity) error {
	if w.IsZero() {
		return zeroWell("add volume")
	}
	if delta.Dimension() != quantity.Volume {
		return faults.Wrapf(faults.ErrDimension, "labware", "add volume", "%q is not a volume", delta.String())
	}
	current := w.state().volume
	if current.IsZero() {
		w.state().volume = delta
		return nil
	}
	next, err := current.Add(delta)
	if err != nil {
		return err
	}
	w.state().volume = next
	return nil
}

// ExceedsCapacity reports whether the tracked volume is above the type's well
// volume. It is informational only.
func (w Well) ExceedsCapacity() bool {
	if w.IsZero() {
		return false
	}
	capacity := w.c.ctype.WellVolume
	vol := w.Volume()
	if capacity.IsZero() || vol.IsZero() {
		return false
	}
	less, err := capacity.Less(vol)
	return err == nil && less
}

func (w Well) Name() string {
	if w.IsZero() {
		return ""
	}
	return w.state().name
}

// SetName labels the well's contents. It is a no-op on a zero handle.
func (w Well) SetName(name string) {
	if w.IsZero() {
		return
	}
	w.state().name = strings.TrimSpace(name)
}

// Properties returns a copy of the well's string properties.
func (w Well) Properties() map[string]string {
	if w.IsZero() {
		return nil
	}
	return maps.Clone(w.state().properties)
}

func (w Well) SetProperty(key, value string) {
	if w.IsZero() {
		return
	}
	st := w.state()
	if st.properties == nil {
		st.properties = make(map[string]string)
	}
	st.properties[key] = value
}

// Humanize returns the row/column label of the well.
func (w Well) Humanize() string {
	if w.IsZero() {
		return ""
	}
	label, err := w.c.ctype.Humanize(w.idx)
	if err != nil {
		return ""
	}
	return label
}

// String renders "container/index".
func (w Well) String() string {
	if w.IsZero() {
		return ""
	}
	return FormatReference(w.c.name, w.idx)
}

// MarshalText implements encoding.TextMarshaler.
func (w Well) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// WellGroup is an ordered, non-owning list of wells.
type WellGroup []Well

func (g WellGroup) Len() int { return len(g) }

// At returns the i-th member. It fails with an index error out of range.
func (g WellGroup) At(i int) (Well, error) {
	if i < 0 || i >= len(g) {
		return Well{}, faults.Wrapf(faults.ErrIndex, "labware", "well group", "index %d out of range for %d wells", i, len(g))
	}
	return g[i], nil
}

// Slice returns members [from, to) as a new group.
func (g WellGroup) Slice(from, to int) (WellGroup, error) {
	if from < 0 || to > len(g) || from > to {
		return nil, faults.Wrapf(faults.ErrIndex, "labware", "well group", "range [%d:%d] out of range for %d wells", from, to, len(g))
	}
	return slices.Clone(g[from:to]), nil
}

// Append returns a new group with wells added at the end. The receiver is
// left untouched.
func (g WellGroup) Append(wells ...Well) WellGroup {
	out := make(WellGroup, 0, len(g)+len(wells))
	out = append(out, g...)
	return append(out, wells...)
}

// Extend is Append for another group.
func (g WellGroup) Extend(other WellGroup) WellGroup {
	return g.Append(other...)
}

// SetVolume assigns v to every member.
func (g WellGroup) SetVolume(v quantity.Quantity) error {
	for _, w := range g {
		if err := w.SetVolume(v); err != nil {
			return err
		}
	}
	return nil
}

// Indices returns the well indices in order.
func (g WellGroup) Indices() []int {
	out := make([]int, len(g))
	for i, w := range g {
		out[i] = w.idx
	}
	return out
}

// Containers returns the distinct containers in first-seen order.
func (g WellGroup) Containers() []*Container {
	var out []*Container
	seen := map[*Container]struct{}{}
	for _, w := range g {
		if _, ok := seen[w.c]; ok {
			continue
		}
		seen[w.c] = struct{}{}
		out = append(out, w.c)
	}
	return out
}

// Strings renders each member as "container/index".
func (g WellGroup) Strings() []string {
	out := make([]string, len(g))
	for i, w := range g {
		out[i] = w.String()
	}
	return out
}
