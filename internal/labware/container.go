package labware

import (
	"strconv"
	"strings"

	"platewright/internal/faults"
	"platewright/internal/quantity"
)

// ClosureKind is the coarse closure state of a container.
type ClosureKind int

const (
	Open ClosureKind = iota
	Covered
	Sealed
)

// Origin records who put the current closure in place.
type Origin int

const (
	OriginUnset Origin = iota
	OriginAuto
	OriginExplicit
)

func (o Origin) String() string {
	switch o {
	case OriginAuto:
		return "auto"
	case OriginExplicit:
		return "explicit"
	default:
		return "unset"
	}
}

// Closure is the lid or seal currently on a container.
type Closure struct {
	Kind   ClosureKind
	Type   string
	Origin Origin
}

// String renders "open", "cover:<type>" or "seal:<type>".
func (c Closure) String() string {
	switch c.Kind {
	case Covered:
		return "cover:" + c.Type
	case Sealed:
		return "seal:" + c.Type
	default:
		return "open"
	}
}

// IsOpen reports whether nothing is on the container.
func (c Closure) IsOpen() bool { return c.Kind == Open }

type wellState struct {
	volume     quantity.Quantity
	name       string
	properties map[string]string
}

// Container is one registered vessel. It owns the state of its wells; Well
// values are handles into that state.
type Container struct {
	name    string
	id      string
	ctype   ContainerType
	closure Closure
	storage string
	discard bool
	wells   []wellState
}

// NewContainer creates a container with every well unset.
func NewContainer(name, id string, ctype ContainerType) (*Container, error) {
	if err := ctype.Validate(); err != nil {
		return nil, err
	}
	return &Container{
		name:  name,
		id:    id,
		ctype: ctype,
		wells: make([]wellState, ctype.WellCount),
	}, nil
}

func (c *Container) Name() string        { return c.name }
func (c *Container) ID() string          { return c.id }
func (c *Container) Type() ContainerType { return c.ctype }
func (c *Container) Closure() Closure    { return c.closure }
func (c *Container) Storage() string     { return c.storage }
func (c *Container) Discard() bool       { return c.discard }
func (c *Container) String() string      { return c.name }

// SetClosure replaces the closure state. Transition rules live with the
// protocol builder; this only records the result.
func (c *Container) SetClosure(closure Closure) {
	if closure.Kind == Open {
		closure = Closure{}
	}
	c.closure = closure
}

// SetStorage marks the container to be stored under condition when the run
// ends. It clears any discard intent.
func (c *Container) SetStorage(condition string) {
	c.storage = condition
	c.discard = false
}

// SetDiscard marks the container for disposal when the run ends.
func (c *Container) SetDiscard() {
	c.storage = ""
	c.discard = true
}

// WellAt returns the well at a zero-based index.
func (c *Container) WellAt(idx int) (Well, error) {
	if _, err := c.ctype.checkIndex(idx); err != nil {
		return Well{}, err
	}
	return Well{c: c, idx: idx}, nil
}

// Well resolves a decimal index or row/column label.
func (c *Container) Well(ref string) (Well, error) {
	idx, err := c.ctype.Robotize(ref)
	if err != nil {
		return Well{}, err
	}
	return Well{c: c, idx: idx}, nil
}

// Wells resolves several references in order.
func (c *Container) Wells(refs ...string) (WellGroup, error) {
	group := make(WellGroup, 0, len(refs))
	for _, ref := range refs {
		w, err := c.Well(ref)
		if err != nil {
			return nil, err
		}
		group = append(group, w)
	}
	return group, nil
}

// AllWells returns every well, row by row or column by column.
func (c *Container) AllWells(columnwise bool) WellGroup {
	group := make(WellGroup, 0, c.ctype.WellCount)
	if !columnwise {
		for i := range c.wells {
			group = append(group, Well{c: c, idx: i})
		}
		return group
	}
	rows, cols := c.ctype.RowCount(), c.ctype.ColCount
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			group = append(group, Well{c: c, idx: row*cols + col})
		}
	}
	return group
}

// WellsFrom returns count consecutive wells starting at start, walking rows
// or columns. Running past the last well fails with faults.ErrIndex.
func (c *Container) WellsFrom(start string, count int, columnwise bool) (WellGroup, error) {
	idx, err := c.ctype.Robotize(start)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, faults.Wrapf(faults.ErrUsage, "labware", "wells from", "count must not be negative, got %d", count)
	}
	pos := idx
	if columnwise {
		row, col := c.ctype.Decompose(idx)
		pos = col*c.ctype.RowCount() + row
	}
	if pos+count > c.ctype.WellCount {
		return nil, faults.Wrapf(faults.ErrIndex, "labware", "wells from",
			"%d wells from %s exceeds the %d wells of %s", count, start, c.ctype.WellCount, c.name)
	}
	return c.AllWells(columnwise)[pos : pos+count], nil
}

// InnerWells excludes the outer ring of rows and columns.
func (c *Container) InnerWells(columnwise bool) WellGroup {
	rows, cols := c.ctype.RowCount(), c.ctype.ColCount
	var group WellGroup
	for _, w := range c.AllWells(columnwise) {
		row, col := c.ctype.Decompose(w.idx)
		if row == 0 || col == 0 || row == rows-1 || col == cols-1 {
			continue
		}
		group = append(group, w)
	}
	return group
}

// Quadrant returns the wells of a 384-well plate that share a 96-well head
// position. Quadrant 0 starts at A1, 1 at A2, 2 at B1 and 3 at B2. On a
// 96-well plate quadrant 0 is every well.
func (c *Container) Quadrant(q int) (WellGroup, error) {
	switch c.ctype.WellCount {
	case 96:
		if q != 0 {
			return nil, faults.Wrapf(faults.ErrIndex, "labware", "quadrant", "96-well plates only have quadrant 0, got %d", q)
		}
		return c.AllWells(false), nil
	case 384:
		if q < 0 || q > 3 {
			return nil, faults.Wrapf(faults.ErrIndex, "labware", "quadrant", "quadrant must be 0-3, got %d", q)
		}
		var group WellGroup
		for _, w := range c.AllWells(false) {
			row, col := c.ctype.Decompose(w.idx)
			if row%2 == q/2 && col%2 == q%2 {
				group = append(group, w)
			}
		}
		return group, nil
	default:
		return nil, faults.Wrapf(faults.ErrUsage, "labware", "quadrant",
			"quadrants are defined for 96 and 384 well plates, not %s", c.ctype.Shortname)
	}
}

// WellsFromShape returns the wells a rows x columns head touches when its
// first tip sits at origin. 384-well plates are addressed with a stride of
// two so an SBS96 head spans the plate.
func (c *Container) WellsFromShape(origin string, rows, columns int) (WellGroup, error) {
	if rows <= 0 || columns <= 0 {
		return nil, faults.Wrapf(faults.ErrUsage, "labware", "wells from shape", "shape %dx%d must be positive", rows, columns)
	}
	idx, err := c.ctype.Robotize(origin)
	if err != nil {
		return nil, err
	}
	stride := 1
	if c.ctype.RowCount() >= 16 {
		stride = 2
	}
	originRow, originCol := c.ctype.Decompose(idx)
	lastRow := originRow + (rows-1)*stride
	lastCol := originCol + (columns-1)*stride
	if lastRow >= c.ctype.RowCount() || lastCol >= c.ctype.ColCount {
		return nil, faults.Wrapf(faults.ErrIndex, "labware", "wells from shape",
			"a %dx%d shape at %s does not fit %s", rows, columns, origin, c.name)
	}
	group := make(WellGroup, 0, rows*columns)
	for r := 0; r < rows; r++ {
		for col := 0; col < columns; col++ {
			row := originRow + r*stride
			column := originCol + col*stride
			group = append(group, Well{c: c, idx: row*c.ctype.ColCount + column})
		}
	}
	return group, nil
}

// SplitReference splits "container/address" at its last slash.
func SplitReference(ref string) (container, address string, err error) {
	ref = strings.TrimSpace(ref)
	i := strings.LastIndex(ref, "/")
	if i <= 0 || i == len(ref)-1 {
		return "", "", faults.Wrapf(faults.ErrFormat, "labware", "reference", "%q is not of the form container/address", ref)
	}
	return ref[:i], ref[i+1:], nil
}

// FormatReference renders the canonical "container/index" form.
func FormatReference(container string, idx int) string {
	return container + "/" + strconv.Itoa(idx)
}
