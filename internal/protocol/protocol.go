package protocol

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"platewright/internal/catalog"
	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/liquidhandle"
	"platewright/internal/logging"
	"platewright/internal/runctx"
)

const component = "builder"

// StorageConditions are the accepted values for a ref's storage and for
// incubation locations.
var StorageConditions = []string{
	"ambient", "warm_30", "warm_35", "warm_37",
	"cold_4", "cold_20", "cold_80", "cold_196",
}

// Observer is notified as instructions are appended.
type Observer interface {
	InstructionEmitted(op string)
	ClosureInserted(op string)
	DispenseCompiled(locations int)
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithLogger sets the base logger. Records are tagged with the builder
// component and the session id.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Protocol) { p.logger = logger }
}

// WithObserver registers an observer such as a metrics recorder.
func WithObserver(o Observer) Option {
	return func(p *Protocol) { p.observer = o }
}

// WithComponentLevels applies the builder entry of a logging
// component_levels table to the session logger.
func WithComponentLevels(levels map[string]string) Option {
	return func(p *Protocol) { p.levels = levels }
}

// WithSessionID replaces the generated session id.
func WithSessionID(id string) Option {
	return func(p *Protocol) {
		if strings.TrimSpace(id) != "" {
			p.sessionID = id
		}
	}
}

// WithDispenseDefaults sets the method and shape used by Dispense when a
// request leaves them unset.
func WithDispenseDefaults(method liquidhandle.DispenseMethod, shape Shape) Option {
	return func(p *Protocol) {
		p.dispenseMethod = method
		if shape.Rows > 0 && shape.Columns > 0 {
			p.dispenseShape = shape
		}
	}
}

type ref struct {
	container *labware.Container
	cover     string
}

// Protocol is one authoring session.
type Protocol struct {
	catalog      *catalog.Catalog
	logger       *slog.Logger
	levels       map[string]string
	observer     Observer
	sessionID    string
	refs         map[string]*ref
	order        []string
	instructions []Instruction

	dispenseMethod liquidhandle.DispenseMethod
	dispenseShape  Shape
}

// New creates an empty session resolving container types from cat.
func New(cat *catalog.Catalog, opts ...Option) *Protocol {
	if cat == nil {
		cat = catalog.MustBuiltin()
	}
	p := &Protocol{
		catalog:       cat,
		sessionID:     uuid.NewString(),
		refs:          make(map[string]*ref),
		dispenseShape: defaultShape,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.ForComponent(p.logger, component, p.levels).With(logging.String(logging.FieldSessionID, p.sessionID))
	return p
}

// SessionID identifies this session in logs.
func (p *Protocol) SessionID() string { return p.sessionID }

// Context stamps ctx with the session id so callers log under it too.
func (p *Protocol) Context(ctx context.Context) context.Context {
	return runctx.WithSessionID(ctx, p.sessionID)
}

// RefOptions describes a container registration. Exactly one of Storage and
// Discard must be set.
type RefOptions struct {
	ID      string
	Type    string
	Storage string
	Discard bool
	// Cover declares a lid or seal already on the container.
	Cover string
}

// Ref registers a container under name.
func (p *Protocol) Ref(name string, opts RefOptions) (*labware.Container, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, faults.Wrapf(faults.ErrUsage, component, "ref", "container name is required")
	case strings.Contains(name, "/"):
		return nil, faults.Wrapf(faults.ErrUsage, component, "ref", "container name %q must not contain '/'", name)
	}
	if _, exists := p.refs[name]; exists {
		return nil, faults.Wrapf(faults.ErrUsage, component, "ref", "container %q is already registered", name)
	}
	storage := strings.TrimSpace(opts.Storage)
	if (storage == "") == !opts.Discard {
		return nil, faults.Wrapf(faults.ErrUsage, component, "ref", "container %q needs exactly one of storage or discard", name)
	}
	if storage != "" && !slices.Contains(StorageConditions, storage) {
		return nil, faults.Wrapf(faults.ErrUsage, component, "ref", "storage %q of %q is not one of %v", storage, name, StorageConditions)
	}
	ctype, err := p.catalog.Lookup(opts.Type)
	if err != nil {
		return nil, err
	}
	c, err := labware.NewContainer(name, strings.TrimSpace(opts.ID), ctype)
	if err != nil {
		return nil, err
	}
	if opts.Discard {
		c.SetDiscard()
	} else {
		c.SetStorage(storage)
	}

	cover := strings.TrimSpace(opts.Cover)
	if cover != "" {
		switch {
		case ctype.SupportsCover(cover):
			c.SetClosure(labware.Closure{Kind: labware.Covered, Type: cover, Origin: labware.OriginExplicit})
		case ctype.SupportsSeal(cover):
			c.SetClosure(labware.Closure{Kind: labware.Sealed, Type: cover, Origin: labware.OriginExplicit})
		default:
			return nil, faults.Wrapf(faults.ErrType, component, "ref", "%s does not accept cover %q", ctype.Shortname, cover)
		}
	}

	p.refs[name] = &ref{container: c, cover: cover}
	p.order = append(p.order, name)
	p.logger.Debug("container registered",
		logging.String(logging.FieldContainer, name),
		logging.String("type", ctype.Shortname),
		logging.Stringer("closure", c.Closure()),
	)
	return c, nil
}

// Container returns the registered container called name.
func (p *Protocol) Container(name string) (*labware.Container, error) {
	r, ok := p.refs[strings.TrimSpace(name)]
	if !ok {
		return nil, faults.Wrapf(faults.ErrUsage, component, "lookup", "container %q is not registered", name)
	}
	return r.container, nil
}

// Containers returns every registered container in registration order.
func (p *Protocol) Containers() []*labware.Container {
	out := make([]*labware.Container, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.refs[name].container)
	}
	return out
}

// Well resolves a "container/address" reference.
func (p *Protocol) Well(reference string) (labware.Well, error) {
	name, addr, err := labware.SplitReference(reference)
	if err != nil {
		return labware.Well{}, err
	}
	c, err := p.Container(name)
	if err != nil {
		return labware.Well{}, err
	}
	return c.Well(addr)
}

// WellsFrom resolves count consecutive wells from a "container/address"
// reference.
func (p *Protocol) WellsFrom(start string, count int, columnwise bool) (labware.WellGroup, error) {
	name, addr, err := labware.SplitReference(start)
	if err != nil {
		return nil, err
	}
	c, err := p.Container(name)
	if err != nil {
		return nil, err
	}
	return c.WellsFrom(addr, count, columnwise)
}

// Instructions returns a copy of the instruction log.
func (p *Protocol) Instructions() []Instruction {
	return slices.Clone(p.instructions)
}

// Store changes where a container goes when the run ends.
func (p *Protocol) Store(c *labware.Container, condition string) error {
	if err := p.owns(c, "store"); err != nil {
		return err
	}
	if !slices.Contains(StorageConditions, condition) {
		return faults.Wrapf(faults.ErrUsage, component, "store", "storage %q is not one of %v", condition, StorageConditions)
	}
	c.SetStorage(condition)
	return nil
}

// Discard marks a container for disposal when the run ends.
func (p *Protocol) Discard(c *labware.Container) error {
	if err := p.owns(c, "discard"); err != nil {
		return err
	}
	c.SetDiscard()
	return nil
}

func (p *Protocol) owns(c *labware.Container, op string) error {
	if c == nil {
		return faults.Wrapf(faults.ErrUsage, component, op, "container is required")
	}
	r, ok := p.refs[c.Name()]
	if !ok || r.container != c {
		return faults.Wrapf(faults.ErrUsage, component, op, "container %q is not registered in this session", c.Name())
	}
	return nil
}

func (p *Protocol) ownsWells(op string, wells ...labware.Well) error {
	for _, w := range wells {
		if w.IsZero() {
			return faults.Wrapf(faults.ErrUsage, component, op, "well is required")
		}
		if err := p.owns(w.Container(), op); err != nil {
			return err
		}
	}
	return nil
}

func (p *Protocol) append(op string, data any) Instruction {
	inst := Instruction{Op: op, Data: data}
	p.instructions = append(p.instructions, inst)
	if p.observer != nil {
		p.observer.InstructionEmitted(op)
	}
	return inst
}
