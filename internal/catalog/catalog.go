package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"platewright/internal/faults"
	"platewright/internal/labware"
)

//go:embed container_types.toml
var builtinTOML []byte

// Catalog is an in-memory lookup table of container types keyed by
// shortname. Lookups never block, so a protocol session can hold one.
type Catalog struct {
	types map[string]labware.ContainerType
}

type document struct {
	ContainerTypes []labware.ContainerType `toml:"container_type"`
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{types: make(map[string]labware.ContainerType)}
}

// Builtin decodes the container types compiled into the binary.
func Builtin() (*Catalog, error) {
	return DecodeTOML(bytes.NewReader(builtinTOML))
}

// MustBuiltin is Builtin for tests and package initialisation.
func MustBuiltin() *Catalog {
	cat, err := Builtin()
	if err != nil {
		panic(err)
	}
	return cat
}

// DecodeTOML reads a [[container_type]] document.
func DecodeTOML(r io.Reader) (*Catalog, error) {
	var doc document
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "catalog", "decode", "container types", err)
	}
	cat := New()
	for _, ct := range doc.ContainerTypes {
		if err := cat.Add(ct); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// LoadFile decodes a TOML catalog file from disk.
func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer file.Close()
	return DecodeTOML(file)
}

// Add validates and inserts ct, replacing any type with the same shortname.
func (c *Catalog) Add(ct labware.ContainerType) error {
	ct.Shortname = strings.TrimSpace(ct.Shortname)
	if ct.PrioritizeSealOrCover == "" {
		ct.PrioritizeSealOrCover = "seal"
	}
	if err := ct.Validate(); err != nil {
		return err
	}
	c.types[ct.Shortname] = ct
	return nil
}

// Lookup returns the type registered under shortname.
func (c *Catalog) Lookup(shortname string) (labware.ContainerType, error) {
	ct, ok := c.types[strings.TrimSpace(shortname)]
	if !ok {
		return labware.ContainerType{}, faults.Wrapf(faults.ErrNotFound, "catalog", "lookup", "unknown container type %q", shortname)
	}
	return ct, nil
}

// List returns every type sorted by shortname.
func (c *Catalog) List() []labware.ContainerType {
	out := make([]labware.ContainerType, 0, len(c.types))
	for _, ct := range c.types {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shortname < out[j].Shortname })
	return out
}

// Len reports the number of registered types.
func (c *Catalog) Len() int { return len(c.types) }

// Merge copies every type of other into c, other winning on conflicts.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	for name, ct := range other.types {
		c.types[name] = ct
	}
}

// EncodeTOML writes the catalog in the format DecodeTOML reads.
func (c *Catalog) EncodeTOML(w io.Writer) error {
	encoder := toml.NewEncoder(w)
	encoder.SetIndentTables(true)
	return encoder.Encode(document{ContainerTypes: c.List()})
}
