// Package protocols holds the protocol functions the CLI can compile and
// the manifest that declares their inputs.
package protocols

import (
	"bytes"
	_ "embed"
	"slices"
	"sort"
	"sync"

	"platewright/internal/faults"
	"platewright/internal/manifest"
	"platewright/internal/protocol"
)

//go:embed manifest.yaml
var builtinManifest []byte

// Func authors one protocol into p from resolved parameters.
type Func func(p *protocol.Protocol, params manifest.Params) error

// Entry is a registered protocol function.
type Entry struct {
	Name        string
	Description string
	Run         Func
}

// Registry maps protocol names to functions. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds e, rejecting empty names, nil functions and duplicates.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" || e.Run == nil {
		return faults.Wrapf(faults.ErrConfiguration, "protocols", "register", "protocol needs a name and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.Name]; exists {
		return faults.Wrapf(faults.ErrConfiguration, "protocols", "register", "protocol %q is already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Lookup returns the entry called name.
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, faults.Wrapf(faults.ErrNotFound, "protocols", "lookup", "no protocol function called %q", name)
	}
	return e, nil
}

// List returns every entry sorted by name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	entries := r.List()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

var (
	builtinOnce     sync.Once
	builtinRegistry *Registry
)

// Builtin returns the registry of bundled protocols.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		r := NewRegistry()
		for _, e := range []Entry{
			{Name: "plate_fill", Description: "Dispense one reagent into every well of a plate, then spin it down", Run: PlateFill},
			{Name: "pcr_setup", Description: "Distribute master mix, add templates and run a thermocycle program", Run: PCRSetup},
			{Name: "serial_dilution", Description: "Dilute a sample across a row and read absorbance", Run: SerialDilution},
		} {
			if err := r.Register(e); err != nil {
				panic(err)
			}
		}
		builtinRegistry = r
	})
	return builtinRegistry
}

// BuiltinManifest decodes the manifest declaring the bundled protocols.
func BuiltinManifest() (*manifest.Manifest, error) {
	return manifest.Decode(bytes.NewReader(builtinManifest))
}

// Missing lists manifest protocols that have no registered function.
func (r *Registry) Missing(m *manifest.Manifest) []string {
	var out []string
	for _, name := range m.Names() {
		if _, err := r.Lookup(name); err != nil {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
