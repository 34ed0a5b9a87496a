package manifest

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"platewright/internal/faults"
)

const component = "manifest"

// Manifest lists the protocols a package provides.
type Manifest struct {
	Format      string         `yaml:"format"`
	License     string         `yaml:"license"`
	Description string         `yaml:"description"`
	Protocols   []ProtocolInfo `yaml:"protocols"`
}

// ProtocolInfo declares one protocol's inputs and a preview document that
// exercises them.
type ProtocolInfo struct {
	Name        string           `yaml:"name"`
	DisplayName string           `yaml:"display_name"`
	Description string           `yaml:"description"`
	Inputs      map[string]Input `yaml:"inputs"`
	Preview     Document         `yaml:"preview"`
}

// Document is a run's raw input: the containers to register and the
// parameter values keyed by input name.
type Document struct {
	Refs       map[string]RefDecl `yaml:"refs"`
	Parameters map[string]any     `yaml:"parameters"`
}

// RefDecl declares one container of a run.
type RefDecl struct {
	ID       string                 `yaml:"id"`
	Type     string                 `yaml:"type"`
	Store    StoreDecl              `yaml:"store"`
	Discard  bool                   `yaml:"discard"`
	Cover    string                 `yaml:"cover"`
	Aliquots map[string]AliquotDecl `yaml:"aliquots"`
}

// StoreDecl is the storage condition of a ref, written either as
// "cold_4" or as {where: cold_4}.
type StoreDecl struct {
	Where string `yaml:"where"`
}

func (s *StoreDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Where = node.Value
		return nil
	}
	type plain StoreDecl
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = StoreDecl(raw)
	return nil
}

// AliquotDecl presets one well of a declared container.
type AliquotDecl struct {
	Volume     string            `yaml:"volume"`
	Name       string            `yaml:"name"`
	Properties map[string]string `yaml:"properties"`
}

// Decode reads a manifest. YAML is decoded directly and JSON as its YAML
// subset.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := decode(r, &m); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, component, "decode", "manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()
	m, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DecodeDocument reads a run document.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := decode(r, &doc); err != nil {
		return Document{}, faults.Wrap(faults.ErrUsage, component, "decode", "parameters document", err)
	}
	return doc, nil
}

// LoadDocument reads the run document at path.
func LoadDocument(path string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open parameters: %w", err)
	}
	defer file.Close()
	doc, err := DecodeDocument(file)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func decode(r io.Reader, out any) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return fmt.Errorf("document is empty")
	}
	return yaml.Unmarshal(content, out)
}

// Validate checks protocol names and every input declaration.
func (m *Manifest) Validate() error {
	if len(m.Protocols) == 0 {
		return faults.Wrapf(faults.ErrConfiguration, component, "validate", "manifest declares no protocols")
	}
	seen := map[string]struct{}{}
	for _, info := range m.Protocols {
		name := strings.TrimSpace(info.Name)
		if name == "" {
			return faults.Wrapf(faults.ErrConfiguration, component, "validate", "protocol without a name")
		}
		if _, dup := seen[name]; dup {
			return faults.Wrapf(faults.ErrConfiguration, component, "validate", "protocol %q is declared more than once", name)
		}
		seen[name] = struct{}{}
		if err := validateInputs("", info.Inputs); err != nil {
			return fmt.Errorf("protocol %s: %w", name, err)
		}
	}
	return nil
}

// Protocol returns the declaration called name.
func (m *Manifest) Protocol(name string) (ProtocolInfo, error) {
	for _, info := range m.Protocols {
		if info.Name == name {
			return info, nil
		}
	}
	return ProtocolInfo{}, faults.Wrapf(faults.ErrNotFound, component, "lookup", "protocol %q is not in the manifest (have %s)", name, strings.Join(m.Names(), ", "))
}

// Names lists the declared protocols in manifest order.
func (m *Manifest) Names() []string {
	out := make([]string, len(m.Protocols))
	for i, info := range m.Protocols {
		out[i] = info.Name
	}
	return out
}

// InputNames lists the top-level inputs in sorted order.
func (info ProtocolInfo) InputNames() []string {
	return slices.Sorted(maps.Keys(info.Inputs))
}
