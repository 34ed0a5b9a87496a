package protocols_test

import (
	"errors"
	"testing"

	"platewright/internal/faults"
	"platewright/internal/logging"
	"platewright/internal/manifest"
	"platewright/internal/protocol"
	"platewright/internal/protocols"
)

func TestBuiltinManifestMatchesRegistry(t *testing.T) {
	m, err := protocols.BuiltinManifest()
	if err != nil {
		t.Fatalf("BuiltinManifest: %v", err)
	}
	reg := protocols.Builtin()
	if missing := reg.Missing(m); len(missing) != 0 {
		t.Fatalf("manifest protocols without functions: %v", missing)
	}
	if len(reg.Names()) != len(m.Protocols) {
		t.Fatalf("registry %v vs manifest %v", reg.Names(), m.Names())
	}
}

func TestBuiltinPreviewsCompile(t *testing.T) {
	m, err := protocols.BuiltinManifest()
	if err != nil {
		t.Fatalf("BuiltinManifest: %v", err)
	}
	wantOps := map[string][]string{
		"plate_fill":      {"liquid_handle", "cover", "spin"},
		"pcr_setup":       {"pipette", "pipette", "pipette", "seal", "spin", "thermocycle"},
		"serial_dilution": {"pipette", "pipette"},
	}
	for _, info := range m.Protocols {
		t.Run(info.Name, func(t *testing.T) {
			p := protocol.New(nil, protocol.WithLogger(logging.NewNop()))
			params, err := manifest.Resolve(p, info, info.Preview)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			entry, err := protocols.Builtin().Lookup(info.Name)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if err := entry.Run(p, params); err != nil {
				t.Fatalf("Run: %v", err)
			}
			got := p.Instructions()
			want := wantOps[info.Name]
			if len(got) < len(want) {
				t.Fatalf("only %d instructions", len(got))
			}
			for i, op := range want {
				if got[i].Op != op {
					t.Fatalf("instruction %d = %s, want %s", i, got[i].Op, op)
				}
			}
		})
	}
}

func TestPlateFillVolumes(t *testing.T) {
	m, _ := protocols.BuiltinManifest()
	info, _ := m.Protocol("plate_fill")
	p := protocol.New(nil, protocol.WithLogger(logging.NewNop()))
	params, err := manifest.Resolve(p, info, info.Preview)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := protocols.PlateFill(p, params); err != nil {
		t.Fatalf("PlateFill: %v", err)
	}
	source, _ := params.Well("source")
	// 100 mL minus 96 x 50 uL and the default 610 uL of prime and predispense.
	if got := source.Volume().String(); got != "94590:microliter" {
		t.Fatalf("source = %s", got)
	}
	plate, _ := params.Container("destination")
	last, _ := plate.Well("H12")
	if got := last.Volume().String(); got != "50:microliter" {
		t.Fatalf("H12 = %s", got)
	}
	if n := p.Close(); n != 1 {
		t.Fatalf("closing pass appended %d", n)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := protocols.NewRegistry()
	entry := protocols.Entry{Name: "x", Run: protocols.PlateFill}
	if err := reg.Register(entry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(entry); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if err := reg.Register(protocols.Entry{Name: "y"}); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := reg.Lookup("z"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
