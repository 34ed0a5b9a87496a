package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"platewright/internal/testsupport"
)

func TestProtocolsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"protocols"}, env.configPath)
	if err != nil {
		t.Fatalf("protocols: %v", err)
	}
	for _, name := range []string{"plate_fill", "pcr_setup", "serial_dilution"} {
		requireContains(t, out, name)
	}
	if strings.Contains(out, "Unregistered") {
		t.Fatalf("builtin manifest should be fully registered: %q", out)
	}

	manifestPath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "m.yaml"), `
protocols:
  - name: plate_fill
    inputs: {destination: container}
  - name: mystery
`)
	out, _, err = runCLI(t, []string{"protocols", "--manifest", manifestPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("protocols --json: %v", err)
	}
	var listing struct {
		Protocols []protocolListing `json:"protocols"`
		Missing   []string          `json:"missing"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Missing) != 1 || listing.Missing[0] != "mystery" {
		t.Fatalf("missing = %v", listing.Missing)
	}
	declared := 0
	for _, p := range listing.Protocols {
		if p.Declared {
			declared++
			if p.Name != "plate_fill" || p.Inputs != 1 {
				t.Fatalf("declared entry = %+v", p)
			}
		}
	}
	if declared != 1 {
		t.Fatalf("declared = %d", declared)
	}
}

func TestUnitsCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"units"}, "")
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	requireContains(t, out, "microliter")
	requireContains(t, out, "concentration(molar)")

	out, _, err = runCLI(t, []string{"units", "--json"}, "")
	if err != nil {
		t.Fatalf("units --json: %v", err)
	}
	var units map[string][]string
	if err := json.Unmarshal([]byte(out), &units); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(units["volume"]) == 0 || len(units["temperature"]) == 0 {
		t.Fatalf("units = %v", units)
	}
}
