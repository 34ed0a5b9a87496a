package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"platewright/internal/faults"
	"platewright/internal/testsupport"
)

type compiledDocument struct {
	Refs         map[string]map[string]any `json:"refs"`
	Instructions []map[string]any          `json:"instructions"`
}

func decodeDocument(t *testing.T, data string) compiledDocument {
	t.Helper()
	var doc compiledDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		t.Fatalf("decode document: %v\n%s", err, data)
	}
	return doc
}

func (d compiledDocument) ops() []string {
	out := make([]string, len(d.Instructions))
	for i, inst := range d.Instructions {
		out[i], _ = inst["op"].(string)
	}
	return out
}

func TestCompileBuiltinPreview(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"compile", "--protocol", "plate_fill"}, env.configPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	doc := decodeDocument(t, out)
	want := []string{"liquid_handle", "cover", "spin", "cover"}
	if got := doc.ops(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if doc.Refs["plate"]["new"] != "96-flat" {
		t.Fatalf("plate ref = %v", doc.Refs["plate"])
	}
	store, _ := doc.Refs["reservoir"]["store"].(map[string]any)
	if store["where"] != "cold_4" {
		t.Fatalf("reservoir ref = %v", doc.Refs["reservoir"])
	}
	if !strings.Contains(out, "\n  \"refs\"") {
		t.Fatalf("expected indented output")
	}

	out, _, err = runCLI(t, []string{"compile", "--protocol", "plate_fill", "--no-close"}, env.configPath)
	if err != nil {
		t.Fatalf("compile --no-close: %v", err)
	}
	if got := decodeDocument(t, out).ops(); len(got) != 3 {
		t.Fatalf("ops without closing pass = %v", got)
	}
}

func TestCompileManifestAndParamsFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	manifestPath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "work", "manifest.yaml"), `
format: go
license: MIT
protocols:
  - name: plate_fill
    inputs:
      source: aliquot
      destination: container
      volume: {type: volume, default: "50:microliter"}
      spin: {type: bool, default: true}
`)
	paramsPath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "work", "params.json"), `{
  "refs": {
    "reservoir": {"type": "res-sw96-hp", "store": "cold_4",
                  "aliquots": {"0": {"volume": "20:milliliter"}}},
    "plate": {"type": "96-flat", "store": {"where": "ambient"}}
  },
  "parameters": {
    "source": "reservoir/0",
    "destination": "plate",
    "volume": "20:microliter",
    "spin": false
  }
}`)

	out, _, err := runCLI(t, []string{"compile", manifestPath, "--params", paramsPath}, env.configPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	doc := decodeDocument(t, out)
	got := doc.ops()
	if len(got) != 3 || got[0] != "liquid_handle" || got[1] != "cover" || got[2] != "cover" {
		t.Fatalf("ops = %v", got)
	}
	if doc.Instructions[1]["object"] != "plate" {
		t.Fatalf("closing pass order = %v", doc.Instructions[1])
	}
}

func TestCompileErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"compile"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--protocol") {
		t.Fatalf("expected protocol selection error, got %v", err)
	}

	manifestPath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "mystery.yaml"), `
protocols:
  - name: mystery
    inputs:
      plate: container
`)
	_, _, err = runCLI(t, []string{"compile", manifestPath}, env.configPath)
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found for unregistered protocol, got %v", err)
	}

	paramsPath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "bad.yaml"), `
refs:
  plate: {type: 96-flat, store: ambient}
parameters:
  source: plate/Z99
  destination: plate
`)
	_, _, err = runCLI(t, []string{"compile", "-p", "plate_fill", "--params", paramsPath}, env.configPath)
	if !errors.Is(err, faults.ErrUsage) || !errors.Is(err, faults.ErrIndex) {
		t.Fatalf("expected usage error wrapping index error, got %v", err)
	}
}

func TestCompileSummaryAndMetrics(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMetricsFile())

	out, stderr, err := runCLI(t, []string{"compile", "-p", "pcr_setup", "--summary"}, env.configPath)
	if err != nil {
		t.Fatalf("compile --summary: %v", err)
	}
	if out != "" {
		t.Fatalf("summary should leave stdout empty, got %q", out)
	}
	requireContains(t, stderr, "== Refs ==")
	requireContains(t, stderr, "Thermocycle")
	requireContains(t, stderr, "templates")

	data, err := os.ReadFile(env.cfg.Paths.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	metrics := string(data)
	requireContains(t, metrics, `platewright_compiles_total{protocol="pcr_setup",result="ok"} 1`)
	requireContains(t, metrics, `platewright_instructions_total{op="thermocycle"} 1`)

	// The closing pass covers the reservoir and the plate after the read.
	if _, _, err := runCLI(t, []string{"compile", "-p", "serial_dilution", "--summary"}, env.configPath); err != nil {
		t.Fatalf("compile serial_dilution: %v", err)
	}
	data, err = os.ReadFile(env.cfg.Paths.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	metrics = string(data)
	requireContains(t, metrics, `platewright_instructions_total{op="cover"} 2`)
	requireContains(t, metrics, `platewright_auto_closure_transitions_total{op="cover"} 2`)
}

func TestCompileWritesOutputFile(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "out", "dilution.json")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	metricsPath := filepath.Join(env.baseDir, "flag.prom")

	out, _, err := runCLI(t, []string{"compile", "-p", "serial_dilution", "-o", target, "--metrics-file", metricsPath}, env.configPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if out != "" {
		t.Fatalf("stdout = %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	doc := decodeDocument(t, string(data))
	if _, ok := doc.Refs["stock"]["discard"]; !ok {
		t.Fatalf("stock ref = %v", doc.Refs["stock"])
	}
	if _, err := os.Stat(metricsPath); err != nil {
		t.Fatalf("expected metrics at --metrics-file: %v", err)
	}
}
