package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"platewright/internal/catalog"
	"platewright/internal/faults"
	"platewright/internal/testsupport"
)

const siteCatalog = `
[[container_type]]
name = "24-well deep plate"
shortname = "24-deep"
well_count = 24
col_count = 6
well_volume = "10:milliliter"
cover_types = ["standard"]
capabilities = ["cover", "incubate", "liquid_handle"]
prioritize_seal_or_cover = "cover"
vendor = "Axygen"
`

func TestCatalogListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"catalog", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "384-pcr")
	requireContains(t, out, "Well Volume")

	out, _, err = runCLI(t, []string{"catalog", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list --json: %v", err)
	}
	var types []map[string]any
	if err := json.Unmarshal([]byte(out), &types); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(types) != catalog.MustBuiltin().Len() {
		t.Fatalf("listed %d types", len(types))
	}

	out, _, err = runCLI(t, []string{"catalog", "show", "micro-1.5"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog show: %v", err)
	}
	requireContains(t, out, "== micro-1.5 ==")
	requireContains(t, out, "not tracked for tubes")

	if _, _, err := runCLI(t, []string{"catalog", "show", "nope"}, env.configPath); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogImportLayersOverBuiltin(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSQLiteCatalog())
	source := testsupport.WriteFile(t, filepath.Join(env.baseDir, "site.toml"), siteCatalog)

	out, _, err := runCLI(t, []string{"catalog", "import", source}, env.configPath)
	if err != nil {
		t.Fatalf("catalog import: %v", err)
	}
	requireContains(t, out, "1 container types written")
	if strings.Contains(out, "catalog.source") {
		t.Fatalf("unexpected source warning: %q", out)
	}

	out, _, err = runCLI(t, []string{"catalog", "show", "24-deep"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog show imported: %v", err)
	}
	requireContains(t, out, "24 wells, 4 rows x 6 columns")
	requireContains(t, out, "Axygen")

	// Built-in types are still visible alongside the imported one.
	if _, _, err := runCLI(t, []string{"catalog", "show", "96-flat"}, env.configPath); err != nil {
		t.Fatalf("catalog show builtin: %v", err)
	}

	store := testsupport.MustOpenCatalog(t, env.cfg)
	stored, err := store.List(t.Context())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 1 || stored[0].Shortname != "24-deep" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestCatalogImportWarnsWhenEmbedded(t *testing.T) {
	env := setupCLITestEnv(t)
	source := testsupport.WriteFile(t, filepath.Join(env.baseDir, "site.toml"), siteCatalog)

	out, _, err := runCLI(t, []string{"catalog", "import", source}, env.configPath)
	if err != nil {
		t.Fatalf("catalog import: %v", err)
	}
	requireContains(t, out, `catalog.source = "sqlite"`)

	if _, _, err := runCLI(t, []string{"catalog", "show", "24-deep"}, env.configPath); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("embedded catalog should not see imported types, got %v", err)
	}
}

func TestCatalogExportRoundTrips(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "export.toml")

	out, _, err := runCLI(t, []string{"catalog", "export", "--output", target}, env.configPath)
	if err != nil {
		t.Fatalf("catalog export: %v", err)
	}
	requireContains(t, out, "Wrote")

	exported, err := catalog.LoadFile(target)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if exported.Len() != catalog.MustBuiltin().Len() {
		t.Fatalf("exported %d types", exported.Len())
	}

	out, _, err = runCLI(t, []string{"catalog", "export"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog export stdout: %v", err)
	}
	requireContains(t, out, "[[container_type]]")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
}
