package testsupport

import (
	"path/filepath"
	"testing"

	"platewright/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test. It
// defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CatalogDB = filepath.Join(base, "catalog", "catalog.db")
	cfgVal.Paths.MetricsFile = ""
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSQLiteCatalog layers the test's catalog database over the embedded
// container types.
func WithSQLiteCatalog() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Source = config.CatalogSQLite
	}
}

// WithMetricsFile writes metrics to a textfile under the temp directory.
func WithMetricsFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.MetricsFile = filepath.Join(b.baseDir, "metrics", "platewright.prom")
	}
}

// WithDispense edits the dispense defaults.
func WithDispense(fn func(*config.Dispense)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Dispense)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
