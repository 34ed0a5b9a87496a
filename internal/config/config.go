package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations used by the CLI.
type Paths struct {
	LogDir      string `toml:"log_dir"`
	CatalogDB   string `toml:"catalog_db"`
	MetricsFile string `toml:"metrics_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format          string            `toml:"format"`
	Level           string            `toml:"level"`
	ComponentLevels map[string]string `toml:"component_levels"`
}

// Catalog selects where container types are read from.
type Catalog struct {
	// Source is "embedded" for the compiled-in catalog or "sqlite" to layer
	// the database at paths.catalog_db over it.
	Source string `toml:"source"`
}

// Dispense holds the defaults applied to reagent dispenser instructions.
type Dispense struct {
	PrimeVolume       string `toml:"prime_volume"`
	PredispenseVolume string `toml:"predispense_volume"`
	VolumeResolution  string `toml:"volume_resolution"`
	LiquidClass       string `toml:"liquid_class"`
	ChipModel         string `toml:"chip_model"`
	ChipMaterial      string `toml:"chip_material"`
	ChipNozzle        string `toml:"chip_nozzle"`
	ShapeRows         int    `toml:"shape_rows"`
	ShapeColumns      int    `toml:"shape_columns"`
}

// Compile controls how documents are finalized and written.
type Compile struct {
	CloseContainers bool `toml:"close_containers"`
	Indent          bool `toml:"indent"`
}

// Config encapsulates all configuration values for platewright.
//
// Configuration sections:
//   - Paths: log directory, catalog database, metrics textfile
//   - Logging: log format, level, and per-component overrides
//   - Catalog: container type source
//   - Dispense: reagent dispenser defaults
//   - Compile: closing pass and output formatting
type Config struct {
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
	Catalog  Catalog  `toml:"catalog"`
	Dispense Dispense `toml:"dispense"`
	Compile  Compile  `toml:"compile"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
