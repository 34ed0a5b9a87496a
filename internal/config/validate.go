package config

import (
	"errors"
	"fmt"

	"platewright/internal/quantity"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateDispense(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	if !validLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	for component, level := range c.Logging.ComponentLevels {
		if !validLevel(level) {
			return fmt.Errorf("logging.component_levels.%s: unsupported value %q", component, level)
		}
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Source {
	case CatalogEmbedded:
		return nil
	case CatalogSQLite:
		if c.Paths.CatalogDB == "" {
			return errors.New("paths.catalog_db must be set when catalog.source is sqlite")
		}
		return nil
	default:
		return fmt.Errorf("catalog.source: unsupported value %q (want %s or %s)", c.Catalog.Source, CatalogEmbedded, CatalogSQLite)
	}
}

func (c *Config) validateDispense() error {
	d := c.Dispense
	volumes := []struct {
		key   string
		value string
	}{
		{"dispense.prime_volume", d.PrimeVolume},
		{"dispense.predispense_volume", d.PredispenseVolume},
		{"dispense.volume_resolution", d.VolumeResolution},
	}
	for _, v := range volumes {
		if v.value == "" {
			continue
		}
		q, err := quantity.Parse(v.value)
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		if q.Dimension() != quantity.Volume {
			return fmt.Errorf("%s: %q is not a volume", v.key, v.value)
		}
		if q.Sign() < 0 {
			return fmt.Errorf("%s must not be negative", v.key)
		}
	}
	if d.ShapeRows < 1 || d.ShapeColumns < 1 {
		return fmt.Errorf("dispense shape %dx%d must be positive", d.ShapeRows, d.ShapeColumns)
	}
	return nil
}
