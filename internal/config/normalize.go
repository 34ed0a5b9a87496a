package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeCatalog()
	c.normalizeDispense()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(envCatalogDB); ok && strings.TrimSpace(value) != "" {
		c.Paths.CatalogDB = value
	}
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CatalogDB) == "" {
		c.Paths.CatalogDB = defaultCatalogDB
	}
	if c.Paths.CatalogDB, err = expandPath(strings.TrimSpace(c.Paths.CatalogDB)); err != nil {
		return fmt.Errorf("paths.catalog_db: %w", err)
	}
	if c.Paths.MetricsFile, err = expandPath(strings.TrimSpace(c.Paths.MetricsFile)); err != nil {
		return fmt.Errorf("paths.metrics_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.ComponentLevels) > 0 {
		normalized := make(map[string]string, len(c.Logging.ComponentLevels))
		for key, value := range c.Logging.ComponentLevels {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			normalized[key] = strings.ToLower(strings.TrimSpace(value))
		}
		c.Logging.ComponentLevels = normalized
	}
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Source = strings.ToLower(strings.TrimSpace(c.Catalog.Source))
	if c.Catalog.Source == "" {
		c.Catalog.Source = defaultCatalogSource
	}
}

func (c *Config) normalizeDispense() {
	d := &c.Dispense
	d.PrimeVolume = strings.TrimSpace(d.PrimeVolume)
	if d.PrimeVolume == "" {
		d.PrimeVolume = defaultPrimeVolume
	}
	d.PredispenseVolume = strings.TrimSpace(d.PredispenseVolume)
	if d.PredispenseVolume == "" {
		d.PredispenseVolume = defaultPredispenseVolume
	}
	d.VolumeResolution = strings.TrimSpace(d.VolumeResolution)
	d.LiquidClass = strings.TrimSpace(d.LiquidClass)
	d.ChipModel = strings.TrimSpace(d.ChipModel)
	d.ChipMaterial = strings.TrimSpace(d.ChipMaterial)
	d.ChipNozzle = strings.TrimSpace(d.ChipNozzle)
	if d.ShapeRows == 0 {
		d.ShapeRows = defaultDispenseShapeRows
	}
	if d.ShapeColumns == 0 {
		d.ShapeColumns = defaultDispenseShapeCols
	}
}
