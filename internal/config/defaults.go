package config

const (
	defaultConfigPath        = "~/.config/platewright/config.toml"
	projectConfigName        = "platewright.toml"
	defaultLogDir            = ""
	defaultCatalogDB         = "~/.local/share/platewright/catalog.db"
	defaultLogFormat         = "console"
	defaultLogLevel          = "warn"
	defaultCatalogSource     = CatalogEmbedded
	defaultPrimeVolume       = "600:microliter"
	defaultPredispenseVolume = "10:microliter"
	defaultDispenseShapeRows = 8
	defaultDispenseShapeCols = 1
	defaultCloseContainers   = true
	defaultIndentOutput      = true
	envLogLevel              = "PLATEWRIGHT_LOG_LEVEL"
	envCatalogDB             = "PLATEWRIGHT_CATALOG_DB"
)

// Catalog sources.
const (
	CatalogEmbedded = "embedded"
	CatalogSQLite   = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			CatalogDB: defaultCatalogDB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Catalog: Catalog{
			Source: defaultCatalogSource,
		},
		Dispense: Dispense{
			PrimeVolume:       defaultPrimeVolume,
			PredispenseVolume: defaultPredispenseVolume,
			ShapeRows:         defaultDispenseShapeRows,
			ShapeColumns:      defaultDispenseShapeCols,
		},
		Compile: Compile{
			CloseContainers: defaultCloseContainers,
			Indent:          defaultIndentOutput,
		},
	}
}
