package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"platewright/internal/labware"
	"platewright/internal/logging"
	"platewright/internal/quantity"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; older databases must be re-imported.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// lockRetryDelay is how often an import polls for the catalog lock.
const lockRetryDelay = 100 * time.Millisecond

// Store persists container types in SQLite so site-specific labware can be
// shared between runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s and re-import)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Upsert inserts or replaces one container type.
func (s *Store) Upsert(ctx context.Context, ct labware.ContainerType) error {
	if err := ct.Validate(); err != nil {
		return err
	}
	return upsert(ctx, s.db, ct)
}

func upsert(ctx context.Context, db execer, ct labware.ContainerType) error {
	covers, err := json.Marshal(nonNil(ct.CoverTypes))
	if err != nil {
		return fmt.Errorf("marshal cover types: %w", err)
	}
	seals, err := json.Marshal(nonNil(ct.SealTypes))
	if err != nil {
		return fmt.Errorf("marshal seal types: %w", err)
	}
	caps, err := json.Marshal(nonNil(ct.Capabilities))
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO container_types (
            shortname, name, well_count, col_count, well_volume, dead_volume, safe_min_volume,
            cover_types, seal_types, capabilities, is_tube, prioritize_seal_or_cover, vendor, cat_no, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(shortname) DO UPDATE SET
            name = excluded.name,
            well_count = excluded.well_count,
            col_count = excluded.col_count,
            well_volume = excluded.well_volume,
            dead_volume = excluded.dead_volume,
            safe_min_volume = excluded.safe_min_volume,
            cover_types = excluded.cover_types,
            seal_types = excluded.seal_types,
            capabilities = excluded.capabilities,
            is_tube = excluded.is_tube,
            prioritize_seal_or_cover = excluded.prioritize_seal_or_cover,
            vendor = excluded.vendor,
            cat_no = excluded.cat_no,
            updated_at = excluded.updated_at`,
		ct.Shortname,
		ct.Name,
		ct.WellCount,
		ct.ColCount,
		nullableString(ct.WellVolume.String()),
		nullableString(ct.DeadVolume.String()),
		nullableString(ct.SafeMinVolume.String()),
		string(covers),
		string(seals),
		string(caps),
		ct.IsTube,
		ct.PrioritizeSealOrCover,
		nullableString(ct.Vendor),
		nullableString(ct.CatalogNo),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert container type %s: %w", ct.Shortname, err)
	}
	return nil
}

// List returns every stored type ordered by shortname.
func (s *Store) List(ctx context.Context) ([]labware.ContainerType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT shortname, name, well_count, col_count, well_volume, dead_volume, safe_min_volume,
            cover_types, seal_types, capabilities, is_tube, prioritize_seal_or_cover, vendor, cat_no
        FROM container_types ORDER BY shortname`)
	if err != nil {
		return nil, fmt.Errorf("query container types: %w", err)
	}
	defer rows.Close()

	var out []labware.ContainerType
	for rows.Next() {
		ct, err := scanContainerType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate container types: %w", err)
	}
	return out, nil
}

// Load reads the stored types into an in-memory Catalog.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	types, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	cat := New()
	for _, ct := range types {
		if err := cat.Add(ct); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Import writes every type of cat in one transaction and returns the count.
func (s *Store) Import(ctx context.Context, cat *Catalog) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	types := cat.List()
	for _, ct := range types {
		if err := upsert(ctx, tx, ct); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(types), nil
}

// ImportFile decodes a TOML catalog file and imports it into the database at
// dbPath while holding an exclusive lock next to the database.
func ImportFile(ctx context.Context, dbPath, tomlPath string, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "catalog")
	cat, err := LoadFile(tomlPath)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("ensure catalog directory: %w", err)
		}
	}
	lockPath := dbPath + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return 0, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("catalog %s is locked by another process", dbPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release catalog lock",
				logging.String("lock", lockPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "catalog_lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no import is running"),
				logging.String(logging.FieldImpact, "later imports may wait for the lock"),
			)
		}
	}()

	store, err := Open(ctx, dbPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	count, err := store.Import(ctx, cat)
	if err != nil {
		return 0, err
	}
	logger.Info("catalog imported",
		logging.String("source", tomlPath),
		logging.String("database", dbPath),
		logging.Int("container_types", count),
	)
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContainerType(row scanner) (labware.ContainerType, error) {
	var (
		ct                        labware.ContainerType
		wellVol, deadVol, safeVol sql.NullString
		covers, seals, caps       string
		vendor, catNo             sql.NullString
	)
	if err := row.Scan(
		&ct.Shortname, &ct.Name, &ct.WellCount, &ct.ColCount,
		&wellVol, &deadVol, &safeVol,
		&covers, &seals, &caps,
		&ct.IsTube, &ct.PrioritizeSealOrCover, &vendor, &catNo,
	); err != nil {
		return labware.ContainerType{}, fmt.Errorf("scan container type: %w", err)
	}
	var err error
	if ct.WellVolume, err = parseNullableQuantity(wellVol); err != nil {
		return labware.ContainerType{}, err
	}
	if ct.DeadVolume, err = parseNullableQuantity(deadVol); err != nil {
		return labware.ContainerType{}, err
	}
	if ct.SafeMinVolume, err = parseNullableQuantity(safeVol); err != nil {
		return labware.ContainerType{}, err
	}
	if err := json.Unmarshal([]byte(covers), &ct.CoverTypes); err != nil {
		return labware.ContainerType{}, fmt.Errorf("decode cover types of %s: %w", ct.Shortname, err)
	}
	if err := json.Unmarshal([]byte(seals), &ct.SealTypes); err != nil {
		return labware.ContainerType{}, fmt.Errorf("decode seal types of %s: %w", ct.Shortname, err)
	}
	if err := json.Unmarshal([]byte(caps), &ct.Capabilities); err != nil {
		return labware.ContainerType{}, fmt.Errorf("decode capabilities of %s: %w", ct.Shortname, err)
	}
	ct.Vendor = vendor.String
	ct.CatalogNo = catNo.String
	return ct, nil
}

func parseNullableQuantity(value sql.NullString) (quantity.Quantity, error) {
	if !value.Valid || value.String == "" {
		return quantity.Quantity{}, nil
	}
	return quantity.Parse(value.String)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
