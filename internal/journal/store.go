package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"slatelink/internal/fileutil"
	"slatelink/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// storeVersion is the current journal schema version. Bump this when the
// schema changes; users then delete the journal database and start fresh.
const storeVersion = 1

// ErrSchemaMismatch indicates the journal database was written by a
// different schema version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// Entry is one completed export.
type Entry struct {
	ID            int64
	ImagePath     string
	SidecarPath   string
	TablePath     string
	ImageSHA256   string
	TableSHA256   string
	JoinKey       string
	SidecarSchema int
	CreatedAt     time.Time
}

// Store persists export entries in SQLite. A nil *Store is a valid disabled
// journal: Record, List, and Close are no-ops.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the journal database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "journal")}
	if err := store.initSchema(context.Background()); err != nil {
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

// Record inserts a completed export and returns its id. On a disabled
// journal it returns 0 without error.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO exports (
            image_path, sidecar_path, table_path,
            image_sha256, table_sha256, join_key,
            sidecar_schema, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ImagePath,
		entry.SidecarPath,
		entry.TablePath,
		entry.ImageSHA256,
		entry.TableSHA256,
		entry.JoinKey,
		entry.SidecarSchema,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	s.logger.Info("export recorded",
		logging.Int("id", int(id)),
		logging.String("image", entry.ImagePath),
		logging.String("sidecar", entry.SidecarPath))
	return id, nil
}

// List returns the most recent entries, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	query := `SELECT id, image_path, sidecar_path, table_path,
        image_sha256, table_sha256, join_key, sidecar_schema, created_at
        FROM exports ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.ImagePath, &e.SidecarPath, &e.TablePath,
			&e.ImageSHA256, &e.TableSHA256, &e.JoinKey, &e.SidecarSchema, &created); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return entries, nil
}

// History returns entries for a single image, newest first.
func (s *Store) History(ctx context.Context, imagePath string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, image_path, sidecar_path, table_path,
            image_sha256, table_sha256, join_key, sidecar_schema, created_at
            FROM exports WHERE image_path = ? ORDER BY id DESC`,
		imagePath)
	if err != nil {
		return nil, fmt.Errorf("query image history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.ImagePath, &e.SidecarPath, &e.TablePath,
			&e.ImageSHA256, &e.TableSHA256, &e.JoinKey, &e.SidecarSchema, &created); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image history: %w", err)
	}
	return entries, nil
}

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
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != storeVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, storeVersion, s.path)
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
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", storeVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
