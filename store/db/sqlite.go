package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	latestSchemaFileName = "LATEST_SCHEMA.sql"

	// BooksTable is the compatibility probe, a database without it is not a
	// device store.
	BooksTable = "tb_books"

	// FileDir and CoverDir are the payload directories under the device root.
	FileDir  = "data/file"
	CoverDir = "data/cover"
)

type DB struct {
	*sql.DB
	path string
}

func NewDB(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("Database path is required")
	}

	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	return &DB{d, path}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}

func (d *DB) Path() string {
	return d.path
}

//go:embed migration
var migrationFS embed.FS

// EnsureSchema creates tb_books when the database is new. Existing tables are
// left untouched, the reader app owns their contents.
func (d *DB) EnsureSchema(ctx context.Context) error {
	exist, err := d.CheckTableExists(ctx, BooksTable)
	if err != nil {
		return errors.Wrap(err, "failed to check database table")
	}
	if exist {
		return nil
	}
	return d.applyLatestSchema(ctx)
}

func (d *DB) applyLatestSchema(ctx context.Context) error {
	latestSchemaPath := fmt.Sprintf("migration/%s", latestSchemaFileName)
	buf, err := migrationFS.ReadFile(latestSchemaPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file: %q", latestSchemaPath)
	}

	stmt := string(buf)
	if err := d.execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to apply latest schema: %s", stmt)
	}
	return nil
}

func (d *DB) CheckTableExists(ctx context.Context, name string) (bool, error) {
	query := `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`

	var found string
	if err := d.QueryRowContext(ctx, query, name).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// execute runs a single SQL statement within a transaction.
func (d *DB) execute(ctx context.Context, stmt string) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}

	return tx.Commit()
}

// ProbeDevice checks that root holds a usable device tree: the database file,
// both payload directories and the tb_books table. Any miss makes the whole
// store unusable, so this runs before an engine is handed out.
func ProbeDevice(ctx context.Context, root, dbName string) error {
	dbPath := filepath.Join(root, dbName)
	if _, err := os.Stat(dbPath); err != nil {
		return errors.Wrapf(err, "device database %s is not readable", dbPath)
	}

	for _, dir := range []string{FileDir, CoverDir} {
		fi, err := os.Stat(filepath.Join(root, dir))
		if err != nil {
			return errors.Wrapf(err, "device directory %s is missing", dir)
		}
		if !fi.IsDir() {
			return errors.Errorf("device path %s is not a directory", dir)
		}
	}

	d, err := NewDB(dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	exist, err := d.CheckTableExists(ctx, BooksTable)
	if err != nil {
		return errors.Wrap(err, "failed to check device database")
	}
	if !exist {
		return errors.Errorf("table %s not found in %s", BooksTable, dbPath)
	}
	return nil
}
