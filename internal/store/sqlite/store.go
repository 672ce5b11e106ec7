// Package sqlite keeps imported tables in a SQLite database: one metadata
// row per table in imported_tables and one JSON document per row in
// imported_data.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pingcap/errors"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS imported_tables (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	table_name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	schema_json TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE (owner, table_name)
);

CREATE TABLE IF NOT EXISTS imported_data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	table_id TEXT NOT NULL,
	row_data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imported_data_table ON imported_data(table_id);
`

const (
	insertTableSQL = `INSERT INTO imported_tables (id, owner, table_name, created_at, schema_json, row_count) VALUES (?, ?, ?, ?, ?, 0)`
	selectTableSQL = `SELECT id, owner, table_name, created_at, schema_json, row_count FROM imported_tables`
	tableExistsSQL = `SELECT COUNT(1) FROM imported_tables WHERE id = ?`
	insertRowSQL   = `INSERT INTO imported_data (table_id, row_data) VALUES (?, ?)`
	bumpCountSQL   = `UPDATE imported_tables SET row_count = row_count + ? WHERE id = ?`
	selectRowsSQL  = `SELECT row_data FROM imported_data WHERE table_id = ? ORDER BY id`
	deleteRowsSQL  = `DELETE FROM imported_data WHERE table_id = ?`
	deleteTableSQL = `DELETE FROM imported_tables WHERE id = ?`
)

// Store implements store.Store on database/sql
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the database file at path and ensures the schema
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Annotatef(err, "create directory for %s", path)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Annotatef(err, "open sqlite database %s", path)
	}
	// One writer at a time; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	s := New(db, logger)
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("sqlite store opened", slog.String("path", path))
	return s, nil
}

// New wraps an already opened database. The schema is not created.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Annotate(err, "initialize schema")
	}
	return nil
}

func (s *Store) CreateTable(ctx context.Context, owner, name string, columns []schema.Column) (string, error) {
	schemaJSON, err := json.Marshal(columns)
	if err != nil {
		return "", errors.Trace(err)
	}

	id := uuid.NewString()
	createdAt := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, insertTableSQL, id, owner, name, createdAt, string(schemaJSON)); err != nil {
		if isUniqueViolation(err) {
			return "", &domainerrors.DuplicateTableNameError{Owner: owner, Table: name}
		}
		return "", errors.Annotatef(err, "create table %s", name)
	}

	s.logger.Info("table created",
		slog.String("owner", owner),
		slog.String("table", name),
		slog.String("table_id", id),
	)
	return id, nil
}

// CreateTableWithRows inserts the metadata row and every data row in one
// transaction
func (s *Store) CreateTableWithRows(ctx context.Context, owner, name string, columns []schema.Column, rows []data.Row) (id string, err error) {
	schemaJSON, err := json.Marshal(columns)
	if err != nil {
		return "", errors.Trace(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Trace(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id = uuid.NewString()
	createdAt := s.now().UTC().Format(time.RFC3339Nano)
	if _, err = tx.ExecContext(ctx, insertTableSQL, id, owner, name, createdAt, string(schemaJSON)); err != nil {
		if isUniqueViolation(err) {
			err = &domainerrors.DuplicateTableNameError{Owner: owner, Table: name}
			return "", err
		}
		err = errors.Annotatef(err, "create table %s", name)
		return "", err
	}
	if err = insertRows(ctx, tx, id, rows); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", errors.Trace(err)
	}

	s.logger.Info("table created",
		slog.String("owner", owner),
		slog.String("table", name),
		slog.String("table_id", id),
		slog.Int("rows", len(rows)),
	)
	return id, nil
}

func (s *Store) AppendRows(ctx context.Context, tableID string, rows []data.Row) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var n int
	if err = tx.QueryRowContext(ctx, tableExistsSQL, tableID).Scan(&n); err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		return &domainerrors.TableNotFoundError{Table: tableID}
	}

	if err = insertRows(ctx, tx, tableID, rows); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Trace(err)
	}

	s.logger.Debug("rows appended",
		slog.String("table_id", tableID),
		slog.Int("appended", len(rows)),
	)
	return nil
}

// insertRows writes rows in order and bumps the table's row count
func insertRows(ctx context.Context, tx *sql.Tx, tableID string, rows []data.Row) error {
	stmt, err := tx.PrepareContext(ctx, insertRowSQL)
	if err != nil {
		return errors.Trace(err)
	}
	defer stmt.Close()

	for _, r := range rows {
		doc, err := r.ToJSON()
		if err != nil {
			return errors.Annotate(err, "encode row")
		}
		if _, err := stmt.ExecContext(ctx, tableID, string(doc)); err != nil {
			return errors.Trace(err)
		}
	}

	if _, err := tx.ExecContext(ctx, bumpCountSQL, len(rows), tableID); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s *Store) GetTableByName(ctx context.Context, owner, name string) (*schema.TableMeta, error) {
	row := s.db.QueryRowContext(ctx, selectTableSQL+` WHERE owner = ? AND table_name = ?`, owner, name)
	meta, err := scanMeta(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, &domainerrors.TableNotFoundError{Owner: owner, Table: name}
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *Store) ListRows(ctx context.Context, tableID string) ([]data.Row, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, tableExistsSQL, tableID).Scan(&n); err != nil {
		return nil, errors.Trace(err)
	}
	if n == 0 {
		return nil, &domainerrors.TableNotFoundError{Table: tableID}
	}

	rs, err := s.db.QueryContext(ctx, selectRowsSQL, tableID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rs.Close()

	rows := []data.Row{}
	for rs.Next() {
		var doc string
		if err := rs.Scan(&doc); err != nil {
			return nil, errors.Trace(err)
		}
		r, err := data.FromJSON([]byte(doc))
		if err != nil {
			return nil, errors.Annotatef(err, "decode row of table %s", tableID)
		}
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return rows, nil
}

func (s *Store) ListTables(ctx context.Context, owner string) ([]*schema.TableMeta, error) {
	rs, err := s.db.QueryContext(ctx, selectTableSQL+` WHERE owner = ? ORDER BY table_name`, owner)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rs.Close()

	tables := []*schema.TableMeta{}
	for rs.Next() {
		meta, err := scanMeta(rs)
		if err != nil {
			return nil, err
		}
		tables = append(tables, meta)
	}
	if err := rs.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	// SQLite collation may differ from Go byte order for non-ASCII names
	store.SortTables(tables)
	return tables, nil
}

func (s *Store) DropTable(ctx context.Context, owner, name string) (err error) {
	meta, err := s.GetTableByName(ctx, owner, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteRowsSQL, meta.ID); err != nil {
		return errors.Trace(err)
	}
	if _, err = tx.ExecContext(ctx, deleteTableSQL, meta.ID); err != nil {
		return errors.Trace(err)
	}
	if err = tx.Commit(); err != nil {
		return errors.Trace(err)
	}

	s.logger.Info("table dropped",
		slog.String("owner", owner),
		slog.String("table", name),
	)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMeta(sc scanner) (*schema.TableMeta, error) {
	var (
		meta       schema.TableMeta
		createdAt  string
		schemaJSON string
	)
	if err := sc.Scan(&meta.ID, &meta.Owner, &meta.Name, &createdAt, &schemaJSON, &meta.RowCount); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Trace(err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, errors.Annotatef(err, "parse created_at of table %s", meta.Name)
	}
	meta.CreatedAt = t

	if err := json.Unmarshal([]byte(schemaJSON), &meta.Columns); err != nil {
		return nil, errors.Annotatef(err, "decode schema of table %s", meta.Name)
	}
	return &meta, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
