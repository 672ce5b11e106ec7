// Package jsonfile is a durable store keeping one directory per table, with
// metadata in meta.json and rows in data.json.
//
//	<root>/<owner>/<table>/meta.json
//	<root>/<owner>/<table>/data.json
//
// The whole store is loaded at Open and every mutation rewrites the affected
// files atomically.
package jsonfile

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/errors"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/store"
)

type table struct {
	dir  string
	meta *schema.TableMeta
	rows []data.Row
}

// Store implements store.Store on the filesystem
type Store struct {
	mu     sync.RWMutex
	root   string
	logger *slog.Logger
	byID   map[string]*table
	byName map[string]map[string]*table // owner -> name -> table
}

var _ store.Store = (*Store)(nil)

// Open loads (or initializes) a store rooted at dir
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Annotatef(err, "create store directory %s", dir)
	}

	tables, err := loadAll(dir, logger)
	if err != nil {
		return nil, err
	}

	s := &Store{
		root:   dir,
		logger: logger,
		byID:   make(map[string]*table),
		byName: make(map[string]map[string]*table),
	}
	for _, t := range tables {
		s.index(t)
	}

	logger.Info("json store opened",
		slog.String("path", dir),
		slog.Int("table_count", len(tables)),
	)
	return s, nil
}

func (s *Store) index(t *table) {
	names, ok := s.byName[t.meta.Owner]
	if !ok {
		names = make(map[string]*table)
		s.byName[t.meta.Owner] = names
	}
	names[t.meta.Name] = t
	s.byID[t.meta.ID] = t
}

// segment escapes one owner or table name into a single path element.
// Dots are escaped too, so "." and ".." never reach the filesystem.
func segment(name string) string {
	return strings.ReplaceAll(url.PathEscape(name), ".", "%2E")
}

// tableDir maps owner and table name to a directory strictly below root
func (s *Store) tableDir(owner, name string) (string, error) {
	if owner == "" {
		return "", &domainerrors.InvalidOwnerError{Owner: owner}
	}
	if name == "" {
		return "", &domainerrors.InvalidTableNameError{Name: name}
	}

	dir := filepath.Join(s.root, segment(owner), segment(name))
	rel, err := filepath.Rel(s.root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.Count(rel, string(filepath.Separator)) != 1 {
		return "", &domainerrors.InvalidOwnerError{Owner: owner}
	}
	return dir, nil
}

func (s *Store) CreateTable(ctx context.Context, owner, name string, columns []schema.Column) (string, error) {
	return s.CreateTableWithRows(ctx, owner, name, columns, nil)
}

// CreateTableWithRows writes data.json with every row before meta.json.
// Until meta.json lands the directory is skipped on load, so a crash in
// between leaves no table behind.
func (s *Store) CreateTableWithRows(ctx context.Context, owner, name string, columns []schema.Column, rows []data.Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[owner][name]; exists {
		return "", &domainerrors.DuplicateTableNameError{Owner: owner, Table: name}
	}

	dir, err := s.tableDir(owner, name)
	if err != nil {
		return "", err
	}

	t := &table{
		dir: dir,
		meta: &schema.TableMeta{
			ID:        uuid.NewString(),
			Owner:     owner,
			Name:      name,
			CreatedAt: time.Now().UTC(),
			Columns:   append([]schema.Column(nil), columns...),
			RowCount:  int64(len(rows)),
		},
		rows: data.CopyRows(rows),
	}

	// Leftovers of an import that died before meta.json was written
	if err := os.RemoveAll(t.dir); err != nil {
		return "", errors.Annotatef(err, "clear table directory %s", t.dir)
	}
	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return "", errors.Annotatef(err, "create table directory %s", t.dir)
	}
	if err := saveRows(t.dir, t.rows); err != nil {
		_ = os.RemoveAll(t.dir)
		return "", err
	}
	if err := saveMeta(t.dir, t.meta); err != nil {
		_ = os.RemoveAll(t.dir)
		return "", err
	}

	s.index(t)
	s.logger.Info("table created",
		slog.String("owner", owner),
		slog.String("table", name),
		slog.String("table_id", t.meta.ID),
		slog.Int("rows", len(rows)),
	)
	return t.meta.ID, nil
}

func (s *Store) AppendRows(ctx context.Context, tableID string, rows []data.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[tableID]
	if !ok {
		return &domainerrors.TableNotFoundError{Table: tableID}
	}

	next := make([]data.Row, len(t.rows), len(t.rows)+len(rows))
	copy(next, t.rows)
	for _, r := range rows {
		next = append(next, r.Copy())
	}

	if err := saveRows(t.dir, next); err != nil {
		return err
	}
	t.rows = next
	t.meta.RowCount = int64(len(next))
	if err := saveMeta(t.dir, t.meta); err != nil {
		return err
	}

	s.logger.Debug("rows appended",
		slog.String("table_id", tableID),
		slog.Int("appended", len(rows)),
		slog.Int64("row_count", t.meta.RowCount),
	)
	return nil
}

func (s *Store) GetTableByName(ctx context.Context, owner, name string) (*schema.TableMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byName[owner][name]
	if !ok {
		return nil, &domainerrors.TableNotFoundError{Owner: owner, Table: name}
	}
	return t.meta.Clone(), nil
}

func (s *Store) ListRows(ctx context.Context, tableID string) ([]data.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[tableID]
	if !ok {
		return nil, &domainerrors.TableNotFoundError{Table: tableID}
	}
	return data.CopyRows(t.rows), nil
}

func (s *Store) ListTables(ctx context.Context, owner string) ([]*schema.TableMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make([]*schema.TableMeta, 0, len(s.byName[owner]))
	for _, t := range s.byName[owner] {
		tables = append(tables, t.meta.Clone())
	}
	store.SortTables(tables)
	return tables, nil
}

func (s *Store) DropTable(ctx context.Context, owner, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byName[owner][name]
	if !ok {
		return &domainerrors.TableNotFoundError{Owner: owner, Table: name}
	}
	if err := os.RemoveAll(t.dir); err != nil {
		return errors.Annotatef(err, "remove table directory %s", t.dir)
	}

	delete(s.byName[owner], name)
	delete(s.byID, t.meta.ID)

	s.logger.Info("table dropped",
		slog.String("owner", owner),
		slog.String("table", name),
	)
	return nil
}

// Close is a no-op; every mutation is already on disk
func (s *Store) Close() error { return nil }
