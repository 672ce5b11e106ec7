package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
)

type memTable struct {
	meta schema.TableMeta
	rows []data.Row
}

// Memory is a process-local Store. Nothing survives a restart.
type Memory struct {
	mu     sync.RWMutex
	byID   map[string]*memTable
	byName map[string]map[string]string // owner -> name -> id
	now    func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[string]*memTable),
		byName: make(map[string]map[string]string),
		now:    time.Now,
	}
}

func (m *Memory) CreateTable(ctx context.Context, owner, name string, columns []schema.Column) (string, error) {
	return m.CreateTableWithRows(ctx, owner, name, columns, nil)
}

func (m *Memory) CreateTableWithRows(ctx context.Context, owner, name string, columns []schema.Column, rows []data.Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	names, ok := m.byName[owner]
	if !ok {
		names = make(map[string]string)
		m.byName[owner] = names
	}
	if _, exists := names[name]; exists {
		return "", &domainerrors.DuplicateTableNameError{Owner: owner, Table: name}
	}

	id := uuid.NewString()
	cols := make([]schema.Column, len(columns))
	copy(cols, columns)

	m.byID[id] = &memTable{
		meta: schema.TableMeta{
			ID:        id,
			Owner:     owner,
			Name:      name,
			CreatedAt: m.now().UTC(),
			Columns:   cols,
			RowCount:  int64(len(rows)),
		},
		rows: data.CopyRows(rows),
	}
	names[name] = id
	return id, nil
}

func (m *Memory) AppendRows(ctx context.Context, tableID string, rows []data.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byID[tableID]
	if !ok {
		return &domainerrors.TableNotFoundError{Table: tableID}
	}
	for _, r := range rows {
		t.rows = append(t.rows, r.Copy())
	}
	t.meta.RowCount = int64(len(t.rows))
	return nil
}

func (m *Memory) GetTableByName(ctx context.Context, owner, name string) (*schema.TableMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[owner][name]
	if !ok {
		return nil, &domainerrors.TableNotFoundError{Owner: owner, Table: name}
	}
	return m.byID[id].meta.Clone(), nil
}

func (m *Memory) ListRows(ctx context.Context, tableID string) ([]data.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.byID[tableID]
	if !ok {
		return nil, &domainerrors.TableNotFoundError{Table: tableID}
	}
	return data.CopyRows(t.rows), nil
}

func (m *Memory) ListTables(ctx context.Context, owner string) ([]*schema.TableMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tables := make([]*schema.TableMeta, 0, len(m.byName[owner]))
	for _, id := range m.byName[owner] {
		tables = append(tables, m.byID[id].meta.Clone())
	}
	SortTables(tables)
	return tables, nil
}

func (m *Memory) DropTable(ctx context.Context, owner, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byName[owner][name]
	if !ok {
		return &domainerrors.TableNotFoundError{Owner: owner, Table: name}
	}
	delete(m.byName[owner], name)
	delete(m.byID, id)
	return nil
}

func (m *Memory) Close() error { return nil }

// SortTables orders metadata by table name
func SortTables(tables []*schema.TableMeta) {
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name < tables[j].Name
	})
}
