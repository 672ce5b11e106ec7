// Package store defines the persistence contract for imported tables and an
// in-memory implementation of it.
package store

import (
	"context"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/domain/schema"
)

// Store keeps table metadata and rows, partitioned by owner.
//
// Implementations must be safe for concurrent use, return rows from ListRows
// in insertion order and report unknown tables with
// *errors.TableNotFoundError and name collisions with
// *errors.DuplicateTableNameError.
type Store interface {
	// CreateTable registers an empty table and returns its id
	CreateTable(ctx context.Context, owner, name string, columns []schema.Column) (string, error)
	// CreateTableWithRows registers a table holding rows. Either the table
	// and all of its rows become visible, including after a restart, or
	// nothing does.
	CreateTableWithRows(ctx context.Context, owner, name string, columns []schema.Column, rows []data.Row) (string, error)
	// AppendRows adds rows to an existing table
	AppendRows(ctx context.Context, tableID string, rows []data.Row) error
	GetTableByName(ctx context.Context, owner, name string) (*schema.TableMeta, error)
	ListRows(ctx context.Context, tableID string) ([]data.Row, error)
	// ListTables returns the owner's tables ordered by name
	ListTables(ctx context.Context, owner string) ([]*schema.TableMeta, error)
	// DropTable removes a table and its rows
	DropTable(ctx context.Context, owner, name string) error
	Close() error
}
