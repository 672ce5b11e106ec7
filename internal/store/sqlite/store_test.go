package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/store"
	"github.com/leengari/importq/internal/store/storetest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, quietLogger()), mock
}

func TestOnDisk(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "importq.db"), quietLogger())
		require.NoError(t, err)
		return s
	})
}

func TestInitSchema(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS imported_tables").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.initSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(insertTableSQL)).
		WithArgs(sqlmock.AnyArg(), "u1", "movies", sqlmock.AnyArg(), `[{"name":"id","type":"text"}]`).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

	_, err := s.CreateTable(context.Background(), "u1", "movies", schema.NewColumns([]string{"id"}, nil))

	var dup *domainerrors.DuplicateTableNameError
	require.True(t, errors.As(err, &dup), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableDriverError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(insertTableSQL)).
		WillReturnError(errors.New("disk I/O error"))

	_, err := s.CreateTable(context.Background(), "u1", "movies", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")

	var dup *domainerrors.DuplicateTableNameError
	assert.False(t, errors.As(err, &dup))
}

func TestCreateTableWithRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertTableSQL)).
		WithArgs(sqlmock.AnyArg(), "u1", "movies", sqlmock.AnyArg(), `[{"name":"id","type":"text"}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prepare := mock.ExpectPrepare(regexp.QuoteMeta(insertRowSQL))
	prepare.ExpectExec().WithArgs(sqlmock.AnyArg(), `{"id":1}`).WillReturnResult(sqlmock.NewResult(1, 1))
	prepare.ExpectExec().WithArgs(sqlmock.AnyArg(), `{"id":2}`).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta(bumpCountSQL)).
		WithArgs(2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := s.CreateTableWithRows(context.Background(), "u1", "movies",
		schema.NewColumns([]string{"id"}, nil),
		[]data.Row{{"id": float64(1)}, {"id": float64(2)}})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A failed row insert must take the metadata row with it
func TestCreateTableWithRowsRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertTableSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prepare := mock.ExpectPrepare(regexp.QuoteMeta(insertRowSQL))
	prepare.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.CreateTableWithRows(context.Background(), "u1", "movies",
		schema.NewColumns([]string{"id"}, nil), []data.Row{{"id": float64(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableWithRowsDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertTableSQL)).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	mock.ExpectRollback()

	_, err := s.CreateTableWithRows(context.Background(), "u1", "movies", nil, []data.Row{{"id": float64(1)}})

	var dup *domainerrors.DuplicateTableNameError
	require.True(t, errors.As(err, &dup), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(tableExistsSQL)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	prepare := mock.ExpectPrepare(regexp.QuoteMeta(insertRowSQL))
	prepare.ExpectExec().WithArgs("t1", `{"a":1}`).WillReturnResult(sqlmock.NewResult(1, 1))
	prepare.ExpectExec().WithArgs("t1", `{"a":"x","b":null}`).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta(bumpCountSQL)).
		WithArgs(2, "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.AppendRows(context.Background(), "t1", []data.Row{
		{"a": float64(1)},
		{"a": "x", "b": nil},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRowsRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(tableExistsSQL)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	prepare := mock.ExpectPrepare(regexp.QuoteMeta(insertRowSQL))
	prepare.ExpectExec().WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err := s.AppendRows(context.Background(), "t1", []data.Row{{"a": float64(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRowsUnknownTable(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(tableExistsSQL)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := s.AppendRows(context.Background(), "nope", []data.Row{{"a": float64(1)}})

	var nf *domainerrors.TableNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableByName(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(selectTableSQL + ` WHERE owner = ? AND table_name = ?`)

	mock.ExpectQuery(query).
		WithArgs("u1", "movies").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "table_name", "created_at", "schema_json", "row_count"}).
			AddRow("t1", "u1", "movies", created.Format(time.RFC3339Nano), `[{"name":"id","type":"text","inferred_type":"number"}]`, 3))
	mock.ExpectQuery(query).
		WithArgs("u1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "table_name", "created_at", "schema_json", "row_count"}))

	meta, err := s.GetTableByName(context.Background(), "u1", "movies")
	require.NoError(t, err)
	assert.Equal(t, "t1", meta.ID)
	assert.True(t, created.Equal(meta.CreatedAt))
	assert.EqualValues(t, 3, meta.RowCount)
	assert.Equal(t, []schema.Column{{Name: "id", Type: "text", InferredType: "number"}}, meta.Columns)

	_, err = s.GetTableByName(context.Background(), "u1", "missing")
	var nf *domainerrors.TableNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRowsOrderedByInsertion(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(tableExistsSQL)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(selectRowsSQL)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"row_data"}).
			AddRow(`{"n":1}`).
			AddRow(`{"n":2,"extra":null}`))

	rows, err := s.ListRows(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, []data.Row{
		{"n": float64(1)},
		{"n": float64(2), "extra": nil},
	}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
