// Package storetest runs the behaviour every store.Store must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/store"
)

// Factory returns a fresh, empty store for one subtest
type Factory func(t *testing.T) store.Store

// Run exercises a store implementation
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"DuplicateName", testDuplicateName},
		{"SameNameDifferentOwners", testSameNameDifferentOwners},
		{"NotFound", testNotFound},
		{"InsertionOrder", testInsertionOrder},
		{"OpenRows", testOpenRows},
		{"ListTables", testListTables},
		{"DropTable", testDropTable},
		{"ConcurrentAppend", testConcurrentAppend},
		{"CreateWithRows", testCreateWithRows},
		{"UnusualOwners", testUnusualOwners},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func columns(names ...string) []schema.Column {
	return schema.NewColumns(names, nil)
}

func testCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateTable(ctx, "u1", "movies", columns("id", "title"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	meta, err := s.GetTableByName(ctx, "u1", "movies")
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "u1", meta.Owner)
	assert.Equal(t, "movies", meta.Name)
	assert.Equal(t, []string{"id", "title"}, meta.ColumnNames())
	assert.Equal(t, schema.ColumnTypeText, meta.Columns[0].Type)
	assert.False(t, meta.CreatedAt.IsZero())

	rows, err := s.ListRows(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testDuplicateName(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.CreateTable(ctx, "u1", "movies", columns("id"))
	require.NoError(t, err)

	_, err = s.CreateTable(ctx, "u1", "movies", columns("id"))
	var dup *domainerrors.DuplicateTableNameError
	require.True(t, errors.As(err, &dup), "expected DuplicateTableNameError, got %v", err)
	assert.Equal(t, "movies", dup.Table)
}

func testSameNameDifferentOwners(t *testing.T, s store.Store) {
	ctx := context.Background()

	id1, err := s.CreateTable(ctx, "u1", "movies", columns("id"))
	require.NoError(t, err)
	id2, err := s.CreateTable(ctx, "u2", "movies", columns("id"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	require.NoError(t, s.AppendRows(ctx, id1, []data.Row{{"id": float64(1)}}))

	rows, err := s.ListRows(ctx, id2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.CreateTable(ctx, "u1", "movies", columns("id"))
	require.NoError(t, err)

	var nf *domainerrors.TableNotFoundError
	_, err = s.GetTableByName(ctx, "u2", "movies")
	assert.True(t, errors.As(err, &nf), "other owner: %v", err)

	_, err = s.GetTableByName(ctx, "u1", "Movies")
	assert.True(t, errors.As(err, &nf), "names are case-sensitive: %v", err)

	err = s.DropTable(ctx, "u1", "missing")
	assert.True(t, errors.As(err, &nf), "drop missing: %v", err)
}

func testInsertionOrder(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateTable(ctx, "u1", "seq", columns("n"))
	require.NoError(t, err)

	var want []data.Row
	for batch := 0; batch < 3; batch++ {
		var rows []data.Row
		for i := 0; i < 5; i++ {
			rows = append(rows, data.Row{"n": float64(batch*5 + i)})
		}
		require.NoError(t, s.AppendRows(ctx, id, rows))
		want = append(want, rows...)
	}

	got, err := s.ListRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	meta, err := s.GetTableByName(ctx, "u1", "seq")
	require.NoError(t, err)
	assert.EqualValues(t, 15, meta.RowCount)
}

func testOpenRows(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateTable(ctx, "u1", "mixed", columns("a", "b"))
	require.NoError(t, err)

	rows := []data.Row{
		{"a": "x", "b": nil},
		{"a": float64(2.5)},
		{"c": "extra"},
	}
	require.NoError(t, s.AppendRows(ctx, id, rows))

	got, err := s.ListRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	// Mutating the returned rows must not change stored state
	got[0]["a"] = "changed"
	again, err := s.ListRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "x", again[0]["a"])
}

func testListTables(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.CreateTable(ctx, "u1", name, columns("id"))
		require.NoError(t, err)
	}
	_, err := s.CreateTable(ctx, "u2", "other", columns("id"))
	require.NoError(t, err)

	tables, err := s.ListTables(ctx, "u1")
	require.NoError(t, err)

	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)

	none, err := s.ListTables(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDropTable(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateTable(ctx, "u1", "movies", columns("id"))
	require.NoError(t, err)
	require.NoError(t, s.AppendRows(ctx, id, []data.Row{{"id": float64(1)}}))

	require.NoError(t, s.DropTable(ctx, "u1", "movies"))

	var nf *domainerrors.TableNotFoundError
	_, err = s.GetTableByName(ctx, "u1", "movies")
	assert.True(t, errors.As(err, &nf))

	// The name is free again and the new table starts empty
	id2, err := s.CreateTable(ctx, "u1", "movies", columns("id"))
	require.NoError(t, err)
	rows, err := s.ListRows(ctx, id2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testConcurrentAppend(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateTable(ctx, "u1", "busy", columns("worker", "i"))
	require.NoError(t, err)

	const workers, perWorker = 4, 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				row := data.Row{"worker": fmt.Sprintf("w%d", w), "i": float64(i)}
				if err := s.AppendRows(ctx, id, []data.Row{row}); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := s.ListRows(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, workers*perWorker)

	// Each worker's rows keep their relative order
	last := map[string]float64{}
	for _, r := range rows {
		w := r["worker"].(string)
		if prev, ok := last[w]; ok {
			assert.Greater(t, r["i"].(float64), prev)
		}
		last[w] = r["i"].(float64)
	}
}

func testCreateWithRows(t *testing.T, s store.Store) {
	ctx := context.Background()

	rows := []data.Row{{"id": float64(1)}, {"id": float64(2)}, {"id": nil}}
	id, err := s.CreateTableWithRows(ctx, "u1", "batch", columns("id"), rows)
	require.NoError(t, err)

	meta, err := s.GetTableByName(ctx, "u1", "batch")
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.EqualValues(t, 3, meta.RowCount)

	got, err := s.ListRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	// The caller's slice is not shared with the store
	rows[0]["id"] = "changed"
	got, err = s.ListRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got[0]["id"])

	_, err = s.CreateTableWithRows(ctx, "u1", "batch", columns("id"), rows)
	var dup *domainerrors.DuplicateTableNameError
	require.True(t, errors.As(err, &dup), "expected DuplicateTableNameError, got %v", err)
}

// Owner ids shaped like path elements are still separate partitions
func testUnusualOwners(t *testing.T, s store.Store) {
	ctx := context.Background()

	owners := []string{"..", ".", "a/b", "a%2Fb", "%2E"}
	for _, owner := range owners {
		_, err := s.CreateTableWithRows(ctx, owner, "movies", columns("owner"), []data.Row{{"owner": owner}})
		require.NoError(t, err, owner)
	}

	for _, owner := range owners {
		tables, err := s.ListTables(ctx, owner)
		require.NoError(t, err)
		require.Len(t, tables, 1, owner)

		rows, err := s.ListRows(ctx, tables[0].ID)
		require.NoError(t, err)
		assert.Equal(t, []data.Row{{"owner": owner}}, rows, owner)
	}

	require.NoError(t, s.DropTable(ctx, "..", "movies"))
	_, err := s.GetTableByName(ctx, ".", "movies")
	require.NoError(t, err)
}
