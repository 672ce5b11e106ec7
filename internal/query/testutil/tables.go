// Package testutil seeds stores with fixture tables for query tests.
package testutil

import (
	"context"
	"testing"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/store"
)

// Seed creates a table for owner and appends rows to it
func Seed(t *testing.T, s store.Store, owner, name string, columns []string, rows []data.Row) string {
	t.Helper()
	ctx := context.Background()

	id, err := s.CreateTable(ctx, owner, name, schema.NewColumns(columns, nil))
	if err != nil {
		t.Fatalf("seed %s: create table: %v", name, err)
	}
	if err := s.AppendRows(ctx, id, rows); err != nil {
		t.Fatalf("seed %s: append rows: %v", name, err)
	}
	return id
}

// UsersRows is a small table with a numeric id and a text name
func UsersRows() []data.Row {
	return []data.Row{
		{"id": float64(1), "name": "a"},
		{"id": float64(2), "name": "b"},
	}
}

// MoviesRows mixes numbers, numeric strings, nulls and a row missing a key
func MoviesRows() []data.Row {
	return []data.Row{
		{"id": float64(1), "title": "Inception", "year": float64(2010), "rating": float64(8.8)},
		{"id": float64(2), "title": "Up", "year": "2009", "rating": nil},
		{"id": float64(3), "title": "Heat", "year": float64(1995)},
		{"id": float64(4), "title": "Alien", "year": float64(1979), "rating": float64(8.5)},
	}
}

// SeedMovies stores MoviesRows as owner's "movies" table
func SeedMovies(t *testing.T, s store.Store, owner string) string {
	t.Helper()
	return Seed(t, s, owner, "movies", []string{"id", "title", "year", "rating"}, MoviesRows())
}
