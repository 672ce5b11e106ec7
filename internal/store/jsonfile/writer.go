package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pingcap/errors"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/domain/schema"
)

const (
	metaFile = "meta.json"
	dataFile = "data.json"
)

// writeFileAtomic writes to a temp file in the same directory and renames
// it over path, so readers never observe a half-written file
func writeFileAtomic(path string, b []byte) error {
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, b, 0644); err != nil {
		return errors.Annotatef(err, "write temp file %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Annotatef(err, "rename temp file to %s", path)
	}
	return nil
}

// saveMeta persists meta.json for a table directory
func saveMeta(dir string, meta *schema.TableMeta) error {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Annotatef(err, "marshal meta for %s", meta.Name)
	}
	return writeFileAtomic(filepath.Join(dir, metaFile), b)
}

// saveRows persists the full row array. Rows are written in insertion
// order, which is the order they are read back in.
func saveRows(dir string, rows []data.Row) error {
	if rows == nil {
		rows = []data.Row{}
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return errors.Annotate(err, "marshal rows")
	}
	return writeFileAtomic(filepath.Join(dir, dataFile), b)
}
