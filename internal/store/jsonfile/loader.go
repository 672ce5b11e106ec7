package jsonfile

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pingcap/errors"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/domain/schema"
)

// loadTable reads one table directory. A missing data.json means the table
// was created but never received rows.
func loadTable(dir string, logger *slog.Logger) (*table, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, errors.Annotatef(err, "read meta in %s", dir)
	}

	var meta schema.TableMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, errors.Annotatef(err, "parse meta in %s", dir)
	}

	rows := []data.Row{}
	dataBytes, err := os.ReadFile(filepath.Join(dir, dataFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(dataBytes, &rows); err != nil {
			return nil, errors.Annotatef(err, "parse rows in %s", dir)
		}
	case !os.IsNotExist(err):
		return nil, errors.Annotatef(err, "read rows in %s", dir)
	}
	meta.RowCount = int64(len(rows))

	logger.Debug("table loaded",
		slog.String("owner", meta.Owner),
		slog.String("table", meta.Name),
		slog.Int("rows", len(rows)),
	)

	return &table{dir: dir, meta: &meta, rows: rows}, nil
}

// loadAll walks root/<owner>/<table> and loads every table found
func loadAll(root string, logger *slog.Logger) ([]*table, error) {
	owners, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Annotatef(err, "read store directory %s", root)
	}

	var tables []*table
	for _, owner := range owners {
		if !owner.IsDir() {
			continue
		}
		ownerDir := filepath.Join(root, owner.Name())
		entries, err := os.ReadDir(ownerDir)
		if err != nil {
			return nil, errors.Annotatef(err, "read owner directory %s", ownerDir)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(ownerDir, entry.Name())
			if _, err := os.Stat(filepath.Join(dir, metaFile)); os.IsNotExist(err) {
				logger.Warn("skipping table directory without meta.json", slog.String("path", dir))
				continue
			}
			t, err := loadTable(dir, logger)
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		}
	}
	return tables, nil
}
