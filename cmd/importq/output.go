package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pingcap/errors"
	"gopkg.in/yaml.v3"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/engine"
	"github.com/leengari/importq/internal/repl"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutput(output string) error {
	switch output {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return errors.Errorf("invalid output %q: want table, json or yaml", output)
}

type queryDoc struct {
	Data      []data.Row `json:"data" yaml:"data"`
	RowCount  int        `json:"rowCount" yaml:"rowCount"`
	Columns   []string   `json:"columns" yaml:"columns"`
	Truncated bool       `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Insights  string     `json:"insights,omitempty" yaml:"insights,omitempty"`
}

type tableDoc struct {
	Name      string          `json:"table_name" yaml:"table_name"`
	ID        string          `json:"id" yaml:"id"`
	RowCount  int64           `json:"row_count" yaml:"row_count"`
	CreatedAt string          `json:"created_at" yaml:"created_at"`
	Columns   []schema.Column `json:"columns" yaml:"columns"`
}

type assistDoc struct {
	Mode     string    `json:"mode" yaml:"mode"`
	Response string    `json:"response" yaml:"response"`
	SQL      string    `json:"sql,omitempty" yaml:"sql,omitempty"`
	Result   *queryDoc `json:"result,omitempty" yaml:"result,omitempty"`
	RunError string    `json:"run_error,omitempty" yaml:"run_error,omitempty"`
}

func newQueryDoc(res *engine.QueryResult) queryDoc {
	rows := res.Rows
	if rows == nil {
		rows = []data.Row{}
	}
	return queryDoc{
		Data:      rows,
		RowCount:  res.RowCount,
		Columns:   res.Columns,
		Truncated: res.Truncated,
		Insights:  res.Insights,
	}
}

func writeQueryResult(w io.Writer, output string, res *engine.QueryResult) error {
	if output == outputTable {
		repl.PrintResult(w, res)
		return nil
	}
	return encode(w, output, newQueryDoc(res))
}

func writeAssist(w io.Writer, output string, res *engine.AssistResult) error {
	if output == outputTable {
		repl.PrintAssist(w, res)
		return nil
	}
	doc := assistDoc{Mode: string(res.Mode), Response: res.Response, SQL: res.SQL}
	if res.Result != nil {
		q := newQueryDoc(res.Result)
		doc.Result = &q
	}
	if res.RunErr != nil {
		doc.RunError = res.RunErr.Error()
	}
	return encode(w, output, doc)
}

func writeTables(w io.Writer, output string, tables []*schema.TableMeta) error {
	if output == outputTable {
		repl.PrintTables(w, tables)
		return nil
	}
	docs := make([]tableDoc, len(tables))
	for i, t := range tables {
		docs[i] = tableDoc{
			Name:      t.Name,
			ID:        t.ID,
			RowCount:  t.RowCount,
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
			Columns:   t.Columns,
		}
	}
	return encode(w, output, docs)
}

func encode(w io.Writer, output string, v interface{}) error {
	if output == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(enc.Close())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Trace(enc.Encode(v))
}
