package schema

import (
	"time"
)

// ColumnTypeText is the only declared type an imported column carries.
// The inferred type is kept separately for display.
const ColumnTypeText = "text"

// Column describes one declared column of an imported table
type Column struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type" yaml:"type"`
	InferredType string `json:"inferred_type,omitempty" yaml:"inferred_type,omitempty"`
}

// TableMeta describes a stored table, distinct from its rows
type TableMeta struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"table_name"`
	CreatedAt time.Time `json:"created_at"`
	Columns   []Column  `json:"columns"`
	RowCount  int64     `json:"row_count"`
}

// NewColumns builds the declared column list for the given names.
// inferred may be nil or shorter than names.
func NewColumns(names []string, inferred []string) []Column {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Type: ColumnTypeText}
		if i < len(inferred) {
			cols[i].InferredType = inferred[i]
		}
	}
	return cols
}

// ColumnNames returns the declared column names in order
func (m *TableMeta) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is a declared column
func (m *TableMeta) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with m
func (m *TableMeta) Clone() *TableMeta {
	c := *m
	c.Columns = append([]Column(nil), m.Columns...)
	return &c
}
