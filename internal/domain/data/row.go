package data

import (
	"encoding/json"
	"sort"
)

// Row represents a single imported row
// Key = column name, Value = cell value (string, float64 or nil)
// Rows of one table need not share the same key set.
type Row map[string]interface{}

// Get returns the value stored under column.
// A missing key reads as nil, exactly like an explicit NULL.
func (r Row) Get(column string) interface{} {
	if r == nil {
		return nil
	}
	return r[column]
}

// Has reports whether the row carries column at all
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Copy creates a shallow copy of the row to prevent mutation
func (r Row) Copy() Row {
	copy := make(Row, len(r))
	for k, v := range r {
		copy[k] = v
	}
	return copy
}

// Keys returns the row's column names in sorted order
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToJSON serializes the row for storage backends that keep it as a document
func (r Row) ToJSON() (json.RawMessage, error) {
	return json.Marshal(map[string]interface{}(r))
}

// FromJSON decodes a stored row document.
// JSON numbers come back as float64, which is the row's only number type.
func FromJSON(raw []byte) (Row, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	return Row(m), nil
}

// CopyRows copies every row of the slice
func CopyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Copy()
	}
	return out
}
