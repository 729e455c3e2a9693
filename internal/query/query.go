// Package query projects device documents onto schema descriptors.
//
// Every function here is a pure computation over its inputs: descriptor
// lists are only read, and each call allocates a fresh Table. Descriptor
// lists can therefore be shared between concurrent renders.
package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salmonumbrella/harp-cli/internal/doc"
	"github.com/salmonumbrella/harp-cli/internal/schema"
)

// Table is an ordered projection result. Headers is nil for single-entity
// tables. Cells hold strings, numbers or the native form of structured
// document values.
type Table struct {
	Headers []string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

var maskHeaders = []string{"name", "value", "description"}

// DeviceAttributes returns one [name, value] row per descriptor, in
// descriptor order, taking the value from the instance when present and the
// descriptor default otherwise.
func DeviceAttributes(instance *doc.Mapping, descriptors []schema.Descriptor) Table {
	rows := make([][]any, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, []any{d.Name, resolve(instance, d)})
	}
	return Table{Rows: rows}
}

// RegisterAttributes returns one row per register in document order: the
// register name followed by each resolved descriptor value.
func RegisterAttributes(registers *doc.Mapping, descriptors []schema.Descriptor) Table {
	headers := make([]string, 0, len(descriptors)+1)
	headers = append(headers, "name")
	for _, d := range descriptors {
		headers = append(headers, ColumnName(d.Name))
	}

	rows := make([][]any, 0, registers.Len())
	for _, e := range registers.Entries() {
		// A register that is not a mapping (e.g. null) resolves to defaults.
		attrs, _ := doc.AsMapping(e.Value)
		row := make([]any, 0, len(descriptors)+1)
		row = append(row, e.Key)
		for _, d := range descriptors {
			row = append(row, resolve(attrs, d))
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}
}

// ColumnName derives a display header from a descriptor name by cutting a
// "Value" suffix: "sizeValue" becomes "size".
func ColumnName(name string) string {
	if !strings.HasSuffix(name, "Value") {
		return name
	}
	return name[:strings.Index(name, "Value")]
}

func resolve(instance *doc.Mapping, d schema.Descriptor) any {
	if v, ok := instance.Get(d.Name); ok {
		return v.Native()
	}
	return d.Default
}

// MarshalJSON encodes the table with non-finite numbers written as text.
func (t Table) MarshalJSON() ([]byte, error) {
	type plain Table
	out := plain{Headers: t.Headers}
	if t.Rows != nil {
		out.Rows = make([][]any, 0, len(t.Rows))
		for _, row := range t.Rows {
			cells := make([]any, 0, len(row))
			for _, c := range row {
				cells = append(cells, doc.JSONValue(c))
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return json.Marshal(out)
}

// Strings returns the rows with every cell formatted by FormatCell.
func (t Table) Strings() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, FormatCell(c))
		}
		out = append(out, cells)
	}
	return out
}

// FormatCell renders a cell for display. Null is empty and structured values
// use YAML flow style.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *doc.Mapping:
		return x.String()
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, FormatCell(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}
