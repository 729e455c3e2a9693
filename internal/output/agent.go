package output

import (
	"context"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ApplyAgentOptions applies --result-limit/--result-sort-by/--result-desc to
// output data when possible. Tables sort on the column whose header matches;
// other slices are only limited.
func ApplyAgentOptions(ctx context.Context, data interface{}) interface{} {
	if data == nil {
		return data
	}

	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	if limit == 0 && sortBy == "" {
		return data
	}

	if table, ok := data.(Table); ok {
		return applyToTable(table, limit, sortBy, desc)
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice && limit > 0 && limit < v.Len() {
		return v.Slice(0, limit).Interface()
	}
	return data
}

// applyToTable copies, sorts, and limits table rows. Unknown sort columns
// leave the order unchanged.
func applyToTable(t Table, limit int, sortBy string, desc bool) Table {
	rows := make([][]string, len(t.Rows))
	copy(rows, t.Rows)

	if col := columnIndex(t.Headers, sortBy); col >= 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			cmp := compareCells(cell(rows[i], col), cell(rows[j], col))
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return Table{Headers: t.Headers, Rows: rows}
}

func columnIndex(headers []string, name string) int {
	if name == "" {
		return -1
	}
	norm := normalizeName(name)
	for i, h := range headers {
		if normalizeName(h) == norm {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, "_", ""), "-", ""))
}

// compareCells orders numerically when both cells are integers (decimal or
// 0x hex), otherwise lexically.
func compareCells(a, b string) int {
	an, aerr := strconv.ParseInt(a, 0, 64)
	bn, berr := strconv.ParseInt(b, 0, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
