package doc

import (
	"fmt"
	"strings"
)

// Lookup follows path from v. String steps index mappings and int steps
// index sequences. It reports false as soon as a step is missing or does not
// fit the value kind.
func Lookup(v Value, path ...any) (Value, bool) {
	cur := v
	for _, step := range path {
		switch s := step.(type) {
		case string:
			m, ok := AsMapping(cur)
			if !ok {
				return nil, false
			}
			next, ok := m.Get(s)
			if !ok {
				return nil, false
			}
			cur = next
		case int:
			seq, ok := AsSequence(cur)
			if !ok || s < 0 || s >= len(seq) {
				return nil, false
			}
			cur = seq[s]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// LookupMapping is Lookup that additionally requires a mapping at the end.
func LookupMapping(v Value, path ...any) (*Mapping, bool) {
	found, ok := Lookup(v, path...)
	if !ok {
		return nil, false
	}
	return AsMapping(found)
}

// FormatPath renders a lookup path as "allOf[0].properties".
func FormatPath(path ...any) string {
	var b strings.Builder
	for _, step := range path {
		switch s := step.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", s)
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, s)
		}
	}
	return b.String()
}
