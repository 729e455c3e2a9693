package output

// Table represents a pre-rendered table for table output formatting.
// A nil Headers slice means the table has no header row.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}
