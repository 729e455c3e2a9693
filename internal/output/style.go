package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Styler renders decorated text. A plain Styler returns its input unchanged
// so redirected output stays free of escape codes.
type Styler struct {
	styled bool
}

// NewStyler returns a Styler that decorates only when styled is true.
func NewStyler(styled bool) Styler {
	return Styler{styled: styled}
}

func (s Styler) render(style lipgloss.Style, text string) string {
	if !s.styled {
		return text
	}
	return style.Render(text)
}

// Title renders a document title.
func (s Styler) Title(text string) string { return s.render(titleStyle, text) }

// Heading renders a section heading.
func (s Styler) Heading(text string) string { return s.render(headingStyle, text) }

// Note renders secondary text such as descriptions.
func (s Styler) Note(text string) string { return s.render(noteStyle, text) }

// Error renders an error marker.
func (s Styler) Error(text string) string { return s.render(errorStyle, text) }

// Success writes a status line for a completed operation.
func (s Styler) Success(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, s.render(successStyle, msg))
}

// Failure writes a status line for a failed operation.
func (s Styler) Failure(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, s.render(errorStyle, msg))
}
