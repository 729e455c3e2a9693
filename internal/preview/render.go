package preview

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/salmonumbrella/harp-cli/internal/output"
	"github.com/salmonumbrella/harp-cli/internal/query"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"cell":    query.FormatCell,
		"anchors": anchors,
	}).ParseFS(templateFS, "templates/*.tmpl"),
)

// anchoredSection is a mask section with an element id that stays unique
// when a bit mask and a group mask share a name.
type anchoredSection struct {
	MaskSection
	ID string
}

func anchors(prefix string, sections []MaskSection) []anchoredSection {
	out := make([]anchoredSection, 0, len(sections))
	for _, s := range sections {
		out = append(out, anchoredSection{MaskSection: s, ID: prefix + "-" + s.Name})
	}
	return out
}

// RenderHTML writes p as a standalone HTML page.
func RenderHTML(w io.Writer, p *Preview) error {
	if err := templates.ExecuteTemplate(w, "preview", p); err != nil {
		return fmt.Errorf("executing template preview: %w", err)
	}
	return nil
}

// RenderText writes p as headed, tab-aligned tables.
func RenderText(w io.Writer, p *Preview, s output.Styler) error {
	tw := &textWriter{w: w, s: s}

	tw.line(s.Title(p.Title))
	tw.blank()
	tw.table(p.Device)

	if p.Registers != nil {
		tw.blank()
		tw.line(s.Heading("Registers"))
		tw.table(*p.Registers)
	}

	tw.masks("Bit Masks", p.BitMasks)
	tw.masks("Group Masks", p.GroupMasks)
	return tw.err
}

// RenderTables writes only the tables of p, one block per table, without
// headings or descriptions.
func RenderTables(w io.Writer, p *Preview) error {
	tw := &textWriter{w: w}
	tw.table(p.Device)
	if p.Registers != nil {
		tw.blank()
		tw.table(*p.Registers)
	}
	for _, sections := range [][]MaskSection{p.BitMasks, p.GroupMasks} {
		for _, m := range sections {
			if m.Table == nil {
				continue
			}
			tw.blank()
			tw.table(*m.Table)
		}
	}
	return tw.err
}

// textWriter keeps the first write error so rendering code stays linear.
type textWriter struct {
	w   io.Writer
	s   output.Styler
	err error
}

func (t *textWriter) line(text string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.w, text)
}

func (t *textWriter) blank() { t.line("") }

func (t *textWriter) table(table query.Table) {
	if t.err != nil {
		return
	}
	t.err = output.WriteTable(t.w, table.Headers, table.Strings())
}

func (t *textWriter) masks(heading string, sections []MaskSection) {
	if len(sections) == 0 {
		return
	}
	t.blank()
	t.line(t.s.Heading(heading))
	for _, m := range sections {
		t.blank()
		t.line(m.Name)
		if m.Description != "" {
			t.line(t.s.Note(m.Description))
		}
		if m.Err != nil {
			t.line(t.s.Error("error: " + m.Err.Error()))
			continue
		}
		t.table(*m.Table)
	}
}
