// Package preview assembles the tables of one device document into a
// renderable preview and writes it as HTML or terminal text.
package preview

import (
	"github.com/salmonumbrella/harp-cli/internal/device"
	"github.com/salmonumbrella/harp-cli/internal/output"
	"github.com/salmonumbrella/harp-cli/internal/query"
	"github.com/salmonumbrella/harp-cli/internal/schema"
)

// Preview is everything shown for one device document.
type Preview struct {
	Title  string      `json:"title" yaml:"title"`
	Device query.Table `json:"device" yaml:"device"`
	// Registers is nil when the document has no registers section.
	Registers  *query.Table  `json:"registers,omitempty" yaml:"registers,omitempty"`
	BitMasks   []MaskSection `json:"bitMasks" yaml:"bitMasks"`
	GroupMasks []MaskSection `json:"groupMasks" yaml:"groupMasks"`
}

// MaskSection is one decoded mask. When decoding failed, Table is nil and
// Err holds the reason; the description is still shown.
type MaskSection struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Table       *query.Table `json:"table,omitempty" yaml:"table,omitempty"`
	Err         error        `json:"-" yaml:"-"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Build projects d against the descriptor set.
func Build(d *device.Device, set *schema.Set) *Preview {
	p := &Preview{
		Title:      d.Name,
		Device:     query.DeviceAttributes(d.Attributes, set.Device),
		BitMasks:   MaskSections(d.BitMasks),
		GroupMasks: MaskSections(d.GroupMasks),
	}
	if d.Registers != nil {
		registers := query.RegisterAttributes(d.Registers, set.Register)
		p.Registers = &registers
	}
	return p
}

// MaskSections decodes each mask independently. A mask that cannot be
// decoded does not affect the others.
func MaskSections(masks []device.Mask) []MaskSection {
	sections := make([]MaskSection, 0, len(masks))
	for _, m := range masks {
		section := MaskSection{Name: m.Name, Description: m.Description}
		table, err := query.MaskAttributes(m.Entries)
		if err != nil {
			section.Err = err
			section.Error = err.Error()
		} else {
			section.Table = &table
		}
		sections = append(sections, section)
	}
	return sections
}

// Errors returns the decoding errors of all mask sections.
func (p *Preview) Errors() []error {
	var errs []error
	for _, sections := range [][]MaskSection{p.BitMasks, p.GroupMasks} {
		for _, s := range sections {
			if s.Err != nil {
				errs = append(errs, s.Err)
			}
		}
	}
	return errs
}

// RegisterTable returns the register table in printer form, or false when
// the document has no registers section.
func (p *Preview) RegisterTable() (output.Table, bool) {
	if p.Registers == nil {
		return output.Table{}, false
	}
	return toOutputTable(*p.Registers), true
}

// WithRegisterTable returns a copy of p whose register rows are replaced by
// t. Used to apply row limit/sort options to the text rendering.
func (p *Preview) WithRegisterTable(t output.Table) *Preview {
	cp := *p
	rows := make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]any, 0, len(r))
		for _, c := range r {
			row = append(row, c)
		}
		rows = append(rows, row)
	}
	cp.Registers = &query.Table{Headers: t.Headers, Rows: rows}
	return &cp
}

func toOutputTable(t query.Table) output.Table {
	return output.Table{Headers: t.Headers, Rows: t.Strings()}
}
