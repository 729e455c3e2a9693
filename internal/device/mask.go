package device

import (
	"github.com/salmonumbrella/harp-cli/internal/doc"
)

// MaskKind distinguishes bit masks from group masks. Each kind keeps its
// sub-values under its own key.
type MaskKind int

const (
	BitMask MaskKind = iota
	GroupMask
)

// EntriesKey is the mask field holding the named sub-values.
func (k MaskKind) EntriesKey() string {
	if k == GroupMask {
		return "values"
	}
	return "bits"
}

// Mask is a named bit field or value group.
type Mask struct {
	Name        string
	Kind        MaskKind
	Description string
	Entries     []MaskEntry
}

// MaskEntry is either a FlatMaskEntry or a GroupMaskEntry.
type MaskEntry interface {
	EntryName() string
	isMaskEntry()
}

// FlatMaskEntry is a sub-value given directly, e.g. `BIT0: 0x1`. Value is
// whatever the document held, including values that are not numeric.
type FlatMaskEntry struct {
	Name  string
	Value doc.Value
}

// GroupMaskEntry is a sub-value given as a small record, e.g.
// `FLAG: {0x2: enabled, extra: note}`. Key is the record's first key, which
// carries the numeric value; Fields are the record's values in order.
type GroupMaskEntry struct {
	Name   string
	Key    string
	Fields []doc.Value
}

func (e FlatMaskEntry) EntryName() string  { return e.Name }
func (e GroupMaskEntry) EntryName() string { return e.Name }
func (FlatMaskEntry) isMaskEntry()         {}
func (GroupMaskEntry) isMaskEntry()        {}

// NewMaskEntry classifies one named sub-value. Non-empty mappings become
// group entries; anything else is kept flat and validated when decoded.
func NewMaskEntry(name string, v doc.Value) MaskEntry {
	m, ok := doc.AsMapping(v)
	if !ok || m.Len() == 0 {
		return FlatMaskEntry{Name: name, Value: v}
	}

	entries := m.Entries()
	fields := make([]doc.Value, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, e.Value)
	}
	return GroupMaskEntry{Name: name, Key: entries[0].Key, Fields: fields}
}

// ParseMask builds a mask from its document value. A mask that is not a
// mapping has no description and no entries.
func ParseMask(name string, kind MaskKind, v doc.Value) Mask {
	mask := Mask{Name: name, Kind: kind}
	m, ok := doc.AsMapping(v)
	if !ok {
		return mask
	}

	if desc, ok := m.Get("description"); ok {
		mask.Description, _ = doc.String(desc)
	}

	values, ok := m.Get(kind.EntriesKey())
	if !ok {
		return mask
	}
	sub, ok := doc.AsMapping(values)
	if !ok {
		return mask
	}
	for _, e := range sub.Entries() {
		mask.Entries = append(mask.Entries, NewMaskEntry(e.Key, e.Value))
	}
	return mask
}

func parseMasks(root *doc.Mapping, key string, kind MaskKind) ([]Mask, error) {
	section, err := optionalMapping(root, key)
	if err != nil || section == nil {
		return nil, err
	}

	masks := make([]Mask, 0, section.Len())
	for _, e := range section.Entries() {
		masks = append(masks, ParseMask(e.Key, kind, e.Value))
	}
	return masks, nil
}
