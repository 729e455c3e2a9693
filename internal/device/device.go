// Package device loads device description documents (device.yml) into a
// typed model.
//
// Only the structure needed for previewing is interpreted: the device name,
// the registers section and the two mask sections. Everything else stays as
// ordered document values and is resolved against schema descriptors later.
package device

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/salmonumbrella/harp-cli/internal/doc"
)

// Document section keys.
const (
	KeyDevice     = "device"
	KeyRegisters  = "registers"
	KeyBitMasks   = "bitMasks"
	KeyGroupMasks = "groupMasks"
)

// Device is one parsed device document.
type Device struct {
	Name string
	// Attributes is the whole top-level mapping; projections look up
	// attribute names in it.
	Attributes *doc.Mapping
	// Registers is nil when the document has no registers section.
	Registers  *doc.Mapping
	BitMasks   []Mask
	GroupMasks []Mask
}

// DocumentError reports a document whose structure cannot be previewed.
type DocumentError struct {
	Section string
	Err     error
}

func (e *DocumentError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("device document: %v", e.Err)
	}
	return fmt.Sprintf("device document: %s: %v", e.Section, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Parse builds a Device from a parsed document.
func Parse(v doc.Value) (*Device, error) {
	root, ok := doc.AsMapping(v)
	if !ok {
		return nil, &DocumentError{Err: errors.New("document root must be a mapping")}
	}

	d := &Device{Attributes: root}
	if name, ok := root.Get(KeyDevice); ok {
		d.Name, _ = doc.String(name)
	}

	registers, err := optionalMapping(root, KeyRegisters)
	if err != nil {
		return nil, err
	}
	d.Registers = registers

	if d.BitMasks, err = parseMasks(root, KeyBitMasks, BitMask); err != nil {
		return nil, err
	}
	if d.GroupMasks, err = parseMasks(root, KeyGroupMasks, GroupMask); err != nil {
		return nil, err
	}
	return d, nil
}

// Load parses a device document from r.
func Load(r io.Reader) (*Device, error) {
	v, err := doc.Read(r)
	if err != nil {
		return nil, &DocumentError{Err: err}
	}
	return Parse(v)
}

// Read loads the device document at path.
func Read(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading device document: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// optionalMapping returns the mapping under key. An absent or null section
// is reported as nil without error.
func optionalMapping(root *doc.Mapping, key string) (*doc.Mapping, error) {
	v, ok := root.Get(key)
	if !ok {
		return nil, nil
	}
	if s, ok := doc.AsScalar(v); ok && s.IsNull() {
		return nil, nil
	}
	m, ok := doc.AsMapping(v)
	if !ok {
		return nil, &DocumentError{
			Section: key,
			Err:     fmt.Errorf("expected a mapping, got a %s", v.Kind()),
		}
	}
	return m, nil
}
