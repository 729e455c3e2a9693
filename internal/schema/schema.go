// Package schema derives attribute descriptors from device and register
// schema documents.
package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/salmonumbrella/harp-cli/internal/doc"
)

// Keys of the device property set that are rendered separately from the
// scalar device attributes.
var structuralDeviceKeys = map[string]bool{
	"device":    true,
	"registers": true,
}

var (
	devicePropertiesPath   = []any{"allOf", 0, "properties"}
	registerPropertiesPath = []any{"definitions", "register", "properties"}
)

// Descriptor names one attribute and the value displayed when an instance
// does not set it.
type Descriptor struct {
	Name    string `json:"name" yaml:"name"`
	Default string `json:"default" yaml:"default"`
}

// NewDescriptor returns a descriptor with an empty default.
func NewDescriptor(name string) Descriptor {
	return Descriptor{Name: name}
}

// MalformedSchemaError reports a schema that lacks an expected property set.
type MalformedSchemaError struct {
	Path string
}

func (e *MalformedSchemaError) Error() string {
	return fmt.Sprintf("malformed schema: missing %s", e.Path)
}

// DeviceDescriptors returns one descriptor per property of the device shape,
// in declaration order, skipping the device name and registers collection.
func DeviceDescriptors(schema doc.Value) ([]Descriptor, error) {
	props, err := properties(schema, devicePropertiesPath)
	if err != nil {
		return nil, err
	}

	out := make([]Descriptor, 0, props.Len())
	for _, key := range props.Keys() {
		if structuralDeviceKeys[key] {
			continue
		}
		out = append(out, NewDescriptor(key))
	}
	return out, nil
}

// RegisterDescriptors returns one descriptor per property of the register
// definition, in declaration order.
func RegisterDescriptors(schema doc.Value) ([]Descriptor, error) {
	props, err := properties(schema, registerPropertiesPath)
	if err != nil {
		return nil, err
	}

	out := make([]Descriptor, 0, props.Len())
	for _, key := range props.Keys() {
		out = append(out, NewDescriptor(key))
	}
	return out, nil
}

func properties(schema doc.Value, path []any) (*doc.Mapping, error) {
	props, ok := doc.LookupMapping(schema, path...)
	if !ok {
		return nil, &MalformedSchemaError{Path: doc.FormatPath(path...)}
	}
	return props, nil
}

// Load parses a JSON or YAML schema document.
func Load(r io.Reader) (doc.Value, error) {
	v, err := doc.Read(r)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return v, nil
}

// Read loads the schema document at path.
func Read(path string) (doc.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Set is the pair of descriptor lists a preview is rendered against.
type Set struct {
	Device   []Descriptor `json:"device" yaml:"device"`
	Register []Descriptor `json:"register" yaml:"register"`
}

// ReadSet reads both schema files and derives their descriptor lists.
func ReadSet(devicePath, registerPath string) (*Set, error) {
	deviceSchema, err := Read(devicePath)
	if err != nil {
		return nil, err
	}
	registerSchema, err := Read(registerPath)
	if err != nil {
		return nil, err
	}
	return NewSet(deviceSchema, registerSchema)
}

// NewSet derives descriptor lists from already-parsed schema documents.
func NewSet(deviceSchema, registerSchema doc.Value) (*Set, error) {
	device, err := DeviceDescriptors(deviceSchema)
	if err != nil {
		return nil, fmt.Errorf("device schema: %w", err)
	}
	register, err := RegisterDescriptors(registerSchema)
	if err != nil {
		return nil, fmt.Errorf("register schema: %w", err)
	}
	return &Set{Device: device, Register: register}, nil
}
