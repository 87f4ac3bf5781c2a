// Package schema holds the parsed protobuf schema model consumed by the dts
// generator, plus the collaborators that build it: conversion from descriptor
// protos, parsing of .proto source, and decoding of JSON/YAML schema documents
// in the protocol-buffers-schema shape.
package schema

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every error caused by a structurally invalid
// schema, such as a map field without a map descriptor.
var ErrMalformed = errors.New("malformed schema")

// MapType is the tag of a field whose Map descriptor is set.
const MapType = "map"

// Schema is a parsed .proto file.
type Schema struct {
	// Package is the proto package, used to relativise fully qualified references.
	Package  string     `json:"package,omitempty" yaml:"package,omitempty"`
	Messages []*Message `json:"messages" yaml:"messages"`
	Enums    []*Enum    `json:"enums" yaml:"enums"`
}

// Message is a message declaration with its nested declarations.
type Message struct {
	Name     string     `json:"name" yaml:"name"`
	Fields   []*Field   `json:"fields" yaml:"fields"`
	Messages []*Message `json:"messages" yaml:"messages"`
	Enums    []*Enum    `json:"enums" yaml:"enums"`
}

// Enum is an enum declaration. Values keep declaration order and may share
// numbers through aliases.
type Enum struct {
	Name   string     `json:"name" yaml:"name"`
	Values EnumValues `json:"values" yaml:"values"`
}

// EnumValue is a single enum constant.
type EnumValue struct {
	Name  string
	Value int32
}

// EnumValues is an ordered list of enum constants.
type EnumValues []EnumValue

// Field is a message field. Type is a scalar tag, MapType, or a reference to a
// message or enum as written in the source.
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Repeated bool   `json:"repeated" yaml:"repeated"`
	Required bool   `json:"required" yaml:"required"`
	Oneof    string `json:"oneof,omitempty" yaml:"oneof,omitempty"`
	Map      *Map   `json:"map,omitempty" yaml:"map,omitempty"`
}

// Map describes the key and value tags of a map field.
type Map struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// IsMap reports whether the field is a map field.
func (f *Field) IsMap() bool {
	return f.Type == MapType
}

// Validate checks the structure the generator relies on. The returned error
// wraps ErrMalformed and names the offending element by its dotted path.
func (s *Schema) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil schema", ErrMalformed)
	}
	for _, e := range s.Enums {
		if err := e.validate(""); err != nil {
			return err
		}
	}
	for _, m := range s.Messages {
		if err := m.validate(""); err != nil {
			return err
		}
	}
	return nil
}

func (m *Message) validate(prefix string) error {
	if m == nil {
		return fmt.Errorf("%w: nil message in %q", ErrMalformed, prefix)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: unnamed message in %q", ErrMalformed, prefix)
	}
	path := join(prefix, m.Name)
	for _, f := range m.Fields {
		if f == nil {
			return fmt.Errorf("%w: nil field in %s", ErrMalformed, path)
		}
		if f.Name == "" {
			return fmt.Errorf("%w: unnamed field in %s", ErrMalformed, path)
		}
		if f.Type == "" {
			return fmt.Errorf("%w: field %s.%s has no type", ErrMalformed, path, f.Name)
		}
		if f.IsMap() {
			if f.Map == nil {
				return fmt.Errorf("%w: map field %s.%s has no map descriptor", ErrMalformed, path, f.Name)
			}
			if f.Map.From == "" || f.Map.To == "" {
				return fmt.Errorf("%w: map field %s.%s has an incomplete map descriptor", ErrMalformed, path, f.Name)
			}
		}
	}
	for _, e := range m.Enums {
		if err := e.validate(path); err != nil {
			return err
		}
	}
	for _, nested := range m.Messages {
		if err := nested.validate(path); err != nil {
			return err
		}
	}
	return nil
}

func (e *Enum) validate(prefix string) error {
	if e == nil {
		return fmt.Errorf("%w: nil enum in %q", ErrMalformed, prefix)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: unnamed enum in %q", ErrMalformed, prefix)
	}
	for _, v := range e.Values {
		if v.Name == "" {
			return fmt.Errorf("%w: unnamed value in enum %s", ErrMalformed, join(prefix, e.Name))
		}
	}
	return nil
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
