package dts

import "github.com/alis-exchange/protoc-gen-dts/schema"

// -----------------------------------------------------------------------------
// TypeScript Type Constants
// -----------------------------------------------------------------------------

const (
	tsBoolean = "boolean"
	tsBuffer  = "Buffer"
	tsNumber  = "number"
	tsString  = "string"
)

// scalarType maps a field type tag to its TypeScript type. The second result
// is false when the tag is not a known scalar; the tag is then returned
// unchanged so it can be resolved as a reference.
//
// The numeric family follows the protocol-buffers runtime encodings; tags it
// has no encoding for (fixed64, sfixed64) are treated like any other name.
func scalarType(tag string) (string, bool) {
	switch tag {
	case "float", "double",
		"sfixed32", "fixed32",
		"varint", "enum",
		"uint64", "uint32",
		"int64", "int32",
		"sint64", "sint32":
		return tsNumber, true

	case "string":
		return tsString, true

	case "bool":
		return tsBoolean, true

	case "bytes":
		return tsBuffer, true
	}
	return tag, false
}

// mapType is the inline structural type of a string-keyed map.
func mapType(valueType string) string {
	return "{ [key: string]: " + valueType + " }"
}

// scalar maps tag and records any use of the Buffer type.
func (g *generator) scalar(tag string) (string, bool) {
	t, ok := scalarType(tag)
	if ok && t == tsBuffer {
		g.hasBuffer = true
	}
	return t, ok
}

// fieldType is the mapped type of f before reference resolution. The second
// result reports whether the type is final; when false the result is a
// reference name for the scope resolver.
func (g *generator) fieldType(f *schema.Field) (string, bool) {
	if f.IsMap() {
		valueType, _ := g.scalar(f.Map.To)
		return mapType(valueType), true
	}
	return g.scalar(f.Type)
}
