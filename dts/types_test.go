package dts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alis-exchange/protoc-gen-dts/schema"
)

func TestScalarType(t *testing.T) {
	for _, tag := range []string{
		"float", "double", "sfixed32", "fixed32", "varint", "enum",
		"uint64", "uint32", "int64", "int32", "sint64", "sint32",
	} {
		got, ok := scalarType(tag)
		assert.True(t, ok, tag)
		assert.Equal(t, "number", got, tag)
	}

	tests := []struct {
		tag  string
		want string
		ok   bool
	}{
		{tag: "string", want: "string", ok: true},
		{tag: "bool", want: "boolean", ok: true},
		{tag: "bytes", want: "Buffer", ok: true},
		{tag: "fixed64", want: "fixed64", ok: false},
		{tag: "sfixed64", want: "sfixed64", ok: false},
		{tag: "Test.Nested", want: "Test.Nested", ok: false},
	}
	for _, tt := range tests {
		got, ok := scalarType(tt.tag)
		assert.Equal(t, tt.want, got, tt.tag)
		assert.Equal(t, tt.ok, ok, tt.tag)
	}
}

func TestMapType(t *testing.T) {
	assert.Equal(t, "{ [key: string]: number }", mapType("number"))
}

func TestFieldTypeRecordsBuffer(t *testing.T) {
	tests := []struct {
		name   string
		field  *schema.Field
		want   string
		final  bool
		buffer bool
	}{
		{
			name:  "scalar",
			field: &schema.Field{Name: "a", Type: "int32"},
			want:  "number",
			final: true,
		},
		{
			name:   "bytes",
			field:  &schema.Field{Name: "a", Type: "bytes"},
			want:   "Buffer",
			final:  true,
			buffer: true,
		},
		{
			name:   "map of bytes",
			field:  &schema.Field{Name: "a", Type: schema.MapType, Map: &schema.Map{From: "string", To: "bytes"}},
			want:   "{ [key: string]: Buffer }",
			final:  true,
			buffer: true,
		},
		{
			name:  "map of message",
			field: &schema.Field{Name: "a", Type: schema.MapType, Map: &schema.Map{From: "string", To: "Item"}},
			want:  "{ [key: string]: Item }",
			final: true,
		},
		{
			name:  "reference",
			field: &schema.Field{Name: "a", Type: "Item"},
			want:  "Item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &generator{}
			got, final := g.fieldType(tt.field)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.final, final)
			assert.Equal(t, tt.buffer, g.hasBuffer)
		})
	}
}
