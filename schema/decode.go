package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
)

// Decode reads a schema document. The document is JSON or YAML in the shape
// produced by the protocol-buffers-schema parser:
//
//	messages:
//	  - name: Test
//	    fields:
//	      - {name: foo, type: string, required: true}
//	      - {name: data, type: map, map: {from: string, to: uint32}}
//	enums:
//	  - name: Corpus
//	    values: {NET: {value: 1}, WORLD: 2}
//
// Enum values may be given as {value: N} objects or as bare integers; their
// order is preserved. The document is checked against a JSON Schema before it
// is decoded, and then against Validate.
func Decode(data []byte) (*Schema, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// UnmarshalYAML decodes an ordered mapping of value names to numbers.
func (v *EnumValues) UnmarshalYAML(unmarshal func(any) error) error {
	var items yaml.MapSlice
	if err := unmarshal(&items); err != nil {
		return err
	}
	values := make(EnumValues, 0, len(items))
	for _, item := range items {
		name, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("enum value name %v is not a string", item.Key)
		}
		raw := item.Value
		switch obj := raw.(type) {
		case map[string]any:
			raw = obj["value"]
		case yaml.MapSlice:
			raw = obj.ToMap()["value"]
		}
		n, err := enumNumber(raw)
		if err != nil {
			return fmt.Errorf("enum value %s: %w", name, err)
		}
		values = append(values, EnumValue{Name: name, Value: n})
	}
	*v = values
	return nil
}

func enumNumber(raw any) (int32, error) {
	var n int64
	switch x := raw.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case uint64:
		if x > math.MaxInt32 {
			return 0, fmt.Errorf("number %d out of range", x)
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("number %v is not an integer", x)
		}
		n = int64(x)
	default:
		return 0, fmt.Errorf("unexpected number %v", raw)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("number %d out of range", n)
	}
	return int32(n), nil
}

// -----------------------------------------------------------------------------
// Document Schema
// -----------------------------------------------------------------------------

var resolvedDocumentSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return documentSchema().Resolve(nil)
})

func validateDocument(data []byte) error {
	rs, err := resolvedDocumentSchema()
	if err != nil {
		return err
	}
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := rs.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// documentSchema describes the accepted schema document. Nullable members
// mirror what protocol-buffers-schema emits for absent values. Subschemas must
// not be shared between parents.
func documentSchema() *jsonschema.Schema {
	nullableString := func() *jsonschema.Schema {
		return &jsonschema.Schema{Types: []string{"string", "null"}}
	}

	enumValue := &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{
			{Type: "integer"},
			{
				Type:     "object",
				Required: []string{"value"},
				Properties: map[string]*jsonschema.Schema{
					"value": {Type: "integer"},
				},
			},
		},
	}

	enum := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name":   {Type: "string"},
			"values": {Type: "object", AdditionalProperties: enumValue},
		},
	}

	field := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "type"},
		Properties: map[string]*jsonschema.Schema{
			"name":     {Type: "string"},
			"type":     {Type: "string"},
			"repeated": {Type: "boolean"},
			"required": {Type: "boolean"},
			"oneof":    nullableString(),
			"map": {
				Types:    []string{"object", "null"},
				Required: []string{"from", "to"},
				Properties: map[string]*jsonschema.Schema{
					"from": {Type: "string"},
					"to":   {Type: "string"},
				},
			},
		},
	}

	message := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name":     {Type: "string"},
			"fields":   {Type: "array", Items: field},
			"messages": {Type: "array", Items: &jsonschema.Schema{Ref: "#/$defs/message"}},
			"enums":    {Type: "array", Items: &jsonschema.Schema{Ref: "#/$defs/enum"}},
		},
	}

	return &jsonschema.Schema{
		Type: "object",
		Defs: map[string]*jsonschema.Schema{
			"message": message,
			"enum":    enum,
		},
		Properties: map[string]*jsonschema.Schema{
			"package":  nullableString(),
			"messages": {Type: "array", Items: &jsonschema.Schema{Ref: "#/$defs/message"}},
			"enums":    {Type: "array", Items: &jsonschema.Schema{Ref: "#/$defs/enum"}},
		},
	}
}
