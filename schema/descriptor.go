package schema

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
)

// scalarTags maps descriptor scalar kinds to the tags used in Field.Type.
// Message, enum and group kinds are references and carry a TypeName instead.
var scalarTags = map[descriptorpb.FieldDescriptorProto_Type]string{
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:   "double",
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:    "float",
	descriptorpb.FieldDescriptorProto_TYPE_INT64:    "int64",
	descriptorpb.FieldDescriptorProto_TYPE_UINT64:   "uint64",
	descriptorpb.FieldDescriptorProto_TYPE_INT32:    "int32",
	descriptorpb.FieldDescriptorProto_TYPE_FIXED64:  "fixed64",
	descriptorpb.FieldDescriptorProto_TYPE_FIXED32:  "fixed32",
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:     "bool",
	descriptorpb.FieldDescriptorProto_TYPE_STRING:   "string",
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:    "bytes",
	descriptorpb.FieldDescriptorProto_TYPE_UINT32:   "uint32",
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED32: "sfixed32",
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED64: "sfixed64",
	descriptorpb.FieldDescriptorProto_TYPE_SINT32:   "sint32",
	descriptorpb.FieldDescriptorProto_TYPE_SINT64:   "sint64",
}

// FromFileDescriptorProto converts a file descriptor into a Schema.
//
// Both linked descriptors (as handed to a protoc plugin) and unlinked ones (as
// produced by the parser, where references are left as written) are accepted:
//   - fully qualified references inside the file's package are shortened to a
//     dotted name relative to the package; other references are kept as is
//   - map fields are detected through their synthetic map_entry message, which
//     is not exposed as a nested message
//   - synthetic oneofs introduced by proto3 optional fields are ignored
func FromFileDescriptorProto(fd *descriptorpb.FileDescriptorProto) (*Schema, error) {
	if fd == nil {
		return nil, fmt.Errorf("%w: nil file descriptor", ErrMalformed)
	}
	c := converter{pkg: fd.GetPackage()}

	s := &Schema{Package: fd.GetPackage()}
	for _, ed := range fd.GetEnumType() {
		s.Enums = append(s.Enums, c.enum(ed))
	}
	for _, md := range fd.GetMessageType() {
		if md.GetOptions().GetMapEntry() {
			continue
		}
		m, err := c.message(md)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fd.GetName(), err)
		}
		s.Messages = append(s.Messages, m)
	}
	return s, nil
}

type converter struct {
	pkg string
}

func (c converter) enum(ed *descriptorpb.EnumDescriptorProto) *Enum {
	e := &Enum{Name: ed.GetName()}
	for _, v := range ed.GetValue() {
		e.Values = append(e.Values, EnumValue{Name: v.GetName(), Value: v.GetNumber()})
	}
	return e
}

func (c converter) message(md *descriptorpb.DescriptorProto) (*Message, error) {
	m := &Message{Name: md.GetName()}

	entries := make(map[string]*descriptorpb.DescriptorProto)
	for _, nested := range md.GetNestedType() {
		if nested.GetOptions().GetMapEntry() {
			entries[nested.GetName()] = nested
			continue
		}
		child, err := c.message(nested)
		if err != nil {
			return nil, err
		}
		m.Messages = append(m.Messages, child)
	}
	for _, ed := range md.GetEnumType() {
		m.Enums = append(m.Enums, c.enum(ed))
	}

	for _, fd := range md.GetField() {
		f := &Field{
			Name:     fd.GetName(),
			Required: fd.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REQUIRED,
			Repeated: fd.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED,
		}
		if fd.OneofIndex != nil && !fd.GetProto3Optional() {
			idx := int(fd.GetOneofIndex())
			if idx < 0 || idx >= len(md.GetOneofDecl()) {
				return nil, fmt.Errorf("%w: field %s.%s has oneof index %d out of range", ErrMalformed, md.GetName(), fd.GetName(), idx)
			}
			f.Oneof = md.GetOneofDecl()[idx].GetName()
		}

		if entry := entries[lastSegment(fd.GetTypeName())]; entry != nil && f.Repeated {
			key, value, err := c.mapEntry(entry)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", md.GetName(), fd.GetName(), err)
			}
			f.Type = MapType
			f.Repeated = false
			f.Map = &Map{From: key, To: value}
		} else {
			f.Type = c.fieldType(fd)
		}
		m.Fields = append(m.Fields, f)
	}
	return m, nil
}

func (c converter) mapEntry(entry *descriptorpb.DescriptorProto) (string, string, error) {
	var key, value string
	for _, fd := range entry.GetField() {
		switch fd.GetNumber() {
		case 1:
			key = c.fieldType(fd)
		case 2:
			value = c.fieldType(fd)
		}
	}
	if key == "" || value == "" {
		return "", "", fmt.Errorf("%w: map entry %s lacks a key or value field", ErrMalformed, entry.GetName())
	}
	return key, value, nil
}

// fieldType returns the scalar tag for fd, or its reference name when fd
// points at a message or enum.
func (c converter) fieldType(fd *descriptorpb.FieldDescriptorProto) string {
	if fd.Type != nil {
		if tag, ok := scalarTags[fd.GetType()]; ok {
			return tag
		}
	}
	return c.reference(fd.GetTypeName())
}

func (c converter) reference(typeName string) string {
	if !strings.HasPrefix(typeName, ".") {
		return typeName
	}
	name := typeName[1:]
	if c.pkg != "" {
		if rel, ok := strings.CutPrefix(name, c.pkg+"."); ok {
			return rel
		}
	}
	return name
}

func lastSegment(typeName string) string {
	if i := strings.LastIndexByte(typeName, '.'); i >= 0 {
		return typeName[i+1:]
	}
	return typeName
}
