package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"
)

// ParseProto parses .proto source into a Schema.
//
// The source is parsed and checked but not linked: references stay as they
// were written, so a reference to a type from an unavailable import is passed
// through to the generator instead of failing the parse.
func ParseProto(filename string, r io.Reader) (*Schema, error) {
	handler := reporter.NewHandler(nil)
	node, err := parser.Parse(filename, r, handler)
	if err != nil {
		return nil, err
	}
	res, err := parser.ResultFromAST(node, true, handler)
	if err != nil {
		return nil, err
	}
	return FromFileDescriptorProto(res.FileDescriptorProto())
}

// Load reads the schema at path. Files ending in .json, .yaml or .yml are
// decoded as schema documents; anything else is parsed as .proto source.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		s, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	default:
		return ParseProto(filepath.Base(path), bytes.NewReader(data))
	}
}
