package dts

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/stretchr/testify/suite"

	"github.com/alis-exchange/protoc-gen-dts/schema"
)

// updateGolden is a flag to update golden files instead of comparing against them.
// Usage: go test ./dts -update
var updateGolden = flag.Bool("update", false, "update golden files")

// DeclarationsTestSuite is the base suite for tests that render whole
// namespaces. It parses inline .proto sources and compares the rendered
// output with expected text built by declarations.
type DeclarationsTestSuite struct {
	suite.Suite
}

// testdataDir returns the path to the shared testdata directory.
func testdataDir() string {
	return filepath.Join("..", "testdata")
}

// Parse parses proto2 source into a schema. The syntax statement is added.
func (s *DeclarationsTestSuite) Parse(src string) *schema.Schema {
	sch, err := schema.ParseProto("test.proto", strings.NewReader("syntax = \"proto2\";\n"+src))
	s.Require().NoError(err, "Failed to parse source:\n%s", src)
	return sch
}

// Generate parses src and renders it.
func (s *DeclarationsTestSuite) Generate(src string, opts ...Option) string {
	out, err := FromSchema(s.Parse(src), opts...)
	s.Require().NoError(err, "FromSchema failed")
	return out
}

// AssertGolden compares actual with the golden file at path, or rewrites the
// file when -update is set.
func (s *DeclarationsTestSuite) AssertGolden(actual, path string) {
	if *updateGolden {
		s.Require().NoError(os.WriteFile(path, []byte(actual), 0o644), "Failed to update golden file %s", path)
		s.T().Logf("Updated golden file: %s", path)
		return
	}
	expected, err := os.ReadFile(path)
	s.Require().NoError(err, "Failed to read golden file %s\nRun with -update to create it", path)
	s.Equal(string(expected), actual, "Output does not match golden file %s", path)
}

// declarations builds the expected output for the default namespace. body
// holds the lines between `declare namespace schema {` and its closing brace.
func declarations(buffer, values bool, body ...string) string {
	var b strings.Builder
	b.WriteString("/* eslint-disable @typescript-eslint/array-type */\n")
	b.WriteString("/* eslint-disable @typescript-eslint/consistent-type-definitions */\n")
	b.WriteString("/* eslint-disable @typescript-eslint/naming-convention */\n")
	if buffer {
		b.WriteString("import { Buffer } from 'buffer'\n")
	}
	b.WriteString("interface Codec <T> {\n")
	b.WriteString("  buffer: true\n")
	b.WriteString("  encodingLength: (input: T) => number\n")
	b.WriteString("  encode: (input: T, buffer?: Buffer, offset?: number) => Buffer\n")
	b.WriteString("  decode: (input: Buffer, offset?: number, end?: number) => T\n")
	b.WriteString("}\n")
	if values {
		b.WriteString("type Values <T> = T extends { [key: string]: infer U } ? U : never\n")
	}
	b.WriteString("declare namespace schema {\n")
	b.WriteString(strings.Join(body, "\n"))
	b.WriteString("\n}\nexport = schema\n")
	return b.String()
}
