package plugin

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
)

// updateGolden is a flag to update golden files instead of comparing against them.
// Usage: go test ./plugin -update
var updateGolden = flag.Bool("update", false, "update golden files")

// protoFiles are the test protos, dependencies first.
var protoFiles = []string{
	"example.proto",
	"shop/v1/common.proto",
	"shop/v1/order.proto",
	"shop/v1/service.proto",
}

// PluginTestSuite is the base test suite that provides common setup and teardown
// functionality for all plugin tests. It handles:
// - Finding the workspace root
// - Compiling the test protos into linked descriptors
// - Creating protogen.Plugin instances from a CodeGeneratorRequest
type PluginTestSuite struct {
	suite.Suite

	// workspaceRoot is the absolute path to the project root (where go.mod is)
	workspaceRoot string

	// fds holds the compiled test protos
	fds *descriptorpb.FileDescriptorSet

	// plugin is a fresh protogen.Plugin instance created for each test
	plugin *protogen.Plugin

	// file is the target proto file within the plugin
	file *protogen.File

	// generator is a Generator instance for tests that need it
	generator *Generator
}

// SetupSuite runs once before all tests in the suite.
// It finds the workspace root and compiles the descriptor set.
func (s *PluginTestSuite) SetupSuite() {
	s.workspaceRoot = s.findWorkspaceRoot()
	s.fds = s.compileDescriptorSet(protoFiles...)
}

// SetupTest runs before each individual test.
// It creates a fresh plugin instance and finds the target file.
func (s *PluginTestSuite) SetupTest() {
	s.plugin = s.newPlugin(s.fds, protoFiles...)
	s.file = s.findFile("shop/v1/order.proto")
	s.generator = &Generator{Version: "test"}
}

// findWorkspaceRoot walks up from the current directory to the go.mod.
func (s *PluginTestSuite) findWorkspaceRoot() string {
	dir, err := os.Getwd()
	s.Require().NoError(err, "Failed to get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			s.T().Fatal("Could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

// protosDir returns the directory holding the test protos.
func (s *PluginTestSuite) protosDir() string {
	return filepath.Join(s.workspaceRoot, "testdata", "protos")
}

// goldenDir returns the directory holding the plugin golden files.
func (s *PluginTestSuite) goldenDir() string {
	return filepath.Join(s.workspaceRoot, "testdata", "golden", "plugin")
}

// compileDescriptorSet links the named protos from testdata/protos. Files are
// returned in the order given, so dependencies must come first.
func (s *PluginTestSuite) compileDescriptorSet(files ...string) *descriptorpb.FileDescriptorSet {
	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{ImportPaths: []string{s.protosDir()}},
	}
	return s.compile(compiler, files...)
}

// compileSources links in-memory protos keyed by file name.
func (s *PluginTestSuite) compileSources(sources map[string]string, files ...string) *descriptorpb.FileDescriptorSet {
	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{Accessor: protocompile.SourceAccessorFromMap(sources)},
	}
	return s.compile(compiler, files...)
}

func (s *PluginTestSuite) compile(compiler protocompile.Compiler, files ...string) *descriptorpb.FileDescriptorSet {
	linked, err := compiler.Compile(context.Background(), files...)
	s.Require().NoError(err, "Failed to compile %v", files)

	fds := &descriptorpb.FileDescriptorSet{}
	for _, f := range linked {
		fds.File = append(fds.File, protodesc.ToFileDescriptorProto(f))
	}
	return fds
}

// newPlugin creates a protogen.Plugin as protoc would for --dts_out with
// paths=source_relative.
func (s *PluginTestSuite) newPlugin(fds *descriptorpb.FileDescriptorSet, filesToGenerate ...string) *protogen.Plugin {
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: filesToGenerate,
		Parameter:      proto.String("paths=source_relative"),
		ProtoFile:      fds.File,
	}

	opts := protogen.Options{}
	plugin, err := opts.New(req)
	s.Require().NoError(err, "Failed to create protogen.Plugin")
	return plugin
}

// findFile finds a file in the plugin by path suffix.
func (s *PluginTestSuite) findFile(pathSuffix string) *protogen.File {
	for _, f := range s.plugin.Files {
		if strings.HasSuffix(f.Desc.Path(), pathSuffix) {
			return f
		}
	}
	s.T().Fatalf("Could not find file with suffix %q", pathSuffix)
	return nil
}

// RunGenerate runs Generate on p and returns the generated contents by name.
func (s *PluginTestSuite) RunGenerate(p *protogen.Plugin, gr Generator) map[string]string {
	err := Generate(p, gr)
	s.Require().NoError(err, "Generate failed")
	return s.responseFiles(p.Response())
}

func (s *PluginTestSuite) responseFiles(resp *pluginpb.CodeGeneratorResponse) map[string]string {
	s.Require().Empty(resp.GetError(), "Generate response error: %s", resp.GetError())

	result := make(map[string]string)
	for _, file := range resp.File {
		if file.Content != nil {
			result[file.GetName()] = file.GetContent()
		}
	}
	return result
}

// AssertGoldenFile compares actual content against a golden file.
// If the -update flag is set, it updates the golden file instead.
// The plugin version line is ignored since it depends on the build.
func (s *PluginTestSuite) AssertGoldenFile(actual, goldenPath string) {
	if *updateGolden {
		s.Require().NoError(os.MkdirAll(filepath.Dir(goldenPath), 0o755), "Failed to create golden file directory")
		s.Require().NoError(os.WriteFile(goldenPath, []byte(actual), 0o644), "Failed to update golden file %s", goldenPath)
		s.T().Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	s.Require().NoError(err, "Failed to read golden file %s\nRun with -update to create it", goldenPath)
	s.Equal(normalizeGeneratedContent(string(expected)), normalizeGeneratedContent(actual),
		"Output does not match golden file %s.\nRun with -update to update it.", goldenPath)
}

// normalizeGeneratedContent drops the plugin version line.
func normalizeGeneratedContent(content string) string {
	lines := strings.Split(content, "\n")
	var normalized []string
	for _, line := range lines {
		if strings.HasPrefix(line, "// Plugin version:") {
			continue
		}
		normalized = append(normalized, line)
	}
	return strings.Join(normalized, "\n")
}

// TempDir creates a temporary directory that is automatically cleaned up after the test.
func (s *PluginTestSuite) TempDir() string {
	return s.T().TempDir()
}
