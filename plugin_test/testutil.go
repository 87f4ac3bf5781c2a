//go:build plugintest

package plugintest

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
)

// updateGolden is a flag to update golden files instead of comparing against them.
// Usage: go test -tags plugintest ./plugin_test -update
var updateGolden = flag.Bool("update", false, "update golden files")

// testdataDir returns the path to the testdata directory relative to the plugin_test package.
func testdataDir() string {
	return filepath.Join("..", "testdata")
}

// protosDir returns the path to the protos directory within testdata.
func protosDir() string {
	return filepath.Join(testdataDir(), "protos")
}

// goldenDir returns the path to the plugin golden files within testdata.
func goldenDir() string {
	return filepath.Join(testdataDir(), "golden", "plugin")
}

// compileDescriptorSet links protos from testdata/protos, in the order given.
func compileDescriptorSet(t *testing.T, files ...string) *descriptorpb.FileDescriptorSet {
	t.Helper()

	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{ImportPaths: []string{protosDir()}},
	}
	linked, err := compiler.Compile(context.Background(), files...)
	if err != nil {
		t.Fatalf("Failed to compile %v: %v", files, err)
	}

	fds := &descriptorpb.FileDescriptorSet{}
	for _, f := range linked {
		fds.File = append(fds.File, protodesc.ToFileDescriptorProto(f))
	}
	return fds
}

// createTestPlugin creates a protogen.Plugin for testing from a FileDescriptorSet.
func createTestPlugin(t *testing.T, fds *descriptorpb.FileDescriptorSet, filesToGenerate []string) *protogen.Plugin {
	t.Helper()

	p, err := newPlugin(fds, filesToGenerate...)
	if err != nil {
		t.Fatalf("Failed to create protogen.Plugin: %v", err)
	}
	return p
}

// newPlugin builds the plugin as protoc would for --dts_out with
// paths=source_relative. It is safe to call from any goroutine.
func newPlugin(fds *descriptorpb.FileDescriptorSet, filesToGenerate ...string) (*protogen.Plugin, error) {
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: filesToGenerate,
		Parameter:      proto.String("paths=source_relative"),
		ProtoFile:      fds.File,
	}
	opts := protogen.Options{}
	return opts.New(req)
}

// assertGoldenFile compares actual content against a golden file.
// If the -update flag is set, it updates the golden file instead.
// It strips the plugin version line from comparison to avoid false failures.
func assertGoldenFile(t *testing.T, actual, goldenPath string, update bool) {
	t.Helper()

	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("Failed to create golden file directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, []byte(actual), 0o644); err != nil {
			t.Fatalf("Failed to update golden file %s: %v", goldenPath, err)
		}
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v\nRun with -update to create it", goldenPath, err)
	}

	actualNorm := normalizeGeneratedContent(actual)
	expectedNorm := normalizeGeneratedContent(string(expected))

	if actualNorm != expectedNorm {
		t.Errorf("Output does not match golden file %s.\nRun with -update to update it.\n\nExpected:\n%s\n\nActual:\n%s",
			goldenPath, string(expected), actual)
	}
}

// normalizeGeneratedContent removes the plugin version line for comparison.
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

// getGeneratedContent extracts the generated content from a protogen.Plugin response.
func getGeneratedContent(t *testing.T, p *protogen.Plugin) map[string]string {
	t.Helper()

	resp := p.Response()
	if resp.GetError() != "" {
		t.Fatalf("Plugin response error: %s", resp.GetError())
	}

	return responseContents(resp.GetFile())
}

// responseContents maps generated file names to their content.
func responseContents(files []*pluginpb.CodeGeneratorResponse_File) map[string]string {
	result := make(map[string]string)
	for _, file := range files {
		if file.Content != nil {
			result[file.GetName()] = file.GetContent()
		}
	}
	return result
}
