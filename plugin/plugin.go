// Package plugin runs the dts generator as a protoc plugin.
//
// Every file to generate is converted from its descriptor into a
// schema.Schema and rendered by dts.FromSchema into <name>.d.ts next to the
// generated JavaScript codec, so `foo/bar.proto` yields `foo/bar.d.ts`.
package plugin

import (
	"fmt"

	"github.com/alis-exchange/protoc-gen-dts/dts"
	"github.com/alis-exchange/protoc-gen-dts/schema"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protodesc"
)

// Generator is the entry point for the protoc-gen-dts plugin.
//
// Generator is stateless; every file is rendered by an independent
// dts.FromSchema call.
type Generator struct {
	// Version is the plugin version recorded in the file banner.
	Version string

	// Namespace is the name of the declared namespace. Empty means
	// dts.DefaultNamespace.
	Namespace string

	// NoHeader drops the generated-file banner.
	NoHeader bool
}

// Generate writes a .d.ts file for every file the plugin was asked to
// generate. The first failure is reported on the plugin response and returned.
func Generate(p *protogen.Plugin, gr Generator) error {
	for _, f := range p.Files {
		if !f.Generate {
			continue
		}
		if _, err := gr.generateFile(p, f); err != nil {
			p.Error(err)
			return err
		}
	}
	return nil
}

// generateFile renders the declarations of one proto file. It returns nil when
// the file declares no messages and no enums.
func (gr *Generator) generateFile(gen *protogen.Plugin, file *protogen.File) (*protogen.GeneratedFile, error) {
	s, err := schema.FromFileDescriptorProto(protodesc.ToFileDescriptorProto(file.Desc))
	if err != nil {
		return nil, err
	}
	if len(s.Messages) == 0 && len(s.Enums) == 0 {
		return nil, nil
	}

	opts := []dts.Option{dts.WithNamespace(gr.Namespace)}
	if !gr.NoHeader {
		opts = append(opts, dts.WithHeader(
			"Code generated by protoc-gen-dts. DO NOT EDIT.",
			"",
			fmt.Sprintf("Source: %s", file.Desc.Path()),
			fmt.Sprintf("Plugin version: %s", gr.Version),
		))
	}

	content, err := dts.FromSchema(s, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Desc.Path(), err)
	}

	g := gen.NewGeneratedFile(file.GeneratedFilenamePrefix+".d.ts", "")
	if _, err := g.Write([]byte(content)); err != nil {
		return nil, err
	}
	return g, nil
}
