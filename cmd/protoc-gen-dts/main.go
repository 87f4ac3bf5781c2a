package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alis-exchange/protoc-gen-dts/dts"
	"github.com/alis-exchange/protoc-gen-dts/plugin"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/types/pluginpb"
)

// version can be set at build time via ldflags
var version string

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "development"
}

func main() {
	showVersion := flag.Bool("version", false, "Print the version of protoc-gen-dts")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s\n", getVersion())
		os.Exit(0)
	}

	// Plugin parameters, e.g. --dts_opt=namespace=api,header=false
	var flags flag.FlagSet
	namespace := flags.String("namespace", dts.DefaultNamespace, "name of the declared namespace")
	header := flags.Bool("header", true, "write the generated-file banner")

	options := protogen.Options{
		ParamFunc: flags.Set,
	}

	options.Run(func(p *protogen.Plugin) error {
		p.SupportedFeatures = uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)
		return plugin.Generate(p, plugin.Generator{
			Version:   getVersion(),
			Namespace: *namespace,
			NoHeader:  !*header,
		})
	})
}
