package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/alis-exchange/protoc-gen-dts/dts"
	"github.com/alis-exchange/protoc-gen-dts/schema"
)

var errOutOfDate = errors.New("output is out of date")

type cmdGenerate struct {
	outPath   string
	namespace string
	watch     bool
	check     bool
	verbose   bool

	srcPath string
	stdout  io.Writer
	stderr  io.Writer
	log     *slog.Logger
}

func (cmd *cmdGenerate) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "", "write declarations to this path instead of stdout")
	flags.StringVarP(&cmd.namespace, "namespace", "n", dts.DefaultNamespace, "name of the declared namespace")
	flags.BoolVarP(&cmd.watch, "watch", "w", false, "regenerate whenever FILE changes")
	flags.BoolVar(&cmd.check, "check", false, "compare with OUTPUT instead of writing it; exit 1 if they differ")
	flags.BoolVarP(&cmd.verbose, "verbose", "v", false, "log debug messages")
}

func (cmd *cmdGenerate) run(ctx context.Context, argv []string) int {
	cmd.srcPath = argv[0]

	level := slog.LevelInfo
	if cmd.verbose {
		level = slog.LevelDebug
	}
	cmd.log = slog.New(slog.NewTextHandler(cmd.stderr, &slog.HandlerOptions{Level: level}))

	if cmd.check && cmd.outPath == "" {
		cmd.reportError(errors.New("--check requires --output"))
		return 1
	}
	if cmd.check && cmd.watch {
		cmd.reportError(errors.New("--check cannot be combined with --watch"))
		return 1
	}

	err := cmd.once()
	if !cmd.watch {
		if err != nil {
			cmd.reportError(err)
			return 1
		}
		return 0
	}

	if err != nil {
		cmd.log.Error("generate failed", "file", cmd.srcPath, "err", err)
	}
	if err := cmd.watchLoop(ctx); err != nil {
		cmd.reportError(err)
		return 1
	}
	return 0
}

// generate runs the pipeline without touching the output.
func (cmd *cmdGenerate) generate() (string, error) {
	s, err := schema.Load(cmd.srcPath)
	if err != nil {
		return "", err
	}
	return dts.FromSchema(s, dts.WithNamespace(cmd.namespace))
}

func (cmd *cmdGenerate) once() error {
	output, err := cmd.generate()
	if err != nil {
		return err
	}
	if cmd.check {
		return cmd.compare(output)
	}
	if err := cmd.write(output); err != nil {
		return err
	}
	cmd.log.Debug("generated declarations", "file", cmd.srcPath, "output", cmd.outPath)
	return nil
}

func (cmd *cmdGenerate) write(output string) error {
	if cmd.outPath == "" {
		_, err := io.WriteString(cmd.stdout, output)
		return err
	}

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(cmd.outPath, openFlags, 0o666)
	if err != nil {
		return err
	}
	_, writeErr := fp.WriteString(output)
	closeErr := fp.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

func (cmd *cmdGenerate) reportError(err error) {
	prefix := "error:"
	if isTerminal(cmd.stderr) {
		c := color.New(color.FgRed, color.Bold)
		c.EnableColor()
		prefix = c.Sprint(prefix)
	}
	fmt.Fprintln(cmd.stderr, prefix, err)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
