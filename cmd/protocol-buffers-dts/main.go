// Command protocol-buffers-dts writes TypeScript declarations for the
// protocol-buffers codecs of a .proto file or schema document.
//
//	protocol-buffers-dts FILE [-o OUTPUT] [-w] [--check] [--namespace NAME]
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := &cmdGenerate{stdout: stdout, stderr: stderr}
	code := 0

	root := &cobra.Command{
		Use:   "protocol-buffers-dts FILE",
		Short: "Generate TypeScript declarations for protocol-buffers codecs",
		Long: "Reads FILE (.proto source, or a .json/.yaml schema document) and writes the\n" +
			"TypeScript declarations of its codecs to OUTPUT, or to stdout when OUTPUT\n" +
			"is not set.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(c *cobra.Command, argv []string) error {
			if len(argv) == 0 {
				return c.Help()
			}
			code = cmd.run(c.Context(), argv)
			return nil
		},
	}
	cmd.flags(root.Flags())

	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		cmd.reportError(err)
		return 1
	}
	return code
}
