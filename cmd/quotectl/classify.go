package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"quoteprovider/internal/symbol"
)

type classifyCmd struct {
	out io.Writer
}

func (*classifyCmd) Name() string     { return "classify" }
func (*classifyCmd) Synopsis() string { return "prints how symbols are sent upstream" }
func (*classifyCmd) Usage() string {
	return `classify SYMBOL...

Prints each symbol with its market kind and the normalized form used upstream.
`
}

func (*classifyCmd) SetFlags(*flag.FlagSet) {}

func (c *classifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no symbols given")
		return subcommands.ExitUsageError
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tKIND\tUPSTREAM")
	for _, cl := range symbol.ClassifyAll(f.Args()) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", cl.Original, cl.Kind, cl.Normalized)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
