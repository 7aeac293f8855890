package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"quoteprovider/internal/quotes"
	"quoteprovider/internal/upstream"
)

type fetchCmd struct {
	env
	symbols string
	out     io.Writer
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "resolves symbols like /api/quotes does" }
func (*fetchCmd) Usage() string {
	return `fetch -symbols AAPL,005930.KS

Resolves the symbols through the configured upstream (QUOTES_MODE) and prints
the same JSON body /api/quotes would return.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	c.env.setFlags(f)
	f.StringVar(&c.symbols, "symbols", "", "comma-separated symbols")
}

func (c *fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	symbols := quotes.ParseSymbols(c.symbols, 0)
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "Error: -symbols is required")
		return subcommands.ExitUsageError
	}
	cfg, hc, logger, err := c.env.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
	defer cancel()

	resp := quotes.NewService(upstream.Build(cfg, hc, logger), logger).Resolve(ctx, symbols)
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if resp.Error != "" {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
