package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"quoteprovider/internal/quotes"
	"quoteprovider/internal/upstream"
)

type dumpCmd struct {
	env
	symbolsFile string
	outPath     string
	batch       int
}

func (*dumpCmd) Name() string     { return "dump" }
func (*dumpCmd) Synopsis() string { return "resolves a file of symbols into a JSON file" }
func (*dumpCmd) Usage() string {
	return `dump -symbols-file symbols.txt -out quotes.json

Reads symbols from a JSON array, the keys of a JSON object, or one symbol per
line (# starts a comment). Symbols are resolved in batches through the local
pool and cache, and written as {"quotes": [...]} in input order.
`
}

func (c *dumpCmd) SetFlags(f *flag.FlagSet) {
	c.env.setFlags(f)
	f.StringVar(&c.symbolsFile, "symbols-file", "symbols.txt", "file listing the symbols")
	f.StringVar(&c.outPath, "out", "quotes.json", "output JSON file path")
	f.IntVar(&c.batch, "batch", quotes.MaxSymbols, "symbols per batch (max 50)")
}

func (c *dumpCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	names, err := readSymbols(c.symbolsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read symbols: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no symbols found in -symbols-file")
		return subcommands.ExitFailure
	}
	cfg, hc, logger, err := c.env.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() { _ = logger.Sync() }()

	out, err := os.Create(c.outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: create out: %v\n", err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	svc := quotes.NewService(upstream.Local(cfg, hc, logger), logger)
	n, err := dump(ctx, svc, names, c.batch, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	logger.Info("dump written", zap.String("path", c.outPath), zap.Int("symbols", len(names)), zap.Int("priced", n))
	return subcommands.ExitSuccess
}

// dump streams {"quotes":[...]} to w, one batch at a time, and returns how
// many quotes carried a price.
func dump(ctx context.Context, svc *quotes.Service, names []string, batch int, w io.Writer) (int, error) {
	if batch <= 0 || batch > quotes.MaxSymbols {
		batch = quotes.MaxSymbols
	}
	bw := bufio.NewWriterSize(w, 1<<16)
	_, _ = bw.WriteString(`{"quotes":[`)

	priced := 0
	first := true
	for chunk := range slices.Chunk(names, batch) {
		resp := svc.Resolve(ctx, chunk)
		if resp.Error != "" {
			return priced, fmt.Errorf("batch starting at %q: %s", chunk[0], resp.Error)
		}
		for _, q := range resp.Quotes {
			b, err := json.Marshal(q)
			if err != nil {
				return priced, fmt.Errorf("encode %s: %w", q.Symbol, err)
			}
			if !first {
				_ = bw.WriteByte(',')
			}
			first = false
			_, _ = bw.Write(b)
			if q.HasPrice() {
				priced++
			}
		}
	}
	_, _ = bw.WriteString("]}\n")
	return priced, bw.Flush()
}

func readSymbols(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSymbols(b)
}

func parseSymbols(b []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(b)
	switch {
	case len(trimmed) == 0:
		return nil, nil
	case trimmed[0] == '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return quotes.Clip(list, len(list)+1), nil
	case trimmed[0] == '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return quotes.Clip(keys, len(keys)+1), nil
	}

	var out []string
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
