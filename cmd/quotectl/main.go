// Command quotectl classifies symbols and resolves quotes from the shell.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&classifyCmd{out: os.Stdout}, "")
	commander.Register(&fetchCmd{out: os.Stdout}, "quotes")
	commander.Register(&dumpCmd{}, "quotes")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
