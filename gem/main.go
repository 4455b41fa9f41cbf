// Command gem tracks a portfolio of cryptocurrencies and Brazilian real estate funds.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/gemhub/cmd"
	"github.com/google/subcommands"
)

func main() {
	// exits when called by the shell for completion.
	cmd.Completion(cmd.KnownTickers).Complete("gem")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	if name := flag.Arg(0); name != "" && !cmd.IsCommand(name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
