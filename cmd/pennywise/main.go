package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"pennywise/internal/cli"
	"pennywise/internal/log"
)

var configFile = flag.String("config", cli.DefaultConfigPath(), "Path to an optional TOML configuration file")

func main() {
	// Load .env file for local development (ignore errors in production)
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	app := cli.NewApp(nil, log.New(log.DefaultConfig()))
	cli.Register(commander, app)
	flag.Parse()

	cfg, err := cli.LoadAndValidateConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	app.Config = cfg
	app.Logger = cli.SetupLogger(cfg, log.ComponentCLI)

	status := commander.Execute(context.Background())
	if err := app.Close(); err != nil {
		app.Logger.Error("Failed to close ledger storage", "error", err)
	}
	os.Exit(int(status))
}
