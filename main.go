package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/command"
	"github.com/sentrytypes/sentrytypes/version"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("sentrytypes")

func main() {
	// Set up a context that is canceled when the command is interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal handler to cancel the context
	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-interrupt:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Set the default log level. The daemon replaces it with the configured
	// levels.
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		if err := logging.SetLogLevel("*", "info"); err != nil {
			log.Fatal(err)
		}
	}

	app := &cli.App{
		Name:    "sentrytypes",
		Usage:   "Sentry event ingestion daemon and tools",
		Version: version.String(),
		Commands: []*cli.Command{
			command.AdminCmd,
			command.CommandsCmd,
			command.ConfigCmd,
			command.DaemonCmd,
			command.DsnCmd,
			command.EventCmd,
			command.InitCmd,
			command.LogCmd,
			command.ProjectCmd,
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
