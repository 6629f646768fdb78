package command

import (
	"github.com/urfave/cli/v2"
)

var adminHostFlag = &cli.StringFlag{
	Name:    "admin",
	Usage:   "URL or host:port of the daemon admin server",
	EnvVars: []string{"SENTRYTYPES_ADMIN"},
	Aliases: []string{"a"},
	Value:   "http://127.0.0.1:3102",
}

var projectFlag = &cli.Uint64Flag{
	Name:     "project",
	Usage:    "Numeric project ID",
	Aliases:  []string{"p"},
	Required: true,
}

var listenAdminFlag = &cli.StringFlag{
	Name:  "listen-admin",
	Usage: "Admin HTTP API listen address as host:port, or 'none' to disable",
}

var listenIngestFlag = &cli.StringFlag{
	Name:  "listen-ingest",
	Usage: "Event submission HTTP API listen address as host:port, or 'none' to disable",
}

var listenMetricsFlag = &cli.StringFlag{
	Name:  "listen-metrics",
	Usage: "Prometheus metrics listen address as host:port, or 'none' to disable",
}

var initFlags = []cli.Flag{
	listenAdminFlag,
	listenIngestFlag,
	listenMetricsFlag,
	&cli.StringFlag{
		Name:  "store",
		Usage: "Type of event store: pebble or memory",
	},
	&cli.StringFlag{
		Name:  "archive",
		Usage: "Directory to archive raw event payloads in. Disabled if not set",
	},
	&cli.StringFlag{
		Name:  "ingest-url",
		Usage: "Scheme and host clients use to reach the ingest server, used to build DSNs",
	},
	&cli.BoolFlag{
		Name:  "upgrade",
		Usage: "Upgrade the config file to the current version, saving the old config as config.prev, and ignoring other flags ",
	},
}

var daemonFlags = []cli.Flag{
	listenAdminFlag,
	listenIngestFlag,
	listenMetricsFlag,
	&cli.BoolFlag{
		Name:    "watch-config",
		Usage:   "Watch for changes to config file and automatically reload",
		EnvVars: []string{"SENTRYTYPES_WATCH_CONFIG"},
		Value:   true,
	},
	&cli.DurationFlag{
		Name:  "config-check-interval",
		Usage: "How often to check the config file for changes when watching it",
		Value: defaultConfigCheckInterval,
	},
}
