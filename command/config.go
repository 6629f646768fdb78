package command

import (
	"fmt"

	"github.com/sentrytypes/sentrytypes/config"
	"github.com/urfave/cli/v2"
)

var ConfigCmd = &cli.Command{
	Name:  "config",
	Usage: "Show the local daemon configuration",
	Subcommands: []*cli.Command{
		{
			Name:  "show",
			Usage: "Print the config file with unset values filled in",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "file",
					Usage:   "Config file to show instead of the default one",
					Aliases: []string{"f"},
				},
			},
			Action: configShowAction,
		},
		{
			Name:   "path",
			Usage:  "Print the location of the config file",
			Action: configPathAction,
		},
	},
}

func configShowAction(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx.String("file"))
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, cfg.String())
	return nil
}

func configPathAction(cctx *cli.Context) error {
	path, err := config.Filename("")
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, path)
	return nil
}
