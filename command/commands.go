package command

import (
	_ "embed"
	"fmt"

	"github.com/urfave/cli/v2"
)

//go:embed tree.txt
var commandTree string

var CommandsCmd = &cli.Command{
	Name:  "commands",
	Usage: "Print tree of commands and subcommands",
	Action: func(cctx *cli.Context) error {
		fmt.Fprint(cctx.App.Writer, commandTree)
		return nil
	},
}
