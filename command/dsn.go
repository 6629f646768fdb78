package command

import (
	"errors"
	"fmt"

	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/urfave/cli/v2"
)

var DsnCmd = &cli.Command{
	Name:  "dsn",
	Usage: "Inspect DSNs and the auth information derived from them",
	Subcommands: []*cli.Command{
		{
			Name:      "parse",
			Usage:     "Show the parts of a DSN and the URL events are sent to",
			ArgsUsage: "<dsn>",
			Action:    dsnParseAction,
		},
		{
			Name:      "auth",
			Usage:     "Print the X-Sentry-Auth header a client sends for a DSN",
			ArgsUsage: "<dsn>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "client",
					Usage: "Client name and version to put in the header",
					Value: "sentrytypes-cli/1.0",
				},
				&cli.BoolFlag{
					Name:  "query",
					Usage: "Print the auth as URL query parameters instead",
				},
			},
			Action: dsnAuthAction,
		},
	},
}

func dsnArg(cctx *cli.Context) (*dsn.Dsn, error) {
	if cctx.Args().Len() != 1 {
		return nil, errors.New("exactly one DSN must be given")
	}
	return dsn.Parse(cctx.Args().First())
}

func dsnParseAction(cctx *cli.Context) error {
	d, err := dsnArg(cctx)
	if err != nil {
		return err
	}
	w := cctx.App.Writer
	fmt.Fprintln(w, "Scheme:    ", d.Scheme())
	fmt.Fprintln(w, "Public key:", d.PublicKey())
	if d.SecretKey() != "" {
		fmt.Fprintln(w, "Secret key:", d.SecretKey())
	}
	fmt.Fprintln(w, "Host:      ", d.Host())
	fmt.Fprintln(w, "Port:      ", d.Port())
	fmt.Fprintln(w, "Path:      ", d.Path())
	fmt.Fprintln(w, "Project:   ", d.ProjectID())
	fmt.Fprintln(w, "Store URL: ", d.StoreAPIURL())
	return nil
}

func dsnAuthAction(cctx *cli.Context) error {
	d, err := dsnArg(cctx)
	if err != nil {
		return err
	}
	a := d.ToAuth(cctx.String("client"))
	if cctx.Bool("query") {
		fmt.Fprintln(cctx.App.Writer, a.Query().Encode())
		return nil
	}
	fmt.Fprintln(cctx.App.Writer, a.String())
	return nil
}
