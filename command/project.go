package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/sentrytypes/sentrytypes/admin/model"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/urfave/cli/v2"
)

var ProjectCmd = &cli.Command{
	Name:  "project",
	Usage: "Manage the keys that clients submit events with",
	Subcommands: []*cli.Command{
		projectAddCmd,
		projectListCmd,
		projectRemoveCmd,
		projectDisableCmd,
		projectEnableCmd,
	},
}

var projectAddCmd = &cli.Command{
	Name:  "add",
	Usage: "Create a new key for a project and print its DSN",
	Flags: []cli.Flag{
		adminHostFlag,
		projectFlag,
		&cli.StringFlag{
			Name:  "label",
			Usage: "Description of the key",
		},
	},
	Action: projectAddAction,
}

var projectListCmd = &cli.Command{
	Name:  "list",
	Usage: "List project keys",
	Flags: []cli.Flag{
		adminHostFlag,
		&cli.Uint64Flag{
			Name:    "project",
			Usage:   "Only list keys of this project",
			Aliases: []string{"p"},
		},
	},
	Action: projectListAction,
}

var projectRemoveCmd = &cli.Command{
	Name:      "remove",
	Usage:     "Remove a project key",
	ArgsUsage: "<public-key>",
	Flags:     []cli.Flag{adminHostFlag},
	Action:    projectRemoveAction,
}

var projectDisableCmd = &cli.Command{
	Name:      "disable",
	Usage:     "Reject events sent with a key, without removing it",
	ArgsUsage: "<public-key>",
	Flags:     []cli.Flag{adminHostFlag},
	Action: func(cctx *cli.Context) error {
		return setKeyDisabled(cctx, true)
	},
}

var projectEnableCmd = &cli.Command{
	Name:      "enable",
	Usage:     "Accept events sent with a disabled key again",
	ArgsUsage: "<public-key>",
	Flags:     []cli.Flag{adminHostFlag},
	Action: func(cctx *cli.Context) error {
		return setKeyDisabled(cctx, false)
	},
}

func projectAddAction(cctx *cli.Context) error {
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	key, err := cl.AddKey(cctx.Context, dsn.ProjectID(cctx.Uint64("project")), cctx.String("label"))
	if err != nil {
		return err
	}
	printKey(cctx.App.Writer, key)
	return nil
}

func projectListAction(cctx *cli.Context) error {
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	keys, err := cl.ListKeys(cctx.Context, dsn.ProjectID(cctx.Uint64("project")))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(cctx.App.Writer, "No project keys")
		return nil
	}

	for _, key := range keys {
		state := "enabled"
		if key.Disabled {
			state = "disabled"
		}
		fmt.Fprintf(cctx.App.Writer, "%-8s %s  %-8s %s  %s\n", key.ProjectID, key.PublicKey, state,
			key.Created.Format("2006-01-02 15:04:05"), key.Label)
	}
	return nil
}

func projectRemoveAction(cctx *cli.Context) error {
	publicKey, err := publicKeyArg(cctx)
	if err != nil {
		return err
	}
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	if err = cl.RemoveKey(cctx.Context, publicKey); err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, "Removed key", publicKey)
	return nil
}

func setKeyDisabled(cctx *cli.Context, disabled bool) error {
	publicKey, err := publicKeyArg(cctx)
	if err != nil {
		return err
	}
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	key, err := cl.SetKeyDisabled(cctx.Context, publicKey, disabled)
	if err != nil {
		return err
	}
	printKey(cctx.App.Writer, key)
	return nil
}

func publicKeyArg(cctx *cli.Context) (string, error) {
	if cctx.Args().Len() != 1 {
		return "", errors.New("exactly one public key must be given")
	}
	return cctx.Args().First(), nil
}

func printKey(w io.Writer, key *model.ProjectKey) {
	fmt.Fprintln(w, "Project:   ", key.ProjectID)
	fmt.Fprintln(w, "Public key:", key.PublicKey)
	fmt.Fprintln(w, "Secret key:", key.SecretKey)
	if key.Label != "" {
		fmt.Fprintln(w, "Label:     ", key.Label)
	}
	if key.Disabled {
		fmt.Fprintln(w, "Disabled:   true")
	}
	if key.DSN != "" {
		fmt.Fprintln(w, "DSN:       ", key.DSN)
	}
}
