package command

import (
	"fmt"
	"strings"

	"github.com/sentrytypes/sentrytypes/admin/client"
	"github.com/urfave/cli/v2"
)

var AdminCmd = &cli.Command{
	Name:  "admin",
	Usage: "Perform admin activities with a running daemon",
	Subcommands: []*cli.Command{
		reloadCmd,
	},
}

var reloadCmd = &cli.Command{
	Name:  "reload-config",
	Usage: "Reload various settings from the configuration file",
	Description: "Reloads the following portions of the config file:" +
		" Logging," +
		" Ingest.ShutdownTimeout," +
		" Policy",
	Flags:  []cli.Flag{adminHostFlag},
	Action: reloadConfigAction,
}

func reloadConfigAction(cctx *cli.Context) error {
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	if err = cl.ReloadConfig(cctx.Context); err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, "Reloaded daemon configuration")
	return nil
}

// adminClient returns a client of the admin server named by the admin flag.
// A bare host:port is reached over http.
func adminClient(cctx *cli.Context) (*client.Client, error) {
	addr := cctx.String(adminHostFlag.Name)
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return client.New(addr)
}
