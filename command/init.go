package command

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/fsutil"
	"github.com/urfave/cli/v2"
)

var InitCmd = &cli.Command{
	Name:   "init",
	Usage:  "Initialize or upgrade the daemon config file",
	Flags:  initFlags,
	Action: initAction,
}

func initAction(cctx *cli.Context) error {
	// Check that the config root exists and it writable.
	configRoot, err := config.PathRoot()
	if err != nil {
		return err
	}
	if err = fsutil.DirWritable(configRoot); err != nil {
		return err
	}

	configFile, err := config.Filename(configRoot)
	if err != nil {
		return err
	}

	if cctx.Bool("upgrade") {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		prevVer := cfg.Version
		if err = cfg.UpgradeConfig(configFile); err != nil {
			return fmt.Errorf("cannot upgrade: %s", err)
		}
		fmt.Fprintln(cctx.App.Writer, "Upgraded", configFile, "from version", prevVer, "to", cfg.Version)
		return nil
	}

	fmt.Fprintln(cctx.App.Writer, "Initializing sentrytypes at", configRoot)

	if fsutil.FileExists(configFile) {
		return config.ErrInitialized
	}

	cfg := config.New()

	// Use values from flags to override defaults.
	for flagName, addr := range map[string]*string{
		"listen-admin":   &cfg.Addresses.Admin,
		"listen-ingest":  &cfg.Addresses.Ingest,
		"listen-metrics": &cfg.Addresses.Metrics,
	} {
		value := cctx.String(flagName)
		if value == "" {
			continue
		}
		if value != "none" {
			if _, _, err = net.SplitHostPort(value); err != nil {
				return fmt.Errorf("bad %s: %s", flagName, err)
			}
		}
		*addr = value
	}

	switch storeType := cctx.String("store"); storeType {
	case "":
		// Use config default.
	case storeMemory, storePebble:
		cfg.EventStore.Type = storeType
	default:
		return fmt.Errorf("unrecognized store type: %s", storeType)
	}

	if archiveDir := cctx.String("archive"); archiveDir != "" {
		dir, err := fsutil.ResolveDir(configRoot, archiveDir)
		if err != nil {
			return err
		}
		cfg.Archive.Type = "local"
		cfg.Archive.Local.BasePath = dir
	}

	if ingestURL := cctx.String("ingest-url"); ingestURL != "" {
		if _, _, _, err = splitIngestURL(ingestURL); err != nil {
			return fmt.Errorf("bad ingest-url: %s", err)
		}
		cfg.Addresses.IngestURL = ingestURL
	}

	return cfg.Save(configFile)
}

// splitIngestURL reads the scheme, host and port from the public URL of the
// ingest server. A missing port is zero.
func splitIngestURL(s string) (string, string, uint16, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", "", 0, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", 0, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", "", 0, fmt.Errorf("missing host")
	}
	var port uint16
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return "", "", 0, fmt.Errorf("invalid port %q", p)
		}
		port = uint16(n)
	}
	return u.Scheme, u.Hostname(), port, nil
}
