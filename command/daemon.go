package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/filestore"
	"github.com/sentrytypes/sentrytypes/fsutil"
	"github.com/sentrytypes/sentrytypes/internal/eventstore"
	"github.com/sentrytypes/sentrytypes/internal/ingest"
	"github.com/sentrytypes/sentrytypes/internal/metrics"
	"github.com/sentrytypes/sentrytypes/internal/registry"
	httpadmin "github.com/sentrytypes/sentrytypes/server/admin"
	httpingest "github.com/sentrytypes/sentrytypes/server/ingest"
	"github.com/urfave/cli/v2"
)

// Recognized event store type names.
const (
	storeMemory = "memory"
	storePebble = "pebble"
)

const defaultConfigCheckInterval = 30 * time.Second

var log = logging.Logger("sentrytypes")

var (
	ErrDaemonStart = errors.New("daemon did not start correctly")
	ErrDaemonStop  = errors.New("daemon did not stop correctly")
)

var DaemonCmd = &cli.Command{
	Name:   "daemon",
	Usage:  "Start the event ingestion daemon",
	Flags:  daemonFlags,
	Action: daemonAction,
}

// shutdowner is a server that is stopped when the daemon exits.
type shutdowner interface {
	Shutdown(context.Context) error
}

func daemonAction(cctx *cli.Context) error {
	cfg, err := loadConfig("")
	if err != nil {
		if errors.Is(err, config.ErrNotInitialized) {
			fmt.Fprintln(os.Stderr, "sentrytypes is not initialized")
			fmt.Fprintln(os.Stderr, "To initialize, run the command: ./sentrytypes init")
			os.Exit(1)
		}
		return err
	}

	if err = setLoggingConfig(cfg.Logging); err != nil {
		return err
	}

	configRoot, err := config.PathRoot()
	if err != nil {
		return err
	}

	// Create datastore and the project key registry that uses it.
	dstore, dsDir, err := createDatastore(cctx.Context, configRoot, cfg.Datastore)
	if err != nil {
		return err
	}
	reg, err := registry.New(cctx.Context, dstore, cfg.Policy)
	if err != nil {
		dstore.Close()
		return fmt.Errorf("cannot create project registry: %w", err)
	}
	defer reg.Close()
	log.Infow("Project registry initialized", "datastore", cfg.Datastore.Type, "path", dsDir)

	// Create the event store of the configured type.
	var storeDir string
	if cfg.EventStore.Type == storePebble {
		storeDir, err = fsutil.ResolveDir(configRoot, cfg.EventStore.Dir)
		if err != nil {
			return err
		}
		if err = fsutil.DirWritable(storeDir); err != nil {
			return err
		}
	}
	store, err := eventstore.New(cfg.EventStore, storeDir)
	if err != nil {
		return err
	}
	log.Infow("Event store initialized", "type", cfg.EventStore.Type, "path", storeDir)

	archive, err := createArchive(configRoot, cfg.Archive)
	if err != nil {
		store.Close()
		return err
	}

	ingestOpts := []ingest.Option{
		ingest.WithRetention(time.Duration(cfg.EventStore.Retention), 0),
	}
	if storeDir != "" {
		ingestOpts = append(ingestOpts, ingest.WithDiskGuard(storeDir, cfg.EventStore.FreezeAtPercent))
	}
	ingester, err := ingest.New(cfg.Ingest, reg, store, archive, ingestOpts...)
	if err != nil {
		store.Close()
		return err
	}

	var servers []shutdowner
	svrErrChan := make(chan error, 3)
	reloadErrsChan := make(chan chan error, 1)

	// Create ingest HTTP server.
	ingestAddr := listenAddr(cctx, "listen-ingest", cfg.Addresses.Ingest)
	var ingestSvr *httpingest.Server
	if ingestAddr != "none" {
		ingestSvr, err = httpingest.New(ingestAddr, ingester, reg,
			httpingest.WithMaxEventSize(int64(cfg.Ingest.MaxEventSize)),
			httpingest.WithVersion(cctx.App.Version))
		if err != nil {
			return closeOnError(err, ingester, store)
		}
		servers = append(servers, ingestSvr)
		go func() {
			svrErrChan <- ingestSvr.Start()
		}()
		fmt.Fprintln(cctx.App.Writer, "Ingest server:\t", ingestAddr)
	} else {
		fmt.Fprintln(cctx.App.Writer, "Ingest server:\t disabled")
	}

	// Create admin HTTP server.
	adminAddr := listenAddr(cctx, "listen-admin", cfg.Addresses.Admin)
	if adminAddr != "none" {
		adminOpts := []httpadmin.Option{httpadmin.WithVersion(cctx.App.Version)}
		if scheme, host, port, err := publicIngestAddress(cfg.Addresses.IngestURL, ingestAddr); err == nil {
			adminOpts = append(adminOpts, httpadmin.WithIngestAddress(scheme, host, port))
		} else {
			log.Warnw("Project keys will be listed without DSN", "err", err)
		}
		adminSvr, err := httpadmin.New(adminAddr, ingester, reg, store, archive, reloadErrsChan, adminOpts...)
		if err != nil {
			shutdownServers(servers, 0)
			return closeOnError(err, ingester, store)
		}
		servers = append(servers, adminSvr)
		go func() {
			svrErrChan <- adminSvr.Start()
		}()
		fmt.Fprintln(cctx.App.Writer, "Admin server:\t", adminAddr)
	} else {
		fmt.Fprintln(cctx.App.Writer, "Admin server:\t disabled")
	}

	// Create metrics server.
	metricsAddr := listenAddr(cctx, "listen-metrics", cfg.Addresses.Metrics)
	if metricsAddr != "none" {
		metricsSvr, err := metrics.New(metricsAddr)
		if err != nil {
			shutdownServers(servers, 0)
			return closeOnError(err, ingester, store)
		}
		servers = append(servers, metricsSvr)
		go func() {
			svrErrChan <- metricsSvr.Start()
		}()
		fmt.Fprintln(cctx.App.Writer, "Metrics server:\t", metricsAddr)
	} else {
		fmt.Fprintln(cctx.App.Writer, "Metrics server:\t disabled")
	}

	reloadSig := make(chan os.Signal, 1)
	signal.Notify(reloadSig, syscall.SIGHUP)
	defer signal.Stop(reloadSig)

	fmt.Fprintln(cctx.App.Writer, "Daemon is ready")

	var cfgPath string
	if cctx.Bool("watch-config") {
		cfgPath, err = config.Filename("")
		if err != nil {
			log.Errorw("Cannot get config file name", "err", err)
		}
	}

	var finalErr, statErr error
	var modTime time.Time
	var timeChan <-chan time.Time

	if cfgPath != "" {
		modTime, _, statErr = fsutil.FileChanged(cfgPath, modTime)
		if statErr != nil {
			log.Error(statErr)
		}
		ticker := time.NewTicker(cctx.Duration("config-check-interval"))
		defer ticker.Stop()
		timeChan = ticker.C
	}

	shutdownTimeout := time.Duration(cfg.Ingest.ShutdownTimeout)

	for endDaemon := false; !endDaemon; {
		select {
		case <-cctx.Done():
			// Command was canceled (ctrl-c)
			endDaemon = true
		case err = <-svrErrChan:
			log.Errorw("Failed to start server", "err", err)
			finalErr = ErrDaemonStart
			endDaemon = true
		case <-reloadSig:
			reloadErrsChan <- nil
		case errChan := <-reloadErrsChan:
			// A reload has been triggered by putting either an error channel
			// or nil on reloadErrsChan. If the reload signaler wants to know
			// if an error occurred, the error channel is not nil.
			newCfg, err := reloadConfig(cfgPath, reg)
			if err != nil {
				log.Errorw("Error reloading config", "err", err)
				if errChan != nil {
					errChan <- errors.New("could not reload configuration")
				}
				continue
			}
			cfg = newCfg
			shutdownTimeout = time.Duration(cfg.Ingest.ShutdownTimeout)
			if errChan != nil {
				errChan <- nil
			}
		case <-timeChan:
			var changed bool
			modTime, changed, err = fsutil.FileChanged(cfgPath, modTime)
			if err != nil {
				if statErr == nil {
					log.Errorw("Cannot stat config file", "err", err, "path", cfgPath)
					statErr = err
				}
				continue
			}
			statErr = nil
			if changed {
				reloadErrsChan <- nil
			}
		}
	}

	log.Infow("Shutting down daemon")

	if !shutdownServers(servers, shutdownTimeout) {
		finalErr = ErrDaemonStop
	}

	// Stop accepting events, then wait for the queued ones to be stored.
	done := make(chan error, 1)
	go func() {
		done <- ingester.Close()
	}()
	var timeout <-chan time.Time
	if shutdownTimeout > 0 {
		timer := time.NewTimer(shutdownTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case err = <-done:
		if err != nil {
			log.Errorw("Error closing ingester", "err", err)
			finalErr = ErrDaemonStop
		}
	case <-timeout:
		fmt.Fprintln(cctx.App.ErrWriter, "Timed out on shutdown, terminating...")
		os.Exit(-1)
	}

	if err = store.Close(); err != nil {
		log.Errorw("Error closing event store", "err", err)
		finalErr = ErrDaemonStop
	}

	log.Info("Daemon stopped")
	return finalErr
}

// listenAddr returns the address given by flagName, or cfgAddr if the flag
// is not set.
func listenAddr(cctx *cli.Context, flagName, cfgAddr string) string {
	if addr := cctx.String(flagName); addr != "" {
		return addr
	}
	if cfgAddr == "" {
		return "none"
	}
	return cfgAddr
}

// publicIngestAddress returns the address put into DSNs. It comes from
// ingestURL when that is set, otherwise from the ingest listen address with
// unspecified hosts replaced by localhost.
func publicIngestAddress(ingestURL, listen string) (dsn.Scheme, string, uint16, error) {
	if ingestURL != "" {
		scheme, host, port, err := splitIngestURL(ingestURL)
		if err != nil {
			return "", "", 0, err
		}
		return dsn.Scheme(scheme), host, port, nil
	}
	if listen == "none" {
		return "", "", 0, errors.New("ingest server disabled and no IngestURL configured")
	}
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return "", "", 0, err
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid ingest port %q", portStr)
	}
	return dsn.SchemeHTTP, host, uint16(port), nil
}

func createArchive(configRoot string, cfg filestore.Config) (*filestore.Archive, error) {
	if cfg.Type == "local" {
		dir, err := fsutil.ResolveDir(configRoot, cfg.Local.BasePath)
		if err != nil {
			return nil, err
		}
		if err = fsutil.DirWritable(dir); err != nil {
			return nil, err
		}
		cfg.Local.BasePath = dir
	}
	fs, err := filestore.MakeFilestore(cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot create payload archive: %w", err)
	}
	if fs == nil {
		log.Info("Payload archive disabled")
		return nil, nil
	}
	log.Infow("Payload archive initialized", "type", fs.Type())
	return filestore.NewArchive(fs), nil
}

// shutdownServers stops servers, giving them up to timeout to finish open
// requests. It returns false if any server did not stop cleanly.
func shutdownServers(servers []shutdowner, timeout time.Duration) bool {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ok := true
	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			log.Errorw("Error shutting down server", "err", err)
			ok = false
		}
	}
	return ok
}

func closeOnError(err error, ingester *ingest.Ingester, store eventstore.Interface) error {
	ingester.Close()
	store.Close()
	return err
}

func setLoggingConfig(cfgLogging config.Logging) error {
	// Set overall log level.
	err := logging.SetLogLevel("*", cfgLogging.Level)
	if err != nil {
		return err
	}

	// Set level for individual loggers.
	for loggerName, level := range cfgLogging.Loggers {
		err = logging.SetLogLevel(loggerName, level)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadConfig(filePath string) (*config.Config, error) {
	cfg, err := config.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot load config file: %w", err)
	}
	if cfg.Version != config.Version {
		log.Warn("Configuration file out-of-date. Upgrade by running: sentrytypes init --upgrade")
	}
	return cfg, nil
}

// reloadConfig applies the reloadable parts of the config file: the project
// policy and logging.
func reloadConfig(cfgPath string, reg *registry.Registry) (*config.Config, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	if err = reg.SetPolicy(cfg.Policy); err != nil {
		return nil, fmt.Errorf("failed to set policy config: %w", err)
	}

	if err = setLoggingConfig(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	log.Info("Reloaded reloadable values from configuration")
	return cfg, nil
}
