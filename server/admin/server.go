// Package admin serves the administrative API of the daemon: project keys,
// stored events, config reload and logging control.
package admin

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/filestore"
	"github.com/sentrytypes/sentrytypes/internal/eventstore"
	"github.com/sentrytypes/sentrytypes/internal/ingest"
	"github.com/sentrytypes/sentrytypes/internal/registry"
)

var log = logging.Logger("sentrytypes/admin")

type Server struct {
	listener net.Listener
	server   *http.Server
}

func (s *Server) URL() string {
	return fmt.Sprint("http://", s.listener.Addr().String())
}

// New creates the admin server. A reload request sends a channel on
// reloadErrChan and reports the error received back on it. archive may be
// nil.
func New(listen string, ingester *ingest.Ingester, reg *registry.Registry, store eventstore.Interface, archive *filestore.Archive, reloadErrChan chan<- chan error, options ...Option) (*Server, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	l, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, err
	}

	h := &adminHandler{
		opts:          opts,
		ingester:      ingester,
		reg:           reg,
		store:         store,
		archive:       archive,
		reloadErrChan: reloadErrChan,
	}
	h.healthMsg = "ready"
	if opts.version != "" {
		h.healthMsg += " " + opts.version
	}

	r := mux.NewRouter()
	server := &http.Server{
		Handler:      r,
		WriteTimeout: opts.writeTimeout,
		ReadTimeout:  opts.readTimeout,
	}
	s := &Server{
		listener: l,
		server:   server,
	}

	// Admin routes
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/reload", h.reloadConfig).Methods(http.MethodPost)

	// Project key routes
	r.HandleFunc("/projects/keys", h.listKeys).Methods(http.MethodGet)
	r.HandleFunc("/projects/keys", h.addKey).Methods(http.MethodPost)
	r.HandleFunc("/projects/keys/{key}", h.getKey).Methods(http.MethodGet)
	r.HandleFunc("/projects/keys/{key}", h.removeKey).Methods(http.MethodDelete)
	r.HandleFunc("/projects/keys/{key}/disabled", h.setDisabled).Methods(http.MethodPut)

	// Event routes
	r.HandleFunc("/events/prune", h.pruneEvents).Methods(http.MethodPost)
	r.HandleFunc("/events/{project}", h.listEvents).Methods(http.MethodGet)
	r.HandleFunc("/events/{project}/{id}", h.getEvent).Methods(http.MethodGet)
	r.HandleFunc("/events/{project}/{id}", h.deleteEvent).Methods(http.MethodDelete)
	r.HandleFunc("/events/{project}/{id}/payload", h.getPayload).Methods(http.MethodGet)

	// Config routes
	r.HandleFunc("/config/log/level", setLogLevel)
	r.HandleFunc("/config/log/subsystems", listLogSubSystems)

	return s, nil
}

func (s *Server) Start() error {
	log.Infow("Admin http server listening", "listen_addr", s.listener.Addr())
	return s.server.Serve(s.listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Admin http server shutdown")
	return s.server.Shutdown(ctx)
}
