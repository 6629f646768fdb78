// Package ingestserver serves the Sentry store endpoint that clients send
// events to.
package ingestserver

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/internal/ingest"
	"github.com/sentrytypes/sentrytypes/internal/registry"
	xnet "golang.org/x/net/netutil"
)

var log = logging.Logger("sentrytypes/ingestserver")

type Server struct {
	server   *http.Server
	listener net.Listener
}

func (s *Server) URL() string {
	return fmt.Sprint("http://", s.listener.Addr().String())
}

func New(listen string, ingester *ingest.Ingester, reg *registry.Registry, options ...Option) (*Server, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	l, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, err
	}
	if opts.maxConns > 0 {
		// Limit the number of open connections to the listener.
		l = xnet.LimitListener(l, opts.maxConns)
	}

	healthMsg := "ready"
	if opts.version != "" {
		healthMsg += " " + opts.version
	}
	h := &handler{
		ingester:     ingester,
		reg:          reg,
		maxEventSize: opts.maxEventSize,
		healthMsg:    healthMsg,
	}

	r := mux.NewRouter()
	for _, p := range []string{"/api/{project_id}/store/", "/api/{project_id}/store"} {
		r.HandleFunc(p, h.store).Methods(http.MethodPost)
		r.HandleFunc(p, h.preflight).Methods(http.MethodOptions)
	}
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	server := &http.Server{
		Handler:      r,
		WriteTimeout: opts.writeTimeout,
		ReadTimeout:  opts.readTimeout,
	}
	return &Server{
		server:   server,
		listener: l,
	}, nil
}

func (s *Server) Start() error {
	log.Infow("Ingest http server listening", "listen_addr", s.listener.Addr())
	return s.server.Serve(s.listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Ingest http server shutdown")
	return s.server.Shutdown(ctx)
}
