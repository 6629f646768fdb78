package metrics

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"

	ocprom "contrib.go.opencensus.io/exporter/prometheus"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opencensus.io/stats/view"
)

var log = logging.Logger("sentrytypes/metrics")

// Server serves /metrics and the pprof endpoints.
type Server struct {
	server   *http.Server
	listener net.Listener
}

// NewRegistry returns a prometheus registry with the go runtime and process
// collectors and an opencensus exporter for the registered views.
func NewRegistry() (*prometheus.Registry, http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter, err := ocprom.NewExporter(ocprom.Options{
		Namespace: "sentrytypes",
		Registry:  reg,
	})
	if err != nil {
		return nil, nil, err
	}
	return reg, exporter, nil
}

// New registers the default views and creates a metrics server listening on
// listenAddr.
func New(listenAddr string) (*Server, error) {
	if err := view.Register(DefaultViews...); err != nil {
		return nil, err
	}
	_, handler, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	l, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		server:   &http.Server{Handler: metricsMux(handler)},
		listener: l,
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start serves requests until Shutdown is called.
func (s *Server) Start() error {
	log.Infow("Metrics server started", "addr", s.listener.Addr())
	return s.server.Serve(s.listener)
}

// Shutdown stops the server and unregisters the views.
func (s *Server) Shutdown(ctx context.Context) error {
	view.Unregister(DefaultViews...)
	return s.server.Shutdown(ctx)
}

func metricsMux(handler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/gc", func(w http.ResponseWriter, req *http.Request) {
		runtime.GC()
	})
	return mux
}
