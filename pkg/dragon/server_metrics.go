package dragon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/xerror"
)

const metricsShutdownTimeout = 5 * time.Second

// MetricsHandler serves the server's registry in the prometheus text format.
func (s *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// MetricsAddr is the address the metrics endpoint is listening on, empty
// when it is not running.
func (s *Server) MetricsAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metricsServer == nil {
		return ""
	}
	return s.metricsServer.Addr
}

// must be called with s.mu held
func (s *Server) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return xerror.Errorf("unable to serve metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.MetricsHandler())
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux}
	s.metricsServer = srv

	log.Info("Serving metrics on http://%s/metrics", srv.Addr)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server stopped: %v", err)
		}
	}()
	return nil
}

func (s *Server) shutdownMetricsServer() {
	s.mu.Lock()
	srv := s.metricsServer
	s.metricsServer = nil
	s.mu.Unlock()

	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Unable to shutdown metrics server: %v", err)
	}
}
