// Package network exposes the engine over HTTP.
package network

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"

	"github.com/leengari/importq/internal/engine"
)

// OwnerHeader names the caller whose tables a request works on
const OwnerHeader = "X-Owner-ID"

// maxBodyBytes bounds an import or query request body
const maxBodyBytes = 32 << 20

// Server serves the HTTP API
type Server struct {
	engine   *engine.Engine
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	rd       *render.Render
}

// NewServer creates a server. gatherer may be nil, which disables /metrics.
func NewServer(eng *engine.Engine, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:   eng,
		gatherer: gatherer,
		logger:   logger,
		rd:       render.New(render.Options{IndentJSON: true}),
	}
}

// Handler returns the router with all routes registered
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/status", s.Status).Methods("GET")
	router.HandleFunc("/v1/tables", s.ImportTable).Methods("POST")
	router.HandleFunc("/v1/tables", s.ListTables).Methods("GET")
	router.HandleFunc("/v1/tables/{name}", s.DropTable).Methods("DELETE")
	router.HandleFunc("/v1/query", s.RunQuery).Methods("POST")
	router.HandleFunc("/v1/assist", s.Assist).Methods("POST")
	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	return router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Annotatef(err, "listen on %s", addr)
	}
	return s.serve(ctx, lis)
}

func (s *Server) serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	s.logger.Info("http server listening", slog.String("addr", lis.Addr().String()))

	select {
	case err := <-errCh:
		return errors.Trace(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Annotate(err, "shutdown http server")
	}
	<-errCh
	s.logger.Info("http server stopped")
	return nil
}
