package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"browserd/browser"
	"browserd/extract"
	"browserd/search"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// TaskRunner runs a routine on a page of its own.
type TaskRunner interface {
	Run(ctx context.Context, name string, fn browser.TaskFunc) error
}

// HealthChecker reports whether the browser session is live.
type HealthChecker interface {
	Alive() bool
}

type Options struct {
	Port          int
	EnableArticle bool
	EnableMetrics bool
}

// Server represents the API server
type Server struct {
	runner    TaskRunner
	health    HealthChecker
	searcher  *search.Searcher
	extractor *extract.Extractor
	reader    *extract.Reader
	opts      Options
	logger    *zap.Logger

	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(
	runner TaskRunner,
	health HealthChecker,
	searcher *search.Searcher,
	extractor *extract.Extractor,
	reader *extract.Reader,
	opts Options,
	logger *zap.Logger,
) *Server {
	s := &Server{
		runner:    runner,
		health:    health,
		searcher:  searcher,
		extractor: extractor,
		reader:    reader,
		opts:      opts,
		logger:    logger,
	}
	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /health", s.handleHealth)
	s.route(mux, "POST /search", s.handleSearch)
	s.route(mux, "POST /extract", s.handleExtract)
	if s.opts.EnableArticle && s.reader != nil {
		s.route(mux, "POST /article", s.handleArticle)
	}
	if s.opts.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return requestID(mux)
}

// Start binds the listening port and serves until Close is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Browser service listening", zap.String("addr", ln.Addr().String()))
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the listener and drops open connections without draining.
func (s *Server) Close() error {
	return s.httpServer.Close()
}
