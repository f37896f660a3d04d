// Package server exposes the scrape service and the saved CSV rows over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"psxscraper/csvstore"
	"psxscraper/psx"
	"psxscraper/scraper"
)

// Options configures a Server
type Options struct {
	Host             string
	Port             int
	ShutdownTimeout  time.Duration
	IndexFile        string
	ConstituentsFile string
	AccessLog        io.Writer // combined log format, stderr when nil
	Logger           *log.Logger
}

// Server serves the HTTP API
type Server struct {
	svc    *scraper.Service
	store  *csvstore.Store
	opts   Options
	logger *log.Logger
}

// New creates a Server
func New(svc *scraper.Service, store *csvstore.Store, opts Options) *Server {
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stderr
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{svc: svc, store: store, opts: opts, logger: logger}
}

// Handler returns the routed API wrapped in recovery, compression and access logging
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/index", s.rowsHandler(s.opts.IndexFile)).Methods(http.MethodGet)
	router.HandleFunc("/constituents", s.rowsHandler(s.opts.ConstituentsFile)).Methods(http.MethodGet)
	router.HandleFunc("/scrape", s.scrapeHandler).Methods(http.MethodPost)

	var h http.Handler = router
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return handlers.CombinedLoggingHandler(s.opts.AccessLog, h)
}

// Addr is the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server is running", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rowsHandler returns the rows saved in name, [] when nothing was saved yet
func (s *Server) rowsHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := csvstore.ReadAll(s.store.Path(name))
		if err != nil {
			s.logger.Error("Error reading saved rows", "file", name, "err", err)
			http.Error(w, "Error reading "+name, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func (s *Server) scrapeHandler(w http.ResponseWriter, r *http.Request) {
	res := s.svc.Run(r.Context())
	if res.Constituents == nil {
		res.Constituents = []psx.Constituent{}
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
