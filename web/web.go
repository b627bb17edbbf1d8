// Package web serves a read-only JSON API over one company's bookkeeping:
// the transactions a period would generate, the account chart, journal
// balances and bank reconciliation.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/haskoe/ledger/config"
	"github.com/haskoe/ledger/engine"
	"github.com/haskoe/ledger/journal"
	"github.com/haskoe/ledger/telemetry"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const shutdownTimeout = 5 * time.Second

type Server struct {
	Port         int
	Host         string
	Version      string
	WatchEnabled bool

	settings *config.Settings
	period   string
	logger   *slog.Logger

	mu      sync.RWMutex
	engine  *engine.Context
	journal *journal.Journal

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

// New creates a server for period of the company described by settings.
func New(settings *config.Settings, period string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		Port:       8080,
		Host:       "127.0.0.1",
		settings:   settings,
		period:     period,
		logger:     logger,
		sseClients: make(map[chan string]struct{}),
	}
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	if err := s.prepare(telemetry.WithTimer(ctx, timer)); err != nil {
		timer.End()
		return err
	}
	defer func() { _ = s.Close() }()
	timer.End()

	if s.WatchEnabled {
		go func() {
			err := engine.WatchInputs(ctx, s.settings, s.period, s.logger, func() {
				if err := s.reload(ctx); err != nil {
					s.logger.WarnContext(ctx, "Failed to reload tables", "error", err)
					return
				}
				s.broadcast("reload")
			})
			if err != nil {
				s.logger.WarnContext(ctx, "File watcher stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.Host, s.Port),
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Serving", "addr", srv.Addr, "company", s.settings.CompanyDir(), "period", s.period)
	return serve(ctx, srv, ln)
}

// serve runs srv on ln until ctx is cancelled. It returns only after
// in-flight requests have finished or the shutdown timeout passed, so the
// journal can be closed afterwards.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-drained
		return nil
	}
	return err
}

// prepare loads the tables and opens the journal.
func (s *Server) prepare(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}

	j, err := journal.Open(s.settings.JournalDB)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.journal = j
	s.mu.Unlock()
	return nil
}

// Close releases the journal.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	err := s.journal.Close()
	s.journal = nil
	return err
}

// reload loads the master data again. The previous context stays in use
// when loading fails.
// Caller must NOT hold the mutex - this method acquires it internally.
func (s *Server) reload(ctx context.Context) error {
	c, err := engine.NewContext(ctx, s.settings, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.engine = c
	s.mu.Unlock()
	return nil
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/info", s.handleGetInfo)
	mux.HandleFunc("GET /api/accounts", s.handleGetAccounts)
	mux.HandleFunc("GET /api/transactions", s.handleGetTransactions)
	mux.HandleFunc("GET /api/balances", s.handleGetBalances)
	mux.HandleFunc("GET /api/reconcile", s.handleGetReconcile)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	return mux
}

// state returns the current engine context and journal.
func (s *Server) state() (*engine.Context, *journal.Journal) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine, s.journal
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
