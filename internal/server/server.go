package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/logging"
	"github.com/rgowan/tunerbridge/internal/registry"
)

// Controller is the engine surface the control API drives. The scheduler
// satisfies it.
type Controller interface {
	RefreshNow(ctx context.Context) bool
	DiscoverNow(ctx context.Context) bool
}

// Config holds the control server configuration
type Config struct {
	// ListenAddr is the address to bind the HTTP API to.
	ListenAddr string
}

// Server exposes the control API: device listing, manual refresh and
// discovery triggers, the current source snapshot, and a WebSocket stream
// of registry intents.
type Server struct {
	config     *Config
	store      *devices.Store
	sources    *registry.Memory
	controller Controller
	hub        *Hub
	httpServer *http.Server
}

// New creates a control server. The hub starts distributing registry
// intents once Start is called.
func New(config *Config, store *devices.Store, sources *registry.Memory, controller Controller) *Server {
	s := &Server{
		config:     config,
		store:      store,
		sources:    sources,
		controller: controller,
		hub:        NewHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/api/sources", s.handleSources)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/api/discover", s.handleDiscover)
	mux.HandleFunc("/api/events", s.hub.handleSubscribe)

	s.httpServer = &http.Server{
		Addr:              config.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Every applied registry intent fans out to WebSocket subscribers.
	sources.OnIntent(s.hub.Broadcast)

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves the control API until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	logging.Info("Control API listening",
		zap.String("addr", s.config.ListenAddr),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"devices": s.store.List()})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"sources": s.sources.List()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	triggered := s.controller.RefreshNow(r.Context())
	writeJSON(w, map[string]any{"triggered": triggered})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	triggered := s.controller.DiscoverNow(r.Context())
	writeJSON(w, map[string]any{"triggered": triggered})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}
