// Package server exposes the pipeline over HTTP: a WebSocket endpoint
// streaming run progress, a provider status endpoint, and Prometheus
// metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidsum/vidsum/internal/acquire"
	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/internal/pipeline"
	"github.com/vidsum/vidsum/internal/provider"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Server serves the pipeline API.
type Server struct {
	orchestrator pipeline.Orchestrator
	registry     provider.Registry
	logger       logger.Logger
	httpServer   *http.Server
}

// New builds the server on the given listen address.
func New(addr string, orch pipeline.Orchestrator, reg provider.Registry, log logger.Logger) *Server {
	s := &Server{
		orchestrator: orch,
		registry:     reg,
		logger:       log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleRun)
	mux.HandleFunc("/api/providers", s.handleProviders)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// runRequest is the first (and only) message a client sends on the
// WebSocket connection.
type runRequest struct {
	URL           string `json:"url"`
	Kind          string `json:"kind,omitempty"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	Provider      string `json:"provider,omitempty"`
	Model         string `json:"model,omitempty"`
	MaxSegments   int    `json:"max_segments,omitempty"`
	WindowSeconds int    `json:"segment_window_seconds,omitempty"`
	AllowPartial  bool   `json:"allow_partial,omitempty"`
}

// handleRun upgrades to WebSocket, reads one run request, and streams
// the pipeline events back until the terminal event.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req runRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Warn(r.Context(), "Invalid run request: %v", err)
		conn.WriteJSON(pipeline.Event{
			Stage: pipeline.StageFailed, Terminal: true,
			Error: "invalid request",
		})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A closed connection cancels the run.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	var creds *acquire.Credentials
	if req.Username != "" || req.Password != "" {
		creds = &acquire.Credentials{Username: req.Username, Password: req.Password}
	}

	events := s.orchestrator.Run(ctx, pipeline.Request{
		URL:         req.URL,
		Kind:        acquire.RefKind(req.Kind),
		Credentials: creds,
		Options: pipeline.Options{
			Provider:      req.Provider,
			Model:         req.Model,
			MaxSegments:   req.MaxSegments,
			WindowSeconds: req.WindowSeconds,
			AllowPartial:  req.AllowPartial,
		},
	})

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Warn(ctx, "WebSocket write failed, cancelling run: %v", err)
			cancel()
			// Drain so the pipeline can finish its cleanup.
			for range events {
			}
			return
		}
	}
}

// handleProviders probes all providers and returns their descriptors.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	descs := s.registry.ProbeAll(ctx)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(descs); err != nil {
		s.logger.Warn(r.Context(), "Failed to encode provider status: %v", err)
	}
}
