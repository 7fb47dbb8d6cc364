// Package dashboard serves the read-only monitoring API: recent alerts,
// aggregate statistics, evidence images, and a websocket feed of newly
// fired alerts.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/alertlog"
	"github.com/dstps/dstps/internal/evidence"
)

const (
	recentAlerts   = 20
	recentEvidence = 6
)

// Server exposes the dashboard HTTP API. All routes are read-only; the
// alerting pipeline is the sole writer.
type Server struct {
	httpServer *http.Server
	store      alertlog.Store
	evidence   *evidence.Store
	hub        *hub
	logger     *zap.Logger
}

func NewServer(addr string, store alertlog.Store, ev *evidence.Store, logger *zap.Logger) *Server {
	s := &Server{
		store:    store,
		evidence: ev,
		hub:      newHub(store, logger),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/evidence", s.handleEvidence)
	mux.HandleFunc("/evidence/", s.handleEvidenceImage)
	mux.HandleFunc("/ws", s.hub.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        corsMiddleware(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("dashboard listening", zap.String("addr", s.httpServer.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Store order is oldest first; the dashboard wants newest first.
	alerts := lo.Reverse(s.store.Recent(recentAlerts))
	writeJSON(w, map[string]any{"alerts": alerts})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.store.Stats())
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	items := s.evidence.Recent(recentEvidence)
	writeJSON(w, map[string]any{"images": items})
}

func (s *Server) handleEvidenceImage(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path[len("/evidence/"):]
	path, ok := s.evidence.Open(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// corsMiddleware allows the dashboard frontend on common dev origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:8080": true,
		"http://127.0.0.1:3000": true,
		"http://127.0.0.1:8080": true,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
