// Package hookapi implements the bridge's loopback HTTP control-plane: the
// seven JSON endpoints hook programs call once per agent lifecycle event.
// Authentication is binding to loopback; there is no token scheme.
package hookapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/allobrice/claude-telegram-bridge/internal/approval"
	"github.com/allobrice/claude-telegram-bridge/internal/config"
	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

// serverTimeoutSlack is added on top of the configured approval timeout so
// the HTTP read/write deadlines always exceed the longest possible /approve
// wait.
const serverTimeoutSlack = 20 * time.Second

// Notifier is the outbound half of the Chat Adapter that /notify needs. It
// is satisfied structurally by chatadapter.Adapter; this package never
// imports chatadapter, matching the one-way dependency the approval package
// keeps toward its own Sender interface.
type Notifier interface {
	Notify(ctx context.Context, agentID, agentName, message, level string) error
}

// Server is the Hook API component.
type Server struct {
	cfg         *config.Config
	store       *store.Store
	coordinator *approval.Coordinator
	adapter     Notifier
	logger      *slog.Logger

	httpServer *http.Server
}

// New builds a Server bound to its collaborators. It does not listen until Start.
func New(cfg *config.Config, st *store.Store, coordinator *approval.Coordinator, adapter Notifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, store: st, coordinator: coordinator, adapter: adapter, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/notify", s.handleNotify)
	mux.HandleFunc("/approve", s.handleApprove)
	mux.HandleFunc("/check_auto_approve", s.handleCheckAutoApprove)
	mux.HandleFunc("/register_agent", s.handleRegisterAgent)
	mux.HandleFunc("/unregister_agent", s.handleUnregisterAgent)
	mux.HandleFunc("/send_message", s.handleSendMessage)
	mux.HandleFunc("/status", s.handleStatus)

	rwTimeout := cfg.ApprovalTimeout() + serverTimeoutSlack
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  rwTimeout,
		WriteTimeout: rwTimeout,
	}
	return s
}

// Start binds and serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("hookapi: listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
