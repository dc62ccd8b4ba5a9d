// Package supervisor wires the state store, approval coordinator, chat
// adapter, and hook API together and runs the two long-lived tasks (chat
// poller, HTTP server) under one shutdown path: an OS termination signal,
// the operator's /shutdown confirm command, or either task exiting all
// tear down the other.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/allobrice/claude-telegram-bridge/internal/approval"
	"github.com/allobrice/claude-telegram-bridge/internal/chatadapter"
	"github.com/allobrice/claude-telegram-bridge/internal/config"
	"github.com/allobrice/claude-telegram-bridge/internal/hookapi"
	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

// Supervisor owns the bridge's four concurrent components and their shared
// shutdown path.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger

	Store       *store.Store
	Adapter     *chatadapter.Adapter
	Coordinator *approval.Coordinator
	HookAPI     *hookapi.Server
}

// New wires the State Store, Chat Adapter, Approval Coordinator, and Hook
// API together. None of them talk to the network until Run is called.
func New(cfg *config.Config, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	st := store.New()
	adapter := chatadapter.New(cfg, st, logger)
	coordinator := approval.New(st, adapter, logger)
	api := hookapi.New(cfg, st, coordinator, adapter, logger)

	return &Supervisor{
		cfg:         cfg,
		logger:      logger,
		Store:       st,
		Adapter:     adapter,
		Coordinator: coordinator,
		HookAPI:     api,
	}
}

// Run starts the chat adapter and hook API concurrently and blocks until
// either exits, an OS termination signal arrives, or the chat adapter's
// /shutdown-confirm callback fires. Termination of either component
// initiates shutdown of the other.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownCtx, cancelShutdown := context.WithCancel(ctx)
	defer cancelShutdown()
	s.Adapter.OnShutdown(cancelShutdown)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancelShutdown()
		if err := s.Adapter.Start(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			errs[0] = fmt.Errorf("chat adapter: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		defer cancelShutdown()
		if err := s.HookAPI.Start(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			errs[1] = fmt.Errorf("hook api: %w", err)
		}
	}()

	wg.Wait()
	s.logger.Info("supervisor: shut down")
	return errors.Join(errs...)
}
