package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/allobrice/claude-telegram-bridge/internal/config"
)

// TestRunReturnsOnCanceledContext exercises the shutdown coupling between
// the two long-lived tasks: canceling the context before either component
// does meaningful I/O must still make Run return promptly rather than hang.
func TestRunReturnsOnCanceledContext(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Bridge.Port = 0 // let the OS pick an ephemeral port
	cfg.Telegram.BotToken = "000:test"
	cfg.Telegram.ChatID = 1

	sup := New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
