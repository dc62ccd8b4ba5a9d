// Package approval implements the request/response rendezvous at the heart
// of the bridge: an approval starts on the hook API's goroutine, is handed
// to the chat adapter for delivery, and is resolved out-of-band by whichever
// chat event (or timeout) reaches the state store first.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

// ApprovalPrompt carries everything the Chat Adapter needs to render an
// approval request as a chat message with an inline keyboard.
type ApprovalPrompt struct {
	RequestID       string
	AgentID         string
	AgentName       string
	ToolName        string
	ToolInput       string
	Description     string
	PendingMessages []string
}

// Sender is the outbound half of the Chat Adapter that the Coordinator needs.
// It is satisfied structurally by chatadapter.Adapter; this package never
// imports chatadapter, so the dependency only runs one way.
type Sender interface {
	// SendApprovalPrompt delivers the prompt and returns the chat message id
	// it was sent as (for message→request correlation).
	SendApprovalPrompt(ctx context.Context, p ApprovalPrompt) (messageID string, err error)
	// NotifyExpired posts the "request timed out" notice to chat.
	NotifyExpired(ctx context.Context, requestID string, timeoutS int) error
}

// RequestInput is what the Hook API's /approve handler gathers from the hook.
type RequestInput struct {
	AgentID     string
	AgentName   string
	ToolName    string
	ToolInput   string
	Description string
	TimeoutS    int
}

// Response is what /approve returns to the hook.
type Response struct {
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
	RequestID string `json:"request_id"`
}

// Coordinator owns the approval rendezvous.
type Coordinator struct {
	store  *store.Store
	sender Sender
	logger *slog.Logger
}

// New creates a Coordinator bound to store s and chat sender.
func New(s *store.Store, sender Sender, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: s, sender: sender, logger: logger}
}

// pendingMessagePreview is how many queued messages get embedded in a prompt.
const pendingMessagePreview = 3

// RequestApproval runs the full rendezvous: pause short-circuit, record
// creation, chat delivery, and a bounded wait for resolution. It never
// returns before a decision is final; the returned Response.Decision is
// always one of approve, deny, or passthrough.
func (c *Coordinator) RequestApproval(ctx context.Context, in RequestInput) Response {
	if c.store.GetPaused() {
		return Response{Decision: store.DecisionPassthrough, Reason: "bridge_paused"}
	}

	timeoutS := in.TimeoutS
	if timeoutS <= 0 {
		timeoutS = int(store.DefaultApprovalTimeoutSeconds)
	}

	pending := c.store.PeekMessages(in.AgentID, pendingMessagePreview)

	id, done := c.store.CreateApproval(store.NewApprovalInput{
		AgentID:     in.AgentID,
		AgentName:   in.AgentName,
		ToolName:    in.ToolName,
		ToolInput:   in.ToolInput,
		Description: in.Description,
		TimeoutS:    timeoutS,
	})

	messageID, err := c.sender.SendApprovalPrompt(ctx, ApprovalPrompt{
		RequestID:       id,
		AgentID:         in.AgentID,
		AgentName:       in.AgentName,
		ToolName:        in.ToolName,
		ToolInput:       in.ToolInput,
		Description:     in.Description,
		PendingMessages: pending,
	})
	if err != nil {
		// The prompt never reached chat. The record stays pending and will
		// resolve via timeout: the operator loses visibility but the agent
		// is not wedged.
		c.logger.Warn("approval prompt delivery failed", "request_id", id, "error", err)
	} else {
		c.store.MapMessageToRequest(messageID, id)
	}

	timer := time.NewTimer(time.Duration(timeoutS) * time.Second)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		// First writer wins: if a chat event resolved it in the race window
		// between the timer firing and this CompleteApproval call, our call
		// below is simply a no-op.
		c.store.CompleteApproval(id, store.ApprovalResult{
			Decision: store.DecisionDeny,
			Reason:   "timeout",
		})
		if err := c.sender.NotifyExpired(ctx, id, timeoutS); err != nil {
			c.logger.Warn("failed to post timeout notice", "request_id", id, "error", err)
		}
	case <-ctx.Done():
		// Caller (HTTP request) went away or the server is shutting down.
		// Abandon the latch; the record is dropped rather than resolved so
		// no stray chat event can complete a record nobody is waiting on.
		c.store.DropApproval(id)
		return Response{Decision: store.DecisionDeny, Reason: "timeout", RequestID: id}
	}

	taken, ok := c.store.TakeApproval(id)
	if !ok {
		// Should not happen: done fired, so CompleteApproval must have run.
		return Response{Decision: store.DecisionDeny, Reason: "timeout", RequestID: id}
	}

	reason := taken.Result.Reason
	if len(taken.Messages) > 0 {
		reason = fmt.Sprintf("%s\n\nUser instructions:\n%s", reason, strings.Join(taken.Messages, "\n"))
	}

	return Response{
		Decision:  taken.Result.Decision,
		Reason:    reason,
		RequestID: id,
	}
}
