package approval

import (
	"context"
	"testing"
	"time"

	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

// fakeSender is a Sender test double that lets each test control delivery
// behavior and, optionally, resolve the approval itself to simulate a chat
// button press arriving mid-wait.
type fakeSender struct {
	s            *store.Store
	sendErr      error
	onSend       func(p ApprovalPrompt)
	expiredCalls int
}

func (f *fakeSender) SendApprovalPrompt(ctx context.Context, p ApprovalPrompt) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	if f.onSend != nil {
		f.onSend(p)
	}
	return "msg-" + p.RequestID, nil
}

func (f *fakeSender) NotifyExpired(ctx context.Context, requestID string, timeoutS int) error {
	f.expiredCalls++
	return nil
}

func TestRequestApprovalShortCircuitsWhenPaused(t *testing.T) {
	s := store.New()
	s.SetPaused(true)
	c := New(s, &fakeSender{s: s}, nil)

	resp := c.RequestApproval(context.Background(), RequestInput{AgentID: "main", ToolName: "bash"})
	if resp.Decision != store.DecisionPassthrough || resp.Reason != "bridge_paused" {
		t.Fatalf("expected passthrough/bridge_paused, got %+v", resp)
	}
}

func TestRequestApprovalResolvedByChatEvent(t *testing.T) {
	s := store.New()
	sender := &fakeSender{s: s}
	sender.onSend = func(p ApprovalPrompt) {
		go func() {
			s.CompleteApproval(p.RequestID, store.ApprovalResult{Decision: store.DecisionApprove, Reason: "user approved"})
		}()
	}
	c := New(s, sender, nil)

	resp := c.RequestApproval(context.Background(), RequestInput{
		AgentID: "main", ToolName: "bash", TimeoutS: 5,
	})
	if resp.Decision != store.DecisionApprove {
		t.Fatalf("expected approve, got %+v", resp)
	}
	if resp.RequestID == "" {
		t.Fatal("expected a request id")
	}
}

func TestRequestApprovalEmbedsPendingMessagesInReason(t *testing.T) {
	s := store.New()
	s.EnqueueMessage("main", "focus the auth tests")
	sender := &fakeSender{s: s}
	sender.onSend = func(p ApprovalPrompt) {
		if len(p.PendingMessages) != 1 || p.PendingMessages[0] != "focus the auth tests" {
			t.Errorf("expected pending message embedded in prompt, got %v", p.PendingMessages)
		}
		go func() {
			s.CompleteApproval(p.RequestID, store.ApprovalResult{Decision: store.DecisionApprove, Reason: "approved"})
		}()
	}
	c := New(s, sender, nil)

	resp := c.RequestApproval(context.Background(), RequestInput{AgentID: "main", TimeoutS: 5})
	if resp.Reason == "" {
		t.Fatal("expected non-empty reason")
	}
	want := "approved\n\nUser instructions:\nfocus the auth tests"
	if resp.Reason != want {
		t.Fatalf("expected reason %q, got %q", want, resp.Reason)
	}
}

func TestRequestApprovalTimesOutAndNotifiesChat(t *testing.T) {
	s := store.New()
	sender := &fakeSender{s: s}
	c := New(s, sender, nil)

	start := time.Now()
	resp := c.RequestApproval(context.Background(), RequestInput{AgentID: "main", TimeoutS: 1})
	if resp.Decision != store.DecisionDeny || resp.Reason != "timeout" {
		t.Fatalf("expected deny/timeout, got %+v", resp)
	}
	if time.Since(start) < time.Second {
		t.Fatal("expected RequestApproval to wait out the full timeout")
	}
	if sender.expiredCalls != 1 {
		t.Fatalf("expected one timeout notice, got %d", sender.expiredCalls)
	}
}

func TestRequestApprovalSurvivesDeliveryFailure(t *testing.T) {
	s := store.New()
	sender := &fakeSender{s: s, sendErr: context.DeadlineExceeded}
	c := New(s, sender, nil)

	resp := c.RequestApproval(context.Background(), RequestInput{AgentID: "main", TimeoutS: 1})
	if resp.Decision != store.DecisionDeny || resp.Reason != "timeout" {
		t.Fatalf("expected the record to still resolve via timeout, got %+v", resp)
	}
}

func TestRequestApprovalAbandonsOnContextCancel(t *testing.T) {
	s := store.New()
	sender := &fakeSender{s: s}
	c := New(s, sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Response, 1)
	sender.onSend = func(p ApprovalPrompt) {
		go cancel()
	}
	go func() {
		done <- c.RequestApproval(ctx, RequestInput{AgentID: "main", TimeoutS: 30})
	}()

	select {
	case resp := <-done:
		if resp.Decision != store.DecisionDeny {
			t.Fatalf("expected deny on cancel, got %+v", resp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected RequestApproval to return promptly on context cancel")
	}
}
