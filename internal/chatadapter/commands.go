package chatadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

const startText = "Claude Telegram bridge\\.\n\n" +
	"/status \\- live snapshot\n" +
	"/agents \\- active sessions\n" +
	"/msg <agent\\_id> <text> \\- queue a message for an agent\n" +
	"/pending \\- pending approvals\n" +
	"/approve\\_all \\- approve every pending request\n" +
	"/deny\\_all \\- deny every pending request\n" +
	"/pause \\- stop contacting chat for new approvals\n" +
	"/resume \\- resume normal approval flow\n" +
	"/shutdown confirm \\- stop the bridge"

// handleUpdate is the default handler for updates not claimed by a
// callback-query prefix handler.
func (a *Adapter) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message != nil {
		a.handleMessage(ctx, update.Message)
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *models.Message) {
	if !a.isAuthorized(msg.Chat.ID) {
		a.replyUnauthorized(ctx, msg.Chat.ID)
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		a.dispatchCommand(ctx, msg)
		return
	}

	a.handleFreeText(ctx, msg)
}

// dispatchCommand parses a leading-slash command and routes it.
func (a *Adapter) dispatchCommand(ctx context.Context, msg *models.Message) {
	fields := strings.Fields(msg.Text)
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	switch cmd {
	case "start":
		a.postPlain(ctx, startText)
	case "status":
		a.postPlain(ctx, buildStatusText(a.store.Snapshot()))
	case "agents":
		a.postPlain(ctx, buildAgentsText(a.store.Snapshot().ActiveSessions))
	case "msg":
		a.handleMsgCommand(ctx, args)
	case "pending":
		a.postPlain(ctx, buildPendingText(a.store.Snapshot().PendingApprovals))
	case "approve_all":
		a.handleBulk(ctx, store.DecisionApprove, "bulk approved")
	case "deny_all":
		a.handleBulk(ctx, store.DecisionDeny, "bulk denied")
	case "pause":
		a.store.SetPaused(true)
		a.postPlain(ctx, "⏸️ Bridge paused\\.")
	case "resume":
		a.store.SetPaused(false)
		a.postPlain(ctx, "▶️ Bridge resumed\\.")
	case "shutdown":
		a.handleShutdown(ctx, args)
	default:
		a.postPlain(ctx, "Unknown command\\.")
	}
}

func (a *Adapter) handleMsgCommand(ctx context.Context, args []string) {
	if len(args) < 2 {
		a.postPlain(ctx, "Usage: /msg <agent\\_id> <text>")
		return
	}
	agentID := args[0]
	text := strings.Join(args[1:], " ")
	depth, _ := a.store.EnqueueMessage(agentID, text)
	a.postPlain(ctx, fmt.Sprintf("Queued for `%s` \\(depth=%d\\)", EscapeMarkup(agentID), depth))
}

func (a *Adapter) handleBulk(ctx context.Context, decision, reason string) {
	ids := a.store.BulkResolve(decision, reason)
	a.postPlain(ctx, fmt.Sprintf("Resolved %d pending approval\\(s\\) as %s\\.", len(ids), EscapeMarkup(decision)))
}

func (a *Adapter) handleShutdown(ctx context.Context, args []string) {
	if len(args) == 1 && args[0] == "confirm" {
		a.postPlain(ctx, "🔴 Shutting down\\.")
		if a.onShutdown != nil {
			go a.onShutdown()
		}
		return
	}
	a.postPlain(ctx, "Send `/shutdown confirm` to stop the bridge\\.")
}
