package chatadapter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/allobrice/claude-telegram-bridge/internal/approval"
	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

// maxToolInputPreview bounds how much of tool_input is echoed into a prompt;
// the hook itself already truncates to 2000 chars, this is just keeping the
// chat message readable.
const maxToolInputPreview = 1200

// agentIDTag is embedded in every agent-scoped outbound message so free text
// replying to it can be routed back to that agent without substring-matching
// arbitrary words in the message body.
const agentIDTagPrefix = "Agent ID: "

var agentIDTagRe = regexp.MustCompile(`Agent ID: (\S+)`)

func agentIDTag(agentID string) string {
	return agentIDTagPrefix + EscapeMarkup(agentID)
}

// extractAgentIDTag pulls the agent id back out of a message we previously
// tagged, if present. The tag was written through EscapeMarkup, so every
// escaped special character needs unescaping, not just a leading backslash.
func extractAgentIDTag(text string) (string, bool) {
	m := agentIDTagRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return unescapeMarkup(m[1]), true
}

// buildApprovalPrompt renders the text and inline keyboard for an approval
// request.
func buildApprovalPrompt(p approval.ApprovalPrompt) (string, *models.InlineKeyboardMarkup) {
	var b strings.Builder
	fmt.Fprintf(&b, "🔧 *Approval requested*\n")
	fmt.Fprintf(&b, "Agent: %s\n", EscapeMarkup(p.AgentName))
	fmt.Fprintf(&b, "%s\n", agentIDTag(p.AgentID))
	fmt.Fprintf(&b, "Tool: `%s`\n", EscapeMarkup(p.ToolName))
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", EscapeMarkup(p.Description))
	}
	input := p.ToolInput
	if len(input) > maxToolInputPreview {
		input = input[:maxToolInputPreview] + "…"
	}
	fmt.Fprintf(&b, "```\n%s\n```\n", EscapeMarkup(input))
	if len(p.PendingMessages) > 0 {
		fmt.Fprintf(&b, "\n*Messages en attente:*\n")
		for _, m := range p.PendingMessages {
			fmt.Fprintf(&b, "\\- %s\n", EscapeMarkup(m))
		}
	}
	fmt.Fprintf(&b, "\nRequest `%s`", EscapeMarkup(p.RequestID))

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Approve", CallbackData: "approve:" + p.RequestID},
				{Text: "❌ Deny", CallbackData: "deny:" + p.RequestID},
			},
			{
				{Text: "✅ Approve all (session)", CallbackData: "approve_all:" + p.RequestID},
			},
		},
	}
	return b.String(), keyboard
}

// buildExpiredNotice renders the timeout notice for a prompt nobody answered.
func buildExpiredNotice(requestID string, timeoutS int) string {
	return fmt.Sprintf("Approbation `%s` expirée \\(timeout %ds\\)\\. Refus par défaut\\.",
		EscapeMarkup(requestID), timeoutS)
}

// notifyEmoji maps /notify levels to the emoji prefix.
func notifyEmoji(level string) string {
	switch level {
	case "info":
		return "ℹ️"
	case "success":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "❌"
	case "task_complete":
		return "🏁"
	default:
		return "📌"
	}
}

// buildNotifyText renders a /notify message.
func buildNotifyText(agentName, agentID, message, level string) string {
	return fmt.Sprintf("%s %s\n%s\n%s", notifyEmoji(level), EscapeMarkup(agentName), agentIDTag(agentID), EscapeMarkup(message))
}

// buildStatusText renders the live snapshot for the /status command.
func buildStatusText(snap store.StatusSnapshot) string {
	var b strings.Builder
	state := "▶️ running"
	if snap.Paused {
		state = "⏸️ paused"
	}
	fmt.Fprintf(&b, "*Bridge status:* %s\n", state)
	fmt.Fprintf(&b, "Instance: `%s`\n", EscapeMarkup(snap.InstanceID))
	fmt.Fprintf(&b, "Uptime: %s\n\n", EscapeMarkup(snap.Uptime.Round(time.Second).String()))

	fmt.Fprintf(&b, "*Active sessions* \\(%d\\):\n", len(snap.ActiveSessions))
	for _, sess := range snap.ActiveSessions {
		fmt.Fprintf(&b, "\\- %s \\(`%s`\\) auto\\_approve=%v\n", EscapeMarkup(sess.AgentName), EscapeMarkup(sess.AgentID), sess.AutoApprove)
	}

	fmt.Fprintf(&b, "\n*Pending approvals* \\(%d\\):\n", len(snap.PendingApprovals))
	for _, p := range snap.PendingApprovals {
		fmt.Fprintf(&b, "\\- `%s` %s age=%.0fs\n", EscapeMarkup(p.RequestID), EscapeMarkup(p.ToolName), p.AgeSeconds)
	}

	fmt.Fprintf(&b, "\n*Message queues:*\n")
	for agentID, depth := range snap.MessageQueues {
		fmt.Fprintf(&b, "\\- `%s`: %d\n", EscapeMarkup(agentID), depth)
	}
	return b.String()
}

// buildAgentsText renders the /agents command.
func buildAgentsText(sessions []store.AgentSession) string {
	if len(sessions) == 0 {
		return "No active sessions\\."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Active sessions* \\(%d\\):\n", len(sessions))
	for _, sess := range sessions {
		fmt.Fprintf(&b, "\\- %s \\(`%s`\\) auto\\_approve=%v, registered %s\n",
			EscapeMarkup(sess.AgentName), EscapeMarkup(sess.AgentID), sess.AutoApprove,
			EscapeMarkup(sess.RegisteredAt.Format("15:04:05")))
	}
	return b.String()
}

// buildPendingText renders the /pending command.
func buildPendingText(pending []store.PendingApproval) string {
	if len(pending) == 0 {
		return "No pending approvals\\."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Pending approvals* \\(%d\\):\n", len(pending))
	for _, p := range pending {
		fmt.Fprintf(&b, "\\- `%s` agent=`%s` tool=%s age=%.0fs\n",
			EscapeMarkup(p.RequestID), EscapeMarkup(p.AgentID), EscapeMarkup(p.ToolName), p.AgeSeconds)
	}
	return b.String()
}
