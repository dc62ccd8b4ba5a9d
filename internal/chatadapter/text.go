package chatadapter

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

const defaultAgentID = "main"

// handleFreeText dispatches operator text: a reply to a pending approval
// prompt resolves it with instructions; anything else is routed into an
// agent's message queue, preferring a reply-to tag over the default agent.
func (a *Adapter) handleFreeText(ctx context.Context, msg *models.Message) {
	if msg.ReplyToMessage != nil {
		replyID := fmt.Sprintf("%d", msg.ReplyToMessage.ID)
		if requestID, ok := a.store.LookupMessageToRequest(replyID); ok {
			a.resolveWithInstructions(ctx, requestID, msg.Text)
			return
		}
	}

	agentID := defaultAgentID
	if msg.ReplyToMessage != nil {
		if id, ok := extractAgentIDTag(msg.ReplyToMessage.Text); ok {
			agentID = id
		}
	}

	depth, _ := a.store.EnqueueMessage(agentID, msg.Text)
	a.postPlain(ctx, fmt.Sprintf("Queued for `%s` \\(depth=%d\\)", EscapeMarkup(agentID), depth))
}

// resolveWithInstructions completes requestID as approved-with-instructions
// and folds the reply text into the agent's queue so it rides along with any
// other pending messages when the coordinator composes the final reason.
func (a *Adapter) resolveWithInstructions(ctx context.Context, requestID, text string) {
	info, ok := a.store.PeekApproval(requestID)
	if !ok || info.Resolved {
		a.postPlain(ctx, expiredAlertText+"\\.")
		return
	}

	a.store.EnqueueMessage(info.AgentID, text)
	if !a.store.CompleteApproval(requestID, store.ApprovalResult{
		Decision:    store.DecisionApprove,
		Reason:      "approved with instructions",
		UserMessage: text,
	}) {
		a.postPlain(ctx, expiredAlertText+"\\.")
		return
	}

	a.postPlain(ctx, "✅ Approved with instructions\\.")
}
