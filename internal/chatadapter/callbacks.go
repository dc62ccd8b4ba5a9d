package chatadapter

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

// expiredAlertText is shown for a callback on an unknown or already-resolved
// request; such an event never mutates the store.
const expiredAlertText = "Requête expirée ou déjà traitée"

func (a *Adapter) answerCallback(ctx context.Context, queryID, text string, alert bool) {
	_, err := a.b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		a.logger.Debug("chatadapter: failed to answer callback query", "error", err)
	}
}

// authorizeCallback reports whether the callback's sender is the configured
// operator. Telegram private chats key on the user's own id, so From.ID
// doubles as the chat id for this single-operator bridge.
func (a *Adapter) authorizeCallback(ctx context.Context, update *models.Update) bool {
	q := update.CallbackQuery
	if q == nil {
		return false
	}
	if a.isAuthorized(q.From.ID) {
		return true
	}
	a.answerCallback(ctx, q.ID, "⛔ Non autorisé.", true)
	return false
}

func (a *Adapter) handleApproveCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	a.resolveButton(ctx, update, store.DecisionApprove, "user approved", false)
}

func (a *Adapter) handleDenyCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	a.resolveButton(ctx, update, store.DecisionDeny, "user denied", false)
}

func (a *Adapter) handleApproveAllCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	a.resolveButton(ctx, update, store.DecisionApprove, "user approved, auto-approving session", true)
}

// resolveButton completes the approval referenced by the callback payload
// and edits the prompt message to append a status line.
func (a *Adapter) resolveButton(ctx context.Context, update *models.Update, decision, reason string, approveAllSession bool) {
	q := update.CallbackQuery
	if !a.authorizeCallback(ctx, update) {
		return
	}

	requestID := payloadID(q.Data)
	info, ok := a.store.PeekApproval(requestID)
	if !ok || info.Resolved {
		a.answerCallback(ctx, q.ID, expiredAlertText, true)
		return
	}

	if !a.store.CompleteApproval(requestID, store.ApprovalResult{Decision: decision, Reason: reason}) {
		a.answerCallback(ctx, q.ID, expiredAlertText, true)
		return
	}

	if approveAllSession {
		a.store.SetAutoApprove(info.AgentID, true)
	}

	a.answerCallback(ctx, q.ID, reason, false)

	if msg := q.Message.Message; msg != nil {
		a.editAppend(ctx, msg.ID, msg.Text, "✅ "+reason)
	}
}

// payloadID strips the "action:" prefix from a button callback's data.
func payloadID(data string) string {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[i+1:]
	}
	return data
}
