// Package chatadapter implements the bridge's Telegram-facing component:
// outbound prompt, notification, and status delivery, plus inbound command,
// button-callback, and free-text dispatch. Every inbound event is gated on
// the single configured operator chat id.
package chatadapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/allobrice/claude-telegram-bridge/internal/approval"
	"github.com/allobrice/claude-telegram-bridge/internal/config"
	"github.com/allobrice/claude-telegram-bridge/internal/store"
)

const unauthorizedReply = "⛔ Non autorisé\\."

// parseModeMarkdownV2 is the wire value for Telegram's MarkdownV2 parser.
// Every outbound message is built with EscapeMarkup, whose reserved set is
// MarkdownV2's, so this is the only parse mode the adapter ever sends.
const parseModeMarkdownV2 = models.ParseMode("MarkdownV2")

// Adapter is the Chat Adapter component. It satisfies approval.Sender.
type Adapter struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	b *bot.Bot

	// onShutdown is invoked once from /shutdown confirm; the Supervisor sets
	// it to trigger overall process teardown.
	onShutdown func()
}

// New creates an Adapter. It does not contact Telegram until Start.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cfg: cfg, store: st, logger: logger}
}

// OnShutdown registers the callback /shutdown confirm invokes.
func (a *Adapter) OnShutdown(fn func()) {
	a.onShutdown = fn
}

// Start creates the underlying bot, verifies access to the configured chat
// with a short exponential backoff (the one network step we control before
// handing polling to the library's own internal loop), posts the startup
// banner, and blocks serving updates until ctx is canceled.
func (a *Adapter) Start(ctx context.Context) error {
	opts := []bot.Option{
		bot.WithDefaultHandler(a.handleUpdate),
		bot.WithCallbackQueryDataHandler("approve_all:", bot.MatchTypePrefix, a.handleApproveAllCallback),
		bot.WithCallbackQueryDataHandler("approve:", bot.MatchTypePrefix, a.handleApproveCallback),
		bot.WithCallbackQueryDataHandler("deny:", bot.MatchTypePrefix, a.handleDenyCallback),
		bot.WithSkipGetMe(),
	}

	b, err := bot.New(a.cfg.Telegram.BotToken, opts...)
	if err != nil {
		return fmt.Errorf("chatadapter: creating bot: %w", err)
	}
	a.b = b

	bf := backoff.NewExponentialBackOff()
	bf.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		_, err := b.GetChat(ctx, &bot.GetChatParams{ChatID: a.cfg.Telegram.ChatID})
		if err != nil {
			a.logger.Warn("chatadapter: chat verification failed, retrying", "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(bf, ctx))
	if err != nil {
		return fmt.Errorf("chatadapter: cannot access configured chat: %w", err)
	}

	if _, err := a.postPlain(ctx, "🟢 Bridge démarré"); err != nil {
		a.logger.Warn("chatadapter: failed to post startup banner", "error", err)
	}

	b.Start(ctx)
	return nil
}

// newSendParams builds the params for one outbound message. plain drops the
// parse mode so text that fails MarkdownV2 parsing can be retried verbatim.
func (a *Adapter) newSendParams(text string, keyboard *models.InlineKeyboardMarkup, plain bool) *bot.SendMessageParams {
	params := &bot.SendMessageParams{
		ChatID: a.cfg.Telegram.ChatID,
		Text:   text,
	}
	if !plain {
		params.ParseMode = parseModeMarkdownV2
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	return params
}

// send delivers text with the two-tier markup/plain policy and an optional
// keyboard, returning the sent message id as a string.
func (a *Adapter) send(ctx context.Context, text string, keyboard *models.InlineKeyboardMarkup) (string, error) {
	msg, err := a.b.SendMessage(ctx, a.newSendParams(text, keyboard, false))
	if err == nil {
		return fmt.Sprintf("%d", msg.ID), nil
	}

	a.logger.Warn("chatadapter: rich send failed, retrying plain", "error", err)
	msg, err = a.b.SendMessage(ctx, a.newSendParams(text, keyboard, true))
	if err != nil {
		return "", fmt.Errorf("chatadapter: send failed after plain-text retry: %w", err)
	}
	return fmt.Sprintf("%d", msg.ID), nil
}

func (a *Adapter) postPlain(ctx context.Context, text string) (string, error) {
	return a.send(ctx, text, nil)
}

func (a *Adapter) editAppend(ctx context.Context, messageID int, originalText, suffix string) {
	_, err := a.b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    a.cfg.Telegram.ChatID,
		MessageID: messageID,
		Text:      originalText + "\n\n" + suffix,
		ParseMode: parseModeMarkdownV2,
	})
	if err != nil {
		// Markup in originalText may not round-trip; fall back to plain.
		_, err = a.b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    a.cfg.Telegram.ChatID,
			MessageID: messageID,
			Text:      originalText + "\n\n" + suffix,
		})
		if err != nil {
			a.logger.Warn("chatadapter: failed to edit prompt message", "error", err)
		}
	}
}

// SendApprovalPrompt implements approval.Sender.
func (a *Adapter) SendApprovalPrompt(ctx context.Context, p approval.ApprovalPrompt) (string, error) {
	text, keyboard := buildApprovalPrompt(p)
	return a.send(ctx, text, keyboard)
}

// NotifyExpired implements approval.Sender.
func (a *Adapter) NotifyExpired(ctx context.Context, requestID string, timeoutS int) error {
	_, err := a.postPlain(ctx, buildExpiredNotice(requestID, timeoutS))
	return err
}

// Notify sends a /notify-derived message for an agent.
func (a *Adapter) Notify(ctx context.Context, agentID, agentName, message, level string) error {
	_, err := a.postPlain(ctx, buildNotifyText(agentName, agentID, message, level))
	return err
}

// isAuthorized reports whether chatID matches the sole configured operator.
func (a *Adapter) isAuthorized(chatID int64) bool {
	return chatID == a.cfg.Telegram.ChatID
}

func (a *Adapter) replyUnauthorized(ctx context.Context, chatID int64) {
	_, err := a.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      unauthorizedReply,
		ParseMode: parseModeMarkdownV2,
	})
	if err != nil {
		a.logger.Debug("chatadapter: failed to send unauthorized reply", "error", err)
	}
}
