package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nakildias/ollamabot/internal/database"
	"github.com/nakildias/ollamabot/internal/relay"
)

// typingInterval refreshes the typing indicator while the backend call is in
// flight; Telegram expires a single typing action after a few seconds.
const typingInterval = 4 * time.Second

// NewAskHandler returns a handler for the /ask command. It relays the user's
// prompt to the inference backend and replies with the adapted result.
func NewAskHandler(deps HandlerDeps) bot.HandlerFunc {
	return askHandler{deps}.Handle
}

type askHandler struct {
	deps HandlerDeps
}

func (h askHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ask")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Ask handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	prompt := commandArgument(update.Message.Text)
	if prompt == "" {
		log.InfoContext(ctx, "Ask command without a prompt", "chat_id", chatID, "user_id", userID)
		h.send(ctx, b, chatID, h.deps.Config.Bot.Messages.ProvidePrompt)
		return
	}

	instruction := h.deps.Prefs.Get(userID)
	log.InfoContext(ctx, "Handling /ask command",
		"chat_id", chatID, "user_id", userID, "prompt_chars", len(prompt), "has_instruction", instruction != "")

	stopTyping := h.keepTyping(ctx, b, chatID)

	start := time.Now()
	text, rerr := h.deps.Relay.Respond(ctx, instruction, prompt)
	stopTyping()

	status := "ok"
	if rerr != nil {
		status = rerr.Kind.String()
	}

	h.send(ctx, b, chatID, relay.AdaptOutput(text, h.deps.Config.Bot.MaxMessageLength))

	recordUsage(ctx, h.deps, &database.UsageRecord{
		ChatID:     chatID,
		UserID:     userID,
		Command:    "ask",
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// keepTyping shows the typing indicator until the returned stop function is
// called or the context is done.
func (h askHandler) keepTyping(ctx context.Context, b *bot.Bot, chatID int64) func() {
	typingCtx, cancel := context.WithCancel(ctx)

	sendAction := func() {
		_, err := b.SendChatAction(typingCtx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
		if err != nil && typingCtx.Err() == nil {
			h.deps.Logger.DebugContext(ctx, "Typing action failed", "chat_id", chatID, "error", err)
		}
	}

	go func() {
		sendAction()

		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-typingCtx.Done():
				return
			case <-ticker.C:
				sendAction()
			}
		}
	}()

	return cancel
}

func (h askHandler) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send ask reply", "error", err, "chat_id", chatID)
	}
}
