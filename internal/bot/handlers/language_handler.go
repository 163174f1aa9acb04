package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nakildias/ollamabot/internal/database"
)

// NewLanguageHandler returns a handler for the /language command. It updates
// the caller's language preference and replies with the store's confirmation.
func NewLanguageHandler(deps HandlerDeps) bot.HandlerFunc {
	return languageHandler{deps}.Handle
}

type languageHandler struct {
	deps HandlerDeps
}

func (h languageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "language")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Language handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	// An empty argument is one of the reset keywords, so /language on its
	// own resets the preference.
	language := commandArgument(update.Message.Text)
	confirmation := h.deps.Prefs.Set(userID, language)

	log.InfoContext(ctx, "Handling /language command", "chat_id", chatID, "user_id", userID, "language", language)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: confirmation})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send language confirmation", "error", err, "chat_id", chatID)
	}

	recordUsage(ctx, h.deps, &database.UsageRecord{
		ChatID:    chatID,
		UserID:    userID,
		Command:   "language",
		Status:    "ok",
		CreatedAt: time.Now().UTC(),
	})
}
