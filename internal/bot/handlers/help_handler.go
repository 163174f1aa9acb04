package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command. The help text
// lists the available commands and the instance metadata from the config.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /help command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   h.buildHelpText(),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}

func (h helpHandler) buildHelpText() string {
	cfg := h.deps.Config

	var sb strings.Builder
	sb.WriteString("I can answer your questions using an Ollama AI model.\n\n")
	sb.WriteString("/ask <your question> — Asks the AI your question. The AI is instructed to give short answers.\n")
	sb.WriteString("/language <language name> — Answer your future prompts in that language (e.g. spanish, french, japanese).\n")
	sb.WriteString("/language default — Resets your language preference to the default (English).\n")
	sb.WriteString("/help — Shows this help message.\n")

	sb.WriteString(fmt.Sprintf("\nUsing model: %s", cfg.Ollama.Model))
	if cfg.Meta.HostedBy != "" {
		sb.WriteString(fmt.Sprintf(" hosted by %s", cfg.Meta.HostedBy))
	}
	if cfg.Meta.Version != "" {
		sb.WriteString(fmt.Sprintf("\nOllama Telegram Bot | Version: %s", cfg.Meta.Version))
	}

	return sb.String()
}
