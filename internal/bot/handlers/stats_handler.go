package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/nakildias/ollamabot/internal/database"
)

const (
	statsWindow       = 24 * time.Hour
	statsQueryTimeout = 15 * time.Second
)

// NewStatsHandler returns a handler for the admin-only /stats command. It
// summarizes the usage log for the last 24 hours.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /stats command", "chat_id", chatID, "user_id", update.Message.From.ID)

	queryCtx, cancel := context.WithTimeout(ctx, statsQueryTimeout)
	defer cancel()

	summary, err := h.deps.Store.Summarize(queryCtx, time.Now().UTC().Add(-statsWindow))
	if err != nil {
		log.ErrorContext(ctx, "Failed to summarize usage", "error", err, "chat_id", chatID)
		h.send(ctx, b, chatID, h.deps.Config.Bot.Messages.StatsError)
		return
	}

	h.send(ctx, b, chatID, formatSummary(summary))
}

func formatSummary(summary *database.UsageSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Usage in the last 24h: %d requests\n", summary.Total))

	sb.WriteString("\nBy command:\n")
	writeBuckets(&sb, summary.ByCommand)

	sb.WriteString("\nBy outcome:\n")
	writeBuckets(&sb, summary.ByStatus)

	return sb.String()
}

func writeBuckets(sb *strings.Builder, buckets map[string]int64) {
	if len(buckets) == 0 {
		sb.WriteString("  (none)\n")
		return
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %d\n", k, buckets[k]))
	}
}

func (h statsHandler) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send stats message", "error", err, "chat_id", chatID)
	}
}
