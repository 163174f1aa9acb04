package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/nakildias/ollamabot/internal/database"
)

const usageSaveTimeout = 5 * time.Second

// commandArgument returns everything after the command word, trimmed.
// "/ask what is go?" -> "what is go?".
func commandArgument(text string) string {
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

// recordUsage writes a usage record on its own deadline, detached from the
// update context so a reply already sent still gets accounted for.
func recordUsage(ctx context.Context, deps HandlerDeps, record *database.UsageRecord) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageSaveTimeout)
	defer cancel()

	if err := deps.Store.SaveUsage(saveCtx, record); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to record usage",
			"command", record.Command, "user_id", record.UserID, "error", err)
	}
}
