// Package handlers contains Telegram bot command handlers, their
// registration logic, and middleware.
package handlers

import (
	"log/slog"

	"github.com/nakildias/ollamabot/internal/config"
	"github.com/nakildias/ollamabot/internal/database"
	"github.com/nakildias/ollamabot/internal/prefs"
	"github.com/nakildias/ollamabot/internal/relay"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Prefs  *prefs.Store
	Relay  *relay.Relay
}
