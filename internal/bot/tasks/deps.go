// Package tasks implements scheduled background tasks: usage-log retention
// and SQLite maintenance.
package tasks

import (
	"log/slog"

	"github.com/nakildias/ollamabot/internal/config"
	"github.com/nakildias/ollamabot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
