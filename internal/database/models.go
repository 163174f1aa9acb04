package database

import "time"

// UsageRecord is one completed bot command: who asked, which command, how it
// ended, and how long the backend took. No message content is recorded.
type UsageRecord struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID     int64  `db:"chat_id"`
	UserID     int64  `db:"user_id"`
	Command    string `db:"command"`
	Status     string `db:"status"` // "ok" or an ollama.Kind string
	DurationMS int64  `db:"duration_ms"`
}

// UsageSummary aggregates the usage log for the stats command.
type UsageSummary struct {
	Total     int64
	ByCommand map[string]int64
	ByStatus  map[string]int64
	Since     time.Time
}
