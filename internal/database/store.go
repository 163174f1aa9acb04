package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the usage-log operations. Methods accept context.Context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveUsage inserts a new usage record.
	SaveUsage(ctx context.Context, record *UsageRecord) error

	// Summarize aggregates records created at or after 'since'.
	Summarize(ctx context.Context, since time.Time) (*UsageSummary, error)

	// DeleteUsageBefore removes records created before the cutoff and
	// returns how many were deleted.
	DeleteUsageBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveUsage(ctx context.Context, record *UsageRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil usage record")
	}
	if record.UserID == 0 {
		return fmt.Errorf("usage record must have a non-zero user_id")
	}
	if record.Command == "" {
		return fmt.Errorf("usage record must have a command")
	}
	if record.Status == "" {
		return fmt.Errorf("usage record must have a status")
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO usage_log (created_at, chat_id, user_id, command, status, duration_ms)
		VALUES (:created_at, :chat_id, :user_id, :command, :status, :duration_ms)`

	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save usage record",
			"user_id", record.UserID, "command", record.Command, "error", err)
		return fmt.Errorf("failed to save usage record: %w", err)
	}

	return nil
}

func (s *sqlxStore) Summarize(ctx context.Context, since time.Time) (*UsageSummary, error) {
	summary := &UsageSummary{
		ByCommand: make(map[string]int64),
		ByStatus:  make(map[string]int64),
		Since:     since,
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int64  `db:"count"`
	}

	var byCommand []bucket
	err := s.db.SelectContext(ctx, &byCommand,
		`SELECT command AS key, COUNT(*) AS count FROM usage_log WHERE created_at >= ? GROUP BY command`,
		since)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to aggregate usage by command", "error", err)
		return nil, fmt.Errorf("failed to aggregate usage by command: %w", err)
	}
	for _, b := range byCommand {
		summary.ByCommand[b.Key] = b.Count
		summary.Total += b.Count
	}

	var byStatus []bucket
	err = s.db.SelectContext(ctx, &byStatus,
		`SELECT status AS key, COUNT(*) AS count FROM usage_log WHERE created_at >= ? GROUP BY status`,
		since)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to aggregate usage by status", "error", err)
		return nil, fmt.Errorf("failed to aggregate usage by status: %w", err)
	}
	for _, b := range byStatus {
		summary.ByStatus[b.Key] = b.Count
	}

	return summary, nil
}

func (s *sqlxStore) DeleteUsageBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM usage_log WHERE created_at < ?`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete old usage records", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete old usage records: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		// Driver quirk; the delete itself succeeded.
		s.logger.WarnContext(ctx, "Could not determine deleted row count", "error", err)
		return 0, nil
	}

	s.logger.InfoContext(ctx, "Pruned usage log", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// RunSQLMaintenance executes a VACUUM on the SQLite database.
// SQLite requires VACUUM to run outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		s.logger.ErrorContext(ctx, "VACUUM failed", "error", err)
		return fmt.Errorf("vacuum failed: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}
