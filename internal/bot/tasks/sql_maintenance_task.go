package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask creates the scheduled task that prunes usage records
// past the retention window and then vacuums the database.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance task...")
		startTime := time.Now()

		retention := time.Duration(deps.Config.Database.RetentionDays) * 24 * time.Hour
		cutoff := time.Now().UTC().Add(-retention)

		deleted, err := deps.Store.DeleteUsageBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Usage log pruning failed", "error", err)
			return fmt.Errorf("usage log pruning failed: %w", err)
		}

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed successfully",
			"pruned", deleted, "cutoff", cutoff, "duration", time.Since(startTime))
		return nil
	}
}
