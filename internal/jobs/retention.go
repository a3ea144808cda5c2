package jobs

import (
	"context"
	"log/slog"
	"time"

	"fraglog/internal/config"

	"github.com/pocketbase/pocketbase/core"
)

// RetentionJobID is the cron id of the retention job
const RetentionJobID = "match_retention"

// Pruner deletes matches that ended before a cutoff
type Pruner interface {
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RegisterRetention sets up a cron job that deletes matches older than the
// configured retention. It does nothing when retention is disabled.
func RegisterRetention(app core.App, store Pruner, cfg config.RetentionConfig, logger *slog.Logger) bool {
	logger = logger.With("component", "JOBS")

	maxAge := cfg.MaxAge()
	if maxAge <= 0 {
		logger.Info("Match retention disabled, keeping all matches")
		return false
	}

	app.Cron().MustAdd(RetentionJobID, cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		PruneOldMatches(ctx, store, maxAge, time.Now(), logger)
	})

	logger.Info("Registered cron job to delete old matches", "days", cfg.Days, "schedule", cfg.Schedule)
	return true
}

// PruneOldMatches deletes every match that ended more than maxAge before now
func PruneOldMatches(ctx context.Context, store Pruner, maxAge time.Duration, now time.Time, logger *slog.Logger) (int, error) {
	logger = logger.With("component", "RETENTION_JOB")

	cutoff := now.Add(-maxAge)
	logger.Info("Starting retention job", "cutoff", cutoff.Format("2006-01-02"))

	deleted, err := store.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		logger.Error("Retention job failed", "error", err)
		return 0, err
	}

	logger.Info("Retention job completed", "deleted_matches", deleted)
	return deleted, nil
}
