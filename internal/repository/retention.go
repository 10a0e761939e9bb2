package repository

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RunRetention periodically deletes TradeCandidates older than the
// retention window (SPEC_FULL.md §C: supplemented operational hygiene —
// spec.md's keyspace sections describe the queue-store's TTL-based
// expiry but not the repository's cold-record pruning). Blocks until ctx
// is cancelled; pass retentionDays <= 0 to disable.
func (s *Store) RunRetention(ctx context.Context, retentionDays int) {
	if retentionDays <= 0 {
		s.log.Info("trade candidate retention disabled (keep forever)")
		return
	}

	interval := 1 * time.Hour
	s.log.Info("trade candidate retention starting", "retention_days", retentionDays, "interval", interval)

	s.prune(ctx, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.prune(ctx, retentionDays)
		}
	}
}

func (s *Store) prune(ctx context.Context, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result, err := s.db.Collection("trade_candidates").DeleteMany(ctx, bson.M{
		"signal_post_time": bson.M{"$lt": cutoff},
	})
	if err != nil {
		s.log.Warn("trade candidate retention prune error", "error", err)
		return
	}

	if result.DeletedCount > 0 {
		s.log.Info("trade candidate retention pruned", "count", result.DeletedCount, "cutoff", cutoff.Format(time.DateOnly))
	}
}
