// In file: internal/stats/stats.go

// Package stats tracks aggregate per-tool run statistics in Redis: counters,
// a moving average latency, and the time of the last run. Only aggregates
// are stored; individual run results never persist.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statsKeyPrefix = "toolstats:"

// latencyAlpha is the smoothing factor of the exponential moving average
// over run latency.
const latencyAlpha = 0.1

// ToolStats is a snapshot of one tool's aggregate run statistics.
type ToolStats struct {
	ToolID        string    `json:"tool_id"`
	TotalRuns     int64     `json:"total_runs"`
	TotalFailures int64     `json:"total_failures"`
	AvgLatencyMS  int64     `json:"avg_latency_ms"`
	ErrorRate     float64   `json:"error_rate"`
	LastRun       time.Time `json:"last_run"`
}

// Tracker records run outcomes to Redis hashes keyed per tool. A Tracker is
// safe for concurrent use.
type Tracker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewTracker(rdb *redis.Client, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{rdb: rdb, logger: logger}
}

func statsKey(toolID string) string {
	return statsKeyPrefix + toolID
}

// RecordSuccess folds one successful run into the tool's aggregates.
func (t *Tracker) RecordSuccess(ctx context.Context, toolID string, latency time.Duration) {
	key := statsKey(toolID)

	err := t.rdb.Watch(ctx, func(tx *redis.Tx) error {
		currentStr, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		current, _ := strconv.ParseInt(currentStr, 10, 64)
		next := int64(latencyAlpha*float64(latency.Milliseconds()) + (1.0-latencyAlpha)*float64(current))
		if current == 0 {
			next = latency.Milliseconds()
		}
		_, err = tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", next)
			return nil
		})
		return err
	}, key)
	if err != nil {
		t.logger.Warn("failed to update latency stats", zap.String("tool_id", toolID), zap.Error(err))
	}

	pipe := t.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "total_runs", 1)
	pipe.HSet(ctx, key, "last_run", time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to update run stats", zap.String("tool_id", toolID), zap.Error(err))
	}
}

// RecordFailure folds one failed run into the tool's aggregates.
func (t *Tracker) RecordFailure(ctx context.Context, toolID string) {
	key := statsKey(toolID)
	pipe := t.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "total_runs", 1)
	pipe.HIncrBy(ctx, key, "total_failures", 1)
	pipe.HSet(ctx, key, "last_run", time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to update failure stats", zap.String("tool_id", toolID), zap.Error(err))
	}
}

// Get returns the current aggregates for a tool. A tool that never ran
// yields a zero-valued snapshot.
func (t *Tracker) Get(ctx context.Context, toolID string) (*ToolStats, error) {
	data, err := t.rdb.HGetAll(ctx, statsKey(toolID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats for tool %s: %w", toolID, err)
	}

	s := &ToolStats{ToolID: toolID}
	s.TotalRuns, _ = strconv.ParseInt(data["total_runs"], 10, 64)
	s.TotalFailures, _ = strconv.ParseInt(data["total_failures"], 10, 64)
	s.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	s.LastRun, _ = time.Parse(time.RFC3339Nano, data["last_run"])
	if s.TotalRuns > 0 {
		s.ErrorRate = float64(s.TotalFailures) / float64(s.TotalRuns)
	}
	return s, nil
}
