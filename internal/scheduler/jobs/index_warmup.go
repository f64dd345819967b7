package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
	"github.com/transmaint/backend/pkg/logger"
)

// IndexReader returns the composite index of a period; *indicators.CachedIndex
type IndexReader interface {
	GlobalIndex(ctx context.Context, p contracts.Period) (*indicators.IndexResult, error)
}

// IndexWarmupJob fills the index cache of every active line for the current month
type IndexWarmupJob struct {
	index  IndexReader
	lines  contracts.LineRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewIndexWarmupJob creates the warmup job
func NewIndexWarmupJob(index IndexReader, lines contracts.LineRepository, log *logger.Logger) *IndexWarmupJob {
	if log == nil {
		log = logger.Nop()
	}
	return &IndexWarmupJob{index: index, lines: lines, logger: log, now: time.Now}
}

// Name returns the job name
func (j *IndexWarmupJob) Name() string {
	return "index_warmup"
}

// Schedule returns the cron schedule (every hour at minute 15)
func (j *IndexWarmupJob) Schedule() string {
	return "0 15 * * * *"
}

// Run computes (and caches) the index of each active line
func (j *IndexWarmupJob) Run(ctx context.Context) error {
	now := j.now()
	ids, err := j.lines.ListActiveLineIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active lines: %w", err)
	}

	for _, id := range ids {
		p := contracts.Period{LineID: id, Year: now.Year(), Month: int(now.Month())}
		if _, err := j.index.GlobalIndex(ctx, p); err != nil {
			return fmt.Errorf("warm index %s: %w", p, err)
		}
	}

	j.logger.WithField("lines", len(ids)).Debug("Index cache warmed")
	return nil
}
