package pipeline

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one job in a batch.
type BatchItem struct {
	Job    Job
	Result *Result
	Err    error
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Succeeded int64
	Failed    int64
}

// RunBatch processes jobs with at most concurrency in flight. A failed job
// does not stop the others. Items are returned in job order.
func (p *Pipeline) RunBatch(ctx context.Context, jobs []Job, concurrency int) ([]BatchItem, BatchSummary) {
	if concurrency < 1 {
		concurrency = 1
	}
	zap.L().Info("pipeline: processing batch",
		zap.Int("jobs", len(jobs)),
		zap.Int("concurrency", concurrency),
	)

	items := make([]BatchItem, len(jobs))
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := p.Run(gctx, job)
			items[i] = BatchItem{Job: job, Result: res, Err: err}
			if err != nil {
				failed.Add(1)
				zap.L().Error("pipeline: job failed", zap.String("source", job.Source), zap.Error(err))
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	sum := BatchSummary{Succeeded: succeeded.Load(), Failed: failed.Load()}
	zap.L().Info("pipeline: batch complete",
		zap.Int64("succeeded", sum.Succeeded),
		zap.Int64("failed", sum.Failed),
	)
	return items, sum
}
