package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/tokenmgmt/models"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of concurrent chunk evaluations
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithBatchSize sets the chunk size; shorter lists are evaluated inline
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator applies a filter to records in parallel chunks and
// keeps the input order
type ConcurrentEvaluator struct {
	workers   int
	batchSize int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workers:   runtime.GOMAXPROCS(0),
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the records matching filter
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, recs []models.Record) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []models.Record{}, nil
	}
	if len(recs) < e.batchSize {
		return matching(filter, recs), nil
	}

	chunkSize := max(len(recs)/e.workers, e.batchSize)
	chunks := (len(recs) + chunkSize - 1) / chunkSize
	results := make([][]models.Record, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(recs))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = matching(filter, recs[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]models.Record, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func matching(filter Filter, recs []models.Record) []models.Record {
	out := make([]models.Record, 0, len(recs))
	for _, rec := range recs {
		if filter.Evaluate(rec) {
			out = append(out, rec)
		}
	}
	return out
}
