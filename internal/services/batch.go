package services

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchItem is one input of a batch with its dataset destination
type BatchItem struct {
	Input  string
	Output string
}

// BatchOutcome pairs an input with its result or error
type BatchOutcome struct {
	Input  string
	Result *ConversionResult
	Err    error
}

// ProcessBatch converts items concurrently, at most workers at a time
// (GOMAXPROCS when workers <= 0). A failing item does not stop the others;
// outcomes come back in input order.
func (s *ConversionService) ProcessBatch(ctx context.Context, items []BatchItem, workers int, opts ConversionOptions) ([]BatchOutcome, error) {
	if len(items) == 0 {
		return nil, ErrNoInputFiles
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]BatchOutcome, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			itemOpts := opts
			itemOpts.Output = item.Output
			result, err := s.ProcessFile(gctx, item.Input, itemOpts)
			outcomes[i] = BatchOutcome{Input: item.Input, Result: result, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	s.logger.InfoContext(ctx, "Batch conversion finished",
		slog.Int("inputs", len(items)),
		slog.Int("failed", failed),
		slog.Int("workers", workers))

	return outcomes, ctx.Err()
}
