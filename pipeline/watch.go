package pipeline

import (
	"context"
	"log/slog"

	"github.com/c360studio/ontokn/source"
)

// Watch calls rebuild after every batch of document changes until batches
// is closed or ctx is done. A failed rebuild is logged and the loop keeps
// waiting for the next batch.
func Watch(ctx context.Context, batches <-chan source.Batch, rebuild func(context.Context) error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-batches:
			if !ok {
				return nil
			}
			logger.Info("Documents changed, rebuilding", "files", len(b.Paths))
			if err := rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("Rebuild failed", "error", err)
			}
		}
	}
}
