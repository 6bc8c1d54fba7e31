package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fanout runs a view's record fetches concurrently and joins on all of
// them. A failed fetch is logged and counted, leaves its destination at
// the zero value, and never cancels its siblings.
type fanout struct {
	g       *errgroup.Group
	ctx     context.Context
	span    trace.Span
	userID  string
	metrics *observability.Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	failed []string
}

func newFanout(ctx context.Context, userID string, metrics *observability.Metrics, logger *zap.Logger) *fanout {
	g, gCtx := errgroup.WithContext(ctx)
	return &fanout{
		g:       g,
		ctx:     gCtx,
		span:    trace.SpanFromContext(ctx),
		userID:  userID,
		metrics: metrics,
		logger:  logger,
	}
}

// fetch schedules call and stores its result in dst on success.
func fetch[T any](f *fanout, source string, dst *T, call func(ctx context.Context) (T, error)) {
	f.g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				f.fail(source, fmt.Errorf("panic: %v", r))
			}
		}()

		v, err := call(f.ctx)
		if err != nil {
			f.fail(source, err)
			return nil
		}
		*dst = v
		return nil
	})
}

func (f *fanout) fail(source string, err error) {
	f.logger.Warn("fetch failed, defaulting",
		zap.String("user_id", f.userID),
		zap.String("source", source),
		zap.Error(err),
	)
	f.metrics.IncrFetchError(source)
	f.span.AddEvent("fetch failed", trace.WithAttributes(
		attribute.String("source", source),
		attribute.String("error", err.Error()),
	))

	f.mu.Lock()
	f.failed = append(f.failed, source)
	f.mu.Unlock()
}

// wait blocks until every fetch has settled and returns the failed sources.
func (f *fanout) wait() []string {
	_ = f.g.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}
