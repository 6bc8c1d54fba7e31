package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/format"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/cache"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/mint-dashboard-bfa/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/engine")

// ViewOptions tune a single view request.
type ViewOptions struct {
	// Refresh skips the cached view-model and recomputes it.
	Refresh bool
	// Limit bounds the transaction list view; 0 means the default.
	Limit int
}

// Engine builds the dashboard view-models. Every view resolves the caller,
// fans out to the record fetchers it needs, waits for all of them and
// folds the results into a fully-defaulted view-model.
type Engine struct {
	identity port.IdentityResolver
	store    port.RecordStore
	prefs    port.PreferenceStore
	cache    port.Cache[any]
	format   *format.Formatter
	metrics  *observability.Metrics
	logger   *zap.Logger

	// gens counts invalidations per cache key. A fold only commits when
	// the count it started under is still current.
	genMu sync.Mutex
	gens  map[string]uint64
}

// NewEngine creates the aggregation engine with all dependencies injected.
// A nil cache disables view caching.
func NewEngine(
	identity port.IdentityResolver,
	store port.RecordStore,
	prefs port.PreferenceStore,
	viewCache port.Cache[any],
	f *format.Formatter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Engine {
	if viewCache == nil {
		viewCache = noCache{}
	}
	return &Engine{
		identity: identity,
		store:    store,
		prefs:    prefs,
		cache:    viewCache,
		format:   f,
		metrics:  metrics,
		logger:   logger,
		gens:     make(map[string]uint64),
	}
}

// viewModel is a pointer to a view-model embedding domain.ViewStatus.
type viewModel[T any] interface {
	*T
	SetError(msg string)
}

// serve runs one view request: identity, cache, build, fault recovery.
// slot distinguishes cached variants of the same view. build returns the
// view-model and the fetch sources that failed; a degraded view-model is
// returned but never becomes the current one.
func serve[T any, P viewModel[T]](
	ctx context.Context,
	e *Engine,
	view domain.View,
	slot string,
	opts ViewOptions,
	empty func() T,
	build func(ctx context.Context, id domain.Identity) (T, []string),
) T {
	ctx, span := tracer.Start(ctx, "Engine.View")
	defer span.End()
	span.SetAttributes(attribute.String("view", string(view)))

	start := time.Now()
	defer func() {
		e.metrics.RecordViewDuration(view, time.Since(start))
	}()

	id := e.identity.Resolve(ctx)
	if !id.Authenticated() {
		e.metrics.IncrView(view, observability.OutcomeUnauthenticated)
		return empty()
	}
	span.SetAttributes(attribute.String("user.id", id.UserID))

	key := cache.Key(id.UserID, slot)
	gen := e.generation(key)
	if !opts.Refresh {
		if v, ok := lookup[T](e.cache, key); ok {
			e.metrics.IncrCacheHit(view)
			e.metrics.IncrView(view, observability.OutcomeOK)
			return v
		}
		e.metrics.IncrCacheMiss(view)
	}

	result, failed, err := fold(view, func() (T, []string) { return build(ctx, id) })
	if err != nil {
		span.RecordError(err)
		e.logger.Error("aggregation failed",
			zap.String("view", string(view)),
			zap.String("user_id", id.UserID),
			zap.Error(err),
		)
		e.metrics.IncrView(view, observability.OutcomeAggregationError)

		last, ok := lookup[T](e.cache, key)
		if !ok {
			last = empty()
		}
		P(&last).SetError(err.Error())
		return last
	}

	if len(failed) > 0 || ctx.Err() != nil {
		e.logger.Debug("degraded view not cached",
			zap.String("view", string(view)),
			zap.String("user_id", id.UserID),
			zap.Strings("failed", failed),
		)
		e.metrics.IncrView(view, observability.OutcomeDegraded)
		return result
	}

	// Last completion wins the slot.
	if !e.commit(key, gen, result) {
		e.logger.Debug("view invalidated while folding, not cached",
			zap.String("view", string(view)),
			zap.String("user_id", id.UserID),
		)
	}
	e.metrics.IncrView(view, observability.OutcomeOK)
	return result
}

// fold runs build and turns a panic into an aggregation error.
func fold[T any](view domain.View, build func() (T, []string)) (result T, failed []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ErrAggregation{View: view, Cause: r}
		}
	}()
	result, failed = build()
	return result, failed, nil
}

func (e *Engine) generation(key string) uint64 {
	e.genMu.Lock()
	defer e.genMu.Unlock()
	return e.gens[key]
}

// commit stores v unless key was invalidated after gen was read.
func (e *Engine) commit(key string, gen uint64, v any) bool {
	e.genMu.Lock()
	defer e.genMu.Unlock()
	if e.gens[key] != gen {
		return false
	}
	e.cache.Set(key, v)
	return true
}

func lookup[T any](c port.Cache[any], key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Invalidate drops a user's cached view so the next request recomputes it.
// Folds already running for that slot will not cache their result.
func (e *Engine) Invalidate(userID string, view domain.View) {
	key := cache.Key(userID, string(view))
	e.genMu.Lock()
	defer e.genMu.Unlock()
	e.gens[key]++
	e.cache.Delete(key)
}

func (e *Engine) fanout(ctx context.Context, userID string) *fanout {
	return newFanout(ctx, userID, e.metrics, e.logger)
}

// View dispatches by name. It returns ErrNotFound for an unknown view.
func (e *Engine) View(ctx context.Context, view domain.View, opts ViewOptions) (any, error) {
	switch view {
	case domain.ViewFinancialSummary:
		return e.FinancialSummary(ctx, opts), nil
	case domain.ViewMintBalance:
		return e.MintBalance(ctx, opts), nil
	case domain.ViewTransactions:
		return e.Transactions(ctx, opts), nil
	case domain.ViewCredit:
		return e.CreditSummary(ctx, opts), nil
	case domain.ViewInvestments:
		return e.InvestmentSummary(ctx, opts), nil
	case domain.ViewProfile:
		return e.Profile(ctx, opts), nil
	}
	return nil, &domain.ErrNotFound{Resource: "view", ID: string(view)}
}

// transactionSlot keys each list length separately.
func transactionSlot(limit int) string {
	return fmt.Sprintf("%s?limit=%d", domain.ViewTransactions, limit)
}

type noCache struct{}

func (noCache) Get(string) (any, bool) { return nil, false }
func (noCache) Set(string, any)        {}
func (noCache) Delete(string)          {}
