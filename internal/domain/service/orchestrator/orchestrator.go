package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/service/dispatch"
	"dealvoy/internal/domain/service/pricing"
	"dealvoy/internal/domain/service/scraper"
	"dealvoy/internal/domain/value"
)

const (
	defaultMaxInFlight   = 8
	defaultSourceTimeout = 10 * time.Second
	defaultBatchDeadline = 2 * time.Minute
)

type Dispatcher interface {
	Dispatch(ctx context.Context, webhookID value.WebhookID, items []entity.ExportItem) (dispatch.Result, error)
}

// Summary is what every dispatch-triggering call reports back: counts plus
// the structured list of per-attempt failures.
type Summary struct {
	Dispatched int
	Failed     int
	Duplicates int
	Failures   []entity.AttemptFailure
}

// Orchestrator fans product ids out over the registered sources, filters
// the resulting deltas by the ROI threshold and hands qualifying items to
// the dispatcher.
//
// Fan-out is bounded: at most maxInFlight source calls run concurrently,
// each under its own timeout, the whole batch under one deadline. A failed
// (upc, source) pair never aborts the batch; it is reported in the Summary.
type Orchestrator struct {
	registry   *scraper.Registry
	dispatcher Dispatcher

	minROI        float64
	maxInFlight   int
	sourceTimeout time.Duration
	batchDeadline time.Duration

	skipCache *cache.Cache
}

func NewOrchestrator(registry *scraper.Registry, dispatcher Dispatcher, minROI float64) *Orchestrator {
	return &Orchestrator{
		registry:      registry,
		dispatcher:    dispatcher,
		minROI:        minROI,
		maxInFlight:   defaultMaxInFlight,
		sourceTimeout: defaultSourceTimeout,
		batchDeadline: defaultBatchDeadline,
	}
}

func (o *Orchestrator) WithMaxInFlight(n int) *Orchestrator {
	if n > 0 {
		o.maxInFlight = n
	}
	return o
}

func (o *Orchestrator) WithSourceTimeout(d time.Duration) *Orchestrator {
	o.sourceTimeout = d
	return o
}

func (o *Orchestrator) WithBatchDeadline(d time.Duration) *Orchestrator {
	o.batchDeadline = d
	return o
}

// WithSkipCache suppresses re-dispatch of an already exported
// (webhook, upc, source) key for ttl.
func (o *Orchestrator) WithSkipCache(ttl time.Duration) *Orchestrator {
	o.skipCache = cache.New(ttl, ttl)
	return o
}

type attempt struct {
	done    bool
	matched bool
	item    entity.ExportItem
	failed  bool
	failure entity.AttemptFailure
}

// RunAll fetches a snapshot for every (upc, source) pair, computes deltas
// and dispatches the qualifying items to the webhook in a single call.
//
// Output order is deterministic: upcs in input order, sources in registry
// registration order, regardless of which call finished first.
func (o *Orchestrator) RunAll(ctx context.Context, webhookID value.WebhookID, upcs []string) (Summary, error) {
	sources := o.registry.Names()

	if o.batchDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.batchDeadline)
		defer cancel()
	}

	attempts := make([]attempt, len(upcs)*len(sources))

	var g errgroup.Group
	g.SetLimit(o.maxInFlight)

	for i, upc := range upcs {
		for j, name := range sources {
			idx := i*len(sources) + j

			source, err := o.registry.Resolve(name)
			if err != nil {
				attempts[idx] = failedAttempt(upc, name, err)
				continue
			}

			g.Go(func() error {
				// Batch deadline hit: stop scheduling new calls.
				if err := ctx.Err(); err != nil {
					attempts[idx] = failedAttempt(upc, name, err)
					return nil
				}

				attempts[idx] = o.runPair(ctx, source, upc, name)

				return nil
			})
		}
	}

	_ = g.Wait() //nolint:errcheck // tasks never return errors, failures are tagged per pair

	summary := Summary{}

	items := make([]entity.ExportItem, 0, len(attempts))

	for _, a := range attempts {
		switch {
		case a.failed:
			summary.Failures = append(summary.Failures, a.failure)
		case a.matched:
			if o.seenRecently(webhookID, a.item) {
				summary.Duplicates++
				continue
			}

			items = append(items, a.item)
		}
	}

	result, err := o.dispatcher.Dispatch(ctx, webhookID, items)

	summary.Dispatched = result.Dispatched
	summary.Failed = result.Failed
	summary.Duplicates += result.Duplicates
	summary.Failures = append(summary.Failures, result.Failures...)

	if err != nil {
		return summary, fmt.Errorf("dispatcher.Dispatch: %w", err)
	}

	o.markDispatched(webhookID, items, result.Failures)

	logger(ctx).Info("scrape run completed",
		"webhook_id", webhookID.String(),
		"upcs", len(upcs),
		"sources", len(sources),
		"dispatched", summary.Dispatched,
		"failed", summary.Failed,
		"source_failures", len(summary.Failures)-len(result.Failures),
	)

	return summary, nil
}

func (o *Orchestrator) runPair(ctx context.Context, source scraper.SnapshotSource, upc, name string) attempt {
	snapshot, err := o.fetch(ctx, source, upc)
	if err != nil {
		return failedAttempt(upc, name, err)
	}

	if snapshot.Source == "" {
		snapshot.Source = name
	}

	delta := pricing.ComputeDelta(snapshot, o.minROI)
	if !delta.Arbitrage {
		return attempt{done: true}
	}

	return attempt{
		done:    true,
		matched: true,
		item: entity.ExportItem{
			UPC:    upc,
			Price:  delta.CurrentPrice,
			ROI:    delta.DeltaPercent,
			Source: name,
		},
	}
}

func (o *Orchestrator) fetch(ctx context.Context, source scraper.SnapshotSource, upc string) (entity.PriceSnapshot, error) {
	if o.sourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.sourceTimeout)
		defer cancel()
	}

	return source.Fetch(ctx, upc)
}

// RunSources invokes the named batch sources concurrently and merges the
// successful results in input order. A failing source contributes a tagged
// failure instead of aborting the run; no error ever escapes to the caller.
func (o *Orchestrator) RunSources(ctx context.Context, names []string) ([]entity.ExportItem, []entity.AttemptFailure) {
	batches := make([][]entity.ExportItem, len(names))
	failed := make([]*entity.AttemptFailure, len(names))

	var g errgroup.Group
	g.SetLimit(o.maxInFlight)

	for i, name := range names {
		source, err := o.registry.ResolveBatch(name)
		if err != nil {
			failure := entity.AttemptFailure{Source: name, Reason: err.Error()}
			failed[i] = &failure
			continue
		}

		g.Go(func() error {
			items, err := o.fetchBatch(ctx, source)
			if err != nil {
				failure := entity.AttemptFailure{Source: name, Reason: err.Error()}
				failed[i] = &failure
				return nil
			}

			batches[i] = items

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // tasks never return errors, failures are tagged per source

	var merged []entity.ExportItem
	var failures []entity.AttemptFailure

	for i := range names {
		if failed[i] != nil {
			failures = append(failures, *failed[i])
			continue
		}

		merged = append(merged, batches[i]...)
	}

	return merged, failures
}

func (o *Orchestrator) fetchBatch(ctx context.Context, source scraper.BatchSource) ([]entity.ExportItem, error) {
	if o.sourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.sourceTimeout)
		defer cancel()
	}

	return source.FetchBatch(ctx)
}

func (o *Orchestrator) seenRecently(webhookID value.WebhookID, item entity.ExportItem) bool {
	if o.skipCache == nil {
		return false
	}

	_, found := o.skipCache.Get(skipKey(webhookID, item))

	return found
}

// markDispatched remembers items that made it into the queue, except those
// the dispatcher reported as failed.
func (o *Orchestrator) markDispatched(webhookID value.WebhookID, items []entity.ExportItem, failures []entity.AttemptFailure) {
	if o.skipCache == nil {
		return
	}

	failedKeys := make(map[string]struct{}, len(failures))
	for _, f := range failures {
		failedKeys[f.Source+":"+f.UPC] = struct{}{}
	}

	for _, item := range items {
		if _, ok := failedKeys[item.Source+":"+item.UPC]; ok {
			continue
		}

		o.skipCache.Set(skipKey(webhookID, item), true, cache.DefaultExpiration)
	}
}

func skipKey(webhookID value.WebhookID, item entity.ExportItem) string {
	return webhookID.String() + ":" + item.UPC + ":" + item.Source
}

func failedAttempt(upc, source string, err error) attempt {
	return attempt{
		done:   true,
		failed: true,
		failure: entity.AttemptFailure{
			UPC:    upc,
			Source: source,
			Reason: err.Error(),
		},
	}
}
