package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/service/dispatch"
	"dealvoy/internal/domain/value"
)

const defaultScanInterval = 5 * time.Minute

type Scanner interface {
	RunSources(ctx context.Context, names []string) ([]entity.ExportItem, []entity.AttemptFailure)
}

type WebhookLister interface {
	ListActive(ctx context.Context) ([]entity.Webhook, error)
}

type ScoutDispatcher interface {
	Dispatch(ctx context.Context, webhookID value.WebhookID, items []entity.ExportItem) (dispatch.Result, error)
}

// Scout periodically scans the configured batch sources and queues every
// arbitrage opportunity for all active webhooks. Found items are also
// pushed to the opportunities channel when one is attached.
type Scout struct {
	scanner       Scanner
	webhooks      WebhookLister
	dispatcher    ScoutDispatcher
	opportunities chan<- entity.ExportItem

	scanInterval time.Duration
	sourceNames  []string

	// Control fields
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewScout(scanner Scanner, webhooks WebhookLister, dispatcher ScoutDispatcher) *Scout {
	return &Scout{
		scanner:      scanner,
		webhooks:     webhooks,
		dispatcher:   dispatcher,
		scanInterval: defaultScanInterval,
	}
}

func (w *Scout) WithScanInterval(d time.Duration) *Scout {
	if d > 0 {
		w.scanInterval = d
	}
	return w
}

func (w *Scout) WithOpportunityChannel(ch chan<- entity.ExportItem) *Scout {
	w.opportunities = ch
	return w
}

func (w *Scout) WithSources(names ...string) *Scout {
	w.sourceNames = names
	return w
}

func (w *Scout) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("scout is already running")
	}

	scanCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(scanCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(scanCtx).Error("scout stopped with error", "error", err)
		}
	}()

	return nil
}

func (w *Scout) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Scout) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *Scout) Run(ctx context.Context) error {
	logger(ctx).Info("scout started",
		"scan_interval", w.scanInterval.String(),
		"sources", len(w.Sources()),
	)

	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("scout stopped")
			return ctx.Err()
		case <-ticker.C:
			w.scanOnce(ctx)
		}
	}
}

func (w *Scout) scanOnce(ctx context.Context) {
	names := w.Sources()
	if len(names) == 0 {
		return
	}

	items, failures := w.scanner.RunSources(ctx, names)

	for _, f := range failures {
		logger(ctx).Error("source scan failed", "source", f.Source, "reason", f.Reason)
	}

	scoutRunsTotal.Inc()

	if len(items) == 0 {
		return
	}

	w.publish(ctx, items)
	w.dispatchAll(ctx, items)
}

func (w *Scout) publish(ctx context.Context, items []entity.ExportItem) {
	if w.opportunities == nil {
		return
	}

	for _, item := range items {
		select {
		case w.opportunities <- item:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Scout) dispatchAll(ctx context.Context, items []entity.ExportItem) {
	webhooks, err := w.webhooks.ListActive(ctx)
	if err != nil {
		logger(ctx).Error("failed to list active webhooks", "error", err)
		return
	}

	var dispatched int

	for _, webhook := range webhooks {
		result, err := w.dispatcher.Dispatch(ctx, webhook.ID, items)
		if err != nil {
			logger(ctx).Error("dispatch failed",
				"webhook_id", webhook.ID.String(),
				"error", err,
			)
			continue
		}

		dispatched += result.Dispatched
	}

	scoutOpportunitiesTotal.Add(float64(len(items)))

	if dispatched > 0 {
		logger(ctx).Info("scan cycle completed",
			"opportunities", len(items),
			"webhooks", len(webhooks),
			"dispatched", dispatched,
		)
	}
}
