package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/service/dispatch"
	"dealvoy/internal/domain/value"
	"dealvoy/internal/worker"
)

type scannerStub struct {
	items    []entity.ExportItem
	failures []entity.AttemptFailure
}

func (s *scannerStub) RunSources(_ context.Context, _ []string) ([]entity.ExportItem, []entity.AttemptFailure) {
	return s.items, s.failures
}

type listerStub struct {
	webhooks []entity.Webhook
}

func (s *listerStub) ListActive(_ context.Context) ([]entity.Webhook, error) {
	return s.webhooks, nil
}

type dispatcherStub struct {
	mu    sync.Mutex
	calls map[value.WebhookID]int
	done  chan struct{}
	once  sync.Once
}

func (s *dispatcherStub) Dispatch(_ context.Context, webhookID value.WebhookID, items []entity.ExportItem) (dispatch.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calls == nil {
		s.calls = make(map[value.WebhookID]int)
	}
	s.calls[webhookID]++

	if s.done != nil {
		s.once.Do(func() { close(s.done) })
	}

	return dispatch.Result{Dispatched: len(items)}, nil
}

func (s *dispatcherStub) callCount(webhookID value.WebhookID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[webhookID]
}

func TestScout_ScanCycle(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	first := value.NewWebhookID()
	second := value.NewWebhookID()

	scanner := &scannerStub{
		items: []entity.ExportItem{
			{UPC: "012345678905", Price: 12.50, ROI: 0.3, Source: "amazon"},
		},
	}
	lister := &listerStub{webhooks: []entity.Webhook{
		{ID: first, Active: true},
		{ID: second, Active: true},
	}}
	dispatcher := &dispatcherStub{done: make(chan struct{})}

	opportunities := make(chan entity.ExportItem, 10)

	scout := worker.NewScout(scanner, lister, dispatcher).
		WithScanInterval(5 * time.Millisecond).
		WithSources("amazon").
		WithOpportunityChannel(opportunities)

	rq.NoError(scout.Start(context.Background()))
	defer scout.Stop()

	select {
	case <-dispatcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scan cycle did not run")
	}

	scout.Stop()

	rq.GreaterOrEqual(dispatcher.callCount(first), 1)
	rq.GreaterOrEqual(dispatcher.callCount(second), 1)

	select {
	case item := <-opportunities:
		rq.Equal("012345678905", item.UPC)
	default:
		t.Fatal("no opportunity published")
	}
}

func TestScout_StartTwice(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	scout := worker.NewScout(&scannerStub{}, &listerStub{}, &dispatcherStub{}).
		WithScanInterval(time.Hour)

	rq.NoError(scout.Start(context.Background()))
	defer scout.Stop()

	rq.True(scout.IsRunning())
	rq.Error(scout.Start(context.Background()))

	scout.Stop()
	rq.False(scout.IsRunning())
}

func TestScout_SourceList(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	scout := worker.NewScout(&scannerStub{}, &listerStub{}, &dispatcherStub{})

	rq.Empty(scout.Sources())

	scout.AddSource("amazon")
	scout.AddSource("amazon")
	scout.AddSources("walmart", "target", "walmart")

	rq.Equal([]string{"amazon", "walmart", "target"}, scout.Sources())
	rq.True(scout.HasSource("walmart"))

	scout.RemoveSource("walmart")
	rq.False(scout.HasSource("walmart"))
	rq.Equal([]string{"amazon", "target"}, scout.Sources())

	scout.SetSources([]string{"bestbuy"})
	rq.Equal([]string{"bestbuy"}, scout.Sources())

	scout.ClearSources()
	rq.Nil(scout.Sources())
}
