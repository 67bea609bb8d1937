package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/service/dispatch"
	"dealvoy/internal/domain/value"
)

type logsStub struct {
	created []*entity.DeliveryLog
	failOn  map[string]error
}

func newLogsStub() *logsStub {
	return &logsStub{failOn: make(map[string]error)}
}

func (s *logsStub) Create(_ context.Context, log *entity.DeliveryLog) error {
	if err, ok := s.failOn[log.ItemUPC]; ok {
		return err
	}

	log.ID = int64(len(s.created) + 1)
	s.created = append(s.created, log)

	return nil
}

type dedupeStub struct {
	seen map[string]bool
}

func (s dedupeStub) Seen(_ context.Context, webhookID value.WebhookID, item entity.ExportItem) (bool, error) {
	return s.seen[webhookID.String()+item.UPC+item.Source], nil
}

type enqueuerStub struct {
	calls int
}

func (s *enqueuerStub) EnqueueDeliveryPump(context.Context, value.WebhookID) error {
	s.calls++
	return nil
}

func testItems() []entity.ExportItem {
	return []entity.ExportItem{
		{UPC: "000000000000", Price: 10, ROI: 0.5, Source: "amazon"},
		{UPC: "036000291452", Price: 8, ROI: 0.2, Source: "walmart"},
		{UPC: "012345678905", Price: 4, ROI: 0.33, Source: "amazon"},
	}
}

func TestDispatchQueuesEveryItem(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	logs := newLogsStub()
	enqueuer := &enqueuerStub{}
	dispatcher := dispatch.NewDispatcher(logs).WithEnqueuer(enqueuer)

	webhookID := value.NewWebhookID()
	items := testItems()

	result, err := dispatcher.Dispatch(ctx, webhookID, items)
	rq.NoError(err)

	rq.Equal(len(items), result.Dispatched+result.Failed+result.Duplicates)
	rq.Equal(3, result.Dispatched)
	rq.Zero(result.Failed)
	rq.Empty(result.Failures)
	rq.Equal(1, enqueuer.calls)

	for i, log := range logs.created {
		rq.Equal(webhookID, log.WebhookID)
		rq.Equal(items[i].UPC, log.ItemUPC)
		rq.Equal(entity.DeliveryStatusQueued, log.Status)
		rq.Zero(log.Attempts)
		rq.Equal("queued", log.Response)
	}
}

func TestDispatchSkipsFailedItemAndContinues(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	logs := newLogsStub()
	logs.failOn["036000291452"] = errors.New("insert failed")

	dispatcher := dispatch.NewDispatcher(logs)

	items := testItems()

	result, err := dispatcher.Dispatch(ctx, value.NewWebhookID(), items)
	rq.NoError(err)

	rq.Equal(len(items), result.Dispatched+result.Failed+result.Duplicates)
	rq.Equal(2, result.Dispatched)
	rq.Equal(1, result.Failed)
	rq.Len(result.Failures, 1)
	rq.Equal("036000291452", result.Failures[0].UPC)
	rq.Contains(result.Failures[0].Reason, "insert failed")
}

func TestDispatchAllItemsFailing(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	logs := newLogsStub()
	for _, item := range testItems() {
		logs.failOn[item.UPC] = errors.New("database down")
	}

	dispatcher := dispatch.NewDispatcher(logs)

	result, err := dispatcher.Dispatch(ctx, value.NewWebhookID(), testItems())
	rq.Error(err)
	rq.Equal(3, result.Failed)
	rq.Zero(result.Dispatched)
}

func TestDispatchEmptyBatch(t *testing.T) {
	rq := require.New(t)

	result, err := dispatch.NewDispatcher(newLogsStub()).Dispatch(context.Background(), value.NewWebhookID(), nil)
	rq.NoError(err)
	rq.Zero(result.Dispatched)
	rq.Zero(result.Failed)
}

func TestDispatchCountsDuplicatesSeparately(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	webhookID := value.NewWebhookID()
	items := testItems()

	logs := newLogsStub()
	deduper := dedupeStub{seen: map[string]bool{
		webhookID.String() + items[0].UPC + items[0].Source: true,
	}}

	dispatcher := dispatch.NewDispatcher(logs).WithDeduper(deduper)

	result, err := dispatcher.Dispatch(ctx, webhookID, items)
	rq.NoError(err)

	rq.Equal(len(items), result.Dispatched+result.Failed+result.Duplicates)
	rq.Equal(2, result.Dispatched)
	rq.Equal(1, result.Duplicates)
	rq.Len(logs.created, 2)
}
