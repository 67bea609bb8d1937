package dispatch

import (
	"context"
	"fmt"

	"dealvoy/internal/domain"
	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
	"dealvoy/pkg/errcodes"
)

type DeliveryLogRepository interface {
	Create(ctx context.Context, log *entity.DeliveryLog) error
}

// Deduper guards against re-queueing the same opportunity. Seen marks the
// (webhook, upc, source) key inside the current time bucket and reports
// whether it had been marked before.
type Deduper interface {
	Seen(ctx context.Context, webhookID value.WebhookID, item entity.ExportItem) (bool, error)
}

// Enqueuer pokes the delivery worker after new rows were queued.
type Enqueuer interface {
	EnqueueDeliveryPump(ctx context.Context, webhookID value.WebhookID) error
}

// Result is the outcome of one Dispatch call.
// Invariant: Dispatched + Failed + Duplicates == number of input items.
type Result struct {
	Dispatched int
	Failed     int
	Duplicates int
	Failures   []entity.AttemptFailure
}

// Dispatcher turns qualifying export items into QUEUED delivery-log rows.
// It never performs the outbound HTTP call itself; that belongs to the
// delivery worker.
type Dispatcher struct {
	logs     DeliveryLogRepository
	deduper  Deduper
	enqueuer Enqueuer
}

func NewDispatcher(logs DeliveryLogRepository) *Dispatcher {
	return &Dispatcher{logs: logs}
}

func (d *Dispatcher) WithDeduper(deduper Deduper) *Dispatcher {
	d.deduper = deduper
	return d
}

func (d *Dispatcher) WithEnqueuer(enqueuer Enqueuer) *Dispatcher {
	d.enqueuer = enqueuer
	return d
}

// Dispatch persists one QUEUED row per item. Rows are committed
// independently: a persistence error on one item skips that item and the
// batch continues, so a late failure never discards earlier rows.
//
// An error is returned only when nothing could be persisted at all; partial
// failure is reported through the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, webhookID value.WebhookID, items []entity.ExportItem) (Result, error) {
	var result Result

	if len(items) == 0 {
		return result, nil
	}

	for _, item := range items {
		duplicate, err := d.isDuplicate(ctx, webhookID, item)
		if err != nil {
			// Dedupe outage must not block dispatch.
			logger(ctx).Error("dedupe check failed", "upc", item.UPC, "source", item.Source, "error", err)
		}

		if duplicate {
			result.Duplicates++
			continue
		}

		log := &entity.DeliveryLog{
			WebhookID: webhookID,
			ItemUPC:   item.UPC,
			Price:     item.Price,
			ROI:       item.ROI,
			Source:    item.Source,
			Status:    entity.DeliveryStatusQueued,
			Attempts:  0,
			Response:  "queued",
		}

		if err := d.logs.Create(ctx, log); err != nil {
			logger(ctx).Error("failed to queue item", "upc", item.UPC, "source", item.Source, "error", err)

			result.Failed++
			result.Failures = append(result.Failures, entity.AttemptFailure{
				UPC:    item.UPC,
				Source: item.Source,
				Reason: err.Error(),
			})

			continue
		}

		result.Dispatched++
	}

	if result.Dispatched == 0 && result.Duplicates == 0 {
		return result, domain.NewError(errcodes.InternalServerError,
			fmt.Sprintf("failed to queue all %d items", len(items)))
	}

	d.pump(ctx, webhookID, result.Dispatched)

	return result, nil
}

func (d *Dispatcher) isDuplicate(ctx context.Context, webhookID value.WebhookID, item entity.ExportItem) (bool, error) {
	if d.deduper == nil {
		return false, nil
	}

	return d.deduper.Seen(ctx, webhookID, item)
}

// pump wakes the delivery worker. Best effort: queued rows are picked up by
// the periodic sweep anyway.
func (d *Dispatcher) pump(ctx context.Context, webhookID value.WebhookID, dispatched int) {
	if d.enqueuer == nil || dispatched == 0 {
		return
	}

	if err := d.enqueuer.EnqueueDeliveryPump(ctx, webhookID); err != nil {
		logger(ctx).Error("failed to enqueue delivery pump", "webhook_id", webhookID.String(), "error", err)
	}
}
