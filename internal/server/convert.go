package server

import (
	"time"

	"dealvoy/internal/domain/entity"
	"dealvoy/pkg/lox"
	"dealvoy/pkg/rest"
)

func newRESTFailures(failures []entity.AttemptFailure) []rest.DispatchFailure {
	return lox.Map(failures, func(f entity.AttemptFailure) rest.DispatchFailure {
		return rest.DispatchFailure{
			UPC:    f.UPC,
			Source: f.Source,
			Reason: f.Reason,
		}
	})
}

func newRESTLogEntry(log entity.DeliveryLog) rest.DeliveryLogEntry {
	return rest.DeliveryLogEntry{
		ID:        log.ID,
		WebhookID: log.WebhookID.String(),
		ItemUPC:   log.ItemUPC,
		Price:     log.Price,
		ROI:       log.ROI,
		Source:    log.Source,
		Status:    string(log.Status),
		Attempts:  log.Attempts,
		Response:  log.Response,
		Timestamp: log.Timestamp.UTC().Format(time.RFC3339),
	}
}

func newDomainPriceDelta(delta rest.PriceDelta) entity.PriceDelta {
	return entity.PriceDelta{
		UPC:           delta.UPC,
		CurrentPrice:  delta.CurrentPrice,
		PreviousPrice: delta.PreviousPrice,
		DeltaAmount:   delta.DeltaAmount,
		DeltaPercent:  delta.DeltaPercent,
		Arbitrage:     delta.Arbitrage,
	}
}

func newDomainExportItem(item rest.ExportItem) entity.ExportItem {
	return entity.ExportItem{
		UPC:    item.UPC,
		Price:  item.Price,
		ROI:    item.ROI,
		Source: item.Source,
	}
}
