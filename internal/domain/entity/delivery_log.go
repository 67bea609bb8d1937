package entity

import (
	"time"

	"dealvoy/internal/domain/value"
)

// DeliveryStatus is the lifecycle state of one queued delivery.
//
// The dispatch core only ever writes QUEUED rows; every transition after
// that belongs to the delivery worker.
type DeliveryStatus string

const (
	DeliveryStatusQueued    DeliveryStatus = "QUEUED"
	DeliveryStatusRetry     DeliveryStatus = "RETRY"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
)

// DeliveryLog is one append-only audit row: exactly one row per dispatched
// ExportItem, owned by exactly one webhook.
type DeliveryLog struct {
	ID        int64
	WebhookID value.WebhookID
	ItemUPC   string
	Price     float64
	ROI       float64
	Source    string
	Status    DeliveryStatus
	Attempts  int
	Response  string
	Timestamp time.Time
	UpdatedAt time.Time
}
