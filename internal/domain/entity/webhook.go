package entity

import (
	"time"

	"dealvoy/internal/domain/value"
)

// Webhook is a subscriber endpoint that receives qualifying opportunities.
// Administration of webhooks happens outside the dispatch core.
type Webhook struct {
	ID        value.WebhookID
	Name      string
	Endpoint  string
	Secret    string
	Active    bool
	CreatedAt time.Time
}
