// Package rest holds the request and response bodies of the public HTTP API.
package rest

// ScrapeRequest asks for a full scan of the given product ids across every
// registered source.
type ScrapeRequest struct {
	UPCs []string `json:"upcs" validate:"required,min=1,dive,required"`
}

// IngestRequest carries externally pre-computed price deltas.
type IngestRequest struct {
	Deltas []PriceDelta `json:"deltas" validate:"required,min=1,dive"`
}

// PriceDelta is the computed movement for a single snapshot.
type PriceDelta struct {
	UPC           string  `json:"upc" validate:"required"`
	CurrentPrice  float64 `json:"current_price" validate:"gt=0"`
	PreviousPrice float64 `json:"previous_price" validate:"gte=0"`
	DeltaAmount   float64 `json:"delta_amt"`
	DeltaPercent  float64 `json:"delta_pct"`
	Arbitrage     bool    `json:"arbitrage"`
	Source        string  `json:"source,omitempty"`
}

// ExportItem is one arbitrage opportunity to queue for delivery.
type ExportItem struct {
	UPC    string  `json:"upc" validate:"required"`
	Price  float64 `json:"price" validate:"required,gt=0"`
	ROI    float64 `json:"roi" validate:"gte=0"`
	Source string  `json:"source" validate:"required"`
}

// ExportRequest queues a batch of items for one webhook.
type ExportRequest struct {
	WebhookID string       `json:"webhook_id" validate:"required,uuid4"`
	Items     []ExportItem `json:"items" validate:"required,min=1,dive"`
}

// DispatchFailure describes one (upc, source) pair that could not be
// fetched or queued during a run.
type DispatchFailure struct {
	UPC    string `json:"upc,omitempty"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// ExportResponse reports the outcome of a scrape or export run.
type ExportResponse struct {
	Status     string            `json:"status"`
	Dispatched int               `json:"dispatched"`
	Failed     int               `json:"failed"`
	Duplicates int               `json:"duplicates,omitempty"`
	Message    string            `json:"message,omitempty"`
	Failures   []DispatchFailure `json:"failures,omitempty"`
}

// DeliveryLogEntry is one row of webhook delivery history.
type DeliveryLogEntry struct {
	ID        int64   `json:"id"`
	WebhookID string  `json:"webhook_id"`
	ItemUPC   string  `json:"item_upc"`
	Price     float64 `json:"price"`
	ROI       float64 `json:"roi"`
	Source    string  `json:"source"`
	Status    string  `json:"status"`
	Attempts  int     `json:"attempts"`
	Response  string  `json:"response"`
	Timestamp string  `json:"timestamp"`
}

// LogsResponse is the delivery history page, newest first.
type LogsResponse struct {
	Logs  []DeliveryLogEntry `json:"logs"`
	Count int                `json:"count"`
}

// Error is the error body shared by every endpoint.
type Error struct {
	Code ErrorCode `json:"code"`

	// Message is safe to surface to an operator.
	Message string `json:"message"`
}

// ErrorCode is a machine readable error identifier.
type ErrorCode string
