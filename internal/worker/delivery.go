package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
	"dealvoy/pkg/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	defaultSweepInterval = 15 * time.Second
	defaultClaimLimit    = 50
	defaultMaxAttempts   = 5
	defaultBackoffBase   = 30 * time.Second
	defaultCallTimeout   = 10 * time.Second

	maxStoredResponseLen = 2048
)

type DeliveryLogRepository interface {
	ClaimQueued(ctx context.Context, webhookID value.WebhookID, limit int, backoff time.Duration) ([]entity.DeliveryLog, error)
	MarkDelivered(ctx context.Context, id int64, response string) error
	MarkFailed(ctx context.Context, id int64, response string, maxAttempts int) error
}

type WebhookRepository interface {
	GetByID(ctx context.Context, id value.WebhookID) (*entity.Webhook, error)
}

// deliveryPayload is what a subscriber endpoint receives per queued item.
type deliveryPayload struct {
	WebhookID string    `json:"webhook_id"`
	UPC       string    `json:"upc"`
	Price     float64   `json:"price"`
	ROI       float64   `json:"roi"`
	Source    string    `json:"source"`
	QueuedAt  time.Time `json:"queued_at"`
	Attempt   int       `json:"attempt"`
}

// DeliveryWorker owns every status transition after QUEUED: it claims due
// rows, POSTs the item payload to the subscriber endpoint and records the
// outcome. Failed attempts back off exponentially until the attempt cap,
// then the row is terminally FAILED.
type DeliveryWorker struct {
	logs       DeliveryLogRepository
	webhooks   WebhookRepository
	httpClient *http.Client

	sweepInterval time.Duration
	claimLimit    int
	maxAttempts   int
	backoffBase   time.Duration
	callTimeout   time.Duration
}

func NewDeliveryWorker(logs DeliveryLogRepository, webhooks WebhookRepository) *DeliveryWorker {
	return &DeliveryWorker{
		logs:     logs,
		webhooks: webhooks,
		httpClient: &http.Client{
			Transport: httpx.NewSignatureRoundTripper(
				httpx.NewLoggingRoundTripper(http.DefaultTransport),
			),
		},
		sweepInterval: defaultSweepInterval,
		claimLimit:    defaultClaimLimit,
		maxAttempts:   defaultMaxAttempts,
		backoffBase:   defaultBackoffBase,
		callTimeout:   defaultCallTimeout,
	}
}

func (w *DeliveryWorker) WithHTTPClient(client *http.Client) *DeliveryWorker {
	w.httpClient = client
	return w
}

func (w *DeliveryWorker) WithSweepInterval(d time.Duration) *DeliveryWorker {
	w.sweepInterval = d
	return w
}

func (w *DeliveryWorker) WithMaxAttempts(n int) *DeliveryWorker {
	if n > 0 {
		w.maxAttempts = n
	}
	return w
}

func (w *DeliveryWorker) WithBackoffBase(d time.Duration) *DeliveryWorker {
	w.backoffBase = d
	return w
}

func (w *DeliveryWorker) WithClaimLimit(n int) *DeliveryWorker {
	if n > 0 {
		w.claimLimit = n
	}
	return w
}

func (w *DeliveryWorker) WithCallTimeout(d time.Duration) *DeliveryWorker {
	w.callTimeout = d
	return w
}

// Run sweeps the queue until the context ends. The periodic sweep is the
// safety net behind the asynq pump tasks: it picks up RETRY rows and
// anything the pump missed.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	logger(ctx).Info("delivery worker started", "sweep_interval", w.sweepInterval.String())

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("delivery worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.DeliverPending(ctx, value.WebhookID{}); err != nil {
				logger(ctx).Error("delivery sweep failed", "error", err)
			}
		}
	}
}

// DeliverPending claims due rows (all webhooks when webhookID is zero) and
// attempts delivery for each. The claim itself decides dueness and keeps
// the rows invisible to concurrent claimers, so every returned row gets
// exactly one attempt here. Returns the number of successful deliveries.
func (w *DeliveryWorker) DeliverPending(ctx context.Context, webhookID value.WebhookID) (int, error) {
	rows, err := w.logs.ClaimQueued(ctx, webhookID, w.claimLimit, w.backoffBase)
	if err != nil {
		return 0, fmt.Errorf("logs.ClaimQueued: %w", err)
	}

	delivered := 0

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		if w.deliverOne(ctx, row) {
			delivered++
		}
	}

	if delivered > 0 {
		logger(ctx).Info("delivery sweep completed", "claimed", len(rows), "delivered", delivered)
	}

	return delivered, nil
}

func (w *DeliveryWorker) deliverOne(ctx context.Context, row entity.DeliveryLog) bool {
	webhook, err := w.webhooks.GetByID(ctx, row.WebhookID)
	if err != nil {
		w.recordFailure(ctx, row, "webhook lookup failed: "+err.Error())
		return false
	}

	if !webhook.Active {
		w.recordFailure(ctx, row, "webhook is inactive")
		return false
	}

	status, body, err := w.post(ctx, webhook, row)
	if err != nil {
		w.recordFailure(ctx, row, err.Error())
		return false
	}

	response := fmt.Sprintf("%d %s", status, body)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		w.recordFailure(ctx, row, response)
		return false
	}

	if err := w.logs.MarkDelivered(ctx, row.ID, truncate(response)); err != nil {
		logger(ctx).Error("failed to mark delivered", "log_id", row.ID, "error", err)
		return false
	}

	deliveriesTotal.WithLabelValues(deliveryOutcomeDelivered).Inc()

	return true
}

func (w *DeliveryWorker) post(ctx context.Context, webhook *entity.Webhook, row entity.DeliveryLog) (int, string, error) {
	payload, err := json.Marshal(deliveryPayload{
		WebhookID: row.WebhookID.String(),
		UPC:       row.ItemUPC,
		Price:     row.Price,
		ROI:       row.ROI,
		Source:    row.Source,
		QueuedAt:  row.Timestamp,
		Attempt:   row.Attempts + 1,
	})
	if err != nil {
		return 0, "", fmt.Errorf("json.Marshal: %w", err)
	}

	if w.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.callTimeout)
		defer cancel()
	}

	if webhook.Secret != "" {
		ctx = httpx.WithSigningSecret(ctx, webhook.Secret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("httpClient.Do: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStoredResponseLen))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("io.ReadAll: %w", err)
	}

	return resp.StatusCode, string(body), nil
}

func (w *DeliveryWorker) recordFailure(ctx context.Context, row entity.DeliveryLog, response string) {
	deliveriesTotal.WithLabelValues(deliveryOutcomeFailed).Inc()

	if err := w.logs.MarkFailed(ctx, row.ID, truncate(response), w.maxAttempts); err != nil {
		logger(ctx).Error("failed to mark failed", "log_id", row.ID, "error", err)
	}
}

func truncate(s string) string {
	if len(s) > maxStoredResponseLen {
		return s[:maxStoredResponseLen]
	}
	return s
}
