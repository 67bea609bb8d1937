package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/service/dispatch"
	"dealvoy/internal/domain/service/orchestrator"
	"dealvoy/internal/domain/service/pricing"
	"dealvoy/internal/domain/value"
	"dealvoy/pkg/contextx"
	"dealvoy/pkg/errcodes"
	"dealvoy/pkg/httpx/reply"
	"dealvoy/pkg/httpx/req"
	"dealvoy/pkg/lox"
	"dealvoy/pkg/rest"
)

const (
	headerWebhookID = "X-Webhook-ID"

	defaultLogsLimit = 25
	maxLogsLimit     = 100

	statusQueued     = "queued"
	statusNoDispatch = "no_dispatch"

	// ingestSource tags items queued from externally computed deltas that
	// did not name their retailer.
	ingestSource = "ingest"
)

type scrapeOrchestrator interface {
	RunAll(ctx context.Context, webhookID value.WebhookID, upcs []string) (orchestrator.Summary, error)
}

type itemDispatcher interface {
	Dispatch(ctx context.Context, webhookID value.WebhookID, items []entity.ExportItem) (dispatch.Result, error)
}

type deliveryLogStore interface {
	ListRecent(ctx context.Context, webhookID value.WebhookID, limit int) ([]entity.DeliveryLog, error)
}

type webhookStore interface {
	GetByID(ctx context.Context, id value.WebhookID) (*entity.Webhook, error)
}

type WebhookServer struct {
	orchestrator scrapeOrchestrator
	dispatcher   itemDispatcher
	logs         deliveryLogStore
	webhooks     webhookStore

	minROI float64
}

func NewWebhookServer(
	scrapeOrchestrator scrapeOrchestrator,
	dispatcher itemDispatcher,
	logs deliveryLogStore,
	webhooks webhookStore,
	minROI float64,
) WebhookServer {
	return WebhookServer{
		orchestrator: scrapeOrchestrator,
		dispatcher:   dispatcher,
		logs:         logs,
		webhooks:     webhooks,
		minROI:       minROI,
	}
}

func (s WebhookServer) postScrape(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	webhookID, err := webhookIDFromHeader(r)
	if err != nil {
		return err
	}

	ctx = contextx.WithWebhookID(ctx, contextx.WebhookID(webhookID.String()))

	var request rest.ScrapeRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	if _, err := s.webhooks.GetByID(ctx, webhookID); err != nil {
		return mapDomainError(fmt.Errorf("webhooks.GetByID: %w", err))
	}

	summary, err := s.orchestrator.RunAll(ctx, webhookID, request.UPCs)
	if err != nil {
		return mapDomainError(fmt.Errorf("orchestrator.RunAll: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newExportResponse(
		summary.Dispatched,
		summary.Failed,
		summary.Duplicates,
		summary.Failures,
	))

	return nil
}

func (s WebhookServer) postPriceIngest(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	webhookID, err := webhookIDFromHeader(r)
	if err != nil {
		return err
	}

	ctx = contextx.WithWebhookID(ctx, contextx.WebhookID(webhookID.String()))

	var request rest.IngestRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	items := s.qualifyDeltas(request.Deltas)
	if len(items) == 0 {
		reply.JSON(ctx, w, http.StatusOK, rest.ExportResponse{
			Status:  statusNoDispatch,
			Message: "no deltas met the dispatch threshold",
		})

		return nil
	}

	if _, err := s.webhooks.GetByID(ctx, webhookID); err != nil {
		return mapDomainError(fmt.Errorf("webhooks.GetByID: %w", err))
	}

	result, err := s.dispatcher.Dispatch(ctx, webhookID, items)
	if err != nil {
		return mapDomainError(fmt.Errorf("dispatcher.Dispatch: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newExportResponse(
		result.Dispatched,
		result.Failed,
		result.Duplicates,
		result.Failures,
	))

	return nil
}

// qualifyDeltas keeps the deltas that clear the configured ROI threshold.
func (s WebhookServer) qualifyDeltas(deltas []rest.PriceDelta) []entity.ExportItem {
	items := make([]entity.ExportItem, 0, len(deltas))

	for _, delta := range deltas {
		if !pricing.Qualifies(newDomainPriceDelta(delta), s.minROI) {
			continue
		}

		source := delta.Source
		if source == "" {
			source = ingestSource
		}

		items = append(items, entity.ExportItem{
			UPC:    delta.UPC,
			Price:  delta.CurrentPrice,
			ROI:    delta.DeltaPercent,
			Source: source,
		})
	}

	return items
}

func (s WebhookServer) postWebhookExport(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.ExportRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	webhookID, err := value.ParseWebhookID(request.WebhookID)
	if err != nil {
		return failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("value.ParseWebhookID: %w", err),
			failure.WithCode(errcodes.InvalidWebhookID),
		)
	}

	if _, err := s.webhooks.GetByID(ctx, webhookID); err != nil {
		return mapDomainError(fmt.Errorf("webhooks.GetByID: %w", err))
	}

	result, err := s.dispatcher.Dispatch(ctx, webhookID, lox.Map(request.Items, newDomainExportItem))
	if err != nil {
		return mapDomainError(fmt.Errorf("dispatcher.Dispatch: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newExportResponse(
		result.Dispatched,
		result.Failed,
		result.Duplicates,
		result.Failures,
	))

	return nil
}

func (s WebhookServer) getWebhookLogs(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	webhookID, err := value.ParseWebhookID(r.URL.Query().Get("webhook_id"))
	if err != nil {
		return failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("value.ParseWebhookID: %w", err),
			failure.WithCode(errcodes.InvalidWebhookID),
		)
	}

	limit, err := logsLimit(r)
	if err != nil {
		return err
	}

	logs, err := s.logs.ListRecent(ctx, webhookID, limit)
	if err != nil {
		return mapDomainError(fmt.Errorf("logs.ListRecent: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, rest.LogsResponse{
		Logs:  lox.Map(logs, newRESTLogEntry),
		Count: len(logs),
	})

	return nil
}

func webhookIDFromHeader(r *http.Request) (value.WebhookID, error) {
	webhookID, err := value.ParseWebhookID(r.Header.Get(headerWebhookID))
	if err != nil {
		return value.WebhookID{}, failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("value.ParseWebhookID: %w", err),
			failure.WithCode(errcodes.InvalidWebhookID),
		)
	}

	return webhookID, nil
}

func logsLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLogsLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, failure.NewInvalidArgumentError(
			fmt.Sprintf("invalid limit %q", raw),
			failure.WithCode(errcodes.InvalidPaging),
		)
	}

	if limit > maxLogsLimit {
		limit = maxLogsLimit
	}

	return limit, nil
}

func newExportResponse(dispatched, failed, duplicates int, failures []entity.AttemptFailure) rest.ExportResponse {
	status := statusQueued
	message := fmt.Sprintf("%d items queued for webhook delivery", dispatched)

	if dispatched == 0 {
		status = statusNoDispatch
		message = "no items qualified for dispatch"
	}

	return rest.ExportResponse{
		Status:     status,
		Dispatched: dispatched,
		Failed:     failed,
		Duplicates: duplicates,
		Message:    message,
		Failures:   newRESTFailures(failures),
	}
}
