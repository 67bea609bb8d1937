package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"dealvoy/internal/domain/value"
	"dealvoy/pkg/application/modules"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// TaskDeliveryPump asks the delivery worker to drain queued rows for one
// webhook right away instead of waiting for the next sweep.
const TaskDeliveryPump = "delivery:pump"

const QueueDeliveries = "deliveries"

type deliveryPumpPayload struct {
	WebhookID string `json:"webhook_id"`
}

// AsynqEnqueuer is the dispatcher-side half of the delivery queue.
type AsynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) AsynqEnqueuer {
	return AsynqEnqueuer{client: client}
}

func (e AsynqEnqueuer) EnqueueDeliveryPump(ctx context.Context, webhookID value.WebhookID) error {
	payload, err := json.Marshal(deliveryPumpPayload{WebhookID: webhookID.String()})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	task := asynq.NewTask(TaskDeliveryPump, payload, asynq.Queue(QueueDeliveries))

	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("asynqClient.Enqueue: %w", err)
	}

	return nil
}

// DeliveryPump is the worker-side half consumed by the task handler.
type DeliveryPump interface {
	DeliverPending(ctx context.Context, webhookID value.WebhookID) (int, error)
}

// DeliveryPumpHandler adapts the delivery worker to the asynq mux.
func DeliveryPumpHandler(pump DeliveryPump) modules.AsynqHandler {
	return modules.AsynqHandler{
		Pattern: TaskDeliveryPump,
		Handle: func(ctx context.Context, task *asynq.Task) error {
			var payload deliveryPumpPayload
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return fmt.Errorf("json.Unmarshal: %w", err)
			}

			webhookID, err := value.ParseWebhookID(payload.WebhookID)
			if err != nil {
				return fmt.Errorf("value.ParseWebhookID: %w", err)
			}

			if _, err := pump.DeliverPending(ctx, webhookID); err != nil {
				return fmt.Errorf("pump.DeliverPending: %w", err)
			}

			return nil
		},
	}
}
