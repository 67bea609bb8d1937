package contextx

import (
	"context"
	"fmt"
)

type WebhookID string

type contextKeyWebhookID struct{}

func (w WebhookID) String() string {
	return string(w)
}

func WithWebhookID(ctx context.Context, webhookID WebhookID) context.Context {
	return context.WithValue(ctx, contextKeyWebhookID{}, webhookID)
}

func WebhookIDFromContext(ctx context.Context) (WebhookID, error) {
	webhookID, ok := ctx.Value(contextKeyWebhookID{}).(WebhookID)
	if !ok {
		return "", fmt.Errorf("webhook id: %w", ErrNoValue)
	}

	return webhookID, nil
}
