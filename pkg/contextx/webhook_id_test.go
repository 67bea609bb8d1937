package contextx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dealvoy/pkg/contextx"
)

func TestWebhookID(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	var testWebhookIDEmpty contextx.WebhookID

	testWebhookIDNotEmpty := contextx.WebhookID("7e58bf28-58c7-4b27-a83e-0f2a6f7a3a11")

	webhookID, err := contextx.WebhookIDFromContext(ctx)
	rq.Equal(testWebhookIDEmpty, webhookID)
	rq.ErrorIs(err, contextx.ErrNoValue)
	rq.ErrorContains(err, "webhook id: no value in context")

	ctx = contextx.WithWebhookID(ctx, testWebhookIDNotEmpty)

	webhookID, err = contextx.WebhookIDFromContext(ctx)
	rq.Equal(testWebhookIDNotEmpty, webhookID)
	rq.NoError(err)
}
