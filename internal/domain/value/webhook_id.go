package value

import (
	"fmt"

	"github.com/google/uuid"
)

// WebhookID identifies a subscriber webhook.
type WebhookID uuid.UUID

func NewWebhookID() WebhookID {
	return WebhookID(uuid.New())
}

func ParseWebhookID(s string) (WebhookID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return WebhookID{}, fmt.Errorf("uuid.Parse: %w", err)
	}

	return WebhookID(parsed), nil
}

func (id WebhookID) String() string {
	return uuid.UUID(id).String()
}

func (id WebhookID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}
