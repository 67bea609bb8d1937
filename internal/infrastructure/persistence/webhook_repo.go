package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"dealvoy/internal/domain"
	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
	"dealvoy/pkg/errcodes"
)

type WebhookRepository struct {
	db *sqlx.DB
}

func NewWebhookRepository(db *sqlx.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, webhook *entity.Webhook) error {
	if webhook.ID.IsZero() {
		webhook.ID = value.NewWebhookID()
	}

	if webhook.CreatedAt.IsZero() {
		webhook.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO webhooks (id, name, endpoint, secret, active, created_at)
		VALUES (:id, :name, :endpoint, :secret, :active, :created_at)`

	params := map[string]any{
		"id":         webhook.ID.String(),
		"name":       webhook.Name,
		"endpoint":   webhook.Endpoint,
		"secret":     webhook.Secret,
		"active":     webhook.Active,
		"created_at": webhook.CreatedAt,
	}

	if _, err := r.db.NamedExecContext(ctx, query, params); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert webhook")
	}

	return nil
}

func (r *WebhookRepository) GetByID(ctx context.Context, id value.WebhookID) (*entity.Webhook, error) {
	query := `
		SELECT id, name, endpoint, secret, active, created_at
		FROM webhooks
		WHERE id = $1`

	var schema webhookSchema
	if err := r.db.GetContext(ctx, &schema, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.WebhookNotFound, "webhook not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get webhook")
	}

	return schema.toDomain()
}

// ListActive returns every webhook that may receive deliveries. Used by the
// scout worker to fan qualifying batch items out to all subscribers.
func (r *WebhookRepository) ListActive(ctx context.Context) ([]entity.Webhook, error) {
	query := `
		SELECT id, name, endpoint, secret, active, created_at
		FROM webhooks
		WHERE active
		ORDER BY created_at ASC`

	var schemas []webhookSchema
	if err := r.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list webhooks")
	}

	webhooks := make([]entity.Webhook, 0, len(schemas))
	for _, s := range schemas {
		webhook, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert webhook")
		}
		webhooks = append(webhooks, *webhook)
	}

	return webhooks, nil
}

func (r *WebhookRepository) SetActive(ctx context.Context, id value.WebhookID, active bool) error {
	query := `UPDATE webhooks SET active = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, active, id.String())
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update webhook")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.WebhookNotFound, "webhook not found")
	}

	return nil
}
