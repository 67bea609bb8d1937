package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dealvoy/internal/domain"
	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
	"dealvoy/pkg/errcodes"
)

// DeliveryLogRepository owns the append-only webhook_logs audit table.
//
// The dispatch core only ever calls Create; the claim/mark methods are the
// contract consumed by the delivery worker, which is the sole writer of
// status transitions.
type DeliveryLogRepository struct {
	db *sqlx.DB
}

func NewDeliveryLogRepository(db *sqlx.DB) *DeliveryLogRepository {
	return &DeliveryLogRepository{db: db}
}

func (r *DeliveryLogRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// Create appends one delivery-log row in its own transaction. Rows are
// committed independently on purpose: a failing insert must not take
// previously queued rows down with it.
func (r *DeliveryLogRepository) Create(ctx context.Context, log *entity.DeliveryLog) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		timestamp := log.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now()
		}

		query := `
			INSERT INTO webhook_logs (webhook_id, item_upc, price, roi, source, status, attempts, response, timestamp, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING id`

		if err := tx.GetContext(ctx, &log.ID, query,
			log.WebhookID.String(),
			log.ItemUPC,
			log.Price,
			log.ROI,
			log.Source,
			string(log.Status),
			log.Attempts,
			log.Response,
			timestamp,
		); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to insert delivery log")
		}

		log.Timestamp = timestamp
		log.UpdatedAt = timestamp

		return nil
	})
}

// ListRecent returns the newest rows for a webhook, capped at limit.
// A webhook with zero rows yields a NotFound error.
func (r *DeliveryLogRepository) ListRecent(ctx context.Context, webhookID value.WebhookID, limit int) ([]entity.DeliveryLog, error) {
	query := `
		SELECT id, webhook_id, item_upc, price, roi, source, status, attempts, response, timestamp, updated_at
		FROM webhook_logs
		WHERE webhook_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`

	var schemas []deliveryLogSchema
	if err := r.db.SelectContext(ctx, &schemas, query, webhookID.String(), limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list delivery logs")
	}

	if len(schemas) == 0 {
		return nil, domain.NewError(errcodes.DeliveryLogNotFound,
			fmt.Sprintf("no logs found for webhook_id %s", webhookID))
	}

	logs := make([]entity.DeliveryLog, 0, len(schemas))
	for _, s := range schemas {
		log, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert delivery log")
		}
		logs = append(logs, *log)
	}

	return logs, nil
}

// ClaimQueued claims and returns up to limit rows that are due for
// delivery. The claim bumps updated_at inside the same locking
// transaction, so a claimed row stays out of reach of other claimers
// for its backoff window even after the row locks are released on
// commit. A row is due when it has never been claimed, or when
// backoff * 2^(attempts-1) has elapsed since its last claim or attempt.
// SKIP LOCKED keeps claimers running in parallel from blocking on the
// same rows.
func (r *DeliveryLogRepository) ClaimQueued(ctx context.Context, webhookID value.WebhookID, limit int, backoff time.Duration) ([]entity.DeliveryLog, error) {
	var logs []entity.DeliveryLog

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE webhook_logs
			SET updated_at = now()
			WHERE id IN (
				SELECT id
				FROM webhook_logs
				WHERE status IN ($1, $2)
				  AND (
				      (attempts = 0 AND updated_at = timestamp)
				      OR updated_at + make_interval(secs => $3 * power(2, GREATEST(attempts, 1) - 1)) <= now()
				  )`
		args := []any{string(entity.DeliveryStatusQueued), string(entity.DeliveryStatusRetry), backoff.Seconds()}

		if !webhookID.IsZero() {
			query += ` AND webhook_id = $4`
			args = append(args, webhookID.String())
		}

		query += fmt.Sprintf(`
				ORDER BY timestamp ASC
				LIMIT %d
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, webhook_id, item_upc, price, roi, source, status, attempts, response, timestamp, updated_at`, limit)

		var schemas []deliveryLogSchema
		if err := tx.SelectContext(ctx, &schemas, query, args...); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to claim queued logs")
		}

		for _, s := range schemas {
			log, err := s.toDomain()
			if err != nil {
				return domain.WrapError(err, errcodes.InternalServerError, "failed to convert delivery log")
			}
			logs = append(logs, *log)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// MarkDelivered records a successful delivery attempt.
func (r *DeliveryLogRepository) MarkDelivered(ctx context.Context, id int64, response string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE webhook_logs
			SET status = $1, attempts = attempts + 1, response = $2, updated_at = now()
			WHERE id = $3`

		return r.execUpdateTx(ctx, tx, query, string(entity.DeliveryStatusDelivered), response, id)
	})
}

// MarkFailed records a failed attempt: the row goes back to RETRY while
// attempts stay below maxAttempts, and becomes terminally FAILED at the
// cap.
func (r *DeliveryLogRepository) MarkFailed(ctx context.Context, id int64, response string, maxAttempts int) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE webhook_logs
			SET attempts = attempts + 1,
			    response = $1,
			    status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE $4 END,
			    updated_at = now()
			WHERE id = $5`

		return r.execUpdateTx(ctx, tx, query,
			response,
			maxAttempts,
			string(entity.DeliveryStatusFailed),
			string(entity.DeliveryStatusRetry),
			id,
		)
	})
}

func (r *DeliveryLogRepository) execUpdateTx(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to execute update")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.DeliveryLogNotFound, "delivery log not found")
	}

	return nil
}
