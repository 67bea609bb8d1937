package persistence_test

import (
	"context"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
	"dealvoy/internal/infrastructure/persistence"
	"dealvoy/pkg/dbtest"
)

// testDatabase connects to the database named by TEST_PG_DSN and applies
// the schema. Tests are skipped when the variable is not set.
func testDatabase(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("set TEST_PG_DSN to run database tests")
	}

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, dbtest.MigrateFromFile(db, "../../../migrations/0001_init.sql"))

	return db
}

func seedWebhook(t *testing.T, db *sqlx.DB) value.WebhookID {
	t.Helper()

	webhook := &entity.Webhook{
		ID:       value.NewWebhookID(),
		Name:     "repo test",
		Endpoint: "http://127.0.0.1:1/hook",
		Active:   true,
	}

	require.NoError(t, persistence.NewWebhookRepository(db).Create(context.Background(), webhook))

	return webhook.ID
}

func seedLog(t *testing.T, repo *persistence.DeliveryLogRepository, webhookID value.WebhookID) *entity.DeliveryLog {
	t.Helper()

	log := &entity.DeliveryLog{
		WebhookID: webhookID,
		ItemUPC:   "012345678905",
		Price:     19.99,
		ROI:       0.25,
		Source:    "amazon",
		Status:    entity.DeliveryStatusQueued,
	}

	require.NoError(t, repo.Create(context.Background(), log))

	return log
}

func loadLog(t *testing.T, repo *persistence.DeliveryLogRepository, webhookID value.WebhookID) entity.DeliveryLog {
	t.Helper()

	logs, err := repo.ListRecent(context.Background(), webhookID, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	return logs[0]
}

func TestDeliveryLogRepository_MarkFailed(t *testing.T) {
	db := testDatabase(t)
	repo := persistence.NewDeliveryLogRepository(db)
	ctx := context.Background()

	t.Run("row goes back to retry below the attempt cap", func(t *testing.T) {
		rq := require.New(t)

		webhookID := seedWebhook(t, db)
		log := seedLog(t, repo, webhookID)

		rq.NoError(repo.MarkFailed(ctx, log.ID, "503 unavailable", 3))

		got := loadLog(t, repo, webhookID)
		rq.Equal(entity.DeliveryStatusRetry, got.Status)
		rq.Equal(1, got.Attempts)
		rq.Equal("503 unavailable", got.Response)
	})

	t.Run("row becomes failed at the attempt cap", func(t *testing.T) {
		rq := require.New(t)

		webhookID := seedWebhook(t, db)
		log := seedLog(t, repo, webhookID)

		_, err := db.ExecContext(ctx,
			`UPDATE webhook_logs SET status = $1, attempts = 2 WHERE id = $2`,
			string(entity.DeliveryStatusRetry), log.ID)
		rq.NoError(err)

		rq.NoError(repo.MarkFailed(ctx, log.ID, "503 unavailable", 3))

		got := loadLog(t, repo, webhookID)
		rq.Equal(entity.DeliveryStatusFailed, got.Status)
		rq.Equal(3, got.Attempts)
	})

	t.Run("unknown row yields not found", func(t *testing.T) {
		rq := require.New(t)

		rq.Error(repo.MarkFailed(ctx, -1, "boom", 3))
	})
}

func TestDeliveryLogRepository_MarkDelivered(t *testing.T) {
	db := testDatabase(t)
	repo := persistence.NewDeliveryLogRepository(db)
	ctx := context.Background()

	rq := require.New(t)

	webhookID := seedWebhook(t, db)
	log := seedLog(t, repo, webhookID)

	rq.NoError(repo.MarkDelivered(ctx, log.ID, "200 ok"))

	got := loadLog(t, repo, webhookID)
	rq.Equal(entity.DeliveryStatusDelivered, got.Status)
	rq.Equal(1, got.Attempts)
	rq.Equal("200 ok", got.Response)

	claimed, err := repo.ClaimQueued(ctx, webhookID, 10, time.Second)
	rq.NoError(err)
	rq.Empty(claimed)
}

func TestDeliveryLogRepository_ClaimQueued(t *testing.T) {
	db := testDatabase(t)
	repo := persistence.NewDeliveryLogRepository(db)
	ctx := context.Background()

	t.Run("claimed rows stay out of reach of a second claimer", func(t *testing.T) {
		rq := require.New(t)

		webhookID := seedWebhook(t, db)
		first := seedLog(t, repo, webhookID)
		second := seedLog(t, repo, webhookID)

		claimed, err := repo.ClaimQueued(ctx, webhookID, 10, 30*time.Second)
		rq.NoError(err)
		rq.Len(claimed, 2)
		rq.ElementsMatch([]int64{first.ID, second.ID},
			[]int64{claimed[0].ID, claimed[1].ID})

		again, err := repo.ClaimQueued(ctx, webhookID, 10, 30*time.Second)
		rq.NoError(err)
		rq.Empty(again)
	})

	t.Run("stale claim becomes due again after the backoff window", func(t *testing.T) {
		rq := require.New(t)

		webhookID := seedWebhook(t, db)
		log := seedLog(t, repo, webhookID)

		claimed, err := repo.ClaimQueued(ctx, webhookID, 10, time.Millisecond)
		rq.NoError(err)
		rq.Len(claimed, 1)

		time.Sleep(50 * time.Millisecond)

		again, err := repo.ClaimQueued(ctx, webhookID, 10, time.Millisecond)
		rq.NoError(err)
		rq.Len(again, 1)
		rq.Equal(log.ID, again[0].ID)
	})

	t.Run("retry row inside its backoff window is not claimed", func(t *testing.T) {
		rq := require.New(t)

		webhookID := seedWebhook(t, db)
		log := seedLog(t, repo, webhookID)

		rq.NoError(repo.MarkFailed(ctx, log.ID, "503 unavailable", 5))

		claimed, err := repo.ClaimQueued(ctx, webhookID, 10, time.Hour)
		rq.NoError(err)
		rq.Empty(claimed)
	})

	t.Run("retry row past its backoff window is claimed", func(t *testing.T) {
		rq := require.New(t)

		webhookID := seedWebhook(t, db)
		log := seedLog(t, repo, webhookID)

		rq.NoError(repo.MarkFailed(ctx, log.ID, "503 unavailable", 5))

		_, err := db.ExecContext(ctx,
			`UPDATE webhook_logs SET updated_at = now() - interval '10 minutes' WHERE id = $1`,
			log.ID)
		rq.NoError(err)

		claimed, err := repo.ClaimQueued(ctx, webhookID, 10, time.Minute)
		rq.NoError(err)
		rq.Len(claimed, 1)
		rq.Equal(log.ID, claimed[0].ID)
		rq.Equal(1, claimed[0].Attempts)
	})

	t.Run("runaway attempt counts stay parked instead of wrapping", func(t *testing.T) {
		rq := require.New(t)

		webhookID := seedWebhook(t, db)
		log := seedLog(t, repo, webhookID)

		_, err := db.ExecContext(ctx,
			`UPDATE webhook_logs SET status = $1, attempts = 40, updated_at = now() - interval '1 day' WHERE id = $2`,
			string(entity.DeliveryStatusRetry), log.ID)
		rq.NoError(err)

		claimed, err := repo.ClaimQueued(ctx, webhookID, 10, 30*time.Second)
		rq.NoError(err)
		rq.Empty(claimed)
	})
}
