// Command seedwebhook inserts a test webhook row and prints its id, for
// local runs against a fresh database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dealvoy/internal/config"
	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
	"dealvoy/internal/infrastructure/persistence"
	"dealvoy/pkg/application/connectors"
)

func main() {
	name := flag.String("name", "test-webhook", "webhook display name")
	endpoint := flag.String("endpoint", "https://example.com/hook", "delivery endpoint URL")
	secret := flag.String("secret", "", "optional signing secret")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx, *name, *endpoint, *secret); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, name, endpoint, secret string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	webhook := entity.Webhook{
		ID:       value.NewWebhookID(),
		Name:     name,
		Endpoint: endpoint,
		Secret:   secret,
		Active:   true,
	}

	if err := persistence.NewWebhookRepository(db).Create(ctx, &webhook); err != nil {
		return fmt.Errorf("webhookRepo.Create: %w", err)
	}

	fmt.Println(webhook.ID.String())

	return nil
}
