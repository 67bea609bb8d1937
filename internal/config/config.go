package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTP
	Postgres  Postgres
	Redis     Redis
	Arbitrage Arbitrage
	Delivery  Delivery
	Bot       Bot
}

// Bot is optional: with an empty token the Telegram notifier stays off.
type Bot struct {
	Token  string `env:"BOT_TOKEN"`
	ChatID int64  `env:"BOT_CHAT_ID"`
}

func (b Bot) Enabled() bool {
	return b.Token != "" && b.ChatID != 0
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
