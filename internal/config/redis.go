package config

import "time"

// Redis is optional: with an empty address the dedupe guard and the asynq
// queue stay off and dispatch degrades to direct persistence only.
type Redis struct {
	Address            string        `env:"REDIS_ADDRESS"`
	Username           string        `env:"REDIS_USERNAME"`
	Password           string        `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber     int           `env:"REDIS_DATABASE_NUMBER" envDefault:"0"`
	PoolSize           int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConnections int           `env:"REDIS_MIN_IDLE_CONNECTIONS" envDefault:"2"`
	MaxIdleConnections int           `env:"REDIS_MAX_IDLE_CONNECTIONS" envDefault:"5"`
	DedupeBucket       time.Duration `env:"REDIS_DEDUPE_BUCKET" envDefault:"1h"`
	DedupeTTL          time.Duration `env:"REDIS_DEDUPE_TTL" envDefault:"1h"`
}

func (r Redis) Enabled() bool {
	return r.Address != ""
}
