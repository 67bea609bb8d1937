package config

import "time"

type Delivery struct {
	SweepInterval time.Duration `env:"DELIVERY_SWEEP_INTERVAL" envDefault:"15s"`
	BatchSize     int           `env:"DELIVERY_BATCH_SIZE" envDefault:"50"`
	MaxAttempts   int           `env:"DELIVERY_MAX_ATTEMPTS" envDefault:"5"`
	BackoffBase   time.Duration `env:"DELIVERY_BACKOFF_BASE" envDefault:"30s"`
	CallTimeout   time.Duration `env:"DELIVERY_CALL_TIMEOUT" envDefault:"10s"`
}
