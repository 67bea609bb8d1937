package config

import "time"

type Arbitrage struct {
	// MinROI is the fractional gap a price drop must clear to qualify,
	// e.g. 0.1 means the previous price was at least 10% above the
	// current one.
	MinROI float64 `env:"MIN_ROI" envDefault:"0.1"`

	MaxInFlight   int           `env:"SCRAPE_MAX_IN_FLIGHT" envDefault:"8"`
	SourceTimeout time.Duration `env:"SCRAPE_SOURCE_TIMEOUT" envDefault:"10s"`
	BatchDeadline time.Duration `env:"SCRAPE_BATCH_DEADLINE" envDefault:"2m"`
	SkipCacheTTL  time.Duration `env:"SCRAPE_SKIP_CACHE_TTL" envDefault:"30m"`

	ScoutSources  []string      `env:"SCOUT_SOURCES" envSeparator:","`
	ScoutInterval time.Duration `env:"SCOUT_INTERVAL" envDefault:"5m"`
}
