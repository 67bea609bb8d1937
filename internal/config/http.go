package config

import "time"

type HTTP struct {
	ListenAddress       string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ProbeListenAddress  string        `env:"PROBE_LISTEN_ADDRESS" envDefault:":8091"`
	MetricListenAddress string        `env:"METRIC_LISTEN_ADDRESS" envDefault:":8092"`
	ReadHeaderTimeout   time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout     time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}
