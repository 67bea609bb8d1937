package worker

import "dealvoy/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals // skip
