package config

const (
	defaultHashAlgorithm       = "xxhash"
	defaultSimilarityThreshold = 0.85
	defaultIngestWorkers       = 4
	defaultIngestQueueSize     = 16
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
	defaultServerBind          = "127.0.0.1:7787"
)

// Default returns a Config populated with catalog defaults.
func Default() Config {
	return Config{
		Deduplicator: Deduplicator{
			Enable:              true,
			HashAlgorithm:       defaultHashAlgorithm,
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Ingest: Ingest{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
	}
}
