package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Deduplicator.HashAlgorithm {
	case "xxhash", "md5", "sha256":
	default:
		return fmt.Errorf("deduplicator.hash_algorithm %q is not supported (xxhash, md5, sha256)", c.Deduplicator.HashAlgorithm)
	}
	if c.Deduplicator.SimilarityThreshold < 0 || c.Deduplicator.SimilarityThreshold > 1 {
		return errors.New("deduplicator.similarity_threshold must be between 0 and 1")
	}
	if c.Ingest.Workers < 1 {
		return errors.New("ingest.workers must be at least 1")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console, json)", c.Logging.Format)
	}
	return nil
}
